package article

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"videofactory/internal/infra"
	"videofactory/internal/media"
)

const (
	defaultScrapeTimeout = 15 * time.Second
	minArticleText       = 50
	maxPageBytes         = 8 << 20
)

// ErrNoContent means the page parsed but carried no usable article body.
var ErrNoContent = errors.New("article: no content extracted")

var whitespaceRe = regexp.MustCompile(`[ \t\r\f\v]+`)

// Scraper extracts title, body text and images from a news article URL.
type Scraper struct {
	client *http.Client
	logger *infra.Logger
}

func NewScraper(client *http.Client, logger *infra.Logger) *Scraper {
	if client == nil {
		client = media.NewBrowserClient(defaultScrapeTimeout)
	}
	return &Scraper{client: client, logger: infra.OrNop(logger)}
}

// Scrape downloads rawURL and extracts the article.
func (s *Scraper) Scrape(ctx context.Context, rawURL string) (Article, error) {
	base, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || base.Host == "" {
		return Article{}, fmt.Errorf("article: invalid url %q", rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base.String(), nil)
	if err != nil {
		return Article{}, err
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	resp, err := s.client.Do(req)
	if err != nil {
		return Article{}, fmt.Errorf("article: fetch: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Article{}, fmt.Errorf("article: fetch status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return Article{}, fmt.Errorf("article: parse: %w", err)
	}
	a := Extract(doc, base)
	if len([]rune(a.Text)) < minArticleText {
		return Article{}, ErrNoContent
	}
	s.logger.Info().
		Str("url", a.URL).
		Int("images", len(a.Images)).
		Int("chars", len(a.Text)).
		Msg("article: scraped")
	return a, nil
}

// Extract pulls the article out of a parsed document. base resolves relative links.
func Extract(doc *goquery.Document, base *url.URL) Article {
	a := Article{URL: base.String()}

	a.Title = strings.TrimSpace(metaContent(doc, "og:title"))
	if a.Title == "" {
		a.Title = strings.TrimSpace(doc.Find("title").First().Text())
	}

	doc.Find("script, style, noscript, iframe, svg, header, footer, nav, aside, form, .advertisement, .ad, .comments").Remove()

	content := doc.Find("article").First()
	if content.Length() == 0 {
		content = doc.Find("main, [itemprop=articleBody], .article-content, .post-content, #content").First()
	}
	if content.Length() == 0 {
		content = doc.Find("body")
	}

	var paragraphs []string
	content.Find("p").Each(func(_ int, p *goquery.Selection) {
		if text := cleanText(p.Text()); text != "" {
			paragraphs = append(paragraphs, text)
		}
	})
	if len(paragraphs) == 0 {
		if text := cleanText(content.Text()); text != "" {
			paragraphs = append(paragraphs, text)
		}
	}
	a.Text = strings.Join(paragraphs, "\n\n")

	seen := map[string]struct{}{}
	add := func(raw string) {
		abs := resolve(base, raw)
		if abs == "" {
			return
		}
		if _, ok := seen[abs]; ok {
			return
		}
		seen[abs] = struct{}{}
		a.Images = append(a.Images, abs)
	}
	if top := metaContent(doc, "og:image"); top != "" {
		a.TopImage = resolve(base, top)
		add(top)
	}
	content.Find("img").Each(func(_ int, img *goquery.Selection) {
		src := firstAttr(img, "data-src", "src")
		if src == "" {
			if srcset, ok := img.Attr("srcset"); ok {
				src = largestFromSrcset(srcset)
			}
		}
		add(src)
	})
	return a
}

func metaContent(doc *goquery.Document, property string) string {
	sel := doc.Find(fmt.Sprintf(`meta[property=%q], meta[name=%q]`, property, property)).First()
	v, _ := sel.Attr("content")
	return v
}

func firstAttr(s *goquery.Selection, names ...string) string {
	for _, n := range names {
		if v, ok := s.Attr(n); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// largestFromSrcset picks the last candidate, which by convention is the widest.
func largestFromSrcset(srcset string) string {
	parts := strings.Split(srcset, ",")
	for i := len(parts) - 1; i >= 0; i-- {
		fields := strings.Fields(parts[i])
		if len(fields) > 0 {
			return fields[0]
		}
	}
	return ""
}

func resolve(base *url.URL, raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.HasPrefix(raw, "data:") {
		return ""
	}
	ref, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	abs := base.ResolveReference(ref)
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return ""
	}
	if strings.HasSuffix(strings.ToLower(abs.Path), ".svg") {
		return ""
	}
	return abs.String()
}

func cleanText(s string) string {
	s = whitespaceRe.ReplaceAllString(s, " ")
	lines := strings.Split(s, "\n")
	out := lines[:0]
	for _, l := range lines {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return strings.Join(out, " ")
}
