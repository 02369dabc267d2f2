package search

import (
	"context"
	"math/rand"
	"strings"
	"sync"
	"time"

	"videofactory/internal/domain"
	"videofactory/internal/infra"
	"videofactory/internal/media"
)

const (
	DefaultResultCount = 30
	DefaultSiteSample  = 6

	expandedQualifiers = "news photo high resolution real photo -watermark -logo"
)

// MajorNewsSites feed the site-restricted tier.
var MajorNewsSites = []string{
	"cnn.com", "foxnews.com", "usatoday.com", "reuters.com", "apnews.com",
	"bbc.com", "abcnews.go.com", "cbsnews.com", "nbcnews.com", "nytimes.com",
	"washingtonpost.com", "wsj.com", "bloomberg.com", "npr.org", "theguardian.com",
}

// Tier names a query stage of the cascade.
type Tier string

const (
	TierSiteRestricted Tier = "site_restricted"
	TierBroad          Tier = "broad"
	TierExpanded       Tier = "expanded"
)

// Query is one tier's query text.
type Query struct {
	Tier Tier
	Text string
}

// CascadeOptions configures a Cascade. Zero values pick the defaults.
type CascadeOptions struct {
	Sites       []string
	SiteSample  int
	ResultCount int
	Rand        *rand.Rand
	Logger      *infra.Logger
}

// Cascade runs up to three image queries, from narrow to broad, and stops at the
// first one that returns anything.
type Cascade struct {
	backend Backend
	sites   []string
	sample  int
	num     int
	logger  *infra.Logger

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewCascade(backend Backend, opts CascadeOptions) *Cascade {
	sites := opts.Sites
	if len(sites) == 0 {
		sites = MajorNewsSites
	}
	sample := opts.SiteSample
	if sample <= 0 {
		sample = DefaultSiteSample
	}
	if sample > len(sites) {
		sample = len(sites)
	}
	num := opts.ResultCount
	if num <= 0 {
		num = DefaultResultCount
	}
	rnd := opts.Rand
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Cascade{
		backend: backend,
		sites:   sites,
		sample:  sample,
		num:     num,
		logger:  infra.OrNop(opts.Logger),
		rnd:     rnd,
	}
}

// Queries builds the three tier queries for basePrompt. The site sample is drawn
// fresh on every call.
func (c *Cascade) Queries(basePrompt string) []Query {
	basePrompt = strings.TrimSpace(basePrompt)
	operators := make([]string, 0, c.sample)
	for _, site := range c.sampleSites() {
		operators = append(operators, "site:"+site)
	}
	return []Query{
		{Tier: TierSiteRestricted, Text: basePrompt + " " + strings.Join(operators, " OR ")},
		{Tier: TierBroad, Text: basePrompt},
		{Tier: TierExpanded, Text: basePrompt + " " + expandedQualifiers},
	}
}

// SearchWithFallback returns the candidates of the first tier that yields results,
// all originals in rank order followed by all thumbnails. Backend errors count as
// an empty tier.
func (c *Cascade) SearchWithFallback(ctx context.Context, basePrompt string, sceneIndex int) []domain.CandidateResource {
	if strings.TrimSpace(basePrompt) == "" {
		return nil
	}
	for _, q := range c.Queries(basePrompt) {
		if ctx.Err() != nil {
			return nil
		}
		images, err := c.backend.Images(ctx, q.Text, c.num)
		if err != nil {
			c.logger.Warn().Err(err).
				Int("scene", sceneIndex).
				Str("tier", string(q.Tier)).
				Msg("search: tier failed")
			continue
		}
		candidates := Candidates(images)
		c.logger.Debug().
			Int("scene", sceneIndex).
			Str("tier", string(q.Tier)).
			Int("results", len(images)).
			Int("candidates", len(candidates)).
			Msg("search: tier done")
		if len(candidates) > 0 {
			return candidates
		}
	}
	return nil
}

// Candidates flattens search hits into download candidates. Thumbnails carry the
// origin's domain so the blacklist still applies to them.
func Candidates(images []Image) []domain.CandidateResource {
	out := make([]domain.CandidateResource, 0, len(images)*2)
	for _, img := range images {
		if u := strings.TrimSpace(img.ImageURL); u != "" {
			out = append(out, domain.CandidateResource{
				URL:          u,
				Kind:         domain.CandidateOriginal,
				SourceDomain: originDomain(img),
			})
		}
	}
	for _, img := range images {
		if u := strings.TrimSpace(img.ThumbnailURL); u != "" {
			out = append(out, domain.CandidateResource{
				URL:          u,
				Kind:         domain.CandidateThumbnail,
				SourceDomain: originDomain(img),
			})
		}
	}
	return out
}

func originDomain(img Image) string {
	if host := media.HostOf(img.ImageURL); host != "" {
		return host
	}
	if d := strings.TrimSpace(img.Domain); d != "" {
		return strings.ToLower(d)
	}
	return media.HostOf(img.Link)
}

func (c *Cascade) sampleSites() []string {
	c.mu.Lock()
	perm := c.rnd.Perm(len(c.sites))
	c.mu.Unlock()
	out := make([]string, 0, c.sample)
	for _, i := range perm[:c.sample] {
		out = append(out, c.sites[i])
	}
	return out
}
