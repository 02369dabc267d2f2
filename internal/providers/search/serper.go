package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/text/language"

	"videofactory/internal/domain"
	"videofactory/internal/infra"
	"videofactory/internal/infra/credentials"
)

const defaultSerperBaseURL = "https://google.serper.dev"

// Image is one entry of an image search response.
type Image struct {
	Title        string `json:"title,omitempty"`
	ImageURL     string `json:"imageUrl"`
	ImageWidth   int    `json:"imageWidth,omitempty"`
	ImageHeight  int    `json:"imageHeight,omitempty"`
	ThumbnailURL string `json:"thumbnailUrl,omitempty"`
	Source       string `json:"source,omitempty"`
	Domain       string `json:"domain,omitempty"`
	Link         string `json:"link,omitempty"`
	Position     int    `json:"position,omitempty"`
}

// NewsItem is one entry of a news search response.
type NewsItem struct {
	Title   string `json:"title"`
	Link    string `json:"link,omitempty"`
	Snippet string `json:"snippet,omitempty"`
	Date    string `json:"date,omitempty"`
	Source  string `json:"source,omitempty"`
}

// Backend runs a single image query.
type Backend interface {
	Images(ctx context.Context, query string, num int) ([]Image, error)
}

type serperRequest struct {
	Q   string `json:"q"`
	Num int    `json:"num"`
	GL  string `json:"gl,omitempty"`
	HL  string `json:"hl,omitempty"`
}

type serperImagesResponse struct {
	Images []Image `json:"images"`
}

type serperNewsResponse struct {
	News []NewsItem `json:"news"`
}

// StatusError is a non-2xx answer from the search backend.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("serper status %d: %s", e.StatusCode, e.Body)
}

// HTTPStatus exposes the status code to the credential classifier.
func (e *StatusError) HTTPStatus() int { return e.StatusCode }

// SerperOptions configures the Serper client.
type SerperOptions struct {
	BaseURL    string
	Rotator    *credentials.Rotator
	Locale     string
	HTTPClient *http.Client
	Logger     *infra.Logger
}

// SerperClient queries google.serper.dev with keys drawn from a rotator.
type SerperClient struct {
	baseURL string
	rotator *credentials.Rotator
	gl, hl  string
	client  *http.Client
	logger  *infra.Logger
}

// NewSerperClient builds a client. The locale is a BCP 47 tag such as "en-US".
func NewSerperClient(opts SerperOptions) *SerperClient {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultSerperBaseURL
	}
	gl, hl := LocaleParams(opts.Locale)
	return &SerperClient{
		baseURL: baseURL,
		rotator: opts.Rotator,
		gl:      gl,
		hl:      hl,
		client:  client,
		logger:  infra.OrNop(opts.Logger),
	}
}

// LocaleParams maps a language tag onto Serper's gl (country) and hl (language).
// Unparseable input falls back to us/en.
func LocaleParams(locale string) (string, string) {
	tag, err := language.Parse(strings.TrimSpace(locale))
	if err != nil || tag == language.Und {
		return "us", "en"
	}
	base, _ := tag.Base()
	region, _ := tag.Region()
	gl := strings.ToLower(region.String())
	if gl == "" || gl == "zz" {
		gl = "us"
	}
	return gl, base.String()
}

// Images runs an image query.
func (c *SerperClient) Images(ctx context.Context, query string, num int) ([]Image, error) {
	var out serperImagesResponse
	if err := c.post(ctx, "/images", query, num, &out); err != nil {
		return nil, err
	}
	return out.Images, nil
}

// News runs a news query; the script writer uses it for context.
func (c *SerperClient) News(ctx context.Context, query string, num int) ([]NewsItem, error) {
	var out serperNewsResponse
	if err := c.post(ctx, "/news", query, num, &out); err != nil {
		return nil, err
	}
	return out.News, nil
}

func (c *SerperClient) post(ctx context.Context, path, query string, num int, out any) error {
	body, err := json.Marshal(serperRequest{Q: query, Num: num, GL: c.gl, HL: c.hl})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	policy := credentials.Policy{
		Logger:    c.logger,
		MinWait:   500 * time.Millisecond,
		MaxWait:   2 * time.Second,
		Exhausted: domain.ErrProviderFailure,
	}
	_, err = credentials.Call(ctx, c.rotator, policy, func(ctx context.Context, cred credentials.Credential) (struct{}, error) {
		return struct{}{}, c.do(ctx, path, cred.Value, body, out)
	})
	return err
}

func (c *SerperClient) do(ctx context.Context, path, apiKey string, body []byte, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("X-API-KEY", apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("invoke serper: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode serper response: %w", err)
	}
	return nil
}
