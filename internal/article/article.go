package article

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

// Article is the scraped form of a news page. The scene image cache reads Images
// positionally, the script writer reads Title and Text.
type Article struct {
	Title    string   `json:"title"`
	Text     string   `json:"text"`
	Images   []string `json:"images"`
	TopImage string   `json:"top_image,omitempty"`
	URL      string   `json:"url,omitempty"`
}

// ParseCache reads an article cache document. Both the full article object and a
// bare JSON list of image URLs are accepted.
func ParseCache(data []byte) (Article, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return Article{}, errors.New("article cache is empty")
	}
	if trimmed[0] == '[' {
		var images []string
		if err := json.Unmarshal(trimmed, &images); err != nil {
			return Article{}, fmt.Errorf("decode article cache: %w", err)
		}
		return Article{Images: cleanList(images)}, nil
	}
	var a Article
	if err := json.Unmarshal(trimmed, &a); err != nil {
		return Article{}, fmt.Errorf("decode article cache: %w", err)
	}
	a.Images = cleanList(a.Images)
	return a, nil
}

// LoadCache reads the article cache at path. A missing file yields an empty
// Article and no error, since the cache is optional.
func LoadCache(path string) (Article, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Article{}, nil
	}
	if err != nil {
		return Article{}, fmt.Errorf("read article cache: %w", err)
	}
	return ParseCache(data)
}

// SaveCache writes a as indented JSON to path.
func SaveCache(path string, a Article) error {
	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return fmt.Errorf("encode article cache: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write article cache: %w", err)
	}
	return nil
}

// Excerpt returns Text cut to max runes with an ellipsis.
func (a Article) Excerpt(max int) string {
	r := []rune(a.Text)
	if max <= 0 || len(r) <= max {
		return a.Text
	}
	return string(r[:max]) + "..."
}

func cleanList(items []string) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, strings.TrimSpace(it))
	}
	return out
}
