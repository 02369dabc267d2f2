package script

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"videofactory/internal/article"
	"videofactory/internal/domain"
	"videofactory/internal/infra/credentials"
	"videofactory/internal/providers/search"
)

type fakeText struct {
	keys    []string
	prompts []string
	answer  func(call int, key string) (string, error)
}

func (f *fakeText) GenerateText(_ context.Context, apiKey, prompt string, jsonOutput bool) (string, error) {
	if !jsonOutput {
		return "", errors.New("expected json output")
	}
	f.keys = append(f.keys, apiKey)
	f.prompts = append(f.prompts, prompt)
	return f.answer(len(f.keys), apiKey)
}

type fakeNews struct {
	queries []string
	items   []search.NewsItem
	err     error
}

func (f *fakeNews) News(_ context.Context, query string, num int) ([]search.NewsItem, error) {
	f.queries = append(f.queries, query)
	return f.items, f.err
}

const storyJSON = `{"title":"Robots","scenes":[{"image_prompt":"a robot","narration":"Hello *world*"},{"image_prompt":"a city","narration":"Bye"}]}`

func noSleep(context.Context, time.Duration) error { return nil }

func fixedNow() time.Time { return time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC) }

func newWriter(t *testing.T, client TextClient, news NewsSearcher, keys ...string) (*Writer, *credentials.Rotator) {
	t.Helper()
	rot := credentials.NewRotator(credentials.ProviderGemini, keys)
	w, err := NewWriter(Options{Client: client, Rotator: rot, News: news, Now: fixedNow, Sleep: noSleep})
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	return w, rot
}

func TestWriteRotatesOnQuotaAndStripsFences(t *testing.T) {
	client := &fakeText{answer: func(call int, key string) (string, error) {
		if key == "k1" {
			return "", errors.New("429 RESOURCE_EXHAUSTED")
		}
		return "```json\n" + storyJSON + "\n```", nil
	}}
	w, rot := newWriter(t, client, nil, "k1", "k2")

	res, err := w.Write(context.Background(), Request{Topic: "robots", Mode: domain.ModeShorts, Language: "en"})
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if len(res.Story.Scenes) != 2 || res.Story.Scenes[0].Prompt != "a robot" || res.Story.Title != "Robots" {
		t.Fatalf("unexpected story %#v", res.Story)
	}
	if strings.Contains(string(res.Document), "```") {
		t.Fatalf("fence kept in document: %s", res.Document)
	}
	if got := strings.Join(client.keys, ","); got != "k1,k2" {
		t.Fatalf("keys used = %s", got)
	}
	if rot.Cursor() != 1 {
		t.Fatalf("cursor = %d, want 1", rot.Cursor())
	}
}

func TestWriteStopsOnFatalError(t *testing.T) {
	client := &fakeText{answer: func(int, string) (string, error) {
		return "", errors.New("invalid argument: malformed request")
	}}
	w, rot := newWriter(t, client, nil, "k1", "k2", "k3")

	if _, err := w.Write(context.Background(), Request{Topic: "x"}); err == nil {
		t.Fatal("expected error")
	}
	if len(client.keys) != 1 || rot.Cursor() != 0 {
		t.Fatalf("calls = %d cursor = %d", len(client.keys), rot.Cursor())
	}
}

func TestWriteExhaustsPoolOnce(t *testing.T) {
	client := &fakeText{answer: func(int, string) (string, error) {
		return "", errors.New("quota exceeded")
	}}
	w, _ := newWriter(t, client, nil, "k1", "k2")

	_, err := w.Write(context.Background(), Request{Topic: "x"})
	if !errors.Is(err, domain.ErrGenerationExhausted) {
		t.Fatalf("expected exhausted, got %v", err)
	}
	if len(client.keys) != 2 {
		t.Fatalf("calls = %d, want pool size", len(client.keys))
	}
}

func TestWriteRejectsBadDocument(t *testing.T) {
	client := &fakeText{answer: func(int, string) (string, error) { return "no json here", nil }}
	w, _ := newWriter(t, client, nil, "k1")
	if _, err := w.Write(context.Background(), Request{Topic: "x"}); !errors.Is(err, domain.ErrInvalidStory) {
		t.Fatalf("expected ErrInvalidStory, got %v", err)
	}
}

func TestWriteNewsModeUsesHeadlines(t *testing.T) {
	news := &fakeNews{items: []search.NewsItem{{Source: "Reuters", Date: "1 hour ago", Title: "Markets rally", Snippet: "Stocks up"}}}
	client := &fakeText{answer: func(int, string) (string, error) { return storyJSON, nil }}
	w, _ := newWriter(t, client, news, "k1")

	if _, err := w.Write(context.Background(), Request{Topic: TopNewsTopic, Mode: domain.ModeNewsShorts}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if len(news.queries) != 1 || !strings.Contains(news.queries[0], "2026-03-02") {
		t.Fatalf("queries = %v", news.queries)
	}
	if !strings.Contains(client.prompts[0], "- [Reuters | 1 hour ago] Markets rally: Stocks up") {
		t.Fatalf("prompt missing headline:\n%s", client.prompts[0])
	}
}

func TestWriteCreativeModeSkipsNews(t *testing.T) {
	news := &fakeNews{}
	client := &fakeText{answer: func(int, string) (string, error) { return storyJSON, nil }}
	w, _ := newWriter(t, client, news, "k1")
	if _, err := w.Write(context.Background(), Request{Topic: "robots", Mode: domain.ModeVideo}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if len(news.queries) != 0 {
		t.Fatalf("news searched in creative mode: %v", news.queries)
	}
}

func TestWriteURLModeNeedsArticle(t *testing.T) {
	client := &fakeText{answer: func(int, string) (string, error) { return storyJSON, nil }}
	w, _ := newWriter(t, client, nil, "k1")

	if _, err := w.Write(context.Background(), Request{Mode: domain.ModeURLNewsShorts}); err == nil {
		t.Fatal("expected error without article")
	}
	a := &article.Article{Title: "Storm", Text: "The storm made landfall."}
	if _, err := w.Write(context.Background(), Request{Mode: domain.ModeURLNewsShorts, Article: a}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if !strings.Contains(client.prompts[0], "Title: Storm") {
		t.Fatalf("prompt missing article:\n%s", client.prompts[0])
	}
}

func TestNewsContextFallsBack(t *testing.T) {
	w, _ := newWriter(t, &fakeText{}, &fakeNews{err: errors.New("boom")}, "k1")
	if got := w.NewsContext(context.Background(), "ai"); got != fallbackNewsText {
		t.Fatalf("context = %q", got)
	}
}

func TestExtractJSON(t *testing.T) {
	cases := map[string]string{
		"```json\n{\"a\":1}\n```":    `{"a":1}`,
		"Here you go: [1,2] thanks": `[1,2]`,
		`{"a":1}`:                   `{"a":1}`,
	}
	for in, want := range cases {
		if got := ExtractJSON(in); got != want {
			t.Fatalf("ExtractJSON(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSaveStory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "story.json")
	if err := SaveStory(path, []byte(storyJSON)); err != nil {
		t.Fatalf("SaveStory: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if _, err := domain.ParseStory(data); err != nil {
		t.Fatalf("saved story does not parse: %v", err)
	}
	if err := SaveStory(path, []byte("nope")); err == nil {
		t.Fatal("expected error for invalid json")
	}
}
