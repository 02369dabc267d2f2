package search

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"testing"

	"videofactory/internal/domain"
)

type scriptedBackend struct {
	queries []string
	answers [][]Image
	errs    []error
}

func (b *scriptedBackend) Images(_ context.Context, query string, num int) ([]Image, error) {
	i := len(b.queries)
	b.queries = append(b.queries, query)
	if i < len(b.errs) && b.errs[i] != nil {
		return nil, b.errs[i]
	}
	if i < len(b.answers) {
		return b.answers[i], nil
	}
	return nil, nil
}

func TestQueriesShape(t *testing.T) {
	c := NewCascade(&scriptedBackend{}, CascadeOptions{Rand: rand.New(rand.NewSource(1))})
	qs := c.Queries("wildfire in California")
	if len(qs) != 3 {
		t.Fatalf("expected 3 tiers, got %d", len(qs))
	}
	if qs[0].Tier != TierSiteRestricted || strings.Count(qs[0].Text, "site:") != 6 || strings.Count(qs[0].Text, " OR ") != 5 {
		t.Fatalf("unexpected site tier %q", qs[0].Text)
	}
	if !strings.HasPrefix(qs[0].Text, "wildfire in California site:") {
		t.Fatalf("site tier does not start with prompt: %q", qs[0].Text)
	}
	for _, op := range strings.Split(strings.TrimPrefix(qs[0].Text, "wildfire in California "), " OR ") {
		site := strings.TrimPrefix(op, "site:")
		found := false
		for _, s := range MajorNewsSites {
			found = found || s == site
		}
		if !found {
			t.Fatalf("site %q not in curated list", site)
		}
	}
	if qs[1].Text != "wildfire in California" {
		t.Fatalf("broad tier = %q", qs[1].Text)
	}
	if qs[2].Text != "wildfire in California news photo high resolution real photo -watermark -logo" {
		t.Fatalf("expanded tier = %q", qs[2].Text)
	}
}

func TestSearchWithFallbackStopsAtFirstNonEmptyTier(t *testing.T) {
	backend := &scriptedBackend{
		answers: [][]Image{
			nil,
			{{ImageURL: "https://a.com/1.jpg", ThumbnailURL: "https://t/1"}, {ImageURL: "https://b.com/2.jpg", ThumbnailURL: "https://t/2"}},
		},
	}
	c := NewCascade(backend, CascadeOptions{})
	got := c.SearchWithFallback(context.Background(), "storm", 1)
	if len(backend.queries) != 2 {
		t.Fatalf("expected 2 queries, got %d", len(backend.queries))
	}
	want := []domain.CandidateResource{
		{URL: "https://a.com/1.jpg", Kind: domain.CandidateOriginal, SourceDomain: "a.com"},
		{URL: "https://b.com/2.jpg", Kind: domain.CandidateOriginal, SourceDomain: "b.com"},
		{URL: "https://t/1", Kind: domain.CandidateThumbnail, SourceDomain: "a.com"},
		{URL: "https://t/2", Kind: domain.CandidateThumbnail, SourceDomain: "b.com"},
	}
	if len(got) != len(want) {
		t.Fatalf("got %#v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("candidate %d = %#v, want %#v", i, got[i], want[i])
		}
	}
}

func TestSearchWithFallbackTreatsErrorsAsEmpty(t *testing.T) {
	backend := &scriptedBackend{errs: []error{errors.New("boom"), errors.New("boom"), errors.New("boom")}}
	c := NewCascade(backend, CascadeOptions{})
	if got := c.SearchWithFallback(context.Background(), "storm", 2); len(got) != 0 {
		t.Fatalf("expected no candidates, got %#v", got)
	}
	if len(backend.queries) != 3 {
		t.Fatalf("expected all 3 tiers to be tried, got %d", len(backend.queries))
	}
}

func TestSearchWithFallbackEmptyPrompt(t *testing.T) {
	backend := &scriptedBackend{}
	c := NewCascade(backend, CascadeOptions{})
	if got := c.SearchWithFallback(context.Background(), "  ", 1); got != nil {
		t.Fatalf("expected nil, got %#v", got)
	}
	if len(backend.queries) != 0 {
		t.Fatal("empty prompt should not hit the backend")
	}
}

func TestCandidatesUsesDomainFallback(t *testing.T) {
	got := Candidates([]Image{{ThumbnailURL: "https://t/x", Domain: "Reuters.com"}})
	if len(got) != 1 || got[0].Kind != domain.CandidateThumbnail || got[0].SourceDomain != "reuters.com" {
		t.Fatalf("unexpected candidates %#v", got)
	}
}
