package search

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"videofactory/internal/domain"
	"videofactory/internal/infra/credentials"
)

func TestSerperImagesRequestShape(t *testing.T) {
	var got serperRequest
	var key, path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key = r.Header.Get("X-API-KEY")
		path = r.URL.Path
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &got)
		_, _ = io.WriteString(w, `{"images":[{"imageUrl":"https://cnn.com/a.jpg","thumbnailUrl":"https://tbn.gstatic.com/a","domain":"cnn.com"}]}`)
	}))
	defer srv.Close()

	client := NewSerperClient(SerperOptions{
		BaseURL: srv.URL,
		Rotator: credentials.NewRotator(credentials.ProviderSerper, []string{"s1"}),
		Locale:  "en-US",
	})
	images, err := client.Images(context.Background(), "storm", 30)
	if err != nil {
		t.Fatalf("Images error: %v", err)
	}
	if len(images) != 1 || images[0].ImageURL != "https://cnn.com/a.jpg" {
		t.Fatalf("unexpected images %#v", images)
	}
	if key != "s1" || path != "/images" {
		t.Fatalf("key=%q path=%q", key, path)
	}
	if got.Q != "storm" || got.Num != 30 || got.GL != "us" || got.HL != "en" {
		t.Fatalf("unexpected body %#v", got)
	}
}

func TestSerperRotatesOnQuota(t *testing.T) {
	var keys []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		k := r.Header.Get("X-API-KEY")
		keys = append(keys, k)
		if k == "s1" {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = io.WriteString(w, `{"message":"Not enough credits"}`)
			return
		}
		_, _ = io.WriteString(w, `{"news":[{"title":"t","source":"AP"}]}`)
	}))
	defer srv.Close()

	rot := credentials.NewRotator(credentials.ProviderSerper, []string{"s1", "s2"})
	client := NewSerperClient(SerperOptions{BaseURL: srv.URL, Rotator: rot})
	news, err := client.News(context.Background(), "q", 20)
	if err != nil {
		t.Fatalf("News error: %v", err)
	}
	if len(news) != 1 || news[0].Source != "AP" {
		t.Fatalf("unexpected news %#v", news)
	}
	if len(keys) != 2 || keys[1] != "s2" || rot.Cursor() != 1 {
		t.Fatalf("keys=%v cursor=%d", keys, rot.Cursor())
	}
}

func TestSerperWithoutKeys(t *testing.T) {
	client := NewSerperClient(SerperOptions{BaseURL: "http://127.0.0.1:1", Rotator: credentials.NewRotator(credentials.ProviderSerper, nil)})
	if _, err := client.Images(context.Background(), "q", 30); !errors.Is(err, domain.ErrNoCredentials) {
		t.Fatalf("expected ErrNoCredentials, got %v", err)
	}
}

func TestLocaleParams(t *testing.T) {
	cases := []struct{ in, gl, hl string }{
		{"en-US", "us", "en"},
		{"ko-KR", "kr", "ko"},
		{"de", "de", "de"},
		{"", "us", "en"},
		{"!!", "us", "en"},
	}
	for _, tc := range cases {
		gl, hl := LocaleParams(tc.in)
		if gl != tc.gl || hl != tc.hl {
			t.Fatalf("LocaleParams(%q) = %s/%s, want %s/%s", tc.in, gl, hl, tc.gl, tc.hl)
		}
	}
}
