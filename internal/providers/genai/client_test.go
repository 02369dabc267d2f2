package genai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestGenerateImageSendsKeyAndModalities(t *testing.T) {
	png := []byte("\x89PNG fake")
	var gotKey, gotPath string
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.URL.Query().Get("key")
		gotPath = r.URL.Path
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &body)
		_, _ = io.WriteString(w, `{"candidates":[{"content":{"parts":[{"text":"here"},{"inlineData":{"mimeType":"image/png","data":"`+base64.StdEncoding.EncodeToString(png)+`"}}]}}]}`)
	}))
	defer srv.Close()

	client := NewClient(Options{BaseURL: srv.URL, ImageModel: "img-model"})
	blob, err := client.GenerateImage(context.Background(), "key-2", "a cat")
	if err != nil {
		t.Fatalf("GenerateImage error: %v", err)
	}
	if string(blob.Data) != string(png) || blob.MimeType != "image/png" {
		t.Fatalf("unexpected blob %q %q", blob.Data, blob.MimeType)
	}
	if gotKey != "key-2" {
		t.Fatalf("key = %q", gotKey)
	}
	if gotPath != "/models/img-model:generateContent" {
		t.Fatalf("path = %q", gotPath)
	}
	cfg, _ := body["generationConfig"].(map[string]any)
	mods, _ := cfg["responseModalities"].([]any)
	if len(mods) != 2 || mods[1] != "IMAGE" {
		t.Fatalf("unexpected modalities %v", cfg)
	}
}

func TestGenerateImageAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = io.WriteString(w, `{"error":{"code":429,"message":"Quota exceeded","status":"RESOURCE_EXHAUSTED"}}`)
	}))
	defer srv.Close()

	client := NewClient(Options{BaseURL: srv.URL})
	_, err := client.GenerateImage(context.Background(), "k", "p")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.HTTPStatus() != 429 || apiErr.Status != "RESOURCE_EXHAUSTED" {
		t.Fatalf("unexpected api error %+v", apiErr)
	}
	if !strings.Contains(apiErr.Error(), "RESOURCE_EXHAUSTED") {
		t.Fatalf("error text lacks status: %q", apiErr.Error())
	}
}

func TestGenerateImageWithoutImagePart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"candidates":[{"content":{"parts":[{"text":"sorry"}]},"finishReason":"SAFETY"}]}`)
	}))
	defer srv.Close()

	_, err := NewClient(Options{BaseURL: srv.URL}).GenerateImage(context.Background(), "k", "p")
	if err == nil || !strings.Contains(err.Error(), "SAFETY") {
		t.Fatalf("expected safety error, got %v", err)
	}
}

func TestGenerateTextJSONMode(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &body)
		_, _ = io.WriteString(w, `{"candidates":[{"content":{"parts":[{"text":"{\"scenes\":"},{"text":"[]}"}]}}]}`)
	}))
	defer srv.Close()

	text, err := NewClient(Options{BaseURL: srv.URL}).GenerateText(context.Background(), "k", "write", true)
	if err != nil {
		t.Fatalf("GenerateText error: %v", err)
	}
	if text != `{"scenes":[]}` {
		t.Fatalf("text = %q", text)
	}
	cfg, _ := body["generationConfig"].(map[string]any)
	if cfg["responseMimeType"] != "application/json" {
		t.Fatalf("unexpected generation config %v", cfg)
	}
}

func TestGenerateSpeechVoice(t *testing.T) {
	var body map[string]any
	pcm := []byte{1, 2, 3, 4}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &body)
		_, _ = io.WriteString(w, `{"candidates":[{"content":{"parts":[{"inlineData":{"mimeType":"audio/L16;rate=24000","data":"`+base64.StdEncoding.EncodeToString(pcm)+`"}}]}}]}`)
	}))
	defer srv.Close()

	blob, err := NewClient(Options{BaseURL: srv.URL}).GenerateSpeech(context.Background(), "k", "hello", "Kore")
	if err != nil {
		t.Fatalf("GenerateSpeech error: %v", err)
	}
	if len(blob.Data) != 4 {
		t.Fatalf("unexpected pcm %v", blob.Data)
	}
	raw, _ := json.Marshal(body["generationConfig"])
	if !strings.Contains(string(raw), `"voiceName":"Kore"`) {
		t.Fatalf("voice missing from %s", raw)
	}
}
