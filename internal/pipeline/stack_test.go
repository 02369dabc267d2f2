package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"videofactory/internal/domain"
	"videofactory/internal/infra"
)

func testConfig(t *testing.T) *infra.Config {
	t.Helper()
	dir := t.TempDir()
	return &infra.Config{
		AppEnv:                      "test",
		GeminiAPIKeys:               []string{"g1", "g2"},
		OutputDir:                   filepath.Join(dir, "images"),
		AssetsDir:                   filepath.Join(dir, "assets"),
		DownloadTimeout:             time.Second,
		ScenePacing:                 -1,
		GenerationAttemptMultiplier: 2,
		GenerationBackoffMin:        time.Millisecond,
		GenerationBackoffMax:        time.Millisecond,
		MinImageBytes:               20000,
		MinSourceDimension:          800,
		NormalizeMinDimension:       1080,
	}
}

func TestOpenWithoutOptionalServices(t *testing.T) {
	cfg := testConfig(t)
	s, err := Open(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	if s.Searcher != nil || s.Runs != nil || s.Redis != nil {
		t.Fatal("optional services should be disabled")
	}
	if s.GeminiKeys.Size() != 2 || s.Generator.Budget() != 4 {
		t.Fatalf("pool=%d budget=%d", s.GeminiKeys.Size(), s.Generator.Budget())
	}
	if err := s.RequireGemini(); err != nil {
		t.Fatalf("RequireGemini: %v", err)
	}
}

func TestRequireGeminiWithEmptyPool(t *testing.T) {
	cfg := testConfig(t)
	cfg.GeminiAPIKeys = nil
	s, err := Open(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := s.RequireGemini(); !errors.Is(err, domain.ErrNoCredentials) {
		t.Fatalf("expected ErrNoCredentials, got %v", err)
	}
}

func TestSearchEnabledWithSerperKey(t *testing.T) {
	cfg := testConfig(t)
	cfg.SerperAPIKeys = []string{"s1"}
	s, err := Open(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if s.Searcher == nil || s.Cache == nil {
		t.Fatal("search should be wired")
	}
}

func TestOrchestratorUsesRunDirAndID(t *testing.T) {
	cfg := testConfig(t)
	cfg.GeminiAPIKeys = nil
	s, err := Open(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	dir := s.RunDir("run-1")
	o, err := s.Orchestrator(RunOptions{OutputDir: dir, RunID: "run-1"})
	if err != nil {
		t.Fatalf("Orchestrator: %v", err)
	}
	story := domain.Story{Scenes: []domain.Scene{{Index: 1, Prompt: "city skyline"}}}
	run, err := o.Run(context.Background(), story, domain.ModeVideo)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if run.ID != "run-1" || len(run.Results) != 1 || run.Results[0].Provenance != domain.ProvenancePlaceholder {
		t.Fatalf("run = %#v", run)
	}
	if _, err := os.Stat(filepath.Join(dir, "image_1.png")); err != nil {
		t.Fatalf("scene image missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "sources.json")); err != nil {
		t.Fatalf("manifest missing: %v", err)
	}
}

func TestWriterAndNarratorShareGeminiPool(t *testing.T) {
	s, err := Open(context.Background(), testConfig(t), nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := s.Writer(); err != nil {
		t.Fatalf("Writer: %v", err)
	}
	if _, err := s.Narrator(""); err != nil {
		t.Fatalf("Narrator: %v", err)
	}
}
