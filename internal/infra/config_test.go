package infra

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("DOWNLOAD_TIMEOUT_SECONDS", "")
	t.Setenv("SCENE_PACING_MS", "")
	t.Setenv("GENERATION_ATTEMPT_MULTIPLIER", "")
	t.Setenv("GENERATION_BACKOFF_MIN_MS", "")
	t.Setenv("GENERATION_BACKOFF_MAX_MS", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.DownloadTimeout != 8*time.Second {
		t.Fatalf("DownloadTimeout = %v, want 8s", cfg.DownloadTimeout)
	}
	if cfg.ScenePacing != time.Second {
		t.Fatalf("ScenePacing = %v, want 1s", cfg.ScenePacing)
	}
	if cfg.GenerationAttemptMultiplier != 2 {
		t.Fatalf("GenerationAttemptMultiplier = %d, want 2", cfg.GenerationAttemptMultiplier)
	}
	if cfg.GenerationBackoffMin != 2*time.Second || cfg.GenerationBackoffMax != 10*time.Second {
		t.Fatalf("backoff = %v..%v", cfg.GenerationBackoffMin, cfg.GenerationBackoffMax)
	}
}

func TestLoadConfigCollectsNumberedKeys(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "k1")
	t.Setenv("GEMINI_API_KEY_2", " k2 ")
	t.Setenv("GEMINI_API_KEY_3", "")
	t.Setenv("GEMINI_API_KEY_4", "k4")
	t.Setenv("GEMINI_API_KEYS", "k4, k5,,")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	expected := []string{"k1", "k2", "k4", "k5"}
	if len(cfg.GeminiAPIKeys) != len(expected) {
		t.Fatalf("GeminiAPIKeys mismatch: got %#v want %#v", cfg.GeminiAPIKeys, expected)
	}
	for i, key := range expected {
		if cfg.GeminiAPIKeys[i] != key {
			t.Fatalf("GeminiAPIKeys[%d] = %q, want %q", i, cfg.GeminiAPIKeys[i], key)
		}
	}
}

func TestLoadConfigQuotaSignals(t *testing.T) {
	t.Setenv("QUOTA_SIGNALS", "billing, exceeded daily")
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if len(cfg.QuotaSignals) != 2 || cfg.QuotaSignals[1] != "exceeded daily" {
		t.Fatalf("QuotaSignals mismatch: %#v", cfg.QuotaSignals)
	}
}

func TestLoadConfigRejectsInvertedBackoff(t *testing.T) {
	t.Setenv("GENERATION_BACKOFF_MIN_MS", "5000")
	t.Setenv("GENERATION_BACKOFF_MAX_MS", "1000")
	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error for inverted backoff bounds")
	}
}

func TestLoadConfigRejectsZeroMultiplier(t *testing.T) {
	t.Setenv("GENERATION_ATTEMPT_MULTIPLIER", "0")
	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error for zero multiplier")
	}
}
