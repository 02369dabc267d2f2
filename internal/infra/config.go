package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const maxNumberedKeys = 9

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv      string
	Port        string
	DatabaseURL string
	RedisURL    string

	GeminiAPIKeys    []string
	GeminiBaseURL    string
	GeminiImageModel string
	GeminiTextModel  string
	GeminiTTSModel   string

	SerperAPIKeys  []string
	SerperBaseURL  string
	SearchLocale   string
	SearchCacheTTL time.Duration

	OutputDir        string
	AudioDir         string
	AssetsDir        string
	StoryPath        string
	ArticleCachePath string

	DownloadTimeout             time.Duration
	ScenePacing                 time.Duration
	GenerationAttemptMultiplier int
	GenerationBackoffMin        time.Duration
	GenerationBackoffMax        time.Duration
	MinImageBytes               int
	MinSourceDimension          int
	NormalizeMinDimension       int
	QuotaSignals                []string

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	RateLimitPerMin  int
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
// Missing .env files are not an error.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load(".env", ".env.local")

	cfg := &Config{
		AppEnv:      getEnv("APP_ENV", "development"),
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    os.Getenv("REDIS_URL"),

		GeminiAPIKeys:    numberedKeys("GEMINI_API_KEY", "GEMINI_API_KEYS"),
		GeminiBaseURL:    getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
		GeminiImageModel: getEnv("GEMINI_IMAGE_MODEL", "gemini-2.0-flash-exp-image-generation"),
		GeminiTextModel:  getEnv("GEMINI_TEXT_MODEL", "gemini-2.0-flash"),
		GeminiTTSModel:   getEnv("GEMINI_TTS_MODEL", "gemini-2.5-flash-preview-tts"),

		SerperAPIKeys:  numberedKeys("SERPER_API_KEY", "SERPER_API_KEYS"),
		SerperBaseURL:  getEnv("SERPER_BASE_URL", "https://google.serper.dev"),
		SearchLocale:   getEnv("SEARCH_LOCALE", "en-US"),
		SearchCacheTTL: time.Second * time.Duration(getEnvInt("SEARCH_CACHE_TTL_SECONDS", 3600)),

		OutputDir:        getEnv("OUTPUT_DIR", "images"),
		AudioDir:         getEnv("AUDIO_DIR", "audio"),
		AssetsDir:        getEnv("ASSETS_DIR", "assets"),
		StoryPath:        getEnv("STORY_PATH", "story.json"),
		ArticleCachePath: getEnv("ARTICLE_CACHE_PATH", "article_cache.json"),

		DownloadTimeout:             time.Second * time.Duration(getEnvInt("DOWNLOAD_TIMEOUT_SECONDS", 8)),
		ScenePacing:                 time.Millisecond * time.Duration(getEnvInt("SCENE_PACING_MS", 1000)),
		GenerationAttemptMultiplier: getEnvInt("GENERATION_ATTEMPT_MULTIPLIER", 2),
		GenerationBackoffMin:        time.Millisecond * time.Duration(getEnvInt("GENERATION_BACKOFF_MIN_MS", 2000)),
		GenerationBackoffMax:        time.Millisecond * time.Duration(getEnvInt("GENERATION_BACKOFF_MAX_MS", 10000)),
		MinImageBytes:               getEnvInt("MIN_IMAGE_BYTES", 20000),
		MinSourceDimension:          getEnvInt("MIN_SOURCE_DIMENSION", 800),
		NormalizeMinDimension:       getEnvInt("NORMALIZE_MIN_DIMENSION", 1080),
		QuotaSignals:                splitList(os.Getenv("QUOTA_SIGNALS")),

		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 300)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:  getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
	}

	if cfg.GenerationAttemptMultiplier < 1 {
		return nil, fmt.Errorf("GENERATION_ATTEMPT_MULTIPLIER must be at least 1")
	}
	if cfg.GenerationBackoffMax < cfg.GenerationBackoffMin {
		return nil, fmt.Errorf("GENERATION_BACKOFF_MAX_MS must not be below GENERATION_BACKOFF_MIN_MS")
	}

	return cfg, nil
}

// numberedKeys collects BASE, BASE_2 .. BASE_9 and the comma separated listKey,
// in that order, without duplicates.
func numberedKeys(base, listKey string) []string {
	var keys []string
	seen := map[string]struct{}{}
	add := func(v string) {
		v = strings.TrimSpace(v)
		if v == "" {
			return
		}
		if _, ok := seen[v]; ok {
			return
		}
		seen[v] = struct{}{}
		keys = append(keys, v)
	}
	add(os.Getenv(base))
	for i := 2; i <= maxNumberedKeys; i++ {
		add(os.Getenv(fmt.Sprintf("%s_%d", base, i)))
	}
	for _, v := range splitList(os.Getenv(listKey)) {
		add(v)
	}
	return keys
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
