package pipeline

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"videofactory/internal/acquisition"
	"videofactory/internal/adapter/repo"
	"videofactory/internal/domain"
	"videofactory/internal/infra"
	"videofactory/internal/infra/credentials"
	"videofactory/internal/media"
	"videofactory/internal/providers/genai"
	imagegen "videofactory/internal/providers/image"
	"videofactory/internal/providers/script"
	"videofactory/internal/providers/search"
	"videofactory/internal/providers/speech"
	"videofactory/internal/storage"
)

const providerTimeout = 120 * time.Second

// Stack holds the process-wide collaborators shared by every run: one Gemini
// credential rotator for image, text and speech calls, one Serper rotator, the
// search cache and the optional run ledger.
type Stack struct {
	Config     *infra.Config
	Logger     *infra.Logger
	Classifier credentials.Classifier

	Gemini     *genai.Client
	GeminiKeys *credentials.Rotator
	SerperKeys *credentials.Rotator
	Serper     *search.SerperClient
	Searcher   *search.Cascade
	Generator  *imagegen.RotatingGenerator
	Metrics    *acquisition.Metrics

	DB    *pgxpool.Pool
	SQL   infra.SQLExecutor
	Runs  *repo.RunRepositoryPG
	Redis *redis.Client
	Cache *search.CachedBackend
}

// Open wires the stack from cfg. The database and Redis are optional: when their
// URLs are empty the ledger and the L2 cache are left out.
func Open(ctx context.Context, cfg *infra.Config, logger *infra.Logger) (*Stack, error) {
	logger = infra.OrNop(logger)
	s := &Stack{
		Config:     cfg,
		Logger:     logger,
		Classifier: credentials.DefaultClassifier().WithSignals(cfg.QuotaSignals...),
		Metrics:    acquisition.NewMetrics(),
	}

	geminiPool := cfg.GeminiAPIKeys
	serperPool := cfg.SerperAPIKeys
	if cfg.DatabaseURL != "" {
		pool, err := infra.NewDBPool(ctx, cfg)
		if err != nil {
			return nil, err
		}
		s.DB = pool
		s.SQL = infra.NewSQLRunner(pool, *logger)
		s.Runs = repo.NewRunRepository(s.SQL)
		if err := s.Runs.EnsureSchema(ctx); err != nil {
			s.Close()
			return nil, err
		}
		store := credentials.NewStore(s.SQL)
		geminiPool = s.extendPool(ctx, store, credentials.ProviderGemini, geminiPool)
		serperPool = s.extendPool(ctx, store, credentials.ProviderSerper, serperPool)
	}

	s.GeminiKeys = credentials.NewRotator(credentials.ProviderGemini, geminiPool)
	s.SerperKeys = credentials.NewRotator(credentials.ProviderSerper, serperPool)
	logger.Info().
		Int("gemini_keys", s.GeminiKeys.Size()).
		Int("serper_keys", s.SerperKeys.Size()).
		Msg("pipeline: credential pools loaded")

	s.Gemini = genai.NewClient(genai.Options{
		BaseURL:     cfg.GeminiBaseURL,
		ImageModel:  cfg.GeminiImageModel,
		TextModel:   cfg.GeminiTextModel,
		SpeechModel: cfg.GeminiTTSModel,
		HTTPClient:  &http.Client{Timeout: providerTimeout},
		Logger:      logger,
	})

	generator, err := imagegen.NewRotatingGenerator(imagegen.RotatingOptions{
		Client:            s.Gemini,
		Rotator:           s.GeminiKeys,
		AttemptMultiplier: cfg.GenerationAttemptMultiplier,
		MinWait:           cfg.GenerationBackoffMin,
		MaxWait:           cfg.GenerationBackoffMax,
		Classifier:        &s.Classifier,
		Logger:            logger,
	})
	if err != nil {
		s.Close()
		return nil, err
	}
	s.Generator = generator

	s.Serper = search.NewSerperClient(search.SerperOptions{
		BaseURL: cfg.SerperBaseURL,
		Rotator: s.SerperKeys,
		Locale:  cfg.SearchLocale,
		Logger:  logger,
	})
	if s.SerperKeys.Size() > 0 {
		s.Redis = search.NewRedisClient(ctx, cfg.RedisURL, logger)
		s.Cache = search.NewCachedBackend(s.Serper, search.CacheOptions{
			Redis:  s.Redis,
			TTL:    cfg.SearchCacheTTL,
			Logger: logger,
		})
		s.Searcher = search.NewCascade(s.Cache, search.CascadeOptions{Logger: logger})
	} else {
		logger.Warn().Msg("pipeline: no search key, image search disabled")
	}
	return s, nil
}

func (s *Stack) extendPool(ctx context.Context, store *credentials.Store, provider string, pool []string) []string {
	extra, err := store.Tokens(ctx, provider)
	if err != nil {
		s.Logger.Warn().Err(err).Str("provider", provider).Msg("pipeline: stored credentials unavailable")
		return pool
	}
	return credentials.MergePools(pool, extra)
}

// Close releases the database pool and the Redis client.
func (s *Stack) Close() {
	if s.Redis != nil {
		_ = s.Redis.Close()
	}
	if s.DB != nil {
		s.DB.Close()
	}
}

// RequireGemini fails with domain.ErrNoCredentials when the Gemini pool is empty.
func (s *Stack) RequireGemini() error {
	if s.GeminiKeys.Size() == 0 {
		return fmt.Errorf("%w: set GEMINI_API_KEY or store one with credkey", domain.ErrNoCredentials)
	}
	return nil
}

// RunOptions selects where one acquisition run writes.
type RunOptions struct {
	OutputDir     string
	ArticleImages []string
	RunID         string
}

// Orchestrator builds an orchestrator writing scene images under opts.OutputDir.
func (s *Stack) Orchestrator(opts RunOptions) (*acquisition.Orchestrator, error) {
	outDir := opts.OutputDir
	if outDir == "" {
		outDir = s.Config.OutputDir
	}
	store, err := storage.NewFileStore(outDir)
	if err != nil {
		return nil, err
	}
	validator := media.DefaultValidator()
	validator.MinBytes = s.Config.MinImageBytes
	validator.MinDimension = s.Config.MinSourceDimension
	fetcher, err := media.NewDownloader(media.DownloaderOptions{
		Timeout:      s.Config.DownloadTimeout,
		Validator:    &validator,
		MinDimension: s.Config.NormalizeMinDimension,
		Store:        store,
		Logger:       s.Logger,
	})
	if err != nil {
		return nil, err
	}

	o := acquisition.Options{
		Fetcher:       fetcher,
		Generator:     s.Generator,
		Store:         store,
		ArticleImages: opts.ArticleImages,
		Metrics:       s.Metrics,
		Pacing:        s.Config.ScenePacing,
		MinDimension:  s.Config.NormalizeMinDimension,
		Logger:        s.Logger,
	}
	if s.Searcher != nil {
		o.Searcher = s.Searcher
	}
	if s.Runs != nil {
		o.Runs = s.Runs
	}
	if s.Config.AssetsDir != "" {
		if bumpers, err := storage.NewFileStore(s.Config.AssetsDir); err == nil {
			o.Bumpers = bumpers
		}
	}
	if opts.RunID != "" {
		id := opts.RunID
		o.NewID = func() string { return id }
	}
	return acquisition.New(o)
}

// Acquire runs the cascade for story into a fresh per-run directory.
func (s *Stack) Acquire(ctx context.Context, story domain.Story, mode domain.Mode, articleImages []string) (domain.Run, error) {
	if err := s.RequireGemini(); err != nil {
		return domain.Run{}, err
	}
	id := uuid.NewString()
	o, err := s.Orchestrator(RunOptions{OutputDir: s.RunDir(id), ArticleImages: articleImages, RunID: id})
	if err != nil {
		return domain.Run{}, err
	}
	return o.Run(ctx, story, mode)
}

// RunDir is the per-run output directory used by the API.
func (s *Stack) RunDir(runID string) string {
	return filepath.Join(s.Config.OutputDir, "runs", runID)
}

// Writer builds the script writer on the shared Gemini pool.
func (s *Stack) Writer() (*script.Writer, error) {
	opts := script.Options{
		Client:     s.Gemini,
		Rotator:    s.GeminiKeys,
		Classifier: &s.Classifier,
		MinWait:    s.Config.GenerationBackoffMin,
		MaxWait:    s.Config.GenerationBackoffMax,
		Logger:     s.Logger,
	}
	if s.SerperKeys.Size() > 0 {
		opts.News = s.Serper
	}
	return script.NewWriter(opts)
}

// Narrator builds the narrator on the shared Gemini pool.
func (s *Stack) Narrator(voice string) (*speech.Narrator, error) {
	return speech.NewNarrator(speech.Options{
		Client:     s.Gemini,
		Rotator:    s.GeminiKeys,
		Voice:      voice,
		Classifier: &s.Classifier,
		MinWait:    s.Config.GenerationBackoffMin,
		MaxWait:    s.Config.GenerationBackoffMax,
		Logger:     s.Logger,
	})
}
