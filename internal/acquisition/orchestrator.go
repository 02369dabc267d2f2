package acquisition

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"videofactory/internal/domain"
	"videofactory/internal/infra"
	"videofactory/internal/media"
	imagegen "videofactory/internal/providers/image"
)

const (
	defaultPacing = time.Second

	IntroBumperKey = "intro.mp4"
	OutroBumperKey = "outro.mp4"
)

// Searcher returns ranked candidates for a scene prompt.
type Searcher interface {
	SearchWithFallback(ctx context.Context, basePrompt string, sceneIndex int) []domain.CandidateResource
}

// Fetcher downloads, validates, normalizes and stores one candidate.
type Fetcher interface {
	Fetch(ctx context.Context, c domain.CandidateResource, ratio float64, key string) (media.Accepted, error)
}

// Store receives generated and placeholder images and the manifest.
type Store interface {
	Write(ctx context.Context, key string, data []byte) (string, error)
	Path(key string) string
}

// BumperStore answers whether a pre-rendered intro/outro clip exists.
type BumperStore interface {
	Exists(key string) bool
	Path(key string) string
}

// Options wires an Orchestrator. Searcher, Generator, Bumpers, Runs and Metrics are
// optional; a missing stage is skipped.
type Options struct {
	Searcher      Searcher
	Fetcher       Fetcher
	Generator     imagegen.Generator
	Store         Store
	Bumpers       BumperStore
	ArticleImages []string
	Runs          domain.RunRepository
	Metrics       *Metrics

	// Pacing is the minimum gap between scene starts. Zero means one second,
	// negative disables pacing.
	Pacing       time.Duration
	MinDimension int
	Logger       *infra.Logger
	Now          func() time.Time
	// NewID names runs. Defaults to random UUIDs.
	NewID        func() string
}

// Orchestrator produces exactly one image per scene, trying in order a cached
// article image, web search, generation and finally a placeholder.
type Orchestrator struct {
	searcher      Searcher
	fetcher       Fetcher
	generator     imagegen.Generator
	store         Store
	bumpers       BumperStore
	articleImages []string
	runs          domain.RunRepository
	metrics       *Metrics
	pacing        time.Duration
	minDim        int
	logger        *infra.Logger
	now           func() time.Time
	newID         func() string
}

func New(opts Options) (*Orchestrator, error) {
	if opts.Store == nil {
		return nil, errors.New("acquisition: store is required")
	}
	if opts.Fetcher == nil {
		return nil, errors.New("acquisition: fetcher is required")
	}
	pacing := opts.Pacing
	if pacing < 0 {
		pacing = 0
	} else if pacing == 0 {
		pacing = defaultPacing
	}
	minDim := opts.MinDimension
	if minDim <= 0 {
		minDim = media.DefaultMinDimension
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	newID := opts.NewID
	if newID == nil {
		newID = uuid.NewString
	}
	return &Orchestrator{
		searcher:      opts.Searcher,
		fetcher:       opts.Fetcher,
		generator:     opts.Generator,
		store:         opts.Store,
		bumpers:       opts.Bumpers,
		articleImages: opts.ArticleImages,
		runs:          opts.Runs,
		metrics:       opts.Metrics,
		pacing:        pacing,
		minDim:        minDim,
		logger:        infra.OrNop(opts.Logger),
		now:           now,
		newID:         newID,
	}, nil
}

// Run acquires an image for every scene of story, strictly in order and paced.
// Provider failures never abort the run; only storage failures and cancellation do.
func (o *Orchestrator) Run(ctx context.Context, story domain.Story, mode domain.Mode) (domain.Run, error) {
	run := domain.Run{
		ID:        o.newID(),
		Mode:      string(mode),
		StartedAt: o.now().UTC(),
		Results:   make([]domain.AcquisitionResult, 0, len(story.Scenes)),
	}
	o.metrics.runStarted()
	logger := o.logger.With().Str("run_id", run.ID).Str("mode", string(mode)).Logger()
	logger.Info().Int("scenes", len(story.Scenes)).Msg("acquisition: run started")

	limit := rate.Inf
	if o.pacing > 0 {
		limit = rate.Every(o.pacing)
	}
	limiter := rate.NewLimiter(limit, 1)

	for i, scene := range story.Scenes {
		if scene.Index <= 0 {
			scene.Index = i + 1
		}
		if err := limiter.Wait(ctx); err != nil {
			return run, err
		}
		result, err := o.acquireScene(ctx, &logger, run.ID, scene, i, len(story.Scenes), mode)
		if err != nil {
			return run, fmt.Errorf("scene %d: %w", scene.Index, err)
		}
		o.metrics.sceneDone(result.Provenance)
		logger.Info().
			Int("scene", scene.Index).
			Str("provenance", string(result.Provenance)).
			Str("domain", result.SourceDomain).
			Msg("acquisition: scene done")
		run.Results = append(run.Results, result)
	}
	run.FinishedAt = o.now().UTC()

	if err := WriteManifest(ctx, o.store, BuildManifest(run.Results)); err != nil {
		return run, err
	}
	if o.runs != nil {
		if err := o.runs.SaveRun(ctx, run); err != nil {
			logger.Warn().Err(err).Msg("acquisition: run ledger not saved")
		}
	}
	logger.Info().Msg("acquisition: run finished")
	return run, nil
}

// SceneKey is the storage key of a scene's image.
func SceneKey(index int) string {
	return fmt.Sprintf("image_%d.png", index)
}

func (o *Orchestrator) acquireScene(ctx context.Context, logger *infra.Logger, runID string, scene domain.Scene, pos, total int, mode domain.Mode) (domain.AcquisitionResult, error) {
	if result, ok := o.bumperAttempt(scene, pos, total, mode); ok {
		return result, nil
	}

	ratio := mode.AspectRatio()
	key := SceneKey(scene.Index)

	if scene.Prompt != "" {
		if result, ok := o.cachedArticleAttempt(ctx, logger, scene, pos, mode, ratio, key); ok {
			return result, nil
		}
		if result, ok := o.searchAttempt(ctx, logger, scene, ratio, key); ok {
			return result, nil
		}
		if result, ok := o.generateAttempt(ctx, logger, scene, mode, ratio, key); ok {
			return result, nil
		}
	} else {
		logger.Warn().Int("scene", scene.Index).Msg("acquisition: scene has no prompt")
	}
	return o.placeholder(ctx, runID, scene, ratio, key)
}

func (o *Orchestrator) bumperAttempt(scene domain.Scene, pos, total int, mode domain.Mode) (domain.AcquisitionResult, bool) {
	if o.bumpers == nil || !mode.UsesBumpers() {
		return domain.AcquisitionResult{}, false
	}
	var key string
	switch pos {
	case 0:
		key = IntroBumperKey
	case total - 1:
		key = OutroBumperKey
	default:
		return domain.AcquisitionResult{}, false
	}
	if !o.bumpers.Exists(key) {
		return domain.AcquisitionResult{}, false
	}
	return domain.AcquisitionResult{
		SceneIndex: scene.Index,
		LocalPath:  o.bumpers.Path(key),
		Provenance: domain.ProvenanceBumper,
	}, true
}

func (o *Orchestrator) cachedArticleAttempt(ctx context.Context, logger *infra.Logger, scene domain.Scene, pos int, mode domain.Mode, ratio float64, key string) (domain.AcquisitionResult, bool) {
	if !mode.UsesArticleCache() || pos >= len(o.articleImages) || o.articleImages[pos] == "" {
		return domain.AcquisitionResult{}, false
	}
	candidate := domain.CandidateResource{
		URL:          o.articleImages[pos],
		Kind:         domain.CandidateOriginal,
		SourceDomain: media.HostOf(o.articleImages[pos]),
	}
	accepted, err := o.fetcher.Fetch(ctx, candidate, ratio, key)
	if err != nil {
		o.reject(logger, scene.Index, candidate, err)
		return domain.AcquisitionResult{}, false
	}
	return resultFrom(scene.Index, candidate, domain.ProvenanceCachedArticle, accepted), true
}

func (o *Orchestrator) searchAttempt(ctx context.Context, logger *infra.Logger, scene domain.Scene, ratio float64, key string) (domain.AcquisitionResult, bool) {
	if o.searcher == nil {
		return domain.AcquisitionResult{}, false
	}
	for _, candidate := range o.searcher.SearchWithFallback(ctx, scene.Prompt, scene.Index) {
		accepted, err := o.fetcher.Fetch(ctx, candidate, ratio, key)
		if err != nil {
			o.reject(logger, scene.Index, candidate, err)
			continue
		}
		return resultFrom(scene.Index, candidate, domain.ProvenanceForKind(candidate.Kind), accepted), true
	}
	return domain.AcquisitionResult{}, false
}

func (o *Orchestrator) generateAttempt(ctx context.Context, logger *infra.Logger, scene domain.Scene, mode domain.Mode, ratio float64, key string) (domain.AcquisitionResult, bool) {
	if o.generator == nil {
		return domain.AcquisitionResult{}, false
	}
	prompt := imagegen.BuildPrompt(mode, scene.Prompt)
	o.metrics.generationAttempted()
	data, err := o.generator.Generate(ctx, prompt)
	if err != nil {
		logger.Warn().Err(err).Int("scene", scene.Index).Msg("acquisition: generation failed")
		return domain.AcquisitionResult{}, false
	}
	normalized, bounds, err := media.NormalizeBytes(data, ratio, o.minDim)
	if err != nil {
		logger.Warn().Err(err).Int("scene", scene.Index).Msg("acquisition: generated image unusable")
		return domain.AcquisitionResult{}, false
	}
	stored, err := o.store.Write(ctx, key, normalized)
	if err != nil {
		logger.Warn().Err(err).Int("scene", scene.Index).Msg("acquisition: generated image not stored")
		return domain.AcquisitionResult{}, false
	}
	return domain.AcquisitionResult{
		SceneIndex: scene.Index,
		LocalPath:  o.store.Path(stored),
		Provenance: domain.ProvenanceGenerated,
		Width:      bounds.Dx(),
		Height:     bounds.Dy(),
		Bytes:      int64(len(normalized)),
	}, true
}

func (o *Orchestrator) placeholder(ctx context.Context, runID string, scene domain.Scene, ratio float64, key string) (domain.AcquisitionResult, error) {
	img := media.Placeholder(ratio, o.minDim, fmt.Sprintf("%s|%d", runID, scene.Index))
	data, err := media.EncodePNG(img)
	if err != nil {
		return domain.AcquisitionResult{}, err
	}
	stored, err := o.store.Write(ctx, key, data)
	if err != nil {
		return domain.AcquisitionResult{}, fmt.Errorf("write placeholder: %w", err)
	}
	return domain.AcquisitionResult{
		SceneIndex: scene.Index,
		LocalPath:  o.store.Path(stored),
		Provenance: domain.ProvenancePlaceholder,
		Width:      img.Bounds().Dx(),
		Height:     img.Bounds().Dy(),
		Bytes:      int64(len(data)),
	}, nil
}

func (o *Orchestrator) reject(logger *infra.Logger, sceneIndex int, c domain.CandidateResource, err error) {
	kind := media.KindOf(err)
	o.metrics.rejected(kind)
	logger.Debug().
		Err(err).
		Int("scene", sceneIndex).
		Str("url", c.URL).
		Str("kind", string(c.Kind)).
		Str("reason", kind.String()).
		Msg("acquisition: candidate rejected")
}

func resultFrom(sceneIndex int, c domain.CandidateResource, p domain.Provenance, a media.Accepted) domain.AcquisitionResult {
	return domain.AcquisitionResult{
		SceneIndex:   sceneIndex,
		LocalPath:    a.Path,
		Provenance:   p,
		SourceDomain: c.SourceDomain,
		SourceURL:    c.URL,
		Width:        a.Width,
		Height:       a.Height,
		Bytes:        int64(a.Bytes),
	}
}
