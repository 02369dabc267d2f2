package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"videofactory/internal/acquisition"
	"videofactory/internal/domain"
	"videofactory/internal/infra"
)

// Acquirer runs one acquisition and knows where its files live.
type Acquirer interface {
	Acquire(ctx context.Context, story domain.Story, mode domain.Mode, articleImages []string) (domain.Run, error)
	RunDir(runID string) string
}

// ProvenanceCounter is implemented by run ledgers that can aggregate results.
type ProvenanceCounter interface {
	ProvenanceStats(ctx context.Context) (map[domain.Provenance]int64, error)
}

// CacheStatser reports search cache hits and misses.
type CacheStatser interface {
	Stats() (hits, misses int64)
}

type App struct {
	Acquirer Acquirer
	Runs     domain.RunRepository
	Metrics  *acquisition.Metrics
	Cache    CacheStatser
	Logger   *infra.Logger

	// runSlot admits one acquisition at a time; scenes are paced per process.
	runSlot chan struct{}
}

func NewApp(acq Acquirer, runs domain.RunRepository, metrics *acquisition.Metrics, logger *infra.Logger) *App {
	return &App{
		Acquirer: acq,
		Runs:     runs,
		Metrics:  metrics,
		Logger:   infra.OrNop(logger),
		runSlot:  make(chan struct{}, 1),
	}
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, kind, message string) {
	a.json(w, code, errorBody{Error: kind, Message: message})
}
