package handlers

import (
	"net/http"

	"github.com/rs/zerolog"

	"videofactory/internal/acquisition"
	"videofactory/internal/domain"
)

type metricsResponse struct {
	acquisition.Snapshot
	Ledger      map[domain.Provenance]int64 `json:"ledger,omitempty"`
	CacheHits   int64                       `json:"search_cache_hits"`
	CacheMisses int64                       `json:"search_cache_misses"`
}

// MetricsReport reports in-process counters, plus ledger totals when a database is configured.
func (a *App) MetricsReport(w http.ResponseWriter, r *http.Request) {
	resp := metricsResponse{Snapshot: a.Metrics.Snapshot()}
	if a.Cache != nil {
		resp.CacheHits, resp.CacheMisses = a.Cache.Stats()
	}
	if counter, ok := a.Runs.(ProvenanceCounter); ok {
		stats, err := counter.ProvenanceStats(r.Context())
		if err != nil {
			zerolog.Ctx(r.Context()).Warn().Err(err).Msg("metrics: ledger stats unavailable")
		} else {
			resp.Ledger = stats
		}
	}
	a.json(w, http.StatusOK, resp)
}
