package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"videofactory/internal/http/handlers"
	"videofactory/internal/infra"
	mw "videofactory/internal/middleware"
)

func NewRouter(app *handlers.App, cfg *infra.Config, logger infra.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RealIP,
		mw.RequestID(logger),
		mw.Logger(logger),
		middleware.Recoverer,
	)

	r.Get("/v1/healthz", app.Health)
	r.Get("/v1/metrics", app.MetricsReport)

	r.Route("/v1/acquisitions", func(r chi.Router) {
		r.With(mw.RateLimit(cfg.RateLimitPerMin, time.Minute)).Post("/", app.CreateAcquisition)
		r.Get("/{id}", app.GetAcquisition)
		r.Get("/{id}/bundle", app.AcquisitionBundle)
	})

	return r
}
