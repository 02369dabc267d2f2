package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"videofactory/internal/domain"
	"videofactory/pkg/zip"
)

const maxStoryBytes = 1 << 20

type acquisitionRequest struct {
	Mode          string          `json:"mode"`
	Story         json.RawMessage `json:"story"`
	ArticleImages []string        `json:"article_images,omitempty"`
}

// CreateAcquisition runs the cascade for the posted story and returns the run.
// The call blocks until every scene has an image.
func (a *App) CreateAcquisition(w http.ResponseWriter, r *http.Request) {
	var req acquisitionRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxStoryBytes)).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	mode, err := domain.ParseMode(req.Mode)
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	story, err := domain.ParseStory(req.Story)
	if err != nil {
		a.error(w, http.StatusBadRequest, "invalid_story", err.Error())
		return
	}

	select {
	case a.runSlot <- struct{}{}:
		defer func() { <-a.runSlot }()
	case <-r.Context().Done():
		a.error(w, http.StatusServiceUnavailable, "busy", "request cancelled while waiting for a run slot")
		return
	}

	logger := zerolog.Ctx(r.Context())
	run, err := a.Acquirer.Acquire(r.Context(), story, mode, req.ArticleImages)
	switch {
	case errors.Is(err, domain.ErrNoCredentials):
		a.error(w, http.StatusServiceUnavailable, "no_credentials", err.Error())
		return
	case err != nil:
		logger.Error().Err(err).Str("run_id", run.ID).Msg("acquisition: run failed")
		a.error(w, http.StatusInternalServerError, "internal", "acquisition failed")
		return
	}
	a.json(w, http.StatusCreated, run)
}

// GetAcquisition returns the ledger rows of a run.
func (a *App) GetAcquisition(w http.ResponseWriter, r *http.Request) {
	runID, ok := a.runID(w, r)
	if !ok {
		return
	}
	if a.Runs == nil {
		a.error(w, http.StatusNotFound, "not_found", "run ledger disabled")
		return
	}
	results, err := a.Runs.ListResults(r.Context(), runID)
	if errors.Is(err, domain.ErrNotFound) {
		a.error(w, http.StatusNotFound, "not_found", "run not found")
		return
	}
	if err != nil {
		a.error(w, http.StatusInternalServerError, "internal", "failed to load run")
		return
	}
	a.json(w, http.StatusOK, map[string]any{"id": runID, "results": results})
}

// AcquisitionBundle streams a zip of the run's images and manifest.
func (a *App) AcquisitionBundle(w http.ResponseWriter, r *http.Request) {
	runID, ok := a.runID(w, r)
	if !ok {
		return
	}
	entries, err := zip.DirEntries(a.Acquirer.RunDir(runID))
	if errors.Is(err, os.ErrNotExist) || (err == nil && len(entries) == 0) {
		a.error(w, http.StatusNotFound, "not_found", "run not found")
		return
	}
	if err != nil {
		a.error(w, http.StatusInternalServerError, "internal", "failed to read run")
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=run-%s.zip", runID))
	w.WriteHeader(http.StatusOK)
	if err := zip.WriteArchive(w, entries); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Str("run_id", runID).Msg("bundle: stream failed")
	}
}

func (a *App) runID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "run id must be a uuid")
		return "", false
	}
	return id.String(), true
}
