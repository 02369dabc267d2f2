package repo

import (
	"context"
	"errors"
	"fmt"

	"videofactory/internal/domain"
	"videofactory/internal/infra"
	"videofactory/internal/sqlinline"
)

// RunRepositoryPG implements domain.RunRepository using PostgreSQL.
type RunRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewRunRepository constructs a run repository over a marker-checked SQL executor.
func NewRunRepository(sql infra.SQLExecutor) *RunRepositoryPG {
	return &RunRepositoryPG{sql: sql}
}

// EnsureSchema creates the ledger tables when they are missing.
func (r *RunRepositoryPG) EnsureSchema(ctx context.Context) error {
	if _, err := r.sql.Exec(ctx, sqlinline.QEnsureSchema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// SaveRun upserts the run row and one row per scene result.
func (r *RunRepositoryPG) SaveRun(ctx context.Context, run domain.Run) error {
	if run.ID == "" {
		return errors.New("run id is required")
	}
	if _, err := r.sql.Exec(ctx, sqlinline.QInsertRun, run.ID, run.Mode, run.StartedAt, run.FinishedAt); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	for _, res := range run.Results {
		if _, err := r.sql.Exec(ctx, sqlinline.QInsertRunResult,
			run.ID, res.SceneIndex, res.LocalPath, string(res.Provenance),
			res.SourceDomain, res.SourceURL, res.Width, res.Height, res.Bytes,
		); err != nil {
			return fmt.Errorf("insert result scene %d: %w", res.SceneIndex, err)
		}
	}
	return nil
}

// ListResults returns the results of a run ordered by scene index.
func (r *RunRepositoryPG) ListResults(ctx context.Context, runID string) ([]domain.AcquisitionResult, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QSelectRunResults, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.AcquisitionResult
	for rows.Next() {
		var (
			res        domain.AcquisitionResult
			provenance string
		)
		if err := rows.Scan(&res.SceneIndex, &res.LocalPath, &provenance, &res.SourceDomain, &res.SourceURL, &res.Width, &res.Height, &res.Bytes); err != nil {
			return nil, err
		}
		res.Provenance = domain.Provenance(provenance)
		results = append(results, res)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, domain.ErrNotFound
	}
	return results, nil
}

// ProvenanceStats counts stored results per provenance.
func (r *RunRepositoryPG) ProvenanceStats(ctx context.Context) (map[domain.Provenance]int64, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QSelectProvenanceStats)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := make(map[domain.Provenance]int64)
	for rows.Next() {
		var (
			provenance string
			count      int64
		)
		if err := rows.Scan(&provenance, &count); err != nil {
			return nil, err
		}
		stats[domain.Provenance(provenance)] = count
	}
	return stats, rows.Err()
}

var _ domain.RunRepository = (*RunRepositoryPG)(nil)
