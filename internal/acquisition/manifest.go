package acquisition

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"

	"videofactory/internal/domain"
)

// ManifestKey is the file the provenance manifest is written to.
const ManifestKey = "sources.json"

// Manifest maps an output file name to the domain it came from, or to
// "generated", "placeholder" or "bumper".
type Manifest map[string]string

// BuildManifest derives the manifest from a run's results.
func BuildManifest(results []domain.AcquisitionResult) Manifest {
	m := make(Manifest, len(results))
	for _, r := range results {
		name := filepath.Base(r.LocalPath)
		switch r.Provenance {
		case domain.ProvenanceGenerated, domain.ProvenancePlaceholder, domain.ProvenanceBumper:
			m[name] = string(r.Provenance)
		default:
			if r.SourceDomain != "" {
				m[name] = r.SourceDomain
			} else {
				m[name] = string(r.Provenance)
			}
		}
	}
	return m
}

type writer interface {
	Write(ctx context.Context, key string, data []byte) (string, error)
}

// WriteManifest stores m as indented JSON under ManifestKey.
func WriteManifest(ctx context.Context, w writer, m Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	if _, err := w.Write(ctx, ManifestKey, data); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}
