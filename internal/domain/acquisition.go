package domain

import "time"

// CandidateKind tells whether a candidate points at the full-size image or the search
// engine's thumbnail of it.
type CandidateKind string

const (
	CandidateOriginal  CandidateKind = "original"
	CandidateThumbnail CandidateKind = "thumbnail"
)

// CandidateResource is a search hit waiting to be downloaded and validated.
type CandidateResource struct {
	URL          string
	Kind         CandidateKind
	SourceDomain string
}

// Provenance records where an accepted scene asset came from.
type Provenance string

const (
	ProvenanceCachedArticle   Provenance = "cached_article"
	ProvenanceSearchOriginal  Provenance = "search_original"
	ProvenanceSearchThumbnail Provenance = "search_thumbnail"
	ProvenanceGenerated       Provenance = "generated"
	ProvenancePlaceholder     Provenance = "placeholder"
	ProvenanceBumper          Provenance = "bumper"
)

// ProvenanceForKind maps a search candidate kind to its provenance.
func ProvenanceForKind(kind CandidateKind) Provenance {
	if kind == CandidateThumbnail {
		return ProvenanceSearchThumbnail
	}
	return ProvenanceSearchOriginal
}

// AcquisitionResult is the single accepted asset for one scene.
type AcquisitionResult struct {
	SceneIndex   int        `json:"scene_index"`
	LocalPath    string     `json:"local_path"`
	Provenance   Provenance `json:"provenance"`
	SourceDomain string     `json:"source_domain,omitempty"`
	SourceURL    string     `json:"source_url,omitempty"`
	Width        int        `json:"width,omitempty"`
	Height       int        `json:"height,omitempty"`
	Bytes        int64      `json:"bytes,omitempty"`
}

// Run groups the results of one orchestrator pass.
type Run struct {
	ID         string              `json:"id"`
	Mode       string              `json:"mode"`
	StartedAt  time.Time           `json:"started_at"`
	FinishedAt time.Time           `json:"finished_at"`
	Results    []AcquisitionResult `json:"results"`
}
