package acquisition

import (
	"sync"
	"sync/atomic"

	"videofactory/internal/domain"
	"videofactory/internal/media"
)

// Metrics counts outcomes across runs. Safe for concurrent use.
type Metrics struct {
	runs        atomic.Int64
	scenes      atomic.Int64
	generations atomic.Int64

	mu         sync.Mutex
	provenance map[domain.Provenance]int64
	rejections map[string]int64
}

func NewMetrics() *Metrics {
	return &Metrics{
		provenance: map[domain.Provenance]int64{},
		rejections: map[string]int64{},
	}
}

func (m *Metrics) runStarted() {
	if m != nil {
		m.runs.Add(1)
	}
}

func (m *Metrics) sceneDone(p domain.Provenance) {
	if m == nil {
		return
	}
	m.scenes.Add(1)
	m.mu.Lock()
	m.provenance[p]++
	m.mu.Unlock()
}

func (m *Metrics) generationAttempted() {
	if m != nil {
		m.generations.Add(1)
	}
}

func (m *Metrics) rejected(kind media.ErrorKind) {
	if m == nil {
		return
	}
	m.mu.Lock()
	m.rejections[kind.String()]++
	m.mu.Unlock()
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	Runs        int64                       `json:"runs"`
	Scenes      int64                       `json:"scenes"`
	Generations int64                       `json:"generations"`
	Provenance  map[domain.Provenance]int64 `json:"provenance"`
	Rejections  map[string]int64            `json:"rejections"`
}

func (m *Metrics) Snapshot() Snapshot {
	s := Snapshot{
		Provenance: map[domain.Provenance]int64{},
		Rejections: map[string]int64{},
	}
	if m == nil {
		return s
	}
	s.Runs = m.runs.Load()
	s.Scenes = m.scenes.Load()
	s.Generations = m.generations.Load()
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range m.provenance {
		s.Provenance[k] = v
	}
	for k, v := range m.rejections {
		s.Rejections[k] = v
	}
	return s
}
