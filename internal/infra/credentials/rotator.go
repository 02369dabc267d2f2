package credentials

import (
	"strings"
	"sync"

	"videofactory/internal/domain"
)

// Classification is the verdict a caller reports after a provider call failed.
type Classification int

const (
	// Fatal leaves the cursor in place; the caller stops retrying this call.
	Fatal Classification = iota
	// Retryable advances the cursor to the next credential in the pool.
	Retryable
)

func (c Classification) String() string {
	if c == Retryable {
		return "retryable"
	}
	return "fatal"
}

// Credential is a pool entry handed out by Select. Index identifies it in logs so
// the secret itself never has to be printed.
type Credential struct {
	Index int
	Value string
}

// Rotator owns an ordered credential pool and a cursor shared by every call site
// in the process. The cursor is never reset between logical calls, so a key found
// exhausted by one subsystem is skipped by the next.
type Rotator struct {
	mu       sync.Mutex
	provider string
	pool     []string
	cursor   int
	failures int
}

// NewRotator builds a rotator over pool. Blank and duplicate entries are dropped,
// order is preserved.
func NewRotator(provider string, pool []string) *Rotator {
	return &Rotator{provider: provider, pool: MergePools(pool)}
}

// MergePools concatenates pools, trimming values and dropping blanks and duplicates.
func MergePools(pools ...[]string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, pool := range pools {
		for _, v := range pool {
			v = strings.TrimSpace(v)
			if v == "" {
				continue
			}
			if _, ok := seen[v]; ok {
				continue
			}
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	return out
}

// Select returns the credential at the cursor.
func (r *Rotator) Select() (Credential, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.pool) == 0 {
		return Credential{}, domain.ErrNoCredentials
	}
	return Credential{Index: r.cursor, Value: r.pool[r.cursor]}, nil
}

// ReportFailure records a failed call made with c. A retryable failure moves the
// cursor one step (mod pool size), unless another caller already moved it past c.
func (r *Rotator) ReportFailure(c Credential, class Classification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures++
	if class != Retryable || len(r.pool) == 0 {
		return
	}
	if c.Index != r.cursor {
		return
	}
	r.cursor = (r.cursor + 1) % len(r.pool)
}

// Size returns the number of credentials in the pool.
func (r *Rotator) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pool)
}

// Cursor returns the current cursor position.
func (r *Rotator) Cursor() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cursor
}

// Failures returns how many failures have been reported so far.
func (r *Rotator) Failures() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.failures
}

// Provider names the upstream service the pool belongs to.
func (r *Rotator) Provider() string {
	return r.provider
}
