package credentials

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"videofactory/internal/domain"
)

// DefaultSignals are lower-cased substrings that mark a provider error as quota,
// availability or per-key capability trouble. Providers change their wording, so
// the list is extended from configuration rather than treated as complete.
var DefaultSignals = []string{
	"429",
	"resource_exhausted",
	"quotaexceeded",
	"quota",
	"rate limit",
	"ratelimit",
	"too many requests",
	"503",
	"unavailable",
	"overloaded",
	"not supported",
	"unsupported",
}

// StatusCoder is implemented by provider errors carrying an HTTP status.
type StatusCoder interface {
	HTTPStatus() int
}

// Classifier decides whether a provider error warrants rotating to the next credential.
type Classifier struct {
	Signals         []string
	RetryableStatus map[int]bool
}

// DefaultClassifier returns the built-in policy.
func DefaultClassifier() Classifier {
	return Classifier{
		Signals: append([]string(nil), DefaultSignals...),
		RetryableStatus: map[int]bool{
			http.StatusTooManyRequests:     true,
			http.StatusInternalServerError: true,
			http.StatusBadGateway:          true,
			http.StatusServiceUnavailable:  true,
			http.StatusGatewayTimeout:      true,
		},
	}
}

// WithSignals returns a copy of c that also matches extra substrings.
func (c Classifier) WithSignals(extra ...string) Classifier {
	out := Classifier{
		Signals:         append([]string(nil), c.Signals...),
		RetryableStatus: c.RetryableStatus,
	}
	for _, s := range extra {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			out.Signals = append(out.Signals, s)
		}
	}
	return out
}

// Classify maps err onto the rotation taxonomy.
func (c Classifier) Classify(err error) Classification {
	if err == nil {
		return Fatal
	}
	if errors.Is(err, context.Canceled) {
		return Fatal
	}
	if errors.Is(err, domain.ErrQuotaExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return Retryable
	}
	var sc StatusCoder
	if errors.As(err, &sc) && c.RetryableStatus[sc.HTTPStatus()] {
		return Retryable
	}
	msg := strings.ToLower(err.Error())
	for _, s := range c.Signals {
		if s != "" && strings.Contains(msg, s) {
			return Retryable
		}
	}
	return Fatal
}
