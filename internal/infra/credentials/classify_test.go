package credentials

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"videofactory/internal/domain"
)

type statusErr int

func (s statusErr) Error() string   { return fmt.Sprintf("status %d", int(s)) }
func (s statusErr) HTTPStatus() int { return int(s) }

func TestClassify(t *testing.T) {
	c := DefaultClassifier()
	cases := []struct {
		name string
		err  error
		want Classification
	}{
		{"quota text", errors.New("googleapi: Error 429: RESOURCE_EXHAUSTED"), Retryable},
		{"rate limit", errors.New("Rate limit reached for requests"), Retryable},
		{"unavailable", errors.New("model is UNAVAILABLE right now"), Retryable},
		{"capability", errors.New("response modality IMAGE is not supported"), Retryable},
		{"status 503", statusErr(503), Retryable},
		{"status 400", statusErr(400), Fatal},
		{"sentinel quota", fmt.Errorf("wrap: %w", domain.ErrQuotaExceeded), Retryable},
		{"deadline", context.DeadlineExceeded, Retryable},
		{"canceled", context.Canceled, Fatal},
		{"bad prompt", errors.New("invalid prompt: safety block"), Fatal},
		{"nil", nil, Fatal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := c.Classify(tc.err); got != tc.want {
				t.Fatalf("Classify(%v) = %s, want %s", tc.err, got, tc.want)
			}
		})
	}
}

func TestClassifierWithSignals(t *testing.T) {
	base := DefaultClassifier()
	err := errors.New("billing account suspended")
	if base.Classify(err) != Fatal {
		t.Fatal("expected fatal before extension")
	}
	ext := base.WithSignals(" Billing Account ")
	if ext.Classify(err) != Retryable {
		t.Fatal("expected retryable after extension")
	}
	if base.Classify(err) != Fatal {
		t.Fatal("extension leaked into base classifier")
	}
}
