package credentials

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog"

	"videofactory/internal/domain"
	"videofactory/internal/infra"
)

const (
	defaultMinWait = 2 * time.Second
	defaultMaxWait = 10 * time.Second
)

// Policy bounds a rotating call.
type Policy struct {
	// Attempts caps the total number of provider calls. Zero means one pass over the pool.
	Attempts int
	// RotateOnFatal keeps rotating on errors the classifier does not recognise.
	RotateOnFatal bool
	MinWait       time.Duration
	MaxWait       time.Duration
	Classifier    *Classifier
	// Exhausted is wrapped into the error returned when the budget runs out.
	// Defaults to domain.ErrGenerationExhausted.
	Exhausted error
	Logger        *infra.Logger
	// Sleep replaces the real timer, mainly for tests.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Call invokes fn with credentials chosen by r until it succeeds, a fatal error is
// met (unless RotateOnFatal) or the attempt budget runs out. Quota-like failures
// rotate the shared cursor and wait before the next attempt.
func Call[T any](ctx context.Context, r *Rotator, p Policy, fn func(ctx context.Context, cred Credential) (T, error)) (T, error) {
	var zero T
	if r == nil || r.Size() == 0 {
		return zero, domain.ErrNoCredentials
	}

	attempts := p.Attempts
	if attempts <= 0 {
		attempts = r.Size()
	}
	classifier := DefaultClassifier()
	if p.Classifier != nil {
		classifier = *p.Classifier
	}
	logger := p.Logger
	if logger == nil {
		discard := zerolog.New(io.Discard)
		logger = &discard
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = durationOr(p.MinWait, defaultMinWait)
	bo.MaxInterval = durationOr(p.MaxWait, defaultMaxWait)
	bo.RandomizationFactor = 0
	bo.Reset()

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		cred, err := r.Select()
		if err != nil {
			return zero, err
		}
		out, err := fn(ctx, cred)
		if err == nil {
			return out, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return zero, ctxErr
		}
		lastErr = err

		class := classifier.Classify(err)
		if class == Fatal && !p.RotateOnFatal {
			r.ReportFailure(cred, Fatal)
			logger.Warn().Err(err).
				Str("provider", r.Provider()).
				Int("credential", cred.Index+1).
				Int("attempt", attempt).
				Msg("credentials: fatal provider error")
			return zero, err
		}

		r.ReportFailure(cred, Retryable)
		logger.Warn().Err(err).
			Str("provider", r.Provider()).
			Int("credential", cred.Index+1).
			Int("attempt", attempt).
			Int("budget", attempts).
			Str("class", class.String()).
			Msg("credentials: rotating to next credential")

		if class == Retryable && attempt < attempts {
			wait := bo.NextBackOff()
			if wait < 0 {
				wait = bo.MaxInterval
			}
			if err := sleep(ctx, wait); err != nil {
				return zero, err
			}
		}
	}
	exhausted := p.Exhausted
	if exhausted == nil {
		exhausted = domain.ErrGenerationExhausted
	}
	return zero, fmt.Errorf("%w: %d attempts: %w", exhausted, attempts, lastErr)
}

func durationOr(d, fallback time.Duration) time.Duration {
	if d > 0 {
		return d
	}
	return fallback
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
