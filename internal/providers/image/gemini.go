package image

import (
	"context"
	"errors"
	"time"

	"videofactory/internal/infra"
	"videofactory/internal/infra/credentials"
	"videofactory/internal/providers/genai"
)

const defaultAttemptMultiplier = 2

// ImageClient is the part of the Gemini client the generator needs.
type ImageClient interface {
	GenerateImage(ctx context.Context, apiKey, prompt string) (genai.Blob, error)
}

// RotatingOptions configures RotatingGenerator.
type RotatingOptions struct {
	Client            ImageClient
	Rotator           *credentials.Rotator
	AttemptMultiplier int
	MinWait           time.Duration
	MaxWait           time.Duration
	Classifier        *credentials.Classifier
	Logger            *infra.Logger
	Sleep             func(ctx context.Context, d time.Duration) error
}

// RotatingGenerator calls the image model with credentials from a shared pool.
// Every failure rotates to the next key; the call gives up after
// pool size x AttemptMultiplier attempts.
type RotatingGenerator struct {
	client     ImageClient
	rotator    *credentials.Rotator
	multiplier int
	policy     credentials.Policy
	logger     *infra.Logger
}

func NewRotatingGenerator(opts RotatingOptions) (*RotatingGenerator, error) {
	if opts.Client == nil {
		return nil, errors.New("image: client is required")
	}
	if opts.Rotator == nil {
		return nil, errors.New("image: rotator is required")
	}
	multiplier := opts.AttemptMultiplier
	if multiplier <= 0 {
		multiplier = defaultAttemptMultiplier
	}
	logger := infra.OrNop(opts.Logger)
	return &RotatingGenerator{
		client:     opts.Client,
		rotator:    opts.Rotator,
		multiplier: multiplier,
		policy: credentials.Policy{
			RotateOnFatal: true,
			MinWait:       opts.MinWait,
			MaxWait:       opts.MaxWait,
			Classifier:    opts.Classifier,
			Logger:        logger,
			Sleep:         opts.Sleep,
		},
		logger: logger,
	}, nil
}

// Budget is the number of attempts one Generate call may make.
func (g *RotatingGenerator) Budget() int {
	return g.rotator.Size() * g.multiplier
}

// Generate returns the first image the model produces. It fails with
// domain.ErrGenerationExhausted once the budget is spent and with
// domain.ErrNoCredentials when the pool is empty.
func (g *RotatingGenerator) Generate(ctx context.Context, prompt string) ([]byte, error) {
	policy := g.policy
	policy.Attempts = g.Budget()
	blob, err := credentials.Call(ctx, g.rotator, policy, func(ctx context.Context, cred credentials.Credential) (genai.Blob, error) {
		g.logger.Debug().Int("credential", cred.Index+1).Msg("image: generating")
		return g.client.GenerateImage(ctx, cred.Value, prompt)
	})
	if err != nil {
		return nil, err
	}
	return blob.Data, nil
}

var _ Generator = (*RotatingGenerator)(nil)
