package domain

import "context"

// RunRepository persists acquisition runs for later attribution and auditing.
type RunRepository interface {
	SaveRun(ctx context.Context, run Run) error
	ListResults(ctx context.Context, runID string) ([]AcquisitionResult, error)
}

// CredentialSource yields additional pool credentials for a provider, in pool order.
type CredentialSource interface {
	Tokens(ctx context.Context, provider string) ([]string, error)
}
