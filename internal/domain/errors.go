package domain

import "errors"

// Acquisition failures are absorbed by the orchestrator and turned into "try the next tier".
// Only ErrNoCredentials and ErrInvalidStory are meant to stop a run.
var (
	ErrNetwork             = errors.New("network failure")
	ErrValidation          = errors.New("resource rejected")
	ErrBlacklisted         = errors.New("blacklisted domain")
	ErrQuotaExceeded       = errors.New("quota exceeded")
	ErrProviderFailure     = errors.New("provider failure")
	ErrGenerationExhausted = errors.New("generation exhausted")
	ErrNoCredentials       = errors.New("no credentials available")
	ErrInvalidStory        = errors.New("invalid story")
	ErrNotFound            = errors.New("not found")
)
