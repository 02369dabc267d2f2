package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"videofactory/internal/infra"
	"videofactory/internal/sqlinline"
)

const (
	ProviderGemini = "gemini"
	ProviderSerper = "serper"
)

// Store keeps credential pools in PostgreSQL so operators can add keys without
// touching the environment of every worker.
type Store struct {
	sql infra.SQLExecutor
}

func NewStore(sql infra.SQLExecutor) *Store {
	return &Store{sql: sql}
}

// Tokens returns the enabled credentials for provider in pool order.
func (s *Store) Tokens(ctx context.Context, provider string) ([]string, error) {
	rows, err := s.sql.Query(ctx, sqlinline.QSelectCredentialPool, provider)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tokens []string
	for rows.Next() {
		var token string
		if err := rows.Scan(&token); err != nil {
			return nil, err
		}
		if token = strings.TrimSpace(token); token != "" {
			tokens = append(tokens, token)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tokens, nil
}

// Add appends token to the provider pool, re-enabling it when it already exists.
func (s *Store) Add(ctx context.Context, provider, token, label string) error {
	provider = strings.TrimSpace(strings.ToLower(provider))
	token = strings.TrimSpace(token)
	if provider == "" {
		return errors.New("provider is required")
	}
	if token == "" {
		return errors.New(provider + " api key is required")
	}
	props := map[string]any{}
	if label = strings.TrimSpace(label); label != "" {
		props["label"] = label
	}
	raw, err := json.Marshal(props)
	if err != nil {
		return err
	}
	_, err = s.sql.Exec(ctx, sqlinline.QInsertCredential, provider, token, raw)
	return err
}

// Disable removes token from rotation without deleting its history.
func (s *Store) Disable(ctx context.Context, provider, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.New("token is required")
	}
	_, err := s.sql.Exec(ctx, sqlinline.QDisableCredential, strings.ToLower(provider), token)
	return err
}
