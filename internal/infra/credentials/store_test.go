package credentials

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type stubExecutor struct {
	tokens []string
	err    error
	exec   struct {
		query string
		args  []any
	}
}

func (s *stubExecutor) Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	s.exec.query = query
	s.exec.args = args
	return pgconn.CommandTag{}, s.err
}

func (s *stubExecutor) QueryRow(ctx context.Context, query string, args ...any) pgx.Row {
	return nil
}

func (s *stubExecutor) Query(ctx context.Context, query string, args ...any) (pgx.Rows, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &stubRows{tokens: s.tokens, pos: -1}, nil
}

type stubRows struct {
	pgx.Rows
	tokens []string
	pos    int
}

func (r *stubRows) Next() bool {
	r.pos++
	return r.pos < len(r.tokens)
}

func (r *stubRows) Scan(dest ...any) error {
	if len(dest) == 0 {
		return errors.New("no dest")
	}
	ptr, ok := dest[0].(*string)
	if !ok {
		return errors.New("invalid dest")
	}
	*ptr = r.tokens[r.pos]
	return nil
}

func (r *stubRows) Err() error { return nil }
func (r *stubRows) Close()     {}

func TestTokensTrimsAndSkipsBlank(t *testing.T) {
	store := NewStore(&stubExecutor{tokens: []string{" k1 ", "", "k2"}})
	tokens, err := store.Tokens(context.Background(), ProviderGemini)
	if err != nil {
		t.Fatalf("Tokens error: %v", err)
	}
	if len(tokens) != 2 || tokens[0] != "k1" || tokens[1] != "k2" {
		t.Fatalf("unexpected tokens %#v", tokens)
	}
}

func TestTokensPropagatesQueryError(t *testing.T) {
	store := NewStore(&stubExecutor{err: errors.New("boom")})
	if _, err := store.Tokens(context.Background(), ProviderSerper); err == nil {
		t.Fatal("expected error")
	}
}

func TestAddCredential(t *testing.T) {
	exec := &stubExecutor{}
	store := NewStore(exec)
	if err := store.Add(context.Background(), "Gemini", " secret ", "backup"); err != nil {
		t.Fatalf("Add error: %v", err)
	}
	if len(exec.exec.args) != 3 {
		t.Fatalf("expected 3 args, got %d", len(exec.exec.args))
	}
	if v, ok := exec.exec.args[0].(string); !ok || v != "gemini" {
		t.Fatalf("expected provider gemini, got %T %v", exec.exec.args[0], exec.exec.args[0])
	}
	if v, ok := exec.exec.args[1].(string); !ok || v != "secret" {
		t.Fatalf("expected secret argument, got %T %v", exec.exec.args[1], exec.exec.args[1])
	}
	if raw, ok := exec.exec.args[2].([]byte); !ok || string(raw) != `{"label":"backup"}` {
		t.Fatalf("unexpected properties %v", exec.exec.args[2])
	}
}

func TestAddCredentialEmpty(t *testing.T) {
	store := NewStore(&stubExecutor{})
	if err := store.Add(context.Background(), ProviderGemini, " ", ""); err == nil {
		t.Fatal("expected error for empty key")
	}
	if err := store.Add(context.Background(), "", "key", ""); err == nil {
		t.Fatal("expected error for empty provider")
	}
}

func TestDisableCredential(t *testing.T) {
	exec := &stubExecutor{}
	store := NewStore(exec)
	if err := store.Disable(context.Background(), ProviderSerper, "k"); err != nil {
		t.Fatalf("Disable error: %v", err)
	}
	if len(exec.exec.args) != 2 {
		t.Fatalf("expected 2 args, got %d", len(exec.exec.args))
	}
}
