package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"videofactory/internal/infra"
	"videofactory/internal/infra/credentials"
)

func main() {
	var (
		keyFlag      string
		providerFlag string
		labelFlag    string
		disableFlag  bool
	)
	flag.StringVar(&keyFlag, "key", "", "API key to add to the pool (fallbacks to environment)")
	flag.StringVar(&providerFlag, "provider", credentials.ProviderGemini, "pool to extend (gemini or serper)")
	flag.StringVar(&labelFlag, "label", "", "free-form label stored with the key")
	flag.BoolVar(&disableFlag, "disable", false, "disable the key instead of adding it")
	flag.Parse()

	provider := strings.TrimSpace(strings.ToLower(providerFlag))
	switch provider {
	case credentials.ProviderGemini, credentials.ProviderSerper:
	case "":
		provider = credentials.ProviderGemini
	default:
		fmt.Fprintf(os.Stderr, "unsupported provider %q\n", providerFlag)
		os.Exit(1)
	}

	key := strings.TrimSpace(keyFlag)
	if key == "" {
		key = strings.TrimSpace(os.Getenv(strings.ToUpper(provider) + "_API_KEY"))
	}
	if key == "" {
		fmt.Fprintf(os.Stderr, "%s API key is required via -key or environment\n", strings.ToUpper(provider))
		os.Exit(1)
	}

	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dbURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is required")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create pool: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	logger := infra.NewLogger("cli").With().Str("cmd", "credkey").Str("provider", provider).Logger()
	store := credentials.NewStore(infra.NewSQLRunner(pool, logger))

	if disableFlag {
		err = store.Disable(ctx, provider, key)
	} else {
		err = store.Add(ctx, provider, key, labelFlag)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to update %s pool: %v\n", provider, err)
		os.Exit(1)
	}

	tokens, err := store.Tokens(ctx, provider)
	if err != nil {
		fmt.Fprintf(os.Stderr, "key stored, but listing the pool failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("%s pool now holds %d stored key(s)\n", strings.ToUpper(provider), len(tokens))
}
