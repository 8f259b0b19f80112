package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/KillerHyena/Inquiro/internal/dispatch"
	"github.com/KillerHyena/Inquiro/internal/infra"
	"github.com/KillerHyena/Inquiro/internal/infra/credentials"
	"github.com/KillerHyena/Inquiro/internal/sqlinline"
)

func main() {
	var (
		keyFlag    string
		appendFlag bool
		listFlag   bool
	)
	flag.StringVar(&keyFlag, "key", "", "OpenAI API key, or a comma separated list (falls back to OPENAI_API_KEYS / OPENAI_API_KEY)")
	flag.BoolVar(&appendFlag, "append", false, "add the key to the stored list instead of replacing it")
	flag.BoolVar(&listFlag, "list", false, "print the stored keys in redacted form and exit")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if cfg.DatabaseURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is required")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect database: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	logger := infra.NewLogger("cli", cfg.LogLevel).With().Str("cmd", "apikey").Logger()
	runner := infra.NewSQLRunner(pool, logger)
	if _, err := runner.Exec(ctx, sqlinline.QEnsureSchema); err != nil {
		fmt.Fprintf(os.Stderr, "failed to prepare schema: %v\n", err)
		os.Exit(1)
	}
	store := credentials.NewStore(runner)

	if listFlag {
		keys, err := store.OpenAIAPIKeys(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to load keys: %v\n", err)
			os.Exit(1)
		}
		if len(keys) == 0 {
			fmt.Println("no OpenAI API keys stored")
			return
		}
		for i, key := range keys {
			fmt.Printf("%d  %s\n", i, dispatch.Credential{Index: i, Key: key}.Redacted())
		}
		return
	}

	keys := credentials.SplitKeys(keyFlag)
	if len(keys) == 0 {
		keys = cfg.OpenAIAPIKeys
	}
	if len(keys) == 0 {
		fmt.Fprintln(os.Stderr, "an API key is required via -key or OPENAI_API_KEYS")
		os.Exit(1)
	}

	if appendFlag {
		for _, key := range keys {
			if err := store.AppendOpenAIAPIKey(ctx, key); err != nil {
				fmt.Fprintf(os.Stderr, "failed to append api key: %v\n", err)
				os.Exit(1)
			}
		}
	} else if err := store.SetOpenAIAPIKeys(ctx, keys); err != nil {
		fmt.Fprintf(os.Stderr, "failed to persist api keys: %v\n", err)
		os.Exit(1)
	}

	stored, err := store.OpenAIAPIKeys(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "keys stored, but reading them back failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("OpenAI API keys stored successfully (%d total)\n", len(stored))
}
