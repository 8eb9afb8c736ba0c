package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"syscall"

	"golang.org/x/term"

	"github.com/xeenaps/pkm/internal/adapter/postgres"
	"github.com/xeenaps/pkm/internal/config"
	"github.com/xeenaps/pkm/internal/middleware"
	"github.com/xeenaps/pkm/internal/service"
)

// runAdmin dispatches admin subcommands (migrate-status, rollback, hash-key, vip-ad).
func runAdmin(args []string) error {
	if len(args) == 0 || args[0] == "help" || args[0] == "--help" {
		printAdminHelp()
		return nil
	}

	switch args[0] {
	case "migrate-status":
		return runAdminMigrateStatus()
	case "rollback":
		return runAdminRollback(args[1:])
	case "hash-key":
		return runAdminHashKey(args[1:])
	case "vip-ad":
		return runAdminVipAd()
	default:
		printAdminHelp()
		return fmt.Errorf("unknown admin command: %s", args[0])
	}
}

func printAdminHelp() {
	fmt.Fprintf(os.Stderr, `Usage: xeenaps admin <command> [options]

Commands:
  migrate-status   Print the applied migration version
  rollback         Roll back the most recent migrations
  hash-key         Hash an API key for auth.api_key_hash
  vip-ad           Fetch the advertisement feed and print the active ad
  help             Show this help message

Examples:
  xeenaps admin migrate-status
  xeenaps admin rollback --steps 2
  xeenaps admin hash-key
  xeenaps admin vip-ad
`)
}

// withMigrator loads the config, connects and hands fn a migrator.
func withMigrator(fn func(context.Context, *postgres.Migrator) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()

	m, err := postgres.NewMigrator(pool)
	if err != nil {
		return err
	}
	defer func() { _ = m.Close() }()
	return fn(ctx, m)
}

func runAdminMigrateStatus() error {
	return withMigrator(func(ctx context.Context, m *postgres.Migrator) error {
		v, err := m.Version(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "migration version: %d\n", v)
		return nil
	})
}

func runAdminRollback(args []string) error {
	fs := flag.NewFlagSet("rollback", flag.ContinueOnError)
	steps := fs.Int("steps", 1, "number of migrations to roll back")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *steps < 1 {
		return errors.New("--steps must be >= 1")
	}

	return withMigrator(func(ctx context.Context, m *postgres.Migrator) error {
		if err := m.Down(ctx, *steps); err != nil {
			return err
		}
		v, err := m.Version(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Rolled back %d migration(s), now at version %d\n", *steps, v)
		return nil
	})
}

func runAdminHashKey(args []string) error {
	fs := flag.NewFlagSet("hash-key", flag.ContinueOnError)
	key := fs.String("key", "", "API key (prompted if not provided)") //nolint:gosec // CLI flag
	if err := fs.Parse(args); err != nil {
		return err
	}

	k := *key
	if k == "" {
		var err error
		k, err = promptSecret("API key: ")
		if err != nil {
			return fmt.Errorf("read key: %w", err)
		}
		confirm, err := promptSecret("Confirm API key: ")
		if err != nil {
			return fmt.Errorf("read key: %w", err)
		}
		if k != confirm {
			return errors.New("keys do not match")
		}
	}
	if len(k) < 16 {
		return errors.New("API key must be at least 16 characters")
	}

	hash, err := middleware.HashKey(k)
	if err != nil {
		return fmt.Errorf("hash key: %w", err)
	}
	fmt.Fprintln(os.Stdout, hash)
	fmt.Fprintln(os.Stderr, "Set auth.api_key_hash (or XEENAPS_API_KEY_HASH) to the value above.")
	return nil
}

func runAdminVipAd() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.Ads.CSVURL == "" {
		return errors.New("ads.csv_url is not configured")
	}

	ads := service.NewAdService(cfg.Ads.CSVURL, cfg.Ads.Timeout, nil, 0)
	vip := ads.FetchVipAd(context.Background())
	if vip == nil {
		fmt.Fprintln(os.Stderr, "No active advertisement.")
		return nil
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(vip)
}

// promptSecret reads a line from the terminal without echo.
func promptSecret(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	b, err := term.ReadPassword(int(syscall.Stdin)) //nolint:unconvert // syscall.Stdin is int on unix, Handle on windows
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
