// Command seed loads glossary data into the database.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/encukou/prekapavac/internal/cache"
	"github.com/encukou/prekapavac/internal/config"
	"github.com/encukou/prekapavac/internal/database"
	"github.com/encukou/prekapavac/internal/observability"
	"github.com/encukou/prekapavac/internal/seed"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func usage() error {
	return fmt.Errorf("usage: seed import <file.yml> | seed demo [-users N] [-categories N] [-terms N] [-suggestions N] [-seed N]")
}

func run() error {
	if len(os.Args) < 2 {
		return usage()
	}
	command := strings.ToLower(os.Args[1])

	defaults := seed.DefaultDemoOptions()
	fs := flag.NewFlagSet(command, flag.ExitOnError)
	users := fs.Int("users", defaults.Users, "number of demo users, including admin")
	categories := fs.Int("categories", defaults.Categories, "number of demo categories")
	terms := fs.Int("terms", defaults.TermsPerCategory, "terms per category")
	suggestions := fs.Int("suggestions", defaults.SuggestionsPerTerm, "suggestions per term")
	rngSeed := fs.Int64("seed", 0, "random seed (0 for time-based)")
	if err := fs.Parse(os.Args[2:]); err != nil {
		return err
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	observability.InitLogger(cfg.Env, cfg.LogLevel)

	db, err := database.Connect(cfg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer func() { _ = database.Close(db) }()

	ctx := observability.WithCorrelationID(context.Background(), observability.NewCorrelationID())
	switch command {
	case "import":
		if fs.NArg() < 1 {
			return usage()
		}
		fh, err := os.Open(fs.Arg(0))
		if err != nil {
			return err
		}
		defer fh.Close()

		doc, err := seed.Parse(fh)
		if err != nil {
			return err
		}
		stats, err := seed.Import(ctx, db, doc)
		if err != nil {
			return fmt.Errorf("import failed: %w", err)
		}
		store, err := cache.Connect(ctx, cfg.RedisURL)
		if err != nil {
			observability.Logger.WarnContext(ctx, "progress cache not cleared", slog.String("error", err.Error()))
		} else {
			store.Invalidate(ctx, stats.ProgressKeys()...)
			_ = store.Close()
		}
		log.Printf("imported %s: %d created, %d updated", fs.Arg(0), stats.Created, stats.Updated)
	case "demo":
		result, err := seed.Demo(ctx, db, seed.DemoOptions{
			Users:              *users,
			Categories:         *categories,
			TermsPerCategory:   *terms,
			SuggestionsPerTerm: *suggestions,
			Seed:               *rngSeed,
		})
		if err != nil {
			return fmt.Errorf("demo seeding failed: %w", err)
		}
		log.Printf("demo project %q: %d users, %d terms, %d suggestions, %d votes",
			result.Project.Identifier, len(result.Users), result.Terms, result.Suggestions, result.Votes)
		log.Printf("all demo users have the password %q", seed.DemoPassword)
	default:
		return usage()
	}
	return nil
}
