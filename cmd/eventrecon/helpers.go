package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/meridianhq/eventrecon/internal/config"
	"github.com/meridianhq/eventrecon/internal/engine"
	"github.com/meridianhq/eventrecon/internal/llm"
	"github.com/meridianhq/eventrecon/internal/service"
	"github.com/meridianhq/eventrecon/internal/storage"
)

// initStorage opens the result database and brings the schema up to date.
func initStorage(ctx context.Context) (service.Storage, error) {
	store, err := storage.NewSQLiteStorage(config.DatabasePath())
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// initEngine assembles the matching engine from config. When a model
// scorer is configured it becomes the primary path with the deterministic
// scorer as fallback; otherwise the deterministic path runs alone. The
// returned cleanup releases scorer resources and is safe to call always.
func initEngine() (*engine.Engine, func(), error) {
	matchingCfg := config.Matching()
	scoringCfg := config.Scoring()

	modelCfg, enabled, err := config.ModelScorer()
	if err != nil {
		return nil, nil, fmt.Errorf("model scorer misconfigured: %w", err)
	}

	if !enabled {
		e := engine.New(matchingCfg, scoringCfg, nil, nil, slog.Default())
		return e, func() {}, nil
	}

	scorer, err := llm.NewScorer(modelCfg, slog.Default())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create model scorer: %w", err)
	}

	e := engine.New(matchingCfg, scoringCfg, scorer, scorer, slog.Default())
	cleanup := func() {
		if closeErr := scorer.Close(); closeErr != nil {
			slog.Warn("failed to close model scorer", "error", closeErr)
		}
	}
	return e, cleanup, nil
}
