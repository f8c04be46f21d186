package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/viper"

	"github.com/Veraticus/grantlens/internal/analysis"
	"github.com/Veraticus/grantlens/internal/classification"
	"github.com/Veraticus/grantlens/internal/cli"
	"github.com/Veraticus/grantlens/internal/config"
	"github.com/Veraticus/grantlens/internal/model"
	"github.com/Veraticus/grantlens/internal/pipeline"
	"github.com/Veraticus/grantlens/internal/storage"
)

// loadConfig resolves the configuration held by the global viper instance.
func loadConfig() (*config.Config, error) {
	return config.Load(viper.GetViper())
}

// newDatasetCache returns a memo holder that loads, cleans and categorizes
// the configured organizations on first use. A non-nil progress writer gets a
// progress bar.
func newDatasetCache(cfg *config.Config, progress io.Writer) *pipeline.Cache {
	categorizer := classification.NewDefaultCategorizer()
	return pipeline.NewCacheFunc(func(ctx context.Context) (*model.Dataset, error) {
		opts := []pipeline.Option{pipeline.WithLogger(slog.Default())}
		if progress != nil {
			bar := cli.NewLoadProgress(progress, len(cfg.Organizations), "Loading grants")
			opts = append(opts, pipeline.WithProgress(bar.Update))
		}

		ds, err := pipeline.LoadAndClean(ctx, cfg.Organizations, opts...)
		if err != nil {
			return nil, err
		}
		return categorizer.CategorizeDataset(ctx, ds)
	})
}

// openStore opens the analytic store at the configured path.
func openStore(ctx context.Context, cfg *config.Config) (*storage.SQLiteStorage, error) {
	store, err := storage.Open(ctx, cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}
	return store, nil
}

// buildReport loads the dataset through cache and analyzes the requested
// sections. Empty sections means all of them.
func buildReport(ctx context.Context, cfg *config.Config, cache *pipeline.Cache, sections []analysis.Section) (*analysis.Report, error) {
	ds, err := cache.Get(ctx)
	if err != nil {
		return nil, err
	}
	slog.Debug("Dataset ready", "grants", len(ds.Grants), "loads", cache.Loads())

	store, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			slog.Warn("Failed to close storage", "error", closeErr)
		}
	}()

	engine, err := analysis.NewEngine(analysis.Deps{Store: store, Logger: slog.Default()})
	if err != nil {
		return nil, err
	}
	return engine.Analyze(ctx, ds, analysis.Options{Sections: sections})
}

// parseSections resolves --section values.
func parseSections(names []string) ([]analysis.Section, error) {
	sections := make([]analysis.Section, 0, len(names))
	for _, name := range names {
		s, err := analysis.ParseSection(name)
		if err != nil {
			return nil, err
		}
		sections = append(sections, s)
	}
	return sections, nil
}
