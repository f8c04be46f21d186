package main

import (
	"context"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Veraticus/grantlens/internal/assets"
	"github.com/Veraticus/grantlens/internal/config"
	"github.com/Veraticus/grantlens/internal/nih"
	"github.com/Veraticus/grantlens/internal/pipeline"
	"github.com/Veraticus/grantlens/internal/tui"
)

func dashboardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Browse the analysis in an interactive dashboard",
		Long: `Open a full-screen dashboard with one tab per analysis: overview, data
quality, companies, distribution, trends, categories, transforms,
hypotheses, recipients, NIH awards and asset checks.

Press r inside the dashboard to reload the files from disk. Log output is
suppressed while the dashboard is open.`,
		RunE: runDashboard,
	}

	cmd.Flags().Int("top", 10, "number of NIH agencies and topics to list")

	return cmd
}

func runDashboard(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	top, _ := cmd.Flags().GetInt("top")

	previous := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
	defer slog.SetDefault(previous)

	return tui.Run(cmd.Context(), dashboardLoader(cfg, newDatasetCache(cfg, nil)), tui.WithTopN(top))
}

// dashboardLoader builds everything the dashboard shows. Each call drops the
// cached dataset so a reload picks up changed files.
func dashboardLoader(cfg *config.Config, cache *pipeline.Cache) tui.LoadFunc {
	return func(ctx context.Context) (*tui.Data, error) {
		cache.Invalidate()
		report, err := buildReport(ctx, cfg, cache, nil)
		if err != nil {
			return nil, err
		}
		data := &tui.Data{Report: report}

		data.NIH, data.NIHErr = nih.Load(ctx, cfg.NIHDir)

		manifest, err := assets.LoadManifest(cfg.AssetsManifest)
		if err != nil {
			return nil, err
		}
		data.Assets = assets.Check(cfg.AssetsDir, manifest)
		return data, nil
	}
}
