package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Veraticus/grantlens/internal/cli"
	"github.com/Veraticus/grantlens/internal/model"
	"github.com/Veraticus/grantlens/internal/storage"
)

func cleanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Load and clean the grant extracts",
		Long: `Load every configured organization's grantmaker and grant files, clean
them, and print how many rows each step kept.

When storage.path points at a file, the cleaned dataset is saved there so
later runs can inspect it. A dataset already in the file is kept as an
automatic checkpoint first; see 'grantlens checkpoint'.`,
		RunE: runClean,
	}

	cmd.Flags().Bool("quiet", false, "hide the progress bar")

	return cmd
}

func runClean(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	quiet, _ := cmd.Flags().GetBool("quiet")
	progress := cmd.ErrOrStderr()
	if quiet {
		progress = nil
	}

	ds, err := newDatasetCache(cfg, progress).Get(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, cli.FormatTitle("Data Cleaning Report"))
	fmt.Fprintln(out, cleaningTable(ds.Report))
	fmt.Fprintln(out, cli.FormatInfo(fmt.Sprintf("%s grants, %s grantmakers, %s merged rows (run %s)",
		cli.Count(len(ds.Grants)), cli.Count(len(ds.Grantmakers)), cli.Count(len(ds.Merged)), ds.Report.RunID)))

	if cfg.StoragePath == storage.MemoryPath {
		return nil
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			slog.Warn("Failed to close storage", "error", closeErr)
		}
	}()

	if cm, err := store.Checkpoints(); err == nil {
		info, err := cm.AutoCheckpoint(ctx, "clean")
		if err != nil {
			return err
		}
		if info != nil {
			fmt.Fprintln(out, cli.FormatInfo("Previous dataset kept as checkpoint "+info.ID))
		}
	}

	if err := store.SaveDataset(ctx, ds); err != nil {
		return fmt.Errorf("failed to save dataset: %w", err)
	}
	fmt.Fprintln(out, cli.FormatSuccess("Saved dataset to "+store.Path()))
	return nil
}

// cleaningTable renders per-organization counts and retention with a total
// row.
func cleaningTable(report *model.CleaningReport) string {
	row := func(name string, r model.OrgReport) []string {
		return []string{
			name,
			cli.Count(r.GrantsOriginal),
			cli.Count(r.GrantsRemoved),
			cli.Count(r.GrantsFinal),
			cli.Percent(r.GrantsRetention() * 100),
			cli.Count(r.GrantmakersOriginal),
			cli.Count(r.GrantmakersRemoved),
			cli.Count(r.GrantmakersFinal),
			cli.Percent(r.GrantmakersRetention() * 100),
		}
	}

	rows := make([][]string, 0, len(report.Orgs)+1)
	for _, org := range report.Orgs {
		rows = append(rows, row(org, report.ByOrg[org]))
	}
	rows = append(rows, row("Total", report.Totals()))

	return cli.Table([]string{
		"Company", "Grants", "Removed", "Kept", "Retention",
		"Grantmakers", "Removed", "Kept", "Retention",
	}, rows)
}
