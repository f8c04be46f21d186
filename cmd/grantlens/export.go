package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/grantlens/internal/analysis"
	"github.com/Veraticus/grantlens/internal/cli"
	"github.com/Veraticus/grantlens/internal/config"
	"github.com/Veraticus/grantlens/internal/export"
	"github.com/Veraticus/grantlens/internal/sheets"
)

// newSheetsWriter builds the Google Sheets writer. Tests replace it.
var newSheetsWriter = func(ctx context.Context, cfg sheets.Config) (sheets.ReportWriter, error) {
	return sheets.NewWriter(ctx, cfg, slog.Default())
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the analysis as spreadsheet tabs",
		Long: `Export the cleaning summary, company metrics, categories, yearly trends,
hypothesis tests and findings as one tab each, either to a local xlsx
workbook or to a Google Sheet.`,
	}

	cmd.PersistentFlags().StringSlice("section", nil, "limit the analysis to these sections (repeatable)")

	cmd.AddCommand(exportXLSXCmd())
	cmd.AddCommand(exportSheetsCmd())

	return cmd
}

func exportXLSXCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "xlsx",
		Short: "Write the report to an xlsx workbook",
		RunE:  runExportXLSX,
	}

	cmd.Flags().StringP("out", "o", "grant_report.xlsx", "output file")

	return cmd
}

func exportSheetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sheets",
		Short: "Write the report to a Google Sheet",
		Long: `Write the report to a Google Sheet. A new spreadsheet is created unless
sheets.spreadsheet_id or --spreadsheet-id names an existing one; its tabs
are replaced.

Authenticate first with 'grantlens auth sheets', or configure a service
account with sheets.service_account_path.`,
		RunE: runExportSheets,
	}

	cmd.Flags().String("spreadsheet-id", "", "existing spreadsheet to update (overrides config)")

	return cmd
}

func runExportXLSX(cmd *cobra.Command, _ []string) error {
	ctx := cli.NewInterruptHandler(cmd.ErrOrStderr()).HandleInterrupts(cmd.Context(), "Export")
	path, _ := cmd.Flags().GetString("out")

	report, err := exportReport(ctx, cmd)
	if err != nil {
		return err
	}
	tabs, err := export.BuildTabs(report)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := export.SaveXLSX(path, tabs); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Wrote %d tabs to %s", len(tabs), path)))
	return nil
}

func runExportSheets(cmd *cobra.Command, _ []string) error {
	ctx := cli.NewInterruptHandler(cmd.ErrOrStderr()).HandleInterrupts(cmd.Context(), "Export")

	sheetsCfg, err := config.LoadSheetsConfig(viper.GetViper())
	if err != nil {
		return fmt.Errorf("google Sheets is not configured: %w", err)
	}
	if id, _ := cmd.Flags().GetString("spreadsheet-id"); id != "" {
		sheetsCfg.SpreadsheetID = id
	}

	report, err := exportReport(ctx, cmd)
	if err != nil {
		return err
	}
	tabs, err := export.BuildTabs(report)
	if err != nil {
		return err
	}

	writer, err := newSheetsWriter(ctx, *sheetsCfg)
	if err != nil {
		return fmt.Errorf("failed to create sheets writer: %w", err)
	}

	data := &sheets.ReportData{
		GeneratedAt: time.Now(),
		Title:       sheetsCfg.SpreadsheetName,
		RunID:       report.RunID,
		Tabs:        tabs,
	}
	if err := writer.Write(ctx, data); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Wrote %d tabs to %q", len(tabs), sheetsCfg.SpreadsheetName)))
	return nil
}

func exportReport(ctx context.Context, cmd *cobra.Command) (*analysis.Report, error) {
	names, _ := cmd.Flags().GetStringSlice("section")
	sections, err := parseSections(names)
	if err != nil {
		return nil, err
	}

	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return buildReport(ctx, cfg, newDatasetCache(cfg, cmd.ErrOrStderr()), sections)
}
