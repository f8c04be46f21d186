package main

import (
	"fmt"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/styles"
	"github.com/spf13/cobra"

	"github.com/Veraticus/grantlens/internal/analysis"
	"github.com/Veraticus/grantlens/internal/cli"
)

func reportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print the grant analysis report",
		Long: `Run the full analysis and print it as a markdown report rendered for the
terminal.

Sections: overview, quality, companies, states, distribution, trends,
categories, transforms, hypotheses, recipients, findings.

Examples:
  # Everything
  grantlens report

  # Only the hypothesis tests, as raw markdown
  grantlens report --section hypotheses --plain > hypotheses.md

  # A one-screen summary
  grantlens report --summary`,
		RunE: runReport,
	}

	cmd.Flags().StringSlice("section", nil, "limit the report to these sections (repeatable)")
	cmd.Flags().Bool("plain", false, "print raw markdown")
	cmd.Flags().Bool("summary", false, "print a short styled summary instead of the full report")
	cmd.Flags().Int("width", 100, "word wrap width for rendered markdown")

	return cmd
}

func runReport(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	names, _ := cmd.Flags().GetStringSlice("section")
	plain, _ := cmd.Flags().GetBool("plain")
	summary, _ := cmd.Flags().GetBool("summary")
	width, _ := cmd.Flags().GetInt("width")

	sections, err := parseSections(names)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	report, err := buildReport(ctx, cfg, newDatasetCache(cfg, cmd.ErrOrStderr()), sections)
	if err != nil {
		return err
	}

	if summary {
		fmt.Fprintln(out, analysis.NewCLIFormatter().WithWidth(width).FormatSummary(report))
		return nil
	}

	md := report.Markdown()
	if plain {
		fmt.Fprint(out, md)
		return nil
	}

	rendered, err := renderMarkdown(md, width)
	if err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	fmt.Fprint(out, rendered)

	if n := len(report.Warnings); n > 0 {
		fmt.Fprintln(cmd.ErrOrStderr(), cli.FormatWarning(fmt.Sprintf("%d analyses were skipped", n)))
	}
	return nil
}

// renderMarkdown renders md for the terminal, picking a light or dark style
// from the terminal background. Output that is not a terminal gets the
// plain style.
func renderMarkdown(md string, width int) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		r, err = glamour.NewTermRenderer(
			glamour.WithStandardStyle(styles.NoTTYStyle),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return "", err
		}
	}
	return r.Render(md)
}
