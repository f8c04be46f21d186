package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Veraticus/grantlens/internal/cli"
	"github.com/Veraticus/grantlens/internal/common"
	"github.com/Veraticus/grantlens/internal/config"
	"github.com/Veraticus/grantlens/internal/nih"
)

func nihCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "nih",
		Short: "Summarize NIH awards to the configured organizations",
		Long: `Load the NIH award, location and topic tables and print the top funding
agencies, the top topics of each kind, and award distributions per
organization.

Files that fail to load are listed and skipped; the rest are still shown.

Examples:
  # Top 5 agencies and topics
  grantlens nih --top 5

  # Add state-by-year totals keyed by the agency's state
  grantlens nih --states --by agency

  # Persist the awards and topic tables for later queries
  grantlens nih --save`,
		RunE: runNIH,
	}

	cmd.Flags().Int("top", 10, "number of agencies and topics to list")
	cmd.Flags().String("by", string(nih.ByOrganizationState), "state to group totals by (organization, agency)")
	cmd.Flags().Bool("states", false, "print state-by-year totals")
	cmd.Flags().Bool("save", false, "save the NIH tables to storage")

	return cmd
}

func runNIH(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	top, _ := cmd.Flags().GetInt("top")
	by, _ := cmd.Flags().GetString("by")
	showStates, _ := cmd.Flags().GetBool("states")
	save, _ := cmd.Flags().GetBool("save")

	stateBy := nih.StateBy(by)
	if stateBy != nih.ByOrganizationState && stateBy != nih.ByAgencyState {
		return fmt.Errorf("invalid --by %q: expected organization or agency", by)
	}
	if top < 1 {
		return fmt.Errorf("invalid --top %d: must be at least 1", top)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	data, err := nih.Load(ctx, cfg.NIHDir)
	if err != nil {
		if errors.Is(err, nih.ErrDataDirMissing) {
			return common.NewUserError("NIH data directory not found: "+cfg.NIHDir, err)
		}
		return err
	}

	fmt.Fprintln(out, cli.FormatTitle(fmt.Sprintf("%s NIH Awards (%s awards)", cli.GrantIcon, cli.Count(len(data.Awards)))))
	for _, name := range data.Failed() {
		fmt.Fprintln(out, cli.FormatWarning(fmt.Sprintf("%s: %v", name, data.Errors[name])))
	}

	writeAgencies(out, nih.TopAgencies(data.Awards, top))
	for _, kind := range nih.AllTopicKinds() {
		rows, ok := data.Topics[kind]
		if !ok {
			continue
		}
		writeTopics(out, kind, nih.TopTopics(rows, top))
	}
	writeDistributions(out, nih.OrganizationDistributions(data.Awards))

	if showStates {
		writeStateTotals(out, nih.StateYearTotals(data.Awards, nil, stateBy), stateBy)
	}

	if save {
		return saveNIH(cmd, cfg, data, top)
	}
	return nil
}

func writeAgencies(out io.Writer, agencies []nih.AgencySummary) {
	fmt.Fprintln(out)
	fmt.Fprintln(out, cli.FormatInfo("Top funding agencies"))
	rows := make([][]string, 0, len(agencies))
	for i, a := range agencies {
		first, last := "", ""
		if len(a.Years) > 0 {
			first = strconv.Itoa(a.Years[0].FiscalYear)
			last = strconv.Itoa(a.Years[len(a.Years)-1].FiscalYear)
		}
		rows = append(rows, []string{strconv.Itoa(i + 1), a.Agency, cli.Money(a.Total), first, last})
	}
	fmt.Fprintln(out, cli.Table([]string{"#", "Agency", "Total", "First FY", "Last FY"}, rows))
}

func writeTopics(out io.Writer, kind nih.TopicKind, topics []nih.TopicTrend) {
	fmt.Fprintln(out)
	fmt.Fprintln(out, cli.FormatInfo(fmt.Sprintf("Top %s topics", kind)))
	rows := make([][]string, 0, len(topics))
	for i, t := range topics {
		projects := 0
		for _, y := range t.Years {
			projects += y.NumProjects
		}
		rows = append(rows, []string{strconv.Itoa(i + 1), t.Topic, cli.Money(t.Total), cli.Count(projects)})
	}
	fmt.Fprintln(out, cli.Table([]string{"#", "Topic", "Total", "Projects"}, rows))
}

func writeDistributions(out io.Writer, dists []nih.OrgDistribution) {
	fmt.Fprintln(out)
	fmt.Fprintln(out, cli.FormatInfo("Award distributions by organization"))
	rows := make([][]string, 0, len(dists))
	for _, d := range dists {
		rows = append(rows, []string{
			d.Organization,
			cli.Count(d.Amount.Count),
			cli.MoneyShort(d.Amount.Median),
			cli.MoneyShort(d.Amount.Mean),
			cli.MoneyShort(d.Amount.Max),
			cli.Number(d.Duration.Median, 0) + "d",
		})
	}
	fmt.Fprintln(out, cli.Table([]string{"Organization", "Awards", "Median", "Mean", "Max", "Median Duration"}, rows))
}

func writeStateTotals(out io.Writer, totals []nih.StateYearTotal, by nih.StateBy) {
	fmt.Fprintln(out)
	fmt.Fprintln(out, cli.FormatInfo(fmt.Sprintf("Totals by %s state and fiscal year", by)))
	rows := make([][]string, 0, len(totals))
	for _, t := range totals {
		rows = append(rows, []string{
			t.Organization,
			t.State,
			strconv.Itoa(t.FiscalYear),
			cli.Count(t.Awards),
			cli.Money(t.AwardAmount),
		})
	}
	fmt.Fprintln(out, cli.Table([]string{"Organization", "State", "FY", "Awards", "Total"}, rows))
}

func saveNIH(cmd *cobra.Command, cfg *config.Config, data *nih.Data, top int) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			slog.Warn("Failed to close storage", "error", closeErr)
		}
	}()

	if err := nih.Save(ctx, store, data); err != nil {
		return fmt.Errorf("failed to save NIH data: %w", err)
	}

	totals, err := store.AgencyTotals(ctx, top)
	if err != nil {
		return err
	}
	counts := make([]string, 0, len(data.Topics))
	for _, kind := range nih.AllTopicKinds() {
		n, err := store.TopicCount(ctx, string(kind))
		if err != nil {
			return err
		}
		counts = append(counts, fmt.Sprintf("%s %s", cli.Count(n), kind))
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Saved %s awards to %s", cli.Count(len(data.Awards)), store.Path())))
	fmt.Fprintln(out, cli.FormatInfo(fmt.Sprintf("Topic rows: %s", strings.Join(counts, ", "))))

	rows := make([][]string, 0, len(totals))
	for _, t := range totals {
		rows = append(rows, []string{t.Agency, cli.Count(t.Awards), cli.Money(t.Total), cli.Number(t.Duration, 0) + "d"})
	}
	fmt.Fprintln(out, cli.Table([]string{"Agency", "Awards", "Total", "Avg Duration"}, rows))
	return nil
}
