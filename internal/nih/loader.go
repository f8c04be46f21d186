// Package nih loads the derived NIH award extracts and aggregates them by
// organization, state, agency and research topic.
package nih

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/Veraticus/grantlens/internal/model"
	"github.com/Veraticus/grantlens/internal/pipeline"
)

// Files expected in the NIH data directory.
const (
	FileAwards          = "Main_Agen_loc.csv"
	FileOrgLocations    = "Org_loc.csv"
	FileAgencyLocations = "ic_location_map.csv"
	FileMainTopics      = "main_topic1.csv"
	FileDiseaseTopics   = "disease_topic_summary_df.csv"
	FileMethodTopics    = "method_topic_summary_df.csv"
)

// Award columns.
const (
	colOrganization = "Main_Organization"
	colOrgState     = "organization_org_state"
	colAgencyState  = "agency_state"
	colAgencyName   = "agency_ic_admin_name"
	colFiscalYear   = "fiscal_year"
	colAwardAmount  = "award_amount"
	colDuration     = "duration_days"
)

// Topic summary columns. The method summary names its topic column
// Method_Topic.
const (
	colTopic           = "Topic"
	colMethodTopic     = "Method_Topic"
	colDurationSum     = "duration_days_sum"
	colDurationAvg     = "duration_days_avg"
	colAwardAmountSum  = "award_amount_sum"
	colAwardAmountAvg  = "award_amount_avg"
	colNumProjects     = "num_projects"
	maxConcurrentReads = 4
)

// TopicKind identifies one of the topic summary tables.
type TopicKind string

// Topic summary kinds.
const (
	TopicMain    TopicKind = "main"
	TopicDisease TopicKind = "disease"
	TopicMethod  TopicKind = "method"
)

// AllTopicKinds returns the topic kinds in display order.
func AllTopicKinds() []TopicKind {
	return []TopicKind{TopicMain, TopicDisease, TopicMethod}
}

// File returns the CSV file that holds this kind of summary.
func (k TopicKind) File() string {
	switch k {
	case TopicDisease:
		return FileDiseaseTopics
	case TopicMethod:
		return FileMethodTopics
	default:
		return FileMainTopics
	}
}

func (k TopicKind) topicColumn() string {
	if k == TopicMethod {
		return colMethodTopic
	}
	return colTopic
}

// ErrDataDirMissing is returned when the NIH data directory does not exist.
var ErrDataDirMissing = errors.New("NIH data directory not found")

// Data is everything that loaded from one NIH directory. A table that failed
// to load is absent and its error is recorded in Errors, keyed by file name.
type Data struct {
	Topics          map[TopicKind][]model.TopicSummary
	Errors          map[string]error
	OrgLocations    *model.Table
	AgencyLocations *model.Table
	Dir             string
	Awards          []model.Award
}

// Failed returns the names of files that did not load, sorted.
func (d *Data) Failed() []string {
	out := make([]string, 0, len(d.Errors))
	for name := range d.Errors {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Load reads every NIH table in dir concurrently. A missing or malformed
// file is recorded in Data.Errors and does not stop the other tables; only a
// missing directory fails the call.
func Load(ctx context.Context, dir string) (*Data, error) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrDataDirMissing, dir)
	}

	d := &Data{
		Dir:    dir,
		Topics: make(map[TopicKind][]model.TopicSummary),
		Errors: make(map[string]error),
	}
	var mu sync.Mutex
	record := func(file string, err error) {
		mu.Lock()
		defer mu.Unlock()
		d.Errors[file] = err
		slog.Warn("NIH table not loaded", "file", file, "error", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentReads)

	g.Go(func() error {
		awards, err := loadAwards(filepath.Join(dir, FileAwards))
		if err != nil {
			record(FileAwards, err)
			return nil
		}
		mu.Lock()
		d.Awards = awards
		mu.Unlock()
		return nil
	})

	for _, file := range []string{FileOrgLocations, FileAgencyLocations} {
		g.Go(func() error {
			table, err := loadTable(filepath.Join(dir, file))
			if err != nil {
				record(file, err)
				return nil
			}
			mu.Lock()
			if file == FileOrgLocations {
				d.OrgLocations = table
			} else {
				d.AgencyLocations = table
			}
			mu.Unlock()
			return nil
		})
	}

	for _, kind := range AllTopicKinds() {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rows, err := loadTopics(filepath.Join(dir, kind.File()), kind.topicColumn())
			if err != nil {
				record(kind.File(), err)
				return nil
			}
			mu.Lock()
			d.Topics[kind] = rows
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	slog.Info("NIH data loaded",
		"dir", dir,
		"awards", len(d.Awards),
		"failed_tables", len(d.Errors))
	return d, nil
}

// loadAwards reads the award extract. Rows without a fiscal year or award
// amount are skipped; a missing duration counts as zero days.
func loadAwards(path string) ([]model.Award, error) {
	t, err := pipeline.ReadTable(path)
	if err != nil {
		return nil, err
	}
	if err := t.Require(colOrganization, colFiscalYear, colAwardAmount); err != nil {
		return nil, err
	}

	awards := make([]model.Award, 0, t.Len())
	for i := range t.Rows {
		rawYear, _ := t.Value(i, colFiscalYear)
		year, ok := pipeline.ParseYear(rawYear)
		if !ok {
			continue
		}
		rawAmount, _ := t.Value(i, colAwardAmount)
		amount, ok := pipeline.ParseNumber(rawAmount)
		if !ok {
			continue
		}
		rawDuration, _ := t.Value(i, colDuration)
		duration, _ := pipeline.ParseNumber(rawDuration)

		org, _ := t.Value(i, colOrganization)
		orgState, _ := t.Value(i, colOrgState)
		agencyState, _ := t.Value(i, colAgencyState)
		agency, _ := t.Value(i, colAgencyName)

		awards = append(awards, model.Award{
			MainOrganization: org,
			OrgState:         orgState,
			AgencyState:      agencyState,
			AgencyName:       agency,
			FiscalYear:       year,
			AwardAmount:      amount,
			DurationDays:     duration,
		})
	}
	return awards, nil
}

// loadTopics reads a topic summary whose topic lives in topicCol.
func loadTopics(path, topicCol string) ([]model.TopicSummary, error) {
	t, err := pipeline.ReadTable(path)
	if err != nil {
		return nil, err
	}
	if err := t.Require(topicCol, colFiscalYear, colAwardAmountSum); err != nil {
		return nil, err
	}

	number := func(i int, col string) float64 {
		raw, _ := t.Value(i, col)
		v, _ := pipeline.ParseNumber(raw)
		return v
	}

	rows := make([]model.TopicSummary, 0, t.Len())
	for i := range t.Rows {
		rawYear, _ := t.Value(i, colFiscalYear)
		year, ok := pipeline.ParseYear(rawYear)
		if !ok {
			continue
		}
		topic, _ := t.Value(i, topicCol)
		rows = append(rows, model.TopicSummary{
			Topic:           topic,
			FiscalYear:      year,
			DurationDaysSum: number(i, colDurationSum),
			DurationDaysAvg: number(i, colDurationAvg),
			AwardAmountSum:  number(i, colAwardAmountSum),
			AwardAmountAvg:  number(i, colAwardAmountAvg),
			NumProjects:     int(number(i, colNumProjects)),
		})
	}
	return rows, nil
}

func loadTable(path string) (*model.Table, error) {
	t, err := pipeline.ReadTable(path)
	if err != nil {
		return nil, err
	}
	return &model.Table{
		Name:    filepath.Base(path),
		Columns: t.Columns,
		Rows:    t.Rows,
	}, nil
}
