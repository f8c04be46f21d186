// Package pipeline loads, cleans and merges the per-organization grant extracts.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/Veraticus/grantlens/internal/model"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// ProgressFunc is called once per organization as it finishes loading.
type ProgressFunc func(org string, done, total int)

type options struct {
	progress ProgressFunc
	logger   *slog.Logger
	now      func() time.Time
}

// Option configures LoadAndClean.
type Option func(*options)

// WithProgress registers a progress callback. Calls are serialized.
func WithProgress(fn ProgressFunc) Option {
	return func(o *options) {
		o.progress = fn
	}
}

// WithLogger sets the logger used during the load.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithClock overrides the load timestamp source.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

type orgResult struct {
	grants []model.Grant
	makers []model.Grantmaker
	merged []model.MergedGrant
	report model.OrgReport
}

// LoadAndClean loads every organization's grantmaker and grant files,
// cleans them, merges grants with grantmaker attributes and concatenates
// the results in organization order. Any failure aborts the whole load and
// is returned as a *StageError.
func LoadAndClean(ctx context.Context, orgs []model.Organization, opts ...Option) (*model.Dataset, error) {
	o := options{
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}

	if err := validateOrganizations(orgs); err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	start := time.Now()
	o.logger.Info("loading grant data", "run_id", runID, "organizations", len(orgs))

	results := make([]*orgResult, len(orgs))
	var (
		progressMu sync.Mutex
		done       int
	)

	g, gctx := errgroup.WithContext(ctx)
	for i, org := range orgs {
		g.Go(func() error {
			res, err := loadOrganization(gctx, org)
			if err != nil {
				return err
			}
			results[i] = res

			progressMu.Lock()
			done++
			if o.progress != nil {
				o.progress(org.Name, done, len(orgs))
			}
			progressMu.Unlock()

			o.logger.Debug("organization loaded",
				"org", org.Name,
				"grants", res.report.GrantsFinal,
				"grants_removed", res.report.GrantsRemoved,
				"grantmakers", res.report.GrantmakersFinal)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		o.logger.Error("grant data load failed", "run_id", runID, "error", err)
		return nil, err
	}

	ds := &model.Dataset{
		Report: model.NewCleaningReport(runID, o.now()),
	}
	for i, res := range results {
		ds.Grants = append(ds.Grants, res.grants...)
		ds.Grantmakers = append(ds.Grantmakers, res.makers...)
		ds.Merged = append(ds.Merged, res.merged...)
		ds.Report.Add(orgs[i].Name, res.report)
	}

	o.logger.Info("grant data loaded",
		"run_id", runID,
		"grants", len(ds.Grants),
		"grantmakers", len(ds.Grantmakers),
		"duration", time.Since(start))

	return ds, nil
}

func validateOrganizations(orgs []model.Organization) error {
	if len(orgs) == 0 {
		return ErrNoOrganizations
	}
	seen := make(map[string]bool, len(orgs))
	for i, org := range orgs {
		if strings.TrimSpace(org.Name) == "" {
			return fmt.Errorf("%w: organization %d has no name", ErrInvalidOrganization, i)
		}
		if org.GrantsPath == "" || org.GrantmakersPath == "" {
			return fmt.Errorf("%w: %s is missing a file path", ErrInvalidOrganization, org.Name)
		}
		if seen[org.Name] {
			return fmt.Errorf("%w: %s listed twice", ErrInvalidOrganization, org.Name)
		}
		seen[org.Name] = true
	}
	return nil
}

func loadOrganization(ctx context.Context, org model.Organization) (*orgResult, error) {
	makersTable, err := ReadTable(org.GrantmakersPath)
	if err != nil {
		return nil, &StageError{Org: org.Name, Stage: StageReadGrantmakers, Path: org.GrantmakersPath, Err: err}
	}
	if err := makersTable.Require(model.ColGrantmakerName, model.ColTotalAssets, model.ColTotalGiving); err != nil {
		return nil, &StageError{Org: org.Name, Stage: StageValidateColumns, Path: org.GrantmakersPath, Err: err}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	grantsTable, err := ReadTable(org.GrantsPath)
	if err != nil {
		return nil, &StageError{Org: org.Name, Stage: StageReadGrants, Path: org.GrantsPath, Err: err}
	}
	if err := grantsTable.Require(model.ColGrantmakerName, model.ColGrantAmount, model.ColYearAuthorized); err != nil {
		return nil, &StageError{Org: org.Name, Stage: StageValidateColumns, Path: org.GrantsPath, Err: err}
	}

	grants, grantsRemoved := cleanGrants(org.Name, grantsTable)
	makers, makersRemoved := cleanGrantmakers(org.Name, makersTable)

	merged := mergeGrants(grants, makers)
	if len(merged) != len(grants) {
		return nil, &StageError{
			Org:   org.Name,
			Stage: StageMerge,
			Err:   fmt.Errorf("merged %d rows from %d grants", len(merged), len(grants)),
		}
	}

	return &orgResult{
		grants: grants,
		makers: makers,
		merged: merged,
		report: model.OrgReport{
			GrantsOriginal:      grantsTable.Len(),
			GrantsRemoved:       grantsRemoved,
			GrantsFinal:         len(grants),
			GrantmakersOriginal: makersTable.Len(),
			GrantmakersRemoved:  makersRemoved,
			GrantmakersFinal:    len(makers),
		},
	}, nil
}
