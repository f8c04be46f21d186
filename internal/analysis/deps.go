// Package analysis turns a cleaned grant dataset into the sectioned report
// shown by the dashboard, the CLI and the exports.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Veraticus/grantlens/internal/model"
	"github.com/Veraticus/grantlens/internal/storage"
)

// Errors returned by the engine.
var (
	ErrNoDataset      = errors.New("no dataset to analyze")
	ErrUnknownSection = errors.New("unknown report section")
)

// Store is the analytic store the engine loads the dataset into and queries.
type Store interface {
	SaveDataset(ctx context.Context, ds *model.Dataset) error
	CompanyMetrics(ctx context.Context) ([]storage.CompanyMetric, error)
	StateSummary(ctx context.Context, company string, by storage.StateRank, limit int) ([]storage.StateRow, error)
	TotalGiving(ctx context.Context, company string) (float64, error)
	YearlyTrend(ctx context.Context, company string) ([]storage.YearRow, error)
	CategorySummary(ctx context.Context, company string) ([]storage.CategoryRow, error)
	CategoryTrend(ctx context.Context, company string) ([]storage.CategoryYearRow, error)
	TopRecipients(ctx context.Context, company string, limit int) ([]storage.RecipientRow, error)
	RecipientCounts(ctx context.Context, company string) ([]storage.RecipientRow, error)
	SubjectSummary(ctx context.Context, company string, limit int) ([]storage.SubjectRow, error)
	GrantmakerTotals(ctx context.Context) ([]storage.GrantmakerTotal, error)
	AmountsByCompany(ctx context.Context) (map[string][]float64, error)
	AmountsByCategory(ctx context.Context, company string) (map[model.Category][]float64, error)
	MergedAmountsWithAssets(ctx context.Context) ([]storage.AssetAmount, error)
}

var _ Store = (*storage.SQLiteStorage)(nil)

// Deps contains all dependencies required by the analysis engine.
type Deps struct {
	// Store holds the dataset while sections are computed.
	Store Store
	// Logger receives progress and skipped-section messages. Defaults to
	// slog.Default().
	Logger *slog.Logger
}

// Validate ensures all required dependencies are provided.
func (d *Deps) Validate() error {
	if d.Store == nil {
		return fmt.Errorf("store dependency is required")
	}
	return nil
}

// Config holds configuration options for the analysis engine.
type Config struct {
	// Alpha is the significance level for every test.
	Alpha float64
	// NormalitySampleSize caps the Shapiro-Wilk input.
	NormalitySampleSize int
	// SampleSeed makes the Shapiro-Wilk sample reproducible.
	SampleSeed uint64
	// StateLimit, RecipientLimit and SubjectLimit bound the ranked tables.
	StateLimit     int
	RecipientLimit int
	SubjectLimit   int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Alpha:               0.05,
		NormalitySampleSize: 5000,
		SampleSeed:          42,
		StateLimit:          storage.DefaultStateLimit,
		RecipientLimit:      storage.DefaultRecipientLimit,
		SubjectLimit:        storage.DefaultSubjectLimit,
	}
}

// Engine computes reports.
type Engine struct {
	deps   Deps
	config Config
}

// NewEngine creates a new analysis engine with the provided dependencies.
func NewEngine(deps Deps) (*Engine, error) {
	return NewEngineWithConfig(deps, nil)
}

// NewEngineWithConfig creates an analysis engine with custom configuration.
// A nil config uses DefaultConfig.
func NewEngineWithConfig(deps Deps, config *Config) (*Engine, error) {
	if err := deps.Validate(); err != nil {
		return nil, fmt.Errorf("invalid dependencies: %w", err)
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if config == nil {
		config = DefaultConfig()
	}
	cfg := *config
	if cfg.Alpha <= 0 || cfg.Alpha >= 1 {
		return nil, fmt.Errorf("invalid config: alpha %v must be in (0, 1)", cfg.Alpha)
	}
	if cfg.NormalitySampleSize <= 0 || cfg.StateLimit <= 0 || cfg.RecipientLimit <= 0 || cfg.SubjectLimit <= 0 {
		return nil, fmt.Errorf("invalid config: sample size and limits must be positive")
	}
	return &Engine{
		deps:   deps,
		config: cfg,
	}, nil
}
