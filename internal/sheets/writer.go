package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/Veraticus/grantlens/internal/common"
	"github.com/Veraticus/grantlens/internal/export"
)

const summaryTab = "Summary"

// Writer implements ReportWriter for Google Sheets.
type Writer struct {
	service *sheets.Service
	logger  *slog.Logger
	config  Config
}

// NewWriter creates a Google Sheets writer authenticated from config.
func NewWriter(ctx context.Context, config Config, logger *slog.Logger) (*Writer, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	service, err := createSheetsService(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}
	return NewWriterWithService(service, config, logger), nil
}

// NewWriterWithService creates a writer around an existing service.
func NewWriterWithService(service *sheets.Service, config Config, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	if config.BatchSize <= 0 {
		config.BatchSize = DefaultConfig().BatchSize
	}
	return &Writer{service: service, config: config, logger: logger}
}

// Write replaces the contents of each report tab, creating the spreadsheet
// and any missing tabs first. Formatting failures are logged, not returned.
func (w *Writer) Write(ctx context.Context, data *ReportData) error {
	if data == nil || len(data.Tabs) == 0 {
		return common.ErrNoReport
	}
	w.logger.Info("Starting sheets export", "run_id", data.RunID, "tabs", len(data.Tabs))

	tabs := append([]export.Tab{summary(data)}, data.Tabs...)

	spreadsheetID, ids, err := w.getOrCreateSpreadsheet(ctx, tabs)
	if err != nil {
		return fmt.Errorf("failed to get spreadsheet: %w", err)
	}

	if err := w.ensureTabs(ctx, spreadsheetID, tabs, ids); err != nil {
		return fmt.Errorf("failed to create tabs: %w", err)
	}

	retryOpts := common.RetryOptions{
		MaxAttempts:  w.config.RetryAttempts,
		InitialDelay: w.config.RetryDelay,
		MaxDelay:     w.config.RetryMaxDelay,
		Multiplier:   2.0,
	}

	rows := 0
	for _, tab := range tabs {
		values := tabValues(tab)
		err := common.WithRetry(ctx, func() error {
			return w.replaceTab(ctx, spreadsheetID, tab.Name, values)
		}, retryOpts)
		if err != nil {
			return fmt.Errorf("failed to write %s: %w", tab.Name, err)
		}
		rows += len(values)
	}

	if w.config.EnableFormatting {
		err := common.WithRetry(ctx, func() error {
			return w.applyFormatting(ctx, spreadsheetID, tabs, ids)
		}, retryOpts)
		if err != nil {
			w.logger.Warn("Failed to apply formatting", "error", err)
		}
	}

	w.logger.Info("Sheets export completed",
		"spreadsheet_id", spreadsheetID,
		"rows_written", rows)
	return nil
}

func summary(data *ReportData) export.Tab {
	title := data.Title
	if title == "" {
		title = DefaultSpreadsheetName
	}
	generated := data.GeneratedAt
	if generated.IsZero() {
		generated = time.Now()
	}
	return export.Tab{
		Name:    summaryTab,
		Columns: []export.Column{{Name: "Field", Kind: export.KindText}, {Name: "Value", Kind: export.KindText}},
		Rows: [][]any{
			{"Report", title},
			{"Run", data.RunID},
			{"Generated", generated.Format(time.RFC3339)},
		},
	}
}

// createSheetsService creates a Google Sheets API service.
func createSheetsService(ctx context.Context, config Config) (*sheets.Service, error) {
	var tokenSource oauth2.TokenSource

	if config.ServiceAccountPath != "" {
		jsonKey, err := os.ReadFile(config.ServiceAccountPath)
		if err != nil {
			return nil, fmt.Errorf("unable to read service account key file: %w", err)
		}

		jwtConfig, err := google.JWTConfigFromJSON(jsonKey, sheets.SpreadsheetsScope)
		if err != nil {
			return nil, fmt.Errorf("unable to parse service account key: %w", err)
		}
		tokenSource = jwtConfig.TokenSource(ctx)
	} else {
		client := oauthConfig(config.ClientID, config.ClientSecret, "")
		tokenSource = client.TokenSource(ctx, &oauth2.Token{
			RefreshToken: config.RefreshToken,
			TokenType:    "Bearer",
		})
	}

	srv, err := sheets.NewService(ctx, option.WithHTTPClient(oauth2.NewClient(ctx, tokenSource)))
	if err != nil {
		return nil, fmt.Errorf("unable to create sheets service: %w", err)
	}
	return srv, nil
}

// getOrCreateSpreadsheet returns the spreadsheet ID and the sheet IDs of its
// existing tabs keyed by title.
func (w *Writer) getOrCreateSpreadsheet(ctx context.Context, tabs []export.Tab) (string, map[string]int64, error) {
	if w.config.SpreadsheetID != "" {
		existing, err := w.service.Spreadsheets.Get(w.config.SpreadsheetID).Context(ctx).Do()
		if err != nil {
			return "", nil, fmt.Errorf("unable to access spreadsheet %s: %w", w.config.SpreadsheetID, classify(err))
		}
		return w.config.SpreadsheetID, sheetIDs(existing), nil
	}

	spreadsheet := &sheets.Spreadsheet{
		Properties: &sheets.SpreadsheetProperties{
			Title:    w.config.SpreadsheetName,
			TimeZone: w.config.TimeZone,
		},
	}
	for _, tab := range tabs {
		spreadsheet.Sheets = append(spreadsheet.Sheets, &sheets.Sheet{
			Properties: &sheets.SheetProperties{Title: tab.Name},
		})
	}

	created, err := w.service.Spreadsheets.Create(spreadsheet).Context(ctx).Do()
	if err != nil {
		return "", nil, fmt.Errorf("unable to create spreadsheet: %w", classify(err))
	}

	w.logger.Info("Created new spreadsheet",
		"id", created.SpreadsheetId,
		"url", created.SpreadsheetUrl)
	return created.SpreadsheetId, sheetIDs(created), nil
}

func sheetIDs(s *sheets.Spreadsheet) map[string]int64 {
	ids := make(map[string]int64, len(s.Sheets))
	for _, sh := range s.Sheets {
		if sh.Properties != nil {
			ids[sh.Properties.Title] = sh.Properties.SheetId
		}
	}
	return ids
}

// ensureTabs adds any tab missing from the spreadsheet and records its ID.
func (w *Writer) ensureTabs(ctx context.Context, spreadsheetID string, tabs []export.Tab, ids map[string]int64) error {
	var requests []*sheets.Request
	for _, tab := range tabs {
		if _, ok := ids[tab.Name]; ok {
			continue
		}
		requests = append(requests, &sheets.Request{
			AddSheet: &sheets.AddSheetRequest{Properties: &sheets.SheetProperties{Title: tab.Name}},
		})
	}
	if len(requests) == 0 {
		return nil
	}

	resp, err := w.service.Spreadsheets.BatchUpdate(spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: requests,
	}).Context(ctx).Do()
	if err != nil {
		return classify(err)
	}
	for _, reply := range resp.Replies {
		if reply.AddSheet != nil && reply.AddSheet.Properties != nil {
			ids[reply.AddSheet.Properties.Title] = reply.AddSheet.Properties.SheetId
		}
	}
	w.logger.Debug("Added tabs", "count", len(requests))
	return nil
}

// replaceTab clears a tab and writes values in batches.
func (w *Writer) replaceTab(ctx context.Context, spreadsheetID, name string, values [][]any) error {
	clearRange := fmt.Sprintf("'%s'!A:Z", name)
	if _, err := w.service.Spreadsheets.Values.Clear(spreadsheetID, clearRange, &sheets.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return classify(err)
	}

	for i := 0; i < len(values); i += w.config.BatchSize {
		end := min(i+w.config.BatchSize, len(values))
		batch := values[i:end]

		rangeStr := fmt.Sprintf("'%s'!A%d", name, i+1)
		_, err := w.service.Spreadsheets.Values.Update(spreadsheetID, rangeStr, &sheets.ValueRange{Values: batch}).
			ValueInputOption("USER_ENTERED").
			Context(ctx).
			Do()
		if err != nil {
			return fmt.Errorf("failed to write batch starting at row %d: %w", i+1, classify(err))
		}

		w.logger.Debug("Wrote batch", "tab", name, "start_row", i+1, "rows", len(batch))
	}
	return nil
}

// applyFormatting bolds and freezes each header row, formats money and
// percentage columns, and resizes the columns.
func (w *Writer) applyFormatting(ctx context.Context, spreadsheetID string, tabs []export.Tab, ids map[string]int64) error {
	var requests []*sheets.Request
	for _, tab := range tabs {
		id, ok := ids[tab.Name]
		if !ok {
			continue
		}
		requests = append(requests, formatTab(id, tab)...)
	}
	if len(requests) == 0 {
		return nil
	}

	_, err := w.service.Spreadsheets.BatchUpdate(spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: requests,
	}).Context(ctx).Do()
	return classify(err)
}

func formatTab(sheetID int64, tab export.Tab) []*sheets.Request {
	columns := int64(len(tab.Columns))
	rows := int64(len(tab.Rows) + 1)

	requests := []*sheets.Request{
		{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{
					SheetId:          sheetID,
					StartRowIndex:    0,
					EndRowIndex:      1,
					StartColumnIndex: 0,
					EndColumnIndex:   columns,
				},
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{
						TextFormat: &sheets.TextFormat{Bold: true},
						BackgroundColor: &sheets.Color{
							Red:   0.9,
							Green: 0.9,
							Blue:  0.9,
							Alpha: 1.0,
						},
					},
				},
				Fields: "userEnteredFormat.textFormat,userEnteredFormat.backgroundColor",
			},
		},
		{
			UpdateSheetProperties: &sheets.UpdateSheetPropertiesRequest{
				Properties: &sheets.SheetProperties{
					SheetId:        sheetID,
					GridProperties: &sheets.GridProperties{FrozenRowCount: 1},
				},
				Fields: "gridProperties.frozenRowCount",
			},
		},
	}

	for i, col := range tab.Columns {
		var format *sheets.NumberFormat
		switch col.Kind {
		case export.KindMoney:
			format = &sheets.NumberFormat{Type: "CURRENCY", Pattern: "$#,##0.00"}
		case export.KindPercent:
			format = &sheets.NumberFormat{Type: "PERCENT", Pattern: "0.0%"}
		case export.KindNumber:
			format = &sheets.NumberFormat{Type: "NUMBER", Pattern: "0.0000"}
		default:
			continue
		}
		if rows < 2 {
			continue
		}
		requests = append(requests, &sheets.Request{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{
					SheetId:          sheetID,
					StartRowIndex:    1,
					EndRowIndex:      rows,
					StartColumnIndex: int64(i),
					EndColumnIndex:   int64(i + 1),
				},
				Cell:   &sheets.CellData{UserEnteredFormat: &sheets.CellFormat{NumberFormat: format}},
				Fields: "userEnteredFormat.numberFormat",
			},
		})
	}

	requests = append(requests, &sheets.Request{
		AutoResizeDimensions: &sheets.AutoResizeDimensionsRequest{
			Dimensions: &sheets.DimensionRange{
				SheetId:    sheetID,
				Dimension:  "COLUMNS",
				StartIndex: 0,
				EndIndex:   columns,
			},
		},
	})
	return requests
}

// classify marks API errors for WithRetry: 429 is a rate limit, other client
// errors are not retried.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return err
	}
	switch {
	case apiErr.Code == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %w", common.ErrSheetsRateLimit, err)
	case apiErr.Code >= 400 && apiErr.Code < 500:
		return &common.RetryableError{Err: err, Retryable: false}
	default:
		return err
	}
}
