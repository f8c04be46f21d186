package export

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/Veraticus/grantlens/internal/common"
)

const (
	moneyFormat   = `"$"#,##0.00`
	percentFormat = "0.0%"
	numberFormat  = "0.0000"
	columnWidth   = 18
)

// WriteXLSX writes each tab as a worksheet of a new workbook to w.
func WriteXLSX(w io.Writer, tabs []Tab) error {
	f, err := buildWorkbook(tabs)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// SaveXLSX writes the workbook to path.
func SaveXLSX(path string, tabs []Tab) error {
	out, err := os.Create(path) //nolint:gosec // path comes from the --out flag
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := WriteXLSX(out, tabs); err != nil {
		_ = out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	slog.Info("Workbook written", "path", path, "sheets", len(tabs))
	return nil
}

func buildWorkbook(tabs []Tab) (*excelize.File, error) {
	if len(tabs) == 0 {
		return nil, common.ErrNoReport
	}

	f := excelize.NewFile()
	styles, err := newStyles(f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	for i, tab := range tabs {
		if i == 0 {
			// NewFile starts with Sheet1.
			if err := f.SetSheetName(f.GetSheetName(0), tab.Name); err != nil {
				_ = f.Close()
				return nil, fmt.Errorf("failed to name sheet %s: %w", tab.Name, err)
			}
		} else if _, err := f.NewSheet(tab.Name); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("failed to add sheet %s: %w", tab.Name, err)
		}
		if err := writeSheet(f, tab, styles); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("failed to fill sheet %s: %w", tab.Name, err)
		}
	}
	f.SetActiveSheet(0)
	return f, nil
}

type sheetStyles struct {
	byKind map[Kind]int
	header int
}

func newStyles(f *excelize.File) (sheetStyles, error) {
	s := sheetStyles{byKind: make(map[Kind]int)}

	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"E6E6E6"}},
	})
	if err != nil {
		return s, fmt.Errorf("failed to create header style: %w", err)
	}
	s.header = header

	for kind, format := range map[Kind]string{
		KindMoney:   moneyFormat,
		KindPercent: percentFormat,
		KindNumber:  numberFormat,
	} {
		id, err := f.NewStyle(&excelize.Style{CustomNumFmt: &format})
		if err != nil {
			return s, fmt.Errorf("failed to create number style: %w", err)
		}
		s.byKind[kind] = id
	}
	return s, nil
}

func writeSheet(f *excelize.File, tab Tab, styles sheetStyles) error {
	header := make([]any, len(tab.Columns))
	for i, name := range tab.Header() {
		header[i] = name
	}
	if err := f.SetSheetRow(tab.Name, "A1", &header); err != nil {
		return err
	}

	lastCol, err := excelize.ColumnNumberToName(max(len(tab.Columns), 1))
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(tab.Name, "A1", lastCol+"1", styles.header); err != nil {
		return err
	}

	for i, row := range tab.Rows {
		cells := make([]any, len(row))
		for j, v := range row {
			cells[j] = cellValue(v)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(tab.Name, cell, &cells); err != nil {
			return err
		}
	}

	lastRow := len(tab.Rows) + 1
	for i, col := range tab.Columns {
		style, ok := styles.byKind[col.Kind]
		if !ok || lastRow < 2 {
			continue
		}
		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(tab.Name, fmt.Sprintf("%s2", name), fmt.Sprintf("%s%d", name, lastRow), style); err != nil {
			return err
		}
	}

	if err := f.SetColWidth(tab.Name, "A", lastCol, columnWidth); err != nil {
		return err
	}
	return f.SetPanes(tab.Name, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

// cellValue converts decimals to floats so the workbook stores numbers.
func cellValue(v any) any {
	if d, ok := v.(decimal.Decimal); ok {
		return d.InexactFloat64()
	}
	return v
}
