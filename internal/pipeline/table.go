package pipeline

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Table is a parsed CSV file with normalized column names.
type Table struct {
	index   map[string]int
	Columns []string
	Rows    [][]string
}

// NormalizeColumn replaces every space in a column name with a dot so that
// "Grant Amount" and "Grant.Amount" refer to the same column.
func NormalizeColumn(name string) string {
	name = strings.TrimPrefix(name, "\ufeff")
	return strings.ReplaceAll(strings.TrimSpace(name), " ", ".")
}

// ReadTable parses the CSV file at path.
func ReadTable(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	return ParseTable(f)
}

// ParseTable parses CSV data from r. The first record is the header.
func ParseTable(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyFile
		}
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	t := &Table{
		Columns: make([]string, len(header)),
		index:   make(map[string]int, len(header)),
	}
	for i, name := range header {
		col := NormalizeColumn(name)
		t.Columns[i] = col
		if _, dup := t.index[col]; !dup {
			t.index[col] = i
		}
	}

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row %d: %w", len(t.Rows)+2, err)
		}
		t.Rows = append(t.Rows, record)
	}

	return t, nil
}

// Has reports whether the table contains the column.
func (t *Table) Has(col string) bool {
	_, ok := t.index[col]
	return ok
}

// Require returns ErrMissingColumn naming every absent column.
func (t *Table) Require(cols ...string) error {
	var missing []string
	for _, col := range cols {
		if !t.Has(col) {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}
	return nil
}

// Value returns the cell for row i and column col. Short rows and absent
// columns yield ok=false.
func (t *Table) Value(i int, col string) (string, bool) {
	idx, ok := t.index[col]
	if !ok || idx >= len(t.Rows[i]) {
		return "", false
	}
	return t.Rows[i][idx], true
}

// Optional returns a pointer to the cell text, or nil when the cell is
// absent, empty or a missing-value token. Whitespace-only text is kept.
func (t *Table) Optional(i int, col string) *string {
	v, ok := t.Value(i, col)
	if !ok || missingTokens[strings.ToLower(v)] {
		return nil
	}
	return &v
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// extras collects every column not in known for row i.
func (t *Table) extras(i int, known map[string]bool) map[string]string {
	var out map[string]string
	for idx, col := range t.Columns {
		if known[col] || idx >= len(t.Rows[i]) {
			continue
		}
		if out == nil {
			out = make(map[string]string)
		}
		out[col] = t.Rows[i][idx]
	}
	return out
}
