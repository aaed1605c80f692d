package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/yourusername/pitwall/internal/models"
)

// nullMarker is how the upstream export writes SQL NULL
const nullMarker = `\N`

// table is a parsed delimited file addressed by column name
type table struct {
	name    string
	columns map[string]int
	rows    [][]string
}

// readTable reads a headered CSV file and checks that every required column is present.
// Extra columns are kept but never consulted.
func readTable(path, name string, required []string) (*table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, models.NewSourceError(name, models.ErrCodeSourceUnavailable, "cannot open "+path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, models.NewSourceError(name, models.ErrCodeSourceMalformed, "missing header row", nil)
		}
		return nil, models.NewSourceError(name, models.ErrCodeSourceMalformed, "unreadable header row", err)
	}

	t := &table{name: name, columns: make(map[string]int, len(header))}
	for i, col := range header {
		// Strip a UTF-8 BOM on the first column
		col = strings.TrimPrefix(strings.TrimSpace(col), "\ufeff")
		t.columns[col] = i
	}

	var missing []string
	for _, col := range required {
		if _, ok := t.columns[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, models.NewSourceError(name, models.ErrCodeSourceMalformed,
			fmt.Sprintf("missing required columns: %s", strings.Join(missing, ", ")), nil)
	}

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, models.NewSourceError(name, models.ErrCodeSourceMalformed, "unreadable record", err)
		}
		t.rows = append(t.rows, record)
	}

	return t, nil
}

// field returns the trimmed value of column in row, with NULL markers mapped to ""
func (t *table) field(row []string, column string) string {
	idx, ok := t.columns[column]
	if !ok || idx >= len(row) {
		return ""
	}
	v := strings.TrimSpace(row[idx])
	if v == nullMarker {
		return ""
	}
	return v
}

// malformed builds a row-level error for this table; line numbers count the header as 1
func (t *table) malformed(rowIdx int, column, value string, err error) error {
	msg := fmt.Sprintf("line %d: invalid %s %q", rowIdx+2, column, value)
	return models.NewSourceError(t.name, models.ErrCodeSourceMalformed, msg, err)
}

// requiredInt parses an integer column that must be present.
// Integral floats such as "2010.0" are accepted.
func (t *table) requiredInt(row []string, rowIdx int, column string) (int, error) {
	raw := t.field(row, column)
	n, ok := parseNumber(raw)
	if !ok {
		return 0, t.malformed(rowIdx, column, raw, nil)
	}
	return n, nil
}

// optionalInt parses an integer column where non-numeric codes mean "absent"
func (t *table) optionalInt(row []string, column string) *int {
	n, ok := parseNumber(t.field(row, column))
	if !ok {
		return nil
	}
	return &n
}

// optionalString returns nil for empty and NULL values
func (t *table) optionalString(row []string, column string) *string {
	v := t.field(row, column)
	if v == "" {
		return nil
	}
	return &v
}

// points parses a non-negative points value, treating absent values as zero
func (t *table) points(row []string, rowIdx int, column string) (decimal.Decimal, error) {
	raw := t.field(row, column)
	if raw == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, t.malformed(rowIdx, column, raw, err)
	}
	if d.IsNegative() {
		return decimal.Zero, t.malformed(rowIdx, column, raw, nil)
	}
	return d, nil
}

func parseNumber(raw string) (int, bool) {
	if raw == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(raw); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}
