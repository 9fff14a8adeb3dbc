// Package table holds delimited data in memory and gives by-name access to its columns.
package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

var ErrMissingColumn = errors.New("missing column")

type Table struct {
	columns []string
	index   map[string]int
	rows    [][]string
}

func New(columns []string, rows [][]string) *Table {
	index := make(map[string]int, len(columns))
	for i, c := range columns {
		if _, ok := index[c]; !ok {
			index[c] = i
		}
	}
	return &Table{columns: columns, index: index, rows: rows}
}

// ReadCSV parses comma-separated data whose first record is the header.
// Records shorter or longer than the header are accepted; missing cells read as "".
func ReadCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return New(nil, nil), nil
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	var rows [][]string
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read record %d: %w", len(rows)+1, err)
		}
		rows = append(rows, rec)
	}

	return New(header, rows), nil
}

func (t *Table) Columns() []string {
	return t.columns
}

func (t *Table) Len() int {
	return len(t.rows)
}

func (t *Table) Has(column string) bool {
	_, ok := t.index[column]
	return ok
}

// Require fails with ErrMissingColumn naming the first absent column.
func (t *Table) Require(columns ...string) error {
	for _, c := range columns {
		if !t.Has(c) {
			return fmt.Errorf("%w: %q", ErrMissingColumn, c)
		}
	}
	return nil
}

// Value returns the cell at row i in column, or "" when the record is short.
func (t *Table) Value(i int, column string) (string, error) {
	j, ok := t.index[column]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrMissingColumn, column)
	}
	row := t.rows[i]
	if j >= len(row) {
		return "", nil
	}
	return row[j], nil
}

// Int reads an integer cell. Empty cells and pandas-style floats ("12.0") are accepted.
func (t *Table) Int(i int, column string) (int64, error) {
	v, err := t.Value(i, column)
	if err != nil {
		return 0, err
	}
	v = strings.TrimSpace(v)
	if v == "" || strings.EqualFold(v, "nan") {
		return 0, nil
	}
	if n, err := strconv.ParseInt(v, 10, 64); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("row %d column %q: %w", i, column, err)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, fmt.Errorf("row %d column %q: %q out of int64 range", i, column, v)
	}
	return int64(f), nil
}

// Time reads a timestamp cell in any format dateparse recognizes. Values
// without a zone are taken as UTC.
func (t *Table) Time(i int, column string) (time.Time, error) {
	v, err := t.Value(i, column)
	if err != nil {
		return time.Time{}, err
	}
	v = strings.TrimSpace(v)
	ts, err := dateparse.ParseIn(v, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("row %d column %q: cannot parse timestamp %q: %w", i, column, v, err)
	}
	return ts.UTC(), nil
}
