// Package synthea loads the CSV export of the Synthea patient generator into
// the EHR tables.
package synthea

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// Table is one parsed CSV file, ready for COPY.
type Table struct {
	Name    string
	Columns []string
	Rows    [][]interface{}
}

// Dataset holds every table found in an export, in insertion order.
type Dataset struct {
	Tables  []*Table
	Skipped []string
}

// Count returns the number of rows parsed for table.
func (d *Dataset) Count(table string) int {
	for _, t := range d.Tables {
		if t.Name == table {
			return len(t.Rows)
		}
	}
	return 0
}

// Load parses every known CSV file at the root of fsys. Missing files are
// recorded in Skipped; patients.csv is required.
func Load(fsys fs.FS) (*Dataset, error) {
	ds := &Dataset{}
	for _, spec := range tables {
		f, err := fsys.Open(spec.file)
		if errors.Is(err, fs.ErrNotExist) {
			if spec.table == "patients" {
				return nil, fmt.Errorf("%s not found", spec.file)
			}
			ds.Skipped = append(ds.Skipped, spec.file)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", spec.file, err)
		}
		t, err := parseTable(spec, f)
		f.Close()
		if err != nil {
			return nil, err
		}
		ds.Tables = append(ds.Tables, t)
	}
	return ds, nil
}

func parseTable(spec tableSpec, r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err == io.EOF {
		return &Table{Name: spec.table, Columns: columnNames(spec)}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: read header: %w", spec.file, err)
	}
	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	for _, col := range spec.columns {
		if _, ok := index[col.header]; !ok && col.required {
			return nil, fmt.Errorf("%s: missing column %s", spec.file, col.header)
		}
	}

	t := &Table{Name: spec.table, Columns: columnNames(spec)}
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", spec.file, err)
		}
		if blank(rec) {
			continue
		}
		line, _ := cr.FieldPos(0)

		row := make([]interface{}, len(spec.columns))
		for i, col := range spec.columns {
			raw := ""
			if j, ok := index[col.header]; ok && j < len(rec) {
				raw = strings.TrimSpace(rec[j])
			}
			v, err := convert(col, raw)
			if err != nil {
				return nil, fmt.Errorf("%s line %d, column %s: %w", spec.file, line, col.header, err)
			}
			row[i] = v
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

func columnNames(spec tableSpec) []string {
	names := make([]string, len(spec.columns))
	for i, c := range spec.columns {
		names[i] = c.name
	}
	return names
}

func blank(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

// convert turns one cell into a value pgx can COPY. Empty optional cells
// become NULL.
func convert(col column, raw string) (interface{}, error) {
	if raw == "" {
		if col.required {
			return nil, errors.New("value is required")
		}
		return nil, nil
	}

	switch col.kind {
	case kindUUID:
		u, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid uuid %q", raw)
		}
		return pgtype.UUID{Bytes: u, Valid: true}, nil
	case kindDate:
		d, err := parseTime(raw)
		if err != nil {
			return nil, err
		}
		return pgtype.Date{Time: d, Valid: true}, nil
	case kindTimestamp:
		ts, err := parseTime(raw)
		if err != nil {
			return nil, err
		}
		return pgtype.Timestamp{Time: ts, Valid: true}, nil
	case kindNumeric:
		var n pgtype.Numeric
		if err := n.Scan(raw); err != nil {
			return nil, fmt.Errorf("invalid number %q", raw)
		}
		return n, nil
	default:
		return raw, nil
	}
}

var timeLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"}

// parseTime accepts Synthea's ISO timestamps and plain dates and returns
// the UTC wall clock time.
func parseTime(raw string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", raw)
}
