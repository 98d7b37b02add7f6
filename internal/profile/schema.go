package profile

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Row maps column names to raw cell values. Values are nil, string, bool,
// any Go numeric kind, or time.Time.
type Row map[string]any

var (
	// ErrEmptySchema is returned when a dataset is built without columns.
	ErrEmptySchema = errors.New("schema has no columns")
	// ErrDuplicateColumn is returned when two columns share a name.
	ErrDuplicateColumn = errors.New("duplicate column name")
)

// Schema is the ordered, validated column set shared by every row of a Dataset.
type Schema struct {
	columns []string
	index   map[string]int
}

// NewSchema validates column names: non-blank and unique.
func NewSchema(columns []string) (Schema, error) {
	if len(columns) == 0 {
		return Schema{}, ErrEmptySchema
	}
	s := Schema{columns: make([]string, len(columns)), index: make(map[string]int, len(columns))}
	for i, c := range columns {
		if strings.TrimSpace(c) == "" {
			return Schema{}, fmt.Errorf("column %d: blank name", i+1)
		}
		if _, dup := s.index[c]; dup {
			return Schema{}, fmt.Errorf("%w: %q", ErrDuplicateColumn, c)
		}
		s.columns[i] = c
		s.index[c] = i
	}
	return s, nil
}

// Columns returns a copy of the column names in schema order.
func (s Schema) Columns() []string {
	out := make([]string, len(s.columns))
	copy(out, s.columns)
	return out
}

// Len returns the number of columns.
func (s Schema) Len() int { return len(s.columns) }

// Has reports whether the schema contains the column.
func (s Schema) Has(name string) bool {
	_, ok := s.index[name]
	return ok
}

// matches reports whether the row's key set equals the schema's.
func (s Schema) matches(r Row) bool {
	if len(r) != len(s.columns) {
		return false
	}
	for k := range r {
		if _, ok := s.index[k]; !ok {
			return false
		}
	}
	return true
}

// Dataset is a read-only row set bound to a schema.
type Dataset struct {
	Schema Schema
	Rows   []Row
	// Mismatched holds indices of rows whose keys diverge from the schema.
	// Those rows are still profiled: absent columns count as missing and
	// extra keys are ignored.
	Mismatched []int
}

// NewDataset binds rows to a validated schema and quarantines divergent rows.
func NewDataset(columns []string, rows []Row) (*Dataset, error) {
	s, err := NewSchema(columns)
	if err != nil {
		return nil, err
	}
	ds := &Dataset{Schema: s, Rows: rows}
	for i, r := range rows {
		if !s.matches(r) {
			ds.Mismatched = append(ds.Mismatched, i)
		}
	}
	return ds, nil
}

// DatasetFromRows derives the schema from the first row's keys, sorted by
// name. Unlike NewDataset it never fails: blank keys are kept as columns and
// an empty first row yields a schema with no columns.
func DatasetFromRows(rows []Row) *Dataset {
	if len(rows) == 0 {
		return &Dataset{}
	}
	cols := make([]string, 0, len(rows[0]))
	for k := range rows[0] {
		cols = append(cols, k)
	}
	sort.Strings(cols)
	s := Schema{columns: cols, index: make(map[string]int, len(cols))}
	for i, c := range cols {
		s.index[c] = i
	}
	ds := &Dataset{Schema: s, Rows: rows}
	for i, r := range rows {
		if !s.matches(r) {
			ds.Mismatched = append(ds.Mismatched, i)
		}
	}
	return ds
}

// Len returns the number of rows.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Rows)
}
