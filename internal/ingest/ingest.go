package ingest

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/datascrub-cli/internal/profile"
)

// Options controls how a table file is read.
type Options struct {
	// Delimiter for CSV. If 0, sniffed from the header line among ',', ';', '\t'.
	Delimiter rune
	// MaxRows limits rows loaded; 0 means unlimited.
	MaxRows int
	// Sheet selects an XLSX sheet by name (case-insensitive).
	Sheet string
	// SheetIndex selects an XLSX sheet by 1-based position when Sheet is empty.
	SheetIndex int
}

// DefaultOptions returns reasonable defaults for loading tables.
func DefaultOptions() Options {
	return Options{MaxRows: 100000, SheetIndex: 1}
}

// Table is a loaded dataset plus what the loader saw along the way.
type Table struct {
	Name  string
	Sheet string
	Data  *profile.Dataset
	// TotalRows counts non-blank data rows in the source, including rows
	// beyond MaxRows that were not loaded.
	TotalRows int
	Warnings  []string
}

// Truncated reports whether MaxRows cut the table short.
func (t *Table) Truncated() bool {
	return t != nil && t.Data != nil && t.TotalRows > t.Data.Len()
}

// Loader reads one family of table formats.
type Loader interface {
	CanLoad(path string) bool
	Load(path string, opt Options) (*Table, error)
}

var registry []Loader

// Register adds a loader implementation to the registry.
func Register(l Loader) {
	registry = append(registry, l)
}

// ErrUnsupported indicates no loader handles the file's extension.
var ErrUnsupported = errors.New("unsupported table format")

// Load selects a loader based on filename and reads the table.
func Load(path string, opt Options) (*Table, error) {
	for _, l := range registry {
		if l.CanLoad(path) {
			return l.Load(path, opt)
		}
	}
	ext := filepath.Ext(path)
	if ext == "" {
		ext = "(no extension)"
	}
	return nil, fmt.Errorf("%w: %s (supported: %s)", ErrUnsupported, ext, strings.Join(SupportedExtensions(), ", "))
}

// SupportedExtensions lists the extensions the default loaders accept.
func SupportedExtensions() []string {
	return []string{".csv", ".tsv", ".xlsx", ".xlsm"}
}

func init() {
	Register(csvLoader{})
	Register(xlsxLoader{})
}

func hasExt(path string, exts ...string) bool {
	name := strings.ToLower(path)
	for _, e := range exts {
		if strings.HasSuffix(name, e) {
			return true
		}
	}
	return false
}

// ColumnNames derives unique, non-blank column names from a header record.
// Blank headers become column_N (1-based) and repeats get a _2, _3... suffix.
func ColumnNames(header []string) []string {
	out := make([]string, len(header))
	seen := make(map[string]struct{}, len(header))
	for i, h := range header {
		name := strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if name == "" {
			name = fmt.Sprintf("column_%d", i+1)
		}
		base := name
		for n := 2; ; n++ {
			if _, dup := seen[name]; !dup {
				break
			}
			name = fmt.Sprintf("%s_%d", base, n)
		}
		seen[name] = struct{}{}
		out[i] = name
	}
	return out
}

// builder accumulates records into rows keyed by column name.
type builder struct {
	cols    []string
	rows    []profile.Row
	maxRows int
	total   int
	extra   int
}

func newBuilder(header []string, maxRows int) *builder {
	return &builder{cols: ColumnNames(header), maxRows: maxRows}
}

// add appends one record. Blank records are skipped, short ones padded with
// nil and fields past the header dropped.
func (b *builder) add(rec []string) {
	if blankRecord(rec) {
		return
	}
	b.total++
	if b.maxRows > 0 && len(b.rows) >= b.maxRows {
		return
	}
	if len(rec) > len(b.cols) {
		b.extra++
	}
	r := make(profile.Row, len(b.cols))
	for i, c := range b.cols {
		if i < len(rec) {
			r[c] = rec[i]
		} else {
			r[c] = nil
		}
	}
	b.rows = append(b.rows, r)
}

func (b *builder) table(name, sheet string) (*Table, error) {
	ds, err := profile.NewDataset(b.cols, b.rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	t := &Table{Name: name, Sheet: sheet, Data: ds, TotalRows: b.total}
	if t.Truncated() {
		t.Warnings = append(t.Warnings, fmt.Sprintf("loaded only %d/%d rows due to MaxRows", ds.Len(), b.total))
	}
	if b.extra > 0 {
		t.Warnings = append(t.Warnings, fmt.Sprintf("%d rows had more fields than the header; extra fields were dropped", b.extra))
	}
	return t, nil
}

func blankRecord(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
