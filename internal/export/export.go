package export

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/KaramelBytes/datascrub-cli/internal/profile"
	"github.com/KaramelBytes/datascrub-cli/internal/utils"
)

// DefaultSheet names the worksheet written when none is given.
const DefaultSheet = "Cleaned"

// ErrUnsupported indicates WriteFile cannot infer a format from the extension.
var ErrUnsupported = errors.New("unsupported output format")

// CSVOptions controls delimited output.
type CSVOptions struct {
	// Delimiter defaults to ','.
	Delimiter rune
	// NullText is written for missing cells; empty by default.
	NullText string
}

// WriteCSV writes the header and rows of ds in schema order. A dataset
// without columns writes nothing.
func WriteCSV(w io.Writer, ds *profile.Dataset, opt CSVOptions) error {
	cols := columns(ds)
	if len(cols) == 0 {
		return nil
	}
	cw := csv.NewWriter(w)
	if opt.Delimiter != 0 {
		cw.Comma = opt.Delimiter
	}
	if err := cw.Write(cols); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	rec := make([]string, len(cols))
	for i, r := range ds.Rows {
		for j, c := range cols {
			v := r[c]
			if v == nil {
				rec[j] = opt.NullText
				continue
			}
			rec[j] = profile.Stringify(v)
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteXLSX writes ds to a new workbook at path with typed cells: numbers,
// booleans and times keep their kind, nil cells stay empty.
func WriteXLSX(path string, ds *profile.Dataset, sheet string) error {
	buf, err := xlsxBytes(ds, sheet)
	if err != nil {
		return err
	}
	return utils.SafeWriteFile(path, buf)
}

func xlsxBytes(ds *profile.Dataset, sheet string) ([]byte, error) {
	if sheet == "" {
		sheet = DefaultSheet
	}
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return nil, fmt.Errorf("name sheet: %w", err)
	}
	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return nil, fmt.Errorf("open sheet writer: %w", err)
	}
	cols := columns(ds)
	if len(cols) > 0 {
		header := make([]any, len(cols))
		for i, c := range cols {
			header[i] = c
		}
		if err := sw.SetRow("A1", header); err != nil {
			return nil, fmt.Errorf("write header: %w", err)
		}
		for i, r := range ds.Rows {
			cell, err := excelize.CoordinatesToCellName(1, i+2)
			if err != nil {
				return nil, err
			}
			vals := make([]any, len(cols))
			for j, c := range cols {
				vals[j] = xlsxValue(r[c])
			}
			if err := sw.SetRow(cell, vals); err != nil {
				return nil, fmt.Errorf("write row %d: %w", i+1, err)
			}
		}
	}
	if err := sw.Flush(); err != nil {
		return nil, fmt.Errorf("flush sheet: %w", err)
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("encode xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

func xlsxValue(v any) any {
	switch x := v.(type) {
	case nil, string, bool, float64, float32, int, int64, int32, time.Time:
		return x
	default:
		return profile.Stringify(x)
	}
}

// WriteJSON writes ds as an indented JSON array of row objects.
func WriteJSON(w io.Writer, ds *profile.Dataset) error {
	rows := []profile.Row{}
	if ds != nil && ds.Rows != nil {
		rows = ds.Rows
	}
	b, err := utils.PrettyJSON(rows)
	if err != nil {
		return err
	}
	_, err = w.Write(append(b, '\n'))
	return err
}

// WriteFile picks the output format from the extension of path and writes
// the file atomically.
func WriteFile(path string, ds *profile.Dataset) error {
	var buf bytes.Buffer
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		if err := WriteCSV(&buf, ds, CSVOptions{}); err != nil {
			return err
		}
	case ".tsv":
		if err := WriteCSV(&buf, ds, CSVOptions{Delimiter: '\t'}); err != nil {
			return err
		}
	case ".json":
		if err := WriteJSON(&buf, ds); err != nil {
			return err
		}
	case ".xlsx":
		return WriteXLSX(path, ds, DefaultSheet)
	default:
		return fmt.Errorf("%w: %q (use .csv, .tsv, .json or .xlsx)", ErrUnsupported, filepath.Ext(path))
	}
	return utils.SafeWriteFile(path, buf.Bytes())
}

func columns(ds *profile.Dataset) []string {
	if ds == nil {
		return nil
	}
	return ds.Schema.Columns()
}
