package profile

import "strings"

// UnknownSentinel fills missing values in string columns during Clean.
const UnknownSentinel = "Unknown"

// Clean derives a normalized, de-duplicated dataset from ds using a profile
// previously computed for it. Neither ds nor p is modified.
//
// Steps run in order: normalize every cell, drop exact duplicates (first
// occurrence wins), then apply per-type policy: number cells are coerced to
// float64 or set to nil, string nulls become UnknownSentinel, date and
// boolean cells are left as normalized.
func Clean(ds *Dataset, p *DatasetProfile) *Dataset {
	if ds == nil {
		return &Dataset{}
	}
	cols := ds.Schema.columns
	out := &Dataset{Schema: ds.Schema, Rows: make([]Row, 0, len(ds.Rows))}

	types := make(map[string]ColumnType, len(cols))
	for _, c := range cols {
		if cp, ok := p.Column(c); ok {
			types[c] = cp.InferredType
		}
	}

	seen := make(map[string]struct{}, len(ds.Rows))
	for _, r := range ds.Rows {
		nr := make(Row, len(cols))
		for _, c := range cols {
			nr[c] = Normalize(r[c])
		}
		k := canonicalKey(cols, nr)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		for _, c := range cols {
			nr[c] = applyPolicy(types[c], nr[c])
		}
		out.Rows = append(out.Rows, nr)
	}
	return out
}

func applyPolicy(t ColumnType, v any) any {
	switch t {
	case TypeNumber:
		if v == nil {
			return nil
		}
		if f, ok := coerceNumber(v); ok {
			return f
		}
		return nil
	case TypeString:
		if v == nil {
			return UnknownSentinel
		}
		if s, ok := v.(string); ok {
			return strings.TrimSpace(s)
		}
		return v
	default:
		return v
	}
}

// CleanStats summarizes what Clean changed.
type CleanStats struct {
	RowsIn       int `json:"rows_in" yaml:"rows_in"`
	RowsOut      int `json:"rows_out" yaml:"rows_out"`
	RowsRemoved  int `json:"rows_removed" yaml:"rows_removed"`
	FilledCells  int `json:"filled_cells" yaml:"filled_cells"`
	NulledCells  int `json:"nulled_cells" yaml:"nulled_cells"`
	CoercedCells int `json:"coerced_cells" yaml:"coerced_cells"`
}

// Compare reports how cleaned differs from the original dataset. Rows are
// matched by position after skipping removed duplicates, so it must be
// called with the output of Clean(original, ...).
func Compare(original, cleaned *Dataset) CleanStats {
	st := CleanStats{RowsIn: original.Len(), RowsOut: cleaned.Len()}
	st.RowsRemoved = st.RowsIn - st.RowsOut
	if original == nil || cleaned == nil {
		return st
	}
	cols := original.Schema.columns
	seen := make(map[string]struct{}, len(original.Rows))
	j := 0
	for _, r := range original.Rows {
		nr := make(Row, len(cols))
		for _, c := range cols {
			nr[c] = Normalize(r[c])
		}
		k := canonicalKey(cols, nr)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		if j >= len(cleaned.Rows) {
			break
		}
		out := cleaned.Rows[j]
		j++
		for _, c := range cols {
			before, after := nr[c], out[c]
			switch {
			case before == nil && after != nil:
				st.FilledCells++
			case before != nil && after == nil:
				st.NulledCells++
			case before != nil && after != nil:
				if _, wasString := before.(string); wasString {
					if _, isFloat := after.(float64); isFloat {
						st.CoercedCells++
					}
				}
			}
		}
	}
	return st
}
