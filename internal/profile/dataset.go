package profile

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

// duplicateHighRatio promotes the dataset duplicate issue to High severity.
const duplicateHighRatio = 0.2

// Analyze profiles every column of ds and counts exact-duplicate rows.
// It never fails: degenerate input yields an empty or issue-free profile.
func Analyze(ds *Dataset, s Settings) *DatasetProfile {
	s = s.withDefaults()
	p := &DatasetProfile{Columns: []ColumnProfile{}}
	if ds == nil || len(ds.Rows) == 0 {
		return p
	}
	cols := ds.Schema.columns
	p.RowCount = len(ds.Rows)
	p.ColumnCount = len(cols)
	if len(ds.Mismatched) > 0 {
		p.MismatchedRows = append([]int(nil), ds.Mismatched...)
	}

	seen := make(map[string]struct{}, len(ds.Rows))
	for _, r := range ds.Rows {
		seen[canonicalKey(cols, r)] = struct{}{}
	}
	p.DuplicateRowCount = p.RowCount - len(seen)
	if iss, ok := duplicateIssue(p.DuplicateRowCount, p.RowCount); ok {
		p.Issues = append(p.Issues, iss)
	}

	p.Columns = make([]ColumnProfile, len(cols))
	var g errgroup.Group
	g.SetLimit(s.Parallelism)
	for i, name := range cols {
		g.Go(func() error {
			p.Columns[i] = profileColumn(name, ds.Rows, s)
			return nil
		})
	}
	_ = g.Wait()

	for _, c := range p.Columns {
		p.TotalMissingCells += c.MissingCount
	}
	return p
}

// AnalyzeRows profiles raw rows, taking the schema from the first row.
func AnalyzeRows(rows []Row, s Settings) *DatasetProfile {
	return Analyze(DatasetFromRows(rows), s)
}

func duplicateIssue(dups, rows int) (Issue, bool) {
	if dups == 0 {
		return Issue{}, false
	}
	ratio := float64(dups) / float64(rows)
	sev := SeverityMedium
	if ratio > duplicateHighRatio {
		sev = SeverityHigh
	}
	return Issue{
		Kind:          IssueDuplicateRows,
		Description:   fmt.Sprintf("%d exact duplicate rows (%.1f%% of rows)", dups, ratio*100),
		Severity:      sev,
		AffectedCount: dups,
	}, true
}

// canonicalKey serializes a row in schema order. Absent keys encode as null
// and scalars use JSON formatting, so "1" and 1 stay distinct.
func canonicalKey(cols []string, r Row) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, c := range cols {
		if i > 0 {
			b.WriteByte(',')
		}
		b.Write(encodeScalar(r[c]))
	}
	b.WriteByte(']')
	return b.String()
}

func encodeScalar(v any) []byte {
	switch x := v.(type) {
	case nil:
		return []byte("null")
	case time.Time:
		v = x.UTC().Format(time.RFC3339Nano)
	case float64:
		if f := formatFloat(x); f == "NaN" || strings.HasSuffix(f, "Infinity") {
			return []byte(f)
		}
	case float32:
		return encodeScalar(float64(x))
	}
	b, err := json.Marshal(v)
	if err != nil {
		return []byte(fmt.Sprintf("%q", Stringify(v)))
	}
	return b
}
