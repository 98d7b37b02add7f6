package profile

import (
	"fmt"
	"strings"
)

// Markdown renders a compact report suitable for prompts or standalone docs.
func (p *DatasetProfile) Markdown(name string) string {
	var b strings.Builder
	b.WriteString("[DATASET PROFILE]\n")
	if name != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", name))
	}
	b.WriteString(fmt.Sprintf("Rows: %d\n", p.RowCount))
	b.WriteString(fmt.Sprintf("Columns: %d\n", p.ColumnCount))
	missPct := 0.0
	if cells := p.RowCount * p.ColumnCount; cells > 0 {
		missPct = float64(p.TotalMissingCells) * 100.0 / float64(cells)
	}
	b.WriteString(fmt.Sprintf("Missing cells: %d (%.1f%%)\n", p.TotalMissingCells, missPct))
	b.WriteString(fmt.Sprintf("Duplicate rows: %d\n", p.DuplicateRowCount))
	if len(p.MismatchedRows) > 0 {
		b.WriteString(fmt.Sprintf("Rows with unexpected fields: %d\n", len(p.MismatchedRows)))
	}

	if len(p.Columns) > 0 {
		b.WriteString("\n[SCHEMA]\n")
	}
	for _, c := range p.Columns {
		b.WriteString(fmt.Sprintf("- %s: %s (missing %d, unique %d)", safeName(c.Name), c.InferredType, c.MissingCount, c.UniqueCount))
		if st := c.NumericStats; st != nil {
			b.WriteString(fmt.Sprintf(" — min %.4g, max %.4g, mean %.4g, median %.4g, std %.4g", st.Min, st.Max, st.Mean, st.Median, st.StdDev))
		}
		if len(c.TopCategories) > 0 {
			b.WriteString(" — top: ")
			for i, kv := range c.TopCategories {
				if i > 0 {
					b.WriteString(", ")
				}
				b.WriteString(fmt.Sprintf("%s(%d)", safeVal(kv.Value), kv.Count))
			}
		}
		b.WriteString("\n")
	}

	if p.IssueCount() > 0 {
		b.WriteString("\n[ISSUES]\n")
		for _, iss := range p.Issues {
			writeIssue(&b, "(dataset)", iss)
		}
		for _, c := range p.Columns {
			for _, iss := range c.Issues {
				writeIssue(&b, safeName(c.Name), iss)
			}
		}
	}
	return b.String()
}

func writeIssue(b *strings.Builder, where string, iss Issue) {
	b.WriteString(fmt.Sprintf("- [%s] %s %s: %s", iss.Severity, where, iss.Kind, iss.Description))
	if len(iss.Examples) > 0 {
		ex := make([]string, len(iss.Examples))
		for i, e := range iss.Examples {
			ex[i] = safeVal(e)
		}
		b.WriteString(" — e.g., ")
		b.WriteString(strings.Join(ex, " | "))
	}
	if iss.IsLowConfidence {
		b.WriteString(" (low confidence)")
	}
	b.WriteString("\n")
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return s
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
