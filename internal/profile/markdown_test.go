package profile

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMarkdownSections(t *testing.T) {
	rows := []Row{
		{"age": "30", "dept": "Sales"},
		{"age": "31", "dept": "sales"},
		{"age": "32", "dept": "Ops"},
		{"age": "33", "dept": "Ops"},
		{"age": "34", "dept": "Ops"},
		{"age": "thirty", "dept": nil},
	}
	p := AnalyzeRows(rows, DefaultSettings())

	md := p.Markdown("people.csv")
	assert.True(t, strings.HasPrefix(md, "[DATASET PROFILE]\n"))
	assert.Contains(t, md, "File: people.csv")
	assert.Contains(t, md, "Rows: 6")
	assert.Contains(t, md, "Columns: 2")
	assert.Contains(t, md, "[SCHEMA]")
	assert.Contains(t, md, "- age: number (missing 0, unique 6)")
	assert.Contains(t, md, "Ops(3)")
	assert.Contains(t, md, "[ISSUES]")
	assert.Contains(t, md, "[High] age mixed_types")
	assert.Contains(t, md, "e.g., thirty")
	assert.Contains(t, md, "Sales/sales")
}

func TestMarkdownWithoutIssues(t *testing.T) {
	p := AnalyzeRows([]Row{{"a": "x"}, {"a": "y"}}, DefaultSettings())
	md := p.Markdown("")
	assert.NotContains(t, md, "File:")
	assert.NotContains(t, md, "[ISSUES]")
}
