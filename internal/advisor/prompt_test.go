package advisor

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/datascrub-cli/internal/profile"
)

func issues(n int) []profile.Issue {
	out := make([]profile.Issue, n)
	for i := range out {
		out[i] = profile.Issue{Kind: profile.IssueMissing, Severity: profile.SeverityMedium, AffectedCount: i + 1}
	}
	return out
}

func TestSelectColumns(t *testing.T) {
	p := &profile.DatasetProfile{Columns: []profile.ColumnProfile{
		{Name: "a", Issues: issues(1)},
		{Name: "clean"},
		{Name: "b", Issues: issues(3)},
		{Name: "c", Issues: issues(1)},
		{Name: "d", Issues: issues(2)},
	}}
	names := func(cols []profile.ColumnProfile) []string {
		out := make([]string, len(cols))
		for i, c := range cols {
			out[i] = c.Name
		}
		return out
	}
	assert.Equal(t, []string{"b", "d", "a", "c"}, names(SelectColumns(p, 0)))
	assert.Equal(t, []string{"b", "d"}, names(SelectColumns(p, 2)))
	assert.Equal(t, []string{"b", "d", "a", "c", "clean"}, names(rankColumns(p, 0, true)))
	assert.Nil(t, SelectColumns(nil, 3))
}

func wideProfile(cols int) *profile.DatasetProfile {
	p := &profile.DatasetProfile{RowCount: 100, ColumnCount: cols}
	for i := 0; i < cols; i++ {
		p.Columns = append(p.Columns, profile.ColumnProfile{
			Name:         fmt.Sprintf("column_%02d", i),
			InferredType: profile.TypeString,
			MissingCount: 30,
			UniqueCount:  40,
			Issues: []profile.Issue{{
				Kind:          profile.IssueMissing,
				Description:   "30 of 100 values are missing",
				Severity:      profile.SeverityHigh,
				AffectedCount: 30,
			}},
		})
	}
	return p
}

func TestBuildPlanPromptShrinksToBudget(t *testing.T) {
	p := wideProfile(12)

	full, err := BuildPlanPrompt(p, PromptOptions{MaxColumns: 12})
	require.NoError(t, err)
	assert.Equal(t, 12, full.Columns)
	assert.Equal(t, 0, full.Omitted)

	one, err := BuildPlanPrompt(p, PromptOptions{MaxColumns: 1})
	require.NoError(t, err)
	assert.Equal(t, 11, one.Omitted)
	assert.Less(t, one.Tokens, full.Tokens)

	budget := one.Tokens + (full.Tokens-one.Tokens)/2
	mid, err := BuildPlanPrompt(p, PromptOptions{MaxColumns: 12, ContextTokens: budget + 100, ReserveTokens: 100})
	require.NoError(t, err)
	assert.LessOrEqual(t, mid.Tokens, budget)
	assert.Greater(t, mid.Columns, 1)
	assert.Less(t, mid.Columns, 12)
	assert.Contains(t, mid.User, fmt.Sprintf(`"omitted_columns":%d`, 12-mid.Columns))

	_, err = BuildPlanPrompt(p, PromptOptions{MaxColumns: 12, ContextTokens: one.Tokens - 1})
	assert.ErrorIs(t, err, ErrPromptTooLarge)
}

func TestBuildPromptDefaultsAndErrors(t *testing.T) {
	p := wideProfile(DefaultMaxColumns + 5)
	pr, err := BuildPlanPrompt(p, PromptOptions{})
	require.NoError(t, err)
	assert.Equal(t, DefaultMaxColumns, pr.Columns)
	assert.Contains(t, pr.Text(), "[SYSTEM]\n")
	assert.Contains(t, pr.User, "[TASK]")

	_, err = BuildPlanPrompt(nil, PromptOptions{})
	assert.ErrorIs(t, err, ErrNoProfile)
	_, err = BuildQuestionPrompt(p, "", PromptOptions{})
	assert.Error(t, err)
}

func TestBuildQuestionPromptTruncatesQuestion(t *testing.T) {
	p := wideProfile(2)
	long := strings.Repeat("é", 5000) + "TAIL"
	pr, err := BuildQuestionPrompt(p, "  "+long+"  ", PromptOptions{})
	require.NoError(t, err)

	_, q, ok := strings.Cut(pr.User, "[QUESTION]\n")
	require.True(t, ok)
	assert.True(t, utf8.ValidString(q))
	assert.Equal(t, maxQuestionTokens*4, utf8.RuneCountInString(q))
	assert.NotContains(t, q, "TAIL")
}
