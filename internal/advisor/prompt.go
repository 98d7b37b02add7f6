package advisor

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/KaramelBytes/datascrub-cli/internal/ai"
	"github.com/KaramelBytes/datascrub-cli/internal/profile"
	"github.com/KaramelBytes/datascrub-cli/internal/utils"
)

// DefaultMaxColumns bounds the columns sent with a plan request.
const DefaultMaxColumns = 15

const maxQuestionTokens = 1000

// ErrPromptTooLarge is returned when even a single column does not fit the
// model context.
var ErrPromptTooLarge = errors.New("profile summary does not fit the model context")

// ErrNoProfile is returned when a prompt is requested for a nil profile.
var ErrNoProfile = errors.New("no profile to send")

const planSystem = `You are a senior data engineer. You receive a data-quality profile of a tabular dataset and reply with a cleaning plan.
Reply with a single JSON object and nothing else, using this shape:
{
  "summary": "one paragraph",
  "steps": [{"order": 1, "title": "...", "description": "...", "column": "column name or empty", "issue": "issue kind or empty"}],
  "scripts": [{"language": "python|sql", "description": "...", "code": "..."}],
  "bi_model": {"fact_table": "...", "dimensions": ["..."], "measures": ["..."], "notes": "..."}
}
Order steps so that structural fixes (types, duplicates) come before value fixes (missing, categories, outliers).`

const questionSystem = `You are a data analyst. Answer the user's question about a tabular dataset using only the data-quality profile provided. If the profile does not contain the answer, say so.`

// PromptOptions controls prompt assembly.
type PromptOptions struct {
	// Source names the dataset (usually the file name).
	Source string
	// MaxColumns caps the columns included; <= 0 uses DefaultMaxColumns.
	MaxColumns int
	// ContextTokens is the model context size; <= 0 disables shrinking.
	ContextTokens int
	// ReserveTokens is kept free for the reply.
	ReserveTokens int
}

// Prompt is an assembled request with its token estimate.
type Prompt struct {
	System  string
	User    string
	Tokens  int
	Columns int
	// Omitted counts columns dropped by selection or shrinking.
	Omitted int
}

// Messages returns the prompt as chat messages.
func (p Prompt) Messages() []ai.Message {
	return []ai.Message{
		{Role: ai.RoleSystem, Content: p.System},
		{Role: ai.RoleUser, Content: p.User},
	}
}

// Text returns the whole prompt as one string, for dry runs.
func (p Prompt) Text() string {
	return "[SYSTEM]\n" + p.System + "\n\n[USER]\n" + p.User
}

// SelectColumns returns up to max columns that have issues, most issues
// first. Ties keep schema order.
func SelectColumns(p *profile.DatasetProfile, max int) []profile.ColumnProfile {
	return rankColumns(p, max, false)
}

func rankColumns(p *profile.DatasetProfile, max int, keepClean bool) []profile.ColumnProfile {
	if p == nil {
		return nil
	}
	out := make([]profile.ColumnProfile, 0, len(p.Columns))
	for _, c := range p.Columns {
		if len(c.Issues) > 0 || keepClean {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return len(out[i].Issues) > len(out[j].Issues) })
	if max > 0 && len(out) > max {
		out = out[:max]
	}
	return out
}

type issueSummary struct {
	Kind     profile.IssueKind `json:"kind"`
	Severity profile.Severity  `json:"severity"`
	Count    int               `json:"count"`
	Detail   string            `json:"detail,omitempty"`
	Examples []string          `json:"examples,omitempty"`
}

type columnSummary struct {
	Name    string                  `json:"name"`
	Type    profile.ColumnType      `json:"type"`
	Missing int                     `json:"missing"`
	Unique  int                     `json:"unique"`
	Issues  []issueSummary          `json:"issues,omitempty"`
	Top     []profile.CategoryCount `json:"top,omitempty"`
	Stats   *profile.NumericStats   `json:"stats,omitempty"`
}

type datasetSummary struct {
	Source         string          `json:"source,omitempty"`
	Rows           int             `json:"rows"`
	Columns        int             `json:"columns"`
	MissingCells   int             `json:"missing_cells"`
	DuplicateRows  int             `json:"duplicate_rows"`
	Issues         []issueSummary  `json:"issues,omitempty"`
	ColumnProfiles []columnSummary `json:"column_profiles"`
	OmittedColumns int             `json:"omitted_columns,omitempty"`
}

func summarizeIssues(in []profile.Issue) []issueSummary {
	out := make([]issueSummary, 0, len(in))
	for _, iss := range in {
		out = append(out, issueSummary{
			Kind:     iss.Kind,
			Severity: iss.Severity,
			Count:    iss.AffectedCount,
			Detail:   iss.Description,
			Examples: iss.Examples,
		})
	}
	return out
}

func summarize(p *profile.DatasetProfile, source string, cols []profile.ColumnProfile) datasetSummary {
	s := datasetSummary{
		Source:         source,
		Rows:           p.RowCount,
		Columns:        p.ColumnCount,
		MissingCells:   p.TotalMissingCells,
		DuplicateRows:  p.DuplicateRowCount,
		Issues:         summarizeIssues(p.Issues),
		ColumnProfiles: make([]columnSummary, 0, len(cols)),
		OmittedColumns: len(p.Columns) - len(cols),
	}
	for _, c := range cols {
		top := c.TopCategories
		if len(top) > 5 {
			top = top[:5]
		}
		s.ColumnProfiles = append(s.ColumnProfiles, columnSummary{
			Name:    c.Name,
			Type:    c.InferredType,
			Missing: c.MissingCount,
			Unique:  c.UniqueCount,
			Issues:  summarizeIssues(c.Issues),
			Top:     top,
			Stats:   c.NumericStats,
		})
	}
	return s
}

// BuildPlanPrompt assembles the plan request from the columns with the most
// issues.
func BuildPlanPrompt(p *profile.DatasetProfile, opt PromptOptions) (Prompt, error) {
	if p == nil {
		return Prompt{}, ErrNoProfile
	}
	cols := SelectColumns(p, maxColumns(opt))
	return fit(p, cols, opt, planSystem, func(profileJSON string) string {
		var b strings.Builder
		b.WriteString("[PROFILE]\n")
		b.WriteString(profileJSON)
		b.WriteString("\n\n[TASK]\nProduce the cleaning plan JSON for this dataset.")
		return b.String()
	})
}

// BuildQuestionPrompt assembles a free-text question about the profile.
// Issue-free columns are kept so questions about any column can be answered.
func BuildQuestionPrompt(p *profile.DatasetProfile, question string, opt PromptOptions) (Prompt, error) {
	if p == nil {
		return Prompt{}, ErrNoProfile
	}
	question = utils.TruncateToTokenLimit(strings.TrimSpace(question), maxQuestionTokens)
	if question == "" {
		return Prompt{}, errors.New("question cannot be empty")
	}
	cols := rankColumns(p, maxColumns(opt), true)
	return fit(p, cols, opt, questionSystem, func(profileJSON string) string {
		var b strings.Builder
		b.WriteString("[PROFILE]\n")
		b.WriteString(profileJSON)
		b.WriteString("\n\n[QUESTION]\n")
		b.WriteString(question)
		return b.String()
	})
}

func maxColumns(opt PromptOptions) int {
	if opt.MaxColumns > 0 {
		return opt.MaxColumns
	}
	return DefaultMaxColumns
}

// fit drops the lowest-ranked columns until the prompt fits the budget.
func fit(p *profile.DatasetProfile, cols []profile.ColumnProfile, opt PromptOptions, system string, user func(string) string) (Prompt, error) {
	budget := opt.ContextTokens - opt.ReserveTokens
	for {
		b, err := json.Marshal(summarize(p, opt.Source, cols))
		if err != nil {
			return Prompt{}, fmt.Errorf("marshal profile summary: %w", err)
		}
		pr := Prompt{System: system, User: user(string(b)), Columns: len(cols), Omitted: len(p.Columns) - len(cols)}
		pr.Tokens = utils.CountTokens(pr.System) + utils.CountTokens(pr.User)
		if opt.ContextTokens <= 0 || pr.Tokens <= budget {
			return pr, nil
		}
		if len(cols) <= 1 {
			return Prompt{}, fmt.Errorf("%w: ~%d tokens, budget %d", ErrPromptTooLarge, pr.Tokens, budget)
		}
		cols = cols[:len(cols)-1]
	}
}
