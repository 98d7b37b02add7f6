package advisor

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/KaramelBytes/datascrub-cli/internal/ai"
)

// Step is one ordered remediation action.
type Step struct {
	Order       int    `json:"order" yaml:"order"`
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description" yaml:"description"`
	Column      string `json:"column,omitempty" yaml:"column,omitempty"`
	Issue       string `json:"issue,omitempty" yaml:"issue,omitempty"`
}

// Script is a generated code snippet that applies part of the plan.
type Script struct {
	Language    string `json:"language" yaml:"language"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Code        string `json:"code" yaml:"code"`
}

// BIModel is a suggested star-schema layout for reporting tools.
type BIModel struct {
	FactTable  string   `json:"fact_table" yaml:"fact_table"`
	Dimensions []string `json:"dimensions,omitempty" yaml:"dimensions,omitempty"`
	Measures   []string `json:"measures,omitempty" yaml:"measures,omitempty"`
	Notes      string   `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// Plan is the cleaning plan returned by the model. It is passed through as
// received and never checked against the profile.
type Plan struct {
	Summary string   `json:"summary" yaml:"summary"`
	Steps   []Step   `json:"steps" yaml:"steps"`
	Scripts []Script `json:"scripts,omitempty" yaml:"scripts,omitempty"`
	BIModel *BIModel `json:"bi_model,omitempty" yaml:"bi_model,omitempty"`
}

// Outcome tells callers which kind of PlanResult they hold.
type Outcome string

const (
	OutcomeReady       Outcome = "ready"
	OutcomeEmpty       Outcome = "empty"
	OutcomeMalformed   Outcome = "malformed"
	OutcomeUnavailable Outcome = "unavailable"
)

// PlanResult is the outcome of a plan request. Plan is set for ready and
// empty outcomes; Err is set for malformed and unavailable ones.
type PlanResult struct {
	Outcome   Outcome  `json:"outcome"`
	Plan      *Plan    `json:"plan,omitempty"`
	Raw       string   `json:"raw,omitempty"`
	Model     string   `json:"model,omitempty"`
	RequestID string   `json:"request_id,omitempty"`
	Usage     ai.Usage `json:"usage"`
	Columns   int      `json:"columns_sent"`
	Err       error    `json:"-"`
}

// OK reports whether the result carries a plan with at least one step.
func (r PlanResult) OK() bool { return r.Outcome == OutcomeReady }

// Error returns the failure text for malformed and unavailable results.
func (r PlanResult) Error() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// stripFences removes a surrounding markdown code block if present.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```JSON")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// ParsePlan decodes a model reply into a Plan. Code fences and prose around
// the outermost JSON object are tolerated. Steps without an order are
// numbered by position.
func ParsePlan(raw string) (*Plan, error) {
	body := stripFences(raw)
	if !strings.HasPrefix(body, "{") {
		start := strings.Index(body, "{")
		end := strings.LastIndex(body, "}")
		if start < 0 || end <= start {
			return nil, fmt.Errorf("no JSON object in reply (reply: %.200s)", raw)
		}
		body = body[start : end+1]
	}
	var p Plan
	if err := json.Unmarshal([]byte(body), &p); err != nil {
		return nil, fmt.Errorf("failed to parse plan: %w (reply: %.200s)", err, body)
	}
	for i := range p.Steps {
		if p.Steps[i].Order <= 0 {
			p.Steps[i].Order = i + 1
		}
	}
	return &p, nil
}

// resultFromReply classifies a successful transport reply.
func resultFromReply(raw string) PlanResult {
	p, err := ParsePlan(raw)
	if err != nil {
		return PlanResult{Outcome: OutcomeMalformed, Raw: raw, Err: err}
	}
	if len(p.Steps) == 0 {
		return PlanResult{Outcome: OutcomeEmpty, Plan: p, Raw: raw}
	}
	return PlanResult{Outcome: OutcomeReady, Plan: p, Raw: raw}
}

// Markdown renders a ready or empty plan for terminal output.
func (p *Plan) Markdown() string {
	if p == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString("# Cleaning Plan\n\n")
	if p.Summary != "" {
		b.WriteString(p.Summary)
		b.WriteString("\n\n")
	}
	if len(p.Steps) > 0 {
		b.WriteString("## Steps\n")
		for _, s := range p.Steps {
			fmt.Fprintf(&b, "%d. **%s**", s.Order, s.Title)
			if s.Column != "" {
				fmt.Fprintf(&b, " (`%s`)", s.Column)
			}
			if s.Description != "" {
				b.WriteString(": ")
				b.WriteString(s.Description)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	for _, sc := range p.Scripts {
		b.WriteString("## Script")
		if sc.Description != "" {
			b.WriteString(": ")
			b.WriteString(sc.Description)
		}
		fmt.Fprintf(&b, "\n```%s\n%s\n```\n\n", sc.Language, strings.TrimRight(sc.Code, "\n"))
	}
	if m := p.BIModel; m != nil {
		b.WriteString("## BI Model\n")
		fmt.Fprintf(&b, "- Fact table: %s\n", m.FactTable)
		if len(m.Dimensions) > 0 {
			fmt.Fprintf(&b, "- Dimensions: %s\n", strings.Join(m.Dimensions, ", "))
		}
		if len(m.Measures) > 0 {
			fmt.Fprintf(&b, "- Measures: %s\n", strings.Join(m.Measures, ", "))
		}
		if m.Notes != "" {
			fmt.Fprintf(&b, "- Notes: %s\n", m.Notes)
		}
	}
	return b.String()
}
