// Package advisor sends dataset profiles to a chat runtime and returns
// cleaning plans or free-text answers.
package advisor

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/KaramelBytes/datascrub-cli/internal/ai"
	"github.com/KaramelBytes/datascrub-cli/internal/profile"
)

// ErrNoRuntime is returned when an Advisor has no runtime to call.
var ErrNoRuntime = errors.New("no AI runtime configured")

// Options configures an Advisor.
type Options struct {
	Model       string
	MaxTokens   int
	Temperature float64
	MaxColumns  int
	Source      string
	Logger      *slog.Logger
}

// Advisor wraps a runtime with prompt assembly and reply decoding.
type Advisor struct {
	rt     ai.Runtime
	opt    Options
	logger *slog.Logger
}

// New returns an Advisor. A zero Model uses ai.DefaultModel.
func New(rt ai.Runtime, opt Options) *Advisor {
	if strings.TrimSpace(opt.Model) == "" {
		opt.Model = ai.DefaultModel
	}
	if opt.MaxTokens <= 0 {
		opt.MaxTokens = 2048
	}
	logger := opt.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Advisor{rt: rt, opt: opt, logger: logger.With("component", "advisor", "model", opt.Model)}
}

// Model returns the model the advisor sends requests to.
func (a *Advisor) Model() string { return a.opt.Model }

func (a *Advisor) promptOptions() PromptOptions {
	return PromptOptions{
		Source:        a.opt.Source,
		MaxColumns:    a.opt.MaxColumns,
		ContextTokens: ai.ContextWindow(a.opt.Model),
		ReserveTokens: a.opt.MaxTokens,
	}
}

// PlanPrompt builds the plan request without sending it.
func (a *Advisor) PlanPrompt(p *profile.DatasetProfile) (Prompt, error) {
	return BuildPlanPrompt(p, a.promptOptions())
}

// QuestionPrompt builds a question request without sending it.
func (a *Advisor) QuestionPrompt(p *profile.DatasetProfile, question string) (Prompt, error) {
	return BuildQuestionPrompt(p, question, a.promptOptions())
}

func (a *Advisor) request(pr Prompt, jsonMode bool) ai.GenerateRequest {
	return ai.GenerateRequest{
		Model:       a.opt.Model,
		Messages:    pr.Messages(),
		MaxTokens:   a.opt.MaxTokens,
		Temperature: a.opt.Temperature,
		JSON:        jsonMode,
	}
}

// Plan requests a cleaning plan. Failures are reported through the result's
// outcome, never through a placeholder plan.
func (a *Advisor) Plan(ctx context.Context, p *profile.DatasetProfile) PlanResult {
	pr, err := a.PlanPrompt(p)
	if err != nil {
		return PlanResult{Outcome: OutcomeUnavailable, Model: a.opt.Model, Err: err}
	}
	if a.rt == nil {
		return PlanResult{Outcome: OutcomeUnavailable, Model: a.opt.Model, Columns: pr.Columns, Err: ErrNoRuntime}
	}
	start := time.Now()
	resp, err := a.rt.Generate(ctx, a.request(pr, true))
	if err != nil {
		a.logger.Warn("plan request failed", "error", err, "elapsed", time.Since(start))
		return PlanResult{Outcome: OutcomeUnavailable, Model: a.opt.Model, Columns: pr.Columns, Err: err}
	}
	res := resultFromReply(resp.Text())
	res.Model = a.opt.Model
	res.RequestID = resp.RequestID
	res.Usage = resp.Usage
	res.Columns = pr.Columns
	a.logger.Info("plan received",
		"outcome", res.Outcome,
		"columns", pr.Columns,
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens,
		"request_id", resp.RequestID,
		"elapsed", time.Since(start))
	if res.Outcome == OutcomeMalformed {
		a.logger.Debug("malformed plan reply", "error", res.Err)
	}
	return res
}

// Answer is a free-text reply to a question.
type Answer struct {
	Text      string   `json:"text"`
	Model     string   `json:"model"`
	RequestID string   `json:"request_id,omitempty"`
	Usage     ai.Usage `json:"usage"`
}

// Ask answers a question about the profile.
func (a *Advisor) Ask(ctx context.Context, p *profile.DatasetProfile, question string) (*Answer, error) {
	pr, err := a.QuestionPrompt(p, question)
	if err != nil {
		return nil, err
	}
	if a.rt == nil {
		return nil, ErrNoRuntime
	}
	resp, err := a.rt.Generate(ctx, a.request(pr, false))
	if err != nil {
		a.logger.Warn("question request failed", "error", err)
		return nil, err
	}
	a.logger.Debug("answer received", "request_id", resp.RequestID, "completion_tokens", resp.Usage.CompletionTokens)
	return &Answer{
		Text:      strings.TrimSpace(resp.Text()),
		Model:     a.opt.Model,
		RequestID: resp.RequestID,
		Usage:     resp.Usage,
	}, nil
}

// AskStream is Ask with incremental output. Runtimes without streaming get
// one call to onDelta with the whole answer.
func (a *Advisor) AskStream(ctx context.Context, p *profile.DatasetProfile, question string, onDelta func(string)) error {
	pr, err := a.QuestionPrompt(p, question)
	if err != nil {
		return err
	}
	if a.rt == nil {
		return ErrNoRuntime
	}
	req := a.request(pr, false)
	if sr, ok := a.rt.(ai.StreamRuntime); ok {
		return sr.GenerateStream(ctx, req, onDelta)
	}
	a.logger.Debug("runtime does not stream; falling back to a single reply")
	resp, err := a.rt.Generate(ctx, req)
	if err != nil {
		return err
	}
	onDelta(resp.Text())
	return nil
}
