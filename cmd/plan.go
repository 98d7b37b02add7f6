package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/datascrub-cli/internal/advisor"
	"github.com/KaramelBytes/datascrub-cli/internal/utils"
)

var (
	planSource profileSource
	planAI     aiFlags
	planOutput string
)

var planCmd = &cobra.Command{
	Use:   "plan [file]",
	Short: "Ask an AI model for a cleaning plan based on a dataset profile",
	Example: `  datascrub plan sales.csv --dry-run
  datascrub plan --profile sales.profile.json --model openai/gpt-4o-mini
  datascrub plan -p q3 --run latest --provider ollama --model llama3.1:8b
  datascrub plan sales.csv --budget-limit 0.01 --output plan.md`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		planSource.File = ""
		if len(args) == 1 {
			planSource.File = args[0]
		}
		prof, source, proj, err := planSource.resolve(cfg)
		if err != nil {
			return err
		}

		opt := advisorOptions(proj, cfg, &planAI, source)
		adv := advisor.New(nil, opt)
		pr, err := adv.PlanPrompt(prof)
		if err != nil {
			return describeAIError(err, "", adv.Model())
		}

		out := cmd.OutOrStdout()
		info := out
		if planAI.JSON {
			info = cmd.ErrOrStderr()
		}
		fmt.Fprintf(info, "Model: %s\n", adv.Model())
		estCost := printEstimate(info, adv.Model(), pr, opt.MaxTokens)

		if planAI.DryRun {
			fmt.Fprintln(out, "--- PROMPT (dry run) ---")
			fmt.Fprintln(out, pr.Text())
			return enforceBudget(estCost, planAI.BudgetLimit)
		}
		if err := enforceBudget(estCost, planAI.BudgetLimit); err != nil {
			return err
		}

		rt, providerName, err := buildRuntime(cfg, runtimeOptions{ProviderFlag: planAI.Provider, OllamaHost: planAI.OllamaHost})
		if err != nil {
			return err
		}
		adv = advisor.New(rt, opt)

		ctx, cancel := context.WithTimeout(cmd.Context(), requestTimeout(planAI.TimeoutSec))
		defer cancel()
		res := adv.Plan(ctx, prof)
		if res.Outcome == advisor.OutcomeUnavailable {
			return describeAIError(res.Err, providerName, adv.Model())
		}
		if err := writePlanResult(out, res, planAI.JSON, planOutput); err != nil {
			return err
		}
		if !res.OK() {
			return fmt.Errorf("no usable plan from %s (outcome: %s)", adv.Model(), res.Outcome)
		}
		return nil
	},
}

func requestTimeout(sec int) time.Duration {
	if sec <= 0 {
		sec = 180
	}
	return time.Duration(sec) * time.Second
}

// writePlanResult prints a ready plan as Markdown (or the whole result as
// JSON). Empty and malformed replies print the raw text for inspection.
func writePlanResult(w io.Writer, res advisor.PlanResult, asJSON bool, outPath string) error {
	var body []byte
	switch {
	case asJSON:
		b, err := utils.PrettyJSON(res)
		if err != nil {
			return err
		}
		body = b
	case res.OK():
		body = []byte(res.Plan.Markdown())
	default:
		fmt.Fprintf(w, "⚠ Plan %s: %v\n", res.Outcome, res.Err)
		if res.Raw != "" {
			fmt.Fprintln(w, "--- RAW REPLY ---")
			fmt.Fprintln(w, res.Raw)
		}
		return nil
	}
	if outPath != "" {
		if err := utils.SafeWriteFile(outPath, body); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		fmt.Fprintf(w, "✓ Wrote plan to %s\n", outPath)
	} else {
		fmt.Fprintln(w, string(body))
	}
	if !asJSON && res.Usage.TotalTokens > 0 {
		fmt.Fprintf(w, "Usage: prompt=%d, completion=%d, total=%d\n", res.Usage.PromptTokens, res.Usage.CompletionTokens, res.Usage.TotalTokens)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(planCmd)
	planSource.register(planCmd)
	planAI.register(planCmd)
	planCmd.Flags().StringVarP(&planOutput, "output", "o", "", "write the plan to a file instead of stdout")
}
