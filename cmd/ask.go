package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/datascrub-cli/internal/advisor"
	"github.com/KaramelBytes/datascrub-cli/internal/utils"
)

var (
	askSource profileSource
	askAI     aiFlags
	askStream bool
)

var askCmd = &cobra.Command{
	Use:   "ask [file] <question>",
	Short: "Ask an AI model a question about a dataset profile",
	Example: `  datascrub ask sales.csv "Which columns need attention first?"
  datascrub ask --profile sales.profile.json "Is region safe to group by?" --stream
  datascrub ask -p q3 --run latest "What is the median price?"`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		askSource.File = ""
		question := args[len(args)-1]
		if len(args) == 2 {
			askSource.File = args[0]
		}
		if strings.TrimSpace(question) == "" {
			return errors.New("question cannot be empty")
		}
		prof, source, proj, err := askSource.resolve(cfg)
		if err != nil {
			return err
		}

		opt := advisorOptions(proj, cfg, &askAI, source)
		adv := advisor.New(nil, opt)
		pr, err := adv.QuestionPrompt(prof, question)
		if err != nil {
			return describeAIError(err, "", adv.Model())
		}
		out := cmd.OutOrStdout()
		info := cmd.ErrOrStderr()
		estCost := printEstimate(info, adv.Model(), pr, opt.MaxTokens)
		if askAI.DryRun {
			fmt.Fprintln(out, "--- PROMPT (dry run) ---")
			fmt.Fprintln(out, pr.Text())
			return enforceBudget(estCost, askAI.BudgetLimit)
		}
		if err := enforceBudget(estCost, askAI.BudgetLimit); err != nil {
			return err
		}

		rt, providerName, err := buildRuntime(cfg, runtimeOptions{ProviderFlag: askAI.Provider, OllamaHost: askAI.OllamaHost})
		if err != nil {
			return err
		}
		adv = advisor.New(rt, opt)
		ctx, cancel := context.WithTimeout(cmd.Context(), requestTimeout(askAI.TimeoutSec))
		defer cancel()

		if askStream && !askAI.JSON {
			err := adv.AskStream(ctx, prof, question, func(delta string) {
				fmt.Fprint(out, delta)
			})
			fmt.Fprintln(out)
			if err != nil {
				return describeAIError(err, providerName, adv.Model())
			}
			return nil
		}

		ans, err := adv.Ask(ctx, prof, question)
		if err != nil {
			return describeAIError(err, providerName, adv.Model())
		}
		if askAI.JSON {
			b, err := utils.PrettyJSON(ans)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, string(b))
			return nil
		}
		fmt.Fprintln(out, ans.Text)
		if ans.Usage.TotalTokens > 0 {
			fmt.Fprintf(info, "Usage: prompt=%d, completion=%d, total=%d\n", ans.Usage.PromptTokens, ans.Usage.CompletionTokens, ans.Usage.TotalTokens)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(askCmd)
	askSource.register(askCmd)
	askAI.register(askCmd)
	askCmd.Flags().BoolVar(&askStream, "stream", false, "stream the answer as it is generated")
}
