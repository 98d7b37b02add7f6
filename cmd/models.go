package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/datascrub-cli/internal/ai"
	"github.com/KaramelBytes/datascrub-cli/internal/utils"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Inspect the model catalog used for budgeting and cost estimates",
	Example: `  datascrub models show
  datascrub models show --provider ollama --json
  datascrub models sync --file ./models.yaml`,
}

var (
	modelsProvider string
	modelsJSON     bool
)

var modelsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the current model catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		want := ""
		if modelsProvider != "" {
			want = ai.CanonicalProvider(modelsProvider)
		}
		var list []ai.ModelInfo
		for _, name := range ai.CatalogNames() {
			mi, ok := ai.LookupModel(name)
			if !ok || (want != "" && mi.Provider != want) {
				continue
			}
			list = append(list, mi)
		}
		out := cmd.OutOrStdout()
		if modelsJSON {
			b, err := utils.PrettyJSON(list)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, string(b))
			return nil
		}
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "MODEL\tPROVIDER\tCONTEXT\tIN/1K\tOUT/1K")
		for _, mi := range list {
			fmt.Fprintf(tw, "%s\t%s\t%d\t%.5f\t%.5f\n", mi.Name, mi.Provider, mi.ContextTokens, mi.InputPerK, mi.OutputPerK)
		}
		return tw.Flush()
	},
}

var syncPath string

var modelsSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Check a YAML/JSON catalog file and merge it for this invocation",
	Long: `Loads a catalog file and reports what it adds or overrides. To apply it on
every run, point the 'models_file' config key at it:

  datascrub config set models_file ./models.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if syncPath == "" {
			return fmt.Errorf("--file is required")
		}
		m, err := ai.LoadCatalog(syncPath)
		if err != nil {
			return fmt.Errorf("load catalog: %w", err)
		}
		added, replaced := 0, 0
		for name := range m {
			if _, ok := ai.LookupModel(name); ok {
				replaced++
			} else {
				added++
			}
		}
		ai.MergeCatalog(m)
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Catalog %s: %d new, %d overriding built-in entries\n", syncPath, added, replaced)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(modelsCmd)
	modelsCmd.AddCommand(modelsShowCmd)
	modelsCmd.AddCommand(modelsSyncCmd)

	modelsShowCmd.Flags().StringVar(&modelsProvider, "provider", "", "only show models for a provider (openrouter|ollama)")
	modelsShowCmd.Flags().BoolVar(&modelsJSON, "json", false, "print the catalog as JSON")
	modelsSyncCmd.Flags().StringVar(&syncPath, "file", "", "path to a YAML or JSON catalog file")
}
