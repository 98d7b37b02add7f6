package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/datascrub-cli/internal/profile"
	"github.com/KaramelBytes/datascrub-cli/internal/project"
)

var (
	pmProject string
	pmClear   bool
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Manage per-project settings",
}

var projectSetCmd = &cobra.Command{
	Use:   "set <model|max_tokens|temperature|outlier_sensitivity> [value]",
	Short: "Set or clear a project's override",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if pmProject == "" {
			return fmt.Errorf("--project is required")
		}
		p, err := openProject(pmProject)
		if err != nil {
			return err
		}
		if p.Config == nil {
			p.Config = &project.ProjectConfig{}
		}
		key := args[0]
		val := ""
		if len(args) == 2 {
			val = strings.TrimSpace(args[1])
		}
		if !pmClear && val == "" {
			return fmt.Errorf("value is required unless --clear is set")
		}
		if pmClear {
			val = ""
		}
		if err := setProjectKey(p.Config, key, val); err != nil {
			return err
		}
		if err := p.Save(); err != nil {
			return err
		}
		if pmClear {
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Cleared %s for %s\n", key, pmProject)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Set %s for %s: %s\n", key, pmProject, val)
		}
		return nil
	},
}

// setProjectKey assigns one override; an empty value clears it.
func setProjectKey(c *project.ProjectConfig, key, val string) error {
	switch key {
	case "model":
		c.Model = val
	case "max_tokens":
		if val == "" {
			c.MaxTokens = 0
			return nil
		}
		i, err := strconv.Atoi(val)
		if err != nil || i < 0 {
			return fmt.Errorf("invalid int for max_tokens: %s", val)
		}
		c.MaxTokens = i
	case "temperature":
		if val == "" {
			c.Temperature = 0
			return nil
		}
		f, err := strconv.ParseFloat(val, 64)
		if err != nil || f < 0 || f > 2 {
			return fmt.Errorf("invalid temperature: %s (use 0..2)", val)
		}
		c.Temperature = f
	case "outlier_sensitivity":
		if val == "" {
			c.OutlierSensitivity = ""
			return nil
		}
		s, err := profile.ParseSensitivity(val)
		if err != nil {
			return err
		}
		c.OutlierSensitivity = string(s)
	default:
		return fmt.Errorf("unknown project key: %s (use model|max_tokens|temperature|outlier_sensitivity)", key)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(projectCmd)
	projectCmd.AddCommand(projectSetCmd)

	projectSetCmd.Flags().StringVarP(&pmProject, "project", "p", "", "project name")
	projectSetCmd.Flags().BoolVar(&pmClear, "clear", false, "clear the override")
}
