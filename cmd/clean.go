package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/datascrub-cli/internal/export"
	"github.com/KaramelBytes/datascrub-cli/internal/profile"
	"github.com/KaramelBytes/datascrub-cli/internal/project"
	"github.com/KaramelBytes/datascrub-cli/internal/utils"
)

var (
	cleanOutput  string
	cleanReport  string
	cleanProject string
	cleanInput   inputFlags
)

var cleanCmd = &cobra.Command{
	Use:   "clean <file> -o <out.csv|out.tsv|out.json|out.xlsx>",
	Short: "Profile a file, then write a normalized, de-duplicated copy",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		if cleanOutput == "" {
			return errors.New("--output is required")
		}
		if !outputSupported(cleanOutput) {
			return fmt.Errorf("%w: %q (use .csv, .tsv, .json or .xlsx)", export.ErrUnsupported, filepath.Ext(cleanOutput))
		}
		if sameFile(path, cleanOutput) {
			return errors.New("refusing to overwrite the input file; choose a different --output")
		}
		var proj *project.Project
		var err error
		if cleanProject != "" {
			if proj, err = openProject(cleanProject); err != nil {
				return err
			}
		}
		opt, err := cleanInput.options()
		if err != nil {
			return err
		}
		settings, err := resolveSettings(cfg, proj, cleanInput.Sensitivity)
		if err != nil {
			return err
		}

		t, prof, err := loadAndProfile(path, opt, settings)
		if err != nil {
			return err
		}
		if t.Truncated() {
			fmt.Fprintf(cmd.ErrOrStderr(), "⚠ Only the first %d of %d rows were loaded; the cleaned file is truncated too (raise --max-rows)\n", t.Data.Len(), t.TotalRows)
		}
		cleaned := profile.Clean(t.Data, prof)
		stats := profile.Compare(t.Data, cleaned)
		slog.Debug("cleaned dataset", "file", path, "rows_in", stats.RowsIn, "rows_out", stats.RowsOut)

		if err := export.WriteFile(cleanOutput, cleaned); err != nil {
			return err
		}

		if cleanReport != "" {
			var buf bytes.Buffer
			rep := []profileReport{{Source: filepath.Base(path), Sheet: t.Sheet, TotalRows: t.TotalRows, Warnings: t.Warnings, Profile: prof}}
			if err := writeReports(&buf, rep, reportFormat(cleanReport)); err != nil {
				return err
			}
			if err := utils.SafeWriteFile(cleanReport, buf.Bytes()); err != nil {
				return fmt.Errorf("write report: %w", err)
			}
		}

		if proj != nil {
			r, err := proj.AddRun(filepath.Base(path), project.RunClean, prof)
			if err != nil {
				return err
			}
			if err := proj.Save(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Recorded run %s in project '%s'\n", r.ID, proj.Name)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "✓ Wrote cleaned data to %s\n", cleanOutput)
		fmt.Fprintf(out, "Rows: %d in, %d out (%d duplicates removed)\n", stats.RowsIn, stats.RowsOut, stats.RowsRemoved)
		fmt.Fprintf(out, "Cells: %d filled, %d nulled, %d coerced to numbers\n", stats.FilledCells, stats.NulledCells, stats.CoercedCells)
		if cleanReport != "" {
			fmt.Fprintf(out, "✓ Wrote profile to %s\n", cleanReport)
		}
		return nil
	},
}

func outputSupported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".tsv", ".json", ".xlsx":
		return true
	}
	return false
}

// reportFormat picks json or yaml by extension, markdown otherwise.
func reportFormat(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return "json"
	case ".yaml", ".yml":
		return "yaml"
	default:
		return "markdown"
	}
}

func sameFile(a, b string) bool {
	aa, err1 := filepath.Abs(a)
	bb, err2 := filepath.Abs(b)
	return err1 == nil && err2 == nil && aa == bb
}

func init() {
	rootCmd.AddCommand(cleanCmd)
	cleanCmd.Flags().StringVarP(&cleanOutput, "output", "o", "", "cleaned output path (.csv, .tsv, .json or .xlsx)")
	cleanCmd.Flags().StringVar(&cleanReport, "report", "", "also write the profile (.md, .json or .yaml)")
	cleanCmd.Flags().StringVarP(&cleanProject, "project", "p", "", "project name to record the run in")
	cleanInput.register(cleanCmd)
}
