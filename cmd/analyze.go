package cmd

import (
	"bytes"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/KaramelBytes/datascrub-cli/internal/project"
	"github.com/KaramelBytes/datascrub-cli/internal/utils"
)

var (
	anaProject    string
	anaOutputPath string
	anaFormat     string
	anaInput      inputFlags
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file> [files...]",
	Short: "Profile CSV/TSV/XLSX files and report data-quality issues",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		paths, err := expandInputs(args)
		if err != nil {
			return err
		}
		var proj *project.Project
		if anaProject != "" {
			if proj, err = openProject(anaProject); err != nil {
				return err
			}
		}
		opt, err := anaInput.options()
		if err != nil {
			return err
		}
		settings, err := resolveSettings(cfg, proj, anaInput.Sensitivity)
		if err != nil {
			return err
		}

		reports := make([]profileReport, len(paths))
		var g errgroup.Group
		g.SetLimit(runtime.NumCPU())
		for i, path := range paths {
			g.Go(func() error {
				t, prof, err := loadAndProfile(path, opt, settings)
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				slog.Debug("profiled file", "file", path, "rows", prof.RowCount, "columns", prof.ColumnCount, "issues", prof.IssueCount())
				reports[i] = profileReport{
					Source:    filepath.Base(path),
					Sheet:     t.Sheet,
					TotalRows: t.TotalRows,
					Warnings:  t.Warnings,
					Profile:   prof,
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		// Runs are recorded sequentially; the project file is not safe for
		// concurrent writers.
		if proj != nil {
			for i := range reports {
				r, err := proj.AddRun(reports[i].Source, project.RunAnalyze, reports[i].Profile)
				if err != nil {
					return err
				}
				reports[i].RunID = r.ID
			}
			if err := proj.Save(); err != nil {
				return err
			}
			for _, rep := range reports {
				fmt.Fprintf(cmd.ErrOrStderr(), "✓ Recorded run %s for %s in project '%s'\n", rep.RunID, rep.Source, proj.Name)
			}
		}

		if anaOutputPath != "" {
			var buf bytes.Buffer
			if err := writeReports(&buf, reports, anaFormat); err != nil {
				return err
			}
			if err := utils.SafeWriteFile(anaOutputPath, buf.Bytes()); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote analysis to %s\n", anaOutputPath)
			return nil
		}
		return writeReports(cmd.OutOrStdout(), reports, anaFormat)
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().StringVarP(&anaProject, "project", "p", "", "project name to record the run in")
	analyzeCmd.Flags().StringVarP(&anaOutputPath, "output", "o", "", "optional path to write the report")
	analyzeCmd.Flags().StringVarP(&anaFormat, "format", "f", "markdown", "report format: markdown|json|yaml")
	anaInput.register(analyzeCmd)
}
