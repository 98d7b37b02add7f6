package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	cfgpkg "github.com/KaramelBytes/datascrub-cli/internal/config"
	"github.com/KaramelBytes/datascrub-cli/internal/ingest"
	"github.com/KaramelBytes/datascrub-cli/internal/profile"
	"github.com/KaramelBytes/datascrub-cli/internal/project"
)

// inputFlags are the ingestion flags shared by analyze, clean, plan and ask.
type inputFlags struct {
	Delimiter   string
	MaxRows     int
	SheetName   string
	SheetIndex  int
	Sensitivity string
}

func (f *inputFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.Delimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab' | '|' (sniffed if omitted)")
	cmd.Flags().IntVar(&f.MaxRows, "max-rows", 100000, "maximum rows to load (0 = unlimited)")
	cmd.Flags().StringVar(&f.SheetName, "sheet-name", "", "XLSX: sheet name to load")
	cmd.Flags().IntVar(&f.SheetIndex, "sheet-index", 1, "XLSX: 1-based sheet index (used if --sheet-name not provided)")
	cmd.Flags().StringVar(&f.Sensitivity, "sensitivity", "", "outlier sensitivity: low|medium|high (default from config)")
}

func (f *inputFlags) options() (ingest.Options, error) {
	opt := ingest.DefaultOptions()
	d, err := parseDelimiter(f.Delimiter)
	if err != nil {
		return opt, err
	}
	opt.Delimiter = d
	opt.MaxRows = f.MaxRows
	opt.Sheet = f.SheetName
	if f.SheetIndex > 0 {
		opt.SheetIndex = f.SheetIndex
	}
	return opt, nil
}

func parseDelimiter(s string) (rune, error) {
	switch s {
	case "":
		return 0, nil
	case ",":
		return ',', nil
	case "\t", "tab", `\t`:
		return '\t', nil
	case ";":
		return ';', nil
	case "|", "pipe":
		return '|', nil
	default:
		return 0, fmt.Errorf("unsupported --delimiter: %s", s)
	}
}

// resolveSettings applies flag > project > config precedence for sensitivity.
func resolveSettings(c *cfgpkg.Global, p *project.Project, flag string) (profile.Settings, error) {
	s := c.Settings()
	name := flag
	if name == "" && p != nil && p.Config != nil {
		name = p.Config.OutlierSensitivity
	}
	if name == "" {
		return s, nil
	}
	sens, err := profile.ParseSensitivity(name)
	if err != nil {
		return s, err
	}
	s.OutlierSensitivity = sens
	return s, nil
}

// expandInputs expands globs and rejects patterns that match nothing.
func expandInputs(args []string) ([]string, error) {
	var out []string
	seen := map[string]bool{}
	for _, a := range args {
		matches := []string{a}
		if strings.ContainsAny(a, "*?[") {
			m, err := filepath.Glob(a)
			if err != nil {
				return nil, fmt.Errorf("bad pattern %q: %w", a, err)
			}
			if len(m) == 0 {
				return nil, fmt.Errorf("no files match %s", a)
			}
			sort.Strings(m)
			matches = m
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				out = append(out, m)
			}
		}
	}
	return out, nil
}

// profileReport is the serialized form of one analyzed file.
type profileReport struct {
	Source    string                  `json:"source" yaml:"source"`
	Sheet     string                  `json:"sheet,omitempty" yaml:"sheet,omitempty"`
	TotalRows int                     `json:"total_rows" yaml:"total_rows"`
	Warnings  []string                `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	RunID     string                  `json:"run_id,omitempty" yaml:"run_id,omitempty"`
	Profile   *profile.DatasetProfile `json:"profile" yaml:"profile"`
}

func loadAndProfile(path string, opt ingest.Options, s profile.Settings) (*ingest.Table, *profile.DatasetProfile, error) {
	t, err := ingest.Load(path, opt)
	if err != nil {
		return nil, nil, err
	}
	return t, profile.Analyze(t.Data, s), nil
}

func writeReports(w io.Writer, reports []profileReport, format string) error {
	switch strings.ToLower(format) {
	case "", "markdown", "md":
		for i, r := range reports {
			if i > 0 {
				fmt.Fprintln(w)
			}
			name := r.Source
			if r.Sheet != "" {
				name += " [" + r.Sheet + "]"
			}
			fmt.Fprint(w, r.Profile.Markdown(name))
			for _, warn := range r.Warnings {
				fmt.Fprintf(w, "⚠ %s\n", warn)
			}
		}
		return nil
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if len(reports) == 1 {
			return enc.Encode(reports[0])
		}
		return enc.Encode(reports)
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		for _, r := range reports {
			if err := enc.Encode(r); err != nil {
				return fmt.Errorf("encode yaml: %w", err)
			}
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported --format: %s (use markdown|json|yaml)", format)
	}
}

// readProfileFile accepts a report written by analyze --format json|yaml or
// a bare profile.
func readProfileFile(path string) (*profile.DatasetProfile, string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("read profile: %w", err)
	}
	unmarshal := json.Unmarshal
	if ext := strings.ToLower(filepath.Ext(path)); ext == ".yaml" || ext == ".yml" {
		unmarshal = yaml.Unmarshal
	}
	var rep profileReport
	if err := unmarshal(b, &rep); err != nil {
		return nil, "", fmt.Errorf("parse profile %s: %w", path, err)
	}
	if rep.Profile != nil {
		if rep.Source == "" {
			rep.Source = filepath.Base(path)
		}
		return rep.Profile, rep.Source, nil
	}
	var p profile.DatasetProfile
	if err := unmarshal(b, &p); err != nil {
		return nil, "", fmt.Errorf("parse profile %s: %w", path, err)
	}
	if len(p.Columns) == 0 && p.RowCount == 0 {
		return nil, "", fmt.Errorf("%s does not contain a profile", path)
	}
	return &p, filepath.Base(path), nil
}

// profileSource selects where plan and ask get their profile from.
type profileSource struct {
	File        string
	ProfilePath string
	Project     string
	Run         string
	Input       inputFlags
}

func (s *profileSource) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&s.ProfilePath, "profile", "", "read a saved profile (analyze --format json|yaml output)")
	cmd.Flags().StringVarP(&s.Project, "project", "p", "", "project name (with --run)")
	cmd.Flags().StringVar(&s.Run, "run", "", "run id, unique prefix, or 'latest' (requires --project)")
	s.Input.register(cmd)
}

func (s *profileSource) resolve(c *cfgpkg.Global) (*profile.DatasetProfile, string, *project.Project, error) {
	var proj *project.Project
	if s.Project != "" {
		p, err := openProject(s.Project)
		if err != nil {
			return nil, "", nil, err
		}
		proj = p
	}
	set := 0
	for _, v := range []string{s.File, s.ProfilePath, s.Run} {
		if v != "" {
			set++
		}
	}
	if set != 1 {
		return nil, "", proj, errors.New("specify exactly one of <file>, --profile, or --project with --run")
	}
	switch {
	case s.ProfilePath != "":
		p, src, err := readProfileFile(s.ProfilePath)
		return p, src, proj, err
	case s.Run != "":
		if proj == nil {
			return nil, "", nil, errors.New("--run requires --project")
		}
		p, r, err := proj.LoadRunProfile(s.Run)
		if err != nil {
			return nil, "", proj, err
		}
		return p, r.Source, proj, nil
	default:
		opt, err := s.Input.options()
		if err != nil {
			return nil, "", proj, err
		}
		settings, err := resolveSettings(c, proj, s.Input.Sensitivity)
		if err != nil {
			return nil, "", proj, err
		}
		_, p, err := loadAndProfile(s.File, opt, settings)
		return p, filepath.Base(s.File), proj, err
	}
}
