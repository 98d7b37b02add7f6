package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/KaramelBytes/datascrub-cli/internal/profile"
	"github.com/KaramelBytes/datascrub-cli/internal/utils"
)

const runsDirName = "runs"

// RunKind tells whether a run profiled a file or cleaned it.
type RunKind string

const (
	RunAnalyze RunKind = "analyze"
	RunClean   RunKind = "clean"
)

// ErrRunNotFound is returned when no run matches an ID or prefix.
var ErrRunNotFound = errors.New("run not found")

// Run records one profiling run; the full profile lives in runs/<id>.json.
type Run struct {
	ID            string    `json:"id"`
	Kind          RunKind   `json:"kind"`
	Source        string    `json:"source"`
	Rows          int       `json:"rows"`
	Columns       int       `json:"columns"`
	Issues        int       `json:"issues"`
	DuplicateRows int       `json:"duplicate_rows"`
	MissingCells  int       `json:"missing_cells"`
	CreatedAt     time.Time `json:"created_at"`
}

func (p *Project) runPath(id string) string {
	return filepath.Join(p.rootDir, runsDirName, id+".json")
}

// AddRun stores the profile under runs/<id>.json and records a summary.
// Call Save to persist the project file.
func (p *Project) AddRun(source string, kind RunKind, prof *profile.DatasetProfile) (*Run, error) {
	if p.rootDir == "" {
		return nil, errors.New("project root directory not set")
	}
	if prof == nil {
		return nil, errors.New("profile is nil")
	}
	if err := utils.EnsureProjectDir(filepath.Join(p.rootDir, runsDirName)); err != nil {
		return nil, fmt.Errorf("ensure runs dir: %w", err)
	}
	r := &Run{
		ID:            uuid.NewString(),
		Kind:          kind,
		Source:        source,
		Rows:          prof.RowCount,
		Columns:       prof.ColumnCount,
		Issues:        prof.IssueCount(),
		DuplicateRows: prof.DuplicateRowCount,
		MissingCells:  prof.TotalMissingCells,
		CreatedAt:     time.Now().UTC(),
	}
	data, err := utils.PrettyJSON(prof)
	if err != nil {
		return nil, err
	}
	if err := utils.SafeWriteFile(p.runPath(r.ID), data); err != nil {
		return nil, fmt.Errorf("write run profile: %w", err)
	}
	if p.Runs == nil {
		p.Runs = make(map[string]*Run)
	}
	p.Runs[r.ID] = r
	p.UpdatedAt = time.Now()
	return r, nil
}

// ListRuns returns runs oldest first.
func (p *Project) ListRuns() []*Run {
	out := make([]*Run, 0, len(p.Runs))
	for _, r := range p.Runs {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// FindRun resolves a full ID, a unique ID prefix, or "latest".
func (p *Project) FindRun(ref string) (*Run, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, errors.New("run id is required")
	}
	if ref == "latest" {
		runs := p.ListRuns()
		if len(runs) == 0 {
			return nil, fmt.Errorf("%w: project %q has no runs", ErrRunNotFound, p.Name)
		}
		return runs[len(runs)-1], nil
	}
	if r, ok := p.Runs[ref]; ok {
		return r, nil
	}
	var match *Run
	for id, r := range p.Runs {
		if strings.HasPrefix(id, ref) {
			if match != nil {
				return nil, fmt.Errorf("run prefix %q is ambiguous", ref)
			}
			match = r
		}
	}
	if match == nil {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, ref)
	}
	return match, nil
}

// LoadRunProfile reads the stored profile for a run reference.
func (p *Project) LoadRunProfile(ref string) (*profile.DatasetProfile, *Run, error) {
	r, err := p.FindRun(ref)
	if err != nil {
		return nil, nil, err
	}
	b, err := os.ReadFile(p.runPath(r.ID))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, fmt.Errorf("%w: profile file for %s is missing", ErrRunNotFound, r.ID)
		}
		return nil, nil, fmt.Errorf("read run profile: %w", err)
	}
	var prof profile.DatasetProfile
	if err := json.Unmarshal(b, &prof); err != nil {
		return nil, nil, fmt.Errorf("parse run profile: %w", err)
	}
	return &prof, r, nil
}
