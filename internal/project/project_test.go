package project_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/KaramelBytes/datascrub-cli/internal/profile"
	"github.com/KaramelBytes/datascrub-cli/internal/project"
)

func sampleProfile(t *testing.T) *profile.DatasetProfile {
	t.Helper()
	return profile.AnalyzeRows([]profile.Row{
		{"name": "Alice", "age": "30"},
		{"name": "Bob", "age": nil},
		{"name": "Alice", "age": "30"},
	}, profile.DefaultSettings())
}

func TestAddRunRoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "proj")
	proj := project.NewProject("test", "", dir)
	if err := proj.Save(); err != nil {
		t.Fatalf("save: %v", err)
	}
	if !project.Exists(dir) {
		t.Fatalf("expected project.json in %s", dir)
	}

	prof := sampleProfile(t)
	run, err := proj.AddRun("people.csv", project.RunAnalyze, prof)
	if err != nil {
		t.Fatalf("add run: %v", err)
	}
	if run.Rows != 3 || run.DuplicateRows != 1 || run.MissingCells != 1 || run.Issues != prof.IssueCount() {
		t.Fatalf("unexpected run summary: %+v", run)
	}
	if _, err := os.Stat(filepath.Join(dir, "runs", run.ID+".json")); err != nil {
		t.Fatalf("run profile not written: %v", err)
	}
	if err := proj.Save(); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := project.LoadProject(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded.Runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(loaded.Runs))
	}
	got, r, err := loaded.LoadRunProfile(run.ID[:8])
	if err != nil {
		t.Fatalf("load run profile: %v", err)
	}
	if r.Source != "people.csv" || r.Kind != project.RunAnalyze {
		t.Fatalf("unexpected run: %+v", r)
	}
	if got.RowCount != prof.RowCount || len(got.Columns) != len(prof.Columns) || got.IssueCount() != prof.IssueCount() {
		t.Fatalf("profile did not round-trip: %+v", got)
	}
}

func TestFindRun(t *testing.T) {
	proj := project.NewProject("test", "", t.TempDir())
	if _, err := proj.FindRun("latest"); !errors.Is(err, project.ErrRunNotFound) {
		t.Fatalf("expected ErrRunNotFound, got %v", err)
	}
	prof := sampleProfile(t)
	first, err := proj.AddRun("a.csv", project.RunAnalyze, prof)
	if err != nil {
		t.Fatal(err)
	}
	second, err := proj.AddRun("a.csv", project.RunClean, prof)
	if err != nil {
		t.Fatal(err)
	}
	// Force a deterministic order.
	first.CreatedAt = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	second.CreatedAt = first.CreatedAt.Add(time.Minute)

	latest, err := proj.FindRun("latest")
	if err != nil || latest.ID != second.ID {
		t.Fatalf("latest: got %v, %v", latest, err)
	}
	runs := proj.ListRuns()
	if len(runs) != 2 || runs[0].ID != first.ID {
		t.Fatalf("unexpected run order")
	}
	if _, err := proj.FindRun("zzzz"); !errors.Is(err, project.ErrRunNotFound) {
		t.Fatalf("expected ErrRunNotFound, got %v", err)
	}
	if _, err := proj.FindRun(""); err == nil {
		t.Fatalf("expected error for empty ref")
	}
}

func TestAddRunRequiresRoot(t *testing.T) {
	proj := project.NewProject("test", "", "")
	if _, err := proj.AddRun("a.csv", project.RunAnalyze, sampleProfile(t)); err == nil {
		t.Fatalf("expected error without root dir")
	}
}

func TestValidateName(t *testing.T) {
	for _, bad := range []string{"", " ", "..", "a/b", `a\b`} {
		if err := project.ValidateName(bad); err == nil {
			t.Errorf("expected %q to be rejected", bad)
		}
	}
	if err := project.ValidateName("sales-2024"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
