package report_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"zsw/internal/batch"
	"zsw/internal/failure"
	"zsw/internal/report"
)

func TestBuildAndReadMeta(t *testing.T) {
	sum := batch.Summary{
		Modified: []string{"a.trn", "c.trn"},
		Failed: []batch.FileError{{
			Path: "b.trn",
			Err:  failure.Wrap(failure.New(failure.MissingEntry, "FahrplanEintrag"), "delaying entry"),
		}},
	}
	data, err := report.Build(report.Meta{Directory: "Timetables", Steps: []string{"delay"}, Seed: 7}, sum)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	meta, err := report.ReadMeta(data)
	if err != nil {
		t.Fatalf("ReadMeta: %v", err)
	}
	if meta.Modified != 2 || meta.Failed != 1 || meta.Seed != 7 || meta.Directory != "Timetables" {
		t.Errorf("unexpected meta: %+v", meta)
	}

	_, body, err := report.Parse(data)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"## Failed", "`b.trn`: missing entry", "  - while delaying entry", "- `c.trn`"} {
		if !strings.Contains(string(body), want) {
			t.Errorf("body missing %q:\n%s", want, body)
		}
	}
}

func TestBuildAllGood(t *testing.T) {
	data, err := report.Build(report.Meta{}, batch.Summary{Modified: []string{"a.trn"}})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "All files modified.") {
		t.Errorf("unexpected report:\n%s", data)
	}
}

func TestSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.md")
	if err := report.Save(path, report.Meta{DryRun: true}, batch.Summary{}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	meta, err := report.ReadMeta(data)
	if err != nil {
		t.Fatal(err)
	}
	if !meta.DryRun {
		t.Error("dry_run lost")
	}
}

func TestParseMissingDelimiters(t *testing.T) {
	if _, _, err := report.Parse([]byte("no delimiter")); err == nil {
		t.Fatal("expected error for missing opening delimiter")
	}
	if _, _, err := report.Parse([]byte("---\nmodified: 1\n")); err == nil {
		t.Fatal("expected error for missing closing delimiter")
	}
}
