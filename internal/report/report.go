// Package report writes a markdown run report with YAML frontmatter
// between --- delimiters, and reads the frontmatter back.
package report

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"zsw/internal/batch"
	"zsw/internal/failure"
)

// Meta is the frontmatter of a run report.
type Meta struct {
	Directory string   `yaml:"directory"`
	Steps     []string `yaml:"steps"`
	Seed      uint64   `yaml:"seed"`
	DryRun    bool     `yaml:"dry_run,omitempty"`
	Modified  int      `yaml:"modified"`
	Failed    int      `yaml:"failed"`
}

// Build renders the report for one run.
func Build(meta Meta, sum batch.Summary) ([]byte, error) {
	meta.Modified = len(sum.Modified)
	meta.Failed = len(sum.Failed)

	var b strings.Builder
	b.WriteString("# Weather run\n\n")
	if len(sum.Failed) == 0 {
		b.WriteString("All files modified.\n")
	} else {
		b.WriteString("## Failed\n\n")
		for _, f := range sum.Failed {
			chain := failure.Chain(f.Err)
			fmt.Fprintf(&b, "- `%s`: %s\n", f.Path, chain[0])
			for _, op := range chain[1:] {
				fmt.Fprintf(&b, "  - while %s\n", op)
			}
		}
	}
	if len(sum.Modified) > 0 {
		b.WriteString("\n## Modified\n\n")
		for _, p := range sum.Modified {
			fmt.Fprintf(&b, "- `%s`\n", p)
		}
	}
	return Write(meta, b.String())
}

// Save writes the report to path.
func Save(path string, meta Meta, sum batch.Summary) error {
	data, err := Build(meta, sum)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("report: write %s: %w", path, err)
	}
	return nil
}

// Parse splits a markdown document into its frontmatter (raw YAML bytes) and
// body. The document must begin with "---\n"; the closing "---" line ends the
// frontmatter block.
func Parse(data []byte) (frontmatter []byte, body []byte, err error) {
	const delim = "---\n"
	if !bytes.HasPrefix(data, []byte(delim)) {
		return nil, nil, fmt.Errorf("report: missing opening --- delimiter")
	}
	rest := data[len(delim):]
	idx := bytes.Index(rest, []byte("\n---"))
	if idx < 0 {
		return nil, nil, fmt.Errorf("report: missing closing --- delimiter")
	}
	fm := rest[:idx]
	tail := rest[idx+4:]
	if len(tail) > 0 && tail[0] == '\n' {
		tail = tail[1:]
	}
	return fm, tail, nil
}

// ReadMeta extracts the Meta of a report produced by Build.
func ReadMeta(data []byte) (Meta, error) {
	fm, _, err := Parse(data)
	if err != nil {
		return Meta{}, err
	}
	var m Meta
	if err := yaml.Unmarshal(fm, &m); err != nil {
		return Meta{}, fmt.Errorf("report: unmarshal: %w", err)
	}
	return m, nil
}

// Write marshals v as YAML frontmatter and appends body.
func Write(v any, body string) ([]byte, error) {
	fm, err := yaml.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("report: marshal: %w", err)
	}
	var buf bytes.Buffer
	buf.WriteString("---\n")
	buf.Write(fm)
	buf.WriteString("---\n")
	buf.WriteString(body)
	return buf.Bytes(), nil
}
