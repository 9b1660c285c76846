// Package batch applies the mutation engine to every timetable file of a
// directory. A file that fails is reported and left untouched; the batch
// carries on with the next one.
package batch

import (
	"fmt"
	"log"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"zsw/internal/delay"
	"zsw/internal/document"
	"zsw/internal/engine"
	"zsw/internal/failure"
)

// Source is the batch-wide random source. Uint64 seeds per-file sources
// in parallel mode.
type Source interface {
	delay.Source
	Uint64() uint64
}

// FileError records a failed file.
type FileError struct {
	Path string
	Err  error
}

// Summary is the outcome of a run, in file order.
type Summary struct {
	Modified []string
	Failed   []FileError
}

// Runner processes files with one engine.
type Runner struct {
	Engine *engine.Engine
	// Jobs > 1 processes files concurrently with per-file sources.
	Jobs int
	// DryRun mutates in memory only.
	DryRun bool
	Logger *log.Logger
}

// Eligible lists regular files directly inside dir whose extension is ext
// (with or without the leading dot), sorted by name.
func Eligible(dir, ext string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", dir, err)
	}
	suffix := "." + strings.TrimPrefix(ext, ".")
	var paths []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != suffix {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

// ProcessFile loads path, mutates it and writes it back unless dryRun.
// Nothing is written when any step fails.
func ProcessFile(path string, e *engine.Engine, src delay.Source, dryRun bool) error {
	doc, err := document.Load(path)
	if err != nil {
		return err
	}
	if err := e.Mutate(doc, src); err != nil {
		return err
	}
	if dryRun {
		return nil
	}
	return failure.Wrap(document.Save(doc, path), "writing "+filepath.Base(path))
}

// Run processes paths. With Jobs <= 1 every file draws from src in order;
// otherwise each file gets its own source seeded from src in file order,
// so the outcome does not depend on scheduling.
func (r *Runner) Run(paths []string, src Source) Summary {
	errs := make([]error, len(paths))
	if r.Jobs <= 1 {
		for i, p := range paths {
			errs[i] = r.process(p, src)
		}
	} else {
		seeds := make([][2]uint64, len(paths))
		for i := range seeds {
			seeds[i] = [2]uint64{src.Uint64(), src.Uint64()}
		}
		var g errgroup.Group
		g.SetLimit(r.Jobs)
		for i, p := range paths {
			g.Go(func() error {
				errs[i] = r.process(p, rand.New(rand.NewPCG(seeds[i][0], seeds[i][1])))
				return nil
			})
		}
		g.Wait()
	}

	var sum Summary
	for i, p := range paths {
		if errs[i] != nil {
			sum.Failed = append(sum.Failed, FileError{Path: p, Err: errs[i]})
			continue
		}
		sum.Modified = append(sum.Modified, p)
	}
	return sum
}

func (r *Runner) process(path string, src delay.Source) (err error) {
	defer timeFile(r.logger(), path)(&err)
	return ProcessFile(path, r.Engine, src, r.DryRun)
}

func (r *Runner) logger() *log.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return log.Default()
}
