// Package backup keeps a pristine copy of a timetable directory next to it
// so that a weather run can be undone.
//
// Directory layout:
//
//	<dir>/        timetables, modified in place
//	<dir>_zsw/    full recursive copy taken before the first run
package backup

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Suffix is appended to the directory name to form the backup path.
const Suffix = "_zsw"

// Path returns the backup location for dir.
func Path(dir string) string {
	return filepath.Clean(dir) + Suffix
}

// Create copies dir to Path(dir) unless a backup already exists, so the
// oldest copy always wins. Reports whether a copy was made.
func Create(dir string) (bool, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return false, fmt.Errorf("backup: stat %s: %w", dir, err)
	}
	if !info.IsDir() {
		return false, fmt.Errorf("backup: %s is not a directory", dir)
	}
	dst := Path(dir)
	if _, err := os.Stat(dst); err == nil {
		return false, nil
	}
	if err := copyDir(dir, dst); err != nil {
		// Do not leave a partial copy that would block the next attempt.
		os.RemoveAll(dst)
		return false, fmt.Errorf("backup: copy %s: %w", dir, err)
	}
	return true, nil
}

// Restore replaces dir with its backup. The backup directory is consumed.
func Restore(dir string) error {
	src := Path(dir)
	info, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("backup: no backup for %s (expected %s)", dir, src)
	}
	if !info.IsDir() {
		return fmt.Errorf("backup: %s is not a directory", src)
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("backup: clear %s: %w", dir, err)
	}
	if err := os.Rename(src, dir); err != nil {
		return fmt.Errorf("backup: move %s: %w", src, err)
	}
	return nil
}

// copyDir recursively copies src to dst.
func copyDir(src, dst string) error {
	return filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if info.IsDir() {
			return os.MkdirAll(target, info.Mode().Perm()|0o700)
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		return copyFile(path, target)
	})
}

// copyFile copies a single file from src to dst, preserving permissions.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode())
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
