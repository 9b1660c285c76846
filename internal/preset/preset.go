// Package preset manages named weather configurations under ~/.zsw/.
//
// Directory layout:
//
//	$ZSW_HOME/presets/<name>.yaml    # settings.Weather as YAML
//
// ZSW_HOME defaults to ~/.zsw.
package preset

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"zsw/internal/settings"
)

// HomeEnv overrides the base directory.
const HomeEnv = "ZSW_HOME"

// Store is the preset directory.
type Store struct {
	Dir string
}

// baseDir returns $ZSW_HOME or ~/.zsw.
func baseDir() (string, error) {
	if dir := os.Getenv(HomeEnv); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home dir: %w", err)
	}
	return filepath.Join(home, ".zsw"), nil
}

// Open returns the store, creating its directory if needed.
func Open() (*Store, error) {
	base, err := baseDir()
	if err != nil {
		return nil, err
	}
	dir := filepath.Join(base, "presets")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create preset dir: %w", err)
	}
	return &Store{Dir: dir}, nil
}

func validName(name string) error {
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return fmt.Errorf("invalid preset name %q", name)
	}
	return nil
}

// path returns the path to <name>.yaml inside the store.
func (s *Store) path(name string) string {
	return filepath.Join(s.Dir, name+".yaml")
}

// Save writes a preset. Errors if it already exists.
func (s *Store) Save(name string, w settings.Weather) error {
	if err := validName(name); err != nil {
		return err
	}
	path := s.path(name)
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("preset %q already exists", name)
	}
	data, err := w.Encode()
	if err != nil {
		return fmt.Errorf("marshal preset: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write preset: %w", err)
	}
	return nil
}

// Load reads a preset on top of the defaults.
func (s *Store) Load(name string) (settings.Weather, error) {
	if err := validName(name); err != nil {
		return settings.Weather{}, err
	}
	w, err := settings.Load(s.path(name))
	if err != nil {
		return settings.Weather{}, fmt.Errorf("preset %q: %w", name, err)
	}
	return w, nil
}

// List returns preset names derived from *.yaml files in the store.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		return nil, fmt.Errorf("read preset dir: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.HasSuffix(e.Name(), ".yaml") {
			names = append(names, strings.TrimSuffix(e.Name(), ".yaml"))
		}
	}
	return names, nil
}

// Remove deletes a preset.
func (s *Store) Remove(name string) error {
	if err := validName(name); err != nil {
		return err
	}
	path := s.path(name)
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("preset %q not found", name)
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("remove preset: %w", err)
	}
	return nil
}
