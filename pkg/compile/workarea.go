package compile

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

const workAreaPattern = "compile-*"

// WorkingArea is a uniquely named directory owned by one compilation attempt.
type WorkingArea struct {
	dir string
}

// NewWorkingArea creates a fresh directory under parent. The parent is
// created if missing.
func NewWorkingArea(parent string) (*WorkingArea, error) {
	if err := os.MkdirAll(parent, 0o750); err != nil {
		return nil, fmt.Errorf("creating working root: %w", err)
	}
	dir, err := os.MkdirTemp(parent, workAreaPattern)
	if err != nil {
		return nil, fmt.Errorf("creating working area: %w", err)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		_ = os.RemoveAll(dir)
		return nil, fmt.Errorf("resolving working area: %w", err)
	}
	return &WorkingArea{dir: abs}, nil
}

// Dir is the absolute directory of the area.
func (w *WorkingArea) Dir() string { return w.dir }

// Path joins name onto the area directory.
func (w *WorkingArea) Path(name string) string {
	return filepath.Join(w.dir, name)
}

// Remove deletes the area and everything in it. Removing twice is not an error.
func (w *WorkingArea) Remove() error {
	if err := os.RemoveAll(w.dir); err != nil {
		return fmt.Errorf("removing working area %s: %w", w.dir, err)
	}
	return nil
}

// Artifact is a compiled file still owned by its WorkingArea.
type Artifact struct {
	path string
	area *WorkingArea
}

// NewArtifact binds the file name inside area as an artifact. It fails if the
// file does not exist or is not a regular file.
func NewArtifact(area *WorkingArea, name string) (*Artifact, error) {
	p := area.Path(name)
	info, err := os.Stat(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("expected output %s was not produced", name)
	}
	if err != nil {
		return nil, fmt.Errorf("stat output %s: %w", name, err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("output %s is not a regular file", name)
	}
	return &Artifact{path: p, area: area}, nil
}

// Path is the current location of the artifact file.
func (a *Artifact) Path() string { return a.path }

// Discard destroys the owning WorkingArea. Call it once the artifact has been
// placed, or to drop an artifact nobody will place.
func (a *Artifact) Discard() error {
	return a.area.Remove()
}
