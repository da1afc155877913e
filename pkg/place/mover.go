// Package place moves finished artifacts to their destination without ever
// exposing a partially written file.
package place

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"syscall"
)

const tempPattern = ".placing-*"

// Mover relocates files. The zero value is ready to use.
type Mover struct {
	// rename and copy are replaceable for tests.
	rename func(oldpath, newpath string) error
	copy   func(dst io.Writer, src io.Reader) (int64, error)
}

// New returns a Mover backed by the operating system.
func New() *Mover {
	return &Mover{}
}

// Place moves src to dest. Parent directories of dest are created.
//
// The move is a single rename when src and dest share a filesystem. Across
// filesystems src is copied into a temporary file next to dest, synced, and
// renamed over dest, so dest is either absent, its previous content, or the
// complete new file. src is left in place when the copy fallback is used.
func (m *Mover) Place(src, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o750); err != nil {
		return fmt.Errorf("creating destination directory: %w", err)
	}
	if info, err := os.Stat(dest); err == nil && info.IsDir() {
		return fmt.Errorf("destination %s is a directory", dest)
	}

	err := m.doRename(src, dest)
	if err == nil {
		slog.Debug("artifact renamed into place", "dest", dest)
		return nil
	}
	if !errors.Is(err, syscall.EXDEV) {
		return fmt.Errorf("moving artifact: %w", err)
	}

	slog.Info("destination on another filesystem, copying artifact", "dest", dest)
	if err := m.copyInto(src, dest); err != nil {
		return fmt.Errorf("copying artifact across filesystems: %w", err)
	}
	return nil
}

func (m *Mover) copyInto(src, dest string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening artifact: %w", err)
	}
	defer func() { _ = in.Close() }()

	tmp, err := os.CreateTemp(filepath.Dir(dest), tempPattern)
	if err != nil {
		return fmt.Errorf("creating temporary file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err = m.doCopy(tmp, in); err != nil {
		return fmt.Errorf("writing temporary file: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("syncing temporary file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("closing temporary file: %w", err)
	}
	if err = os.Chmod(tmpName, 0o640); err != nil {
		return fmt.Errorf("setting permissions: %w", err)
	}
	if err = m.doRename(tmpName, dest); err != nil {
		return fmt.Errorf("renaming temporary file: %w", err)
	}
	return nil
}

func (m *Mover) doRename(oldpath, newpath string) error {
	if m.rename != nil {
		return m.rename(oldpath, newpath)
	}
	return os.Rename(oldpath, newpath)
}

func (m *Mover) doCopy(dst io.Writer, src io.Reader) (int64, error) {
	if m.copy != nil {
		return m.copy(dst, src)
	}
	return io.Copy(dst, src)
}
