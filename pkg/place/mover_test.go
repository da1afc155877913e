package place

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
)

func writeFile(t *testing.T, p, content string) {
	t.Helper()
	if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}

// crossDevice makes direct renames of src fail with EXDEV while still
// allowing renames inside the destination directory.
func crossDevice(src string) func(string, string) error {
	return func(oldpath, newpath string) error {
		if oldpath == src {
			return &os.LinkError{Op: "rename", Old: oldpath, New: newpath, Err: syscall.EXDEV}
		}
		return os.Rename(oldpath, newpath)
	}
}

func TestPlace_Rename(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "out.pdf")
	dest := filepath.Join(dir, "storage", "out", "invoice.pdf")
	writeFile(t, src, "pdf-bytes")

	if err := New().Place(src, dest); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	content, err := os.ReadFile(dest)
	if err != nil {
		t.Fatal(err)
	}
	if string(content) != "pdf-bytes" {
		t.Errorf("unexpected content %q", content)
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Error("source should be gone after rename")
	}
}

func TestPlace_OverwritesExisting(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "out.pdf")
	dest := filepath.Join(dir, "invoice.pdf")
	writeFile(t, src, "new")
	writeFile(t, dest, "old")

	if err := New().Place(src, dest); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	content, _ := os.ReadFile(dest)
	if string(content) != "new" {
		t.Errorf("expected 'new', got %q", content)
	}
}

func TestPlace_DestinationIsDirectory(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "out.pdf")
	writeFile(t, src, "x")
	dest := filepath.Join(dir, "taken")
	if err := os.Mkdir(dest, 0o750); err != nil {
		t.Fatal(err)
	}

	err := New().Place(src, dest)
	if err == nil || !strings.Contains(err.Error(), "is a directory") {
		t.Fatalf("expected directory error, got %v", err)
	}
}

func TestPlace_InvalidParent(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "out.pdf")
	writeFile(t, src, "x")
	blocker := filepath.Join(dir, "file")
	writeFile(t, blocker, "x")

	err := New().Place(src, filepath.Join(blocker, "invoice.pdf"))
	if err == nil || !strings.Contains(err.Error(), "creating destination directory") {
		t.Fatalf("expected parent error, got %v", err)
	}
}

func TestPlace_RenameFailure(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "out.pdf")
	writeFile(t, src, "x")
	dest := filepath.Join(dir, "invoice.pdf")

	m := &Mover{rename: func(string, string) error { return errors.New("read-only filesystem") }}
	err := m.Place(src, dest)
	if err == nil || !strings.Contains(err.Error(), "moving artifact") {
		t.Fatalf("expected move error, got %v", err)
	}
	if _, err := os.Stat(dest); !os.IsNotExist(err) {
		t.Error("destination should not exist")
	}
}

func TestPlace_CrossDeviceCopy(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "out.pdf")
	dest := filepath.Join(dir, "storage", "invoice.pdf")
	writeFile(t, src, "complete-artifact")

	m := &Mover{rename: crossDevice(src)}
	if err := m.Place(src, dest); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	content, err := os.ReadFile(dest)
	if err != nil {
		t.Fatal(err)
	}
	if string(content) != "complete-artifact" {
		t.Errorf("unexpected content %q", content)
	}
	leftovers, _ := filepath.Glob(filepath.Join(dir, "storage", ".placing-*"))
	if len(leftovers) != 0 {
		t.Errorf("temporary files left behind: %v", leftovers)
	}
}

func TestPlace_FailureMidCopyLeavesNoPartialFile(t *testing.T) {
	tests := []struct {
		name     string
		existing string
	}{
		{"no previous destination", ""},
		{"previous destination kept", "previous-complete-artifact"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			src := filepath.Join(dir, "out.pdf")
			dest := filepath.Join(dir, "storage", "invoice.pdf")
			writeFile(t, src, "complete-artifact")
			if tt.existing != "" {
				if err := os.MkdirAll(filepath.Dir(dest), 0o750); err != nil {
					t.Fatal(err)
				}
				writeFile(t, dest, tt.existing)
			}

			m := &Mover{
				rename: crossDevice(src),
				copy: func(dst io.Writer, src io.Reader) (int64, error) {
					n, _ := io.CopyN(dst, src, 4)
					return n, errors.New("disk full")
				},
			}

			err := m.Place(src, dest)
			if err == nil || !strings.Contains(err.Error(), "disk full") {
				t.Fatalf("expected copy failure, got %v", err)
			}

			content, statErr := os.ReadFile(dest)
			switch {
			case tt.existing == "" && !os.IsNotExist(statErr):
				t.Errorf("destination should be absent, got %q (err %v)", content, statErr)
			case tt.existing != "" && string(content) != tt.existing:
				t.Errorf("destination should keep previous content, got %q", content)
			}

			leftovers, _ := filepath.Glob(filepath.Join(dir, "storage", ".placing-*"))
			if len(leftovers) != 0 {
				t.Errorf("temporary files left behind: %v", leftovers)
			}
		})
	}
}
