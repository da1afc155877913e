package compile

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// fakeTool writes an executable shell script standing in for pdflatex.
func fakeTool(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts not supported on windows")
	}
	p := filepath.Join(t.TempDir(), "fake-pdflatex")
	script := "#!/bin/sh\n" + body + "\n"
	if err := os.WriteFile(p, []byte(script), 0o700); err != nil {
		t.Fatal(err)
	}
	return p
}

const writesPDF = `for a in "$@"; do
  case "$a" in -output-directory=*) out="${a#-output-directory=}";; esac
done
printf '%%PDF-fake' > "$out/out.pdf"`

func entries(t *testing.T, dir string) []os.DirEntry {
	t.Helper()
	es, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	return es
}
