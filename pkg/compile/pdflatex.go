// Package compile runs the external LaTeX toolchain in disposable working areas.
package compile

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
)

const (
	InputFilename  = "out.tex"
	OutputFilename = "out.pdf"

	logTailBytes = 2048
)

// Compiler turns LaTeX source into an artifact. Implementations do not bound
// their own run time; callers that need a deadline must impose it.
type Compiler interface {
	Compile(source string) (*Artifact, error)
}

// PDFLaTeX compiles with a pdflatex binary. Each call gets its own WorkingArea
// under workRoot.
type PDFLaTeX struct {
	bin      string
	workRoot string
}

// NewPDFLaTeX creates a compiler running bin with working areas under workRoot.
func NewPDFLaTeX(bin, workRoot string) *PDFLaTeX {
	if bin == "" {
		bin = "pdflatex"
	}
	return &PDFLaTeX{bin: bin, workRoot: workRoot}
}

// Compile writes source to a fresh working area, runs pdflatex there and
// returns the produced PDF. On error the working area is already removed; on
// success it is owned by the returned Artifact.
func (c *PDFLaTeX) Compile(source string) (*Artifact, error) {
	if _, err := exec.LookPath(c.bin); err != nil {
		return nil, fmt.Errorf("pdflatex binary not found in PATH: %w", err)
	}

	area, err := NewWorkingArea(c.workRoot)
	if err != nil {
		return nil, err
	}

	artifact, err := c.run(area, source)
	if err != nil {
		if rmErr := area.Remove(); rmErr != nil {
			slog.Warn("failed to remove working area", "dir", area.Dir(), "error", rmErr)
		}
		return nil, err
	}
	return artifact, nil
}

func (c *PDFLaTeX) run(area *WorkingArea, source string) (*Artifact, error) {
	if err := os.WriteFile(area.Path(InputFilename), []byte(source), 0o600); err != nil {
		return nil, fmt.Errorf("writing input file: %w", err)
	}

	args := []string{
		"-interaction=nonstopmode",
		"-output-directory=" + area.Dir(),
		InputFilename,
	}

	slog.Info("running pdflatex", "dir", area.Dir())

	cmd := exec.Command(c.bin, args...)
	cmd.Dir = area.Dir()

	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("pdflatex failed: %w\noutput: %s", err, tail(output.Bytes(), logTailBytes))
	}

	artifact, err := NewArtifact(area, OutputFilename)
	if err != nil {
		return nil, fmt.Errorf("pdflatex exited cleanly but %w", err)
	}
	return artifact, nil
}

func tail(b []byte, n int) []byte {
	if len(b) <= n {
		return b
	}
	return b[len(b)-n:]
}
