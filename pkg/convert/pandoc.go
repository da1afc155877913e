// Package convert turns markup fragments into LaTeX using pandoc.
package convert

import (
	"bytes"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
)

const (
	FormatHTML     = "html"
	FormatMarkdown = "markdown"
)

// Pandoc converts text with an external pandoc binary.
type Pandoc struct {
	bin string
}

// NewPandoc returns a converter running bin. An empty bin means "pandoc".
func NewPandoc(bin string) *Pandoc {
	if bin == "" {
		bin = "pandoc"
	}
	return &Pandoc{bin: bin}
}

// ToLaTeX converts value from the given input format to LaTeX.
func (p *Pandoc) ToLaTeX(value, from string) (string, error) {
	if _, err := exec.LookPath(p.bin); err != nil {
		return "", fmt.Errorf("pandoc binary not found in PATH: %w", err)
	}

	cmd := exec.Command(p.bin, "--from", from, "--to", "latex")
	cmd.Stdin = strings.NewReader(value)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("pandoc %s conversion failed: %w\nstderr: %s", from, err, stderr.String())
	}

	slog.Debug("pandoc converted fragment", "from", from, "bytes", stdout.Len())
	return strings.TrimRight(stdout.String(), "\n"), nil
}

// HTMLToLaTeX is the html2latex template function.
func (p *Pandoc) HTMLToLaTeX(value string) (string, error) {
	return p.ToLaTeX(value, FormatHTML)
}

// MarkdownToLaTeX is the md2latex template function.
func (p *Pandoc) MarkdownToLaTeX(value string) (string, error) {
	return p.ToLaTeX(value, FormatMarkdown)
}
