// Package render turns a LaTeX template and a data context into LaTeX source.
//
// Templates live under the storage directory and use text/template with
// LaTeX-friendly action delimiters (\VAR{ ... } by default) so that TeX
// braces in the document body are never mistaken for actions. The sprig
// function library is available, plus html2latex, md2latex and texescape.
package render

import (
	"bytes"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"path/filepath"
	"text/template"

	"github.com/Masterminds/sprig/v3"
)

// Renderer produces intermediate LaTeX source from a template reference.
type Renderer interface {
	Render(templateRef string, data map[string]any) (string, error)
}

// Converter converts markup fragments to LaTeX for the html2latex and
// md2latex template functions.
type Converter interface {
	HTMLToLaTeX(value string) (string, error)
	MarkdownToLaTeX(value string) (string, error)
}

// Options configures a Templates renderer.
type Options struct {
	LeftDelim  string
	RightDelim string
	Converter  Converter
	// Global is merged under every request context; request keys win.
	Global map[string]any
}

// Templates renders templates read from fsys.
type Templates struct {
	fsys   fs.FS
	opts   Options
	funcs  template.FuncMap
	global map[string]any
}

// NewTemplates creates a renderer reading templates from fsys.
func NewTemplates(fsys fs.FS, opts Options) *Templates {
	if opts.LeftDelim == "" {
		opts.LeftDelim = `\VAR{`
	}
	if opts.RightDelim == "" {
		opts.RightDelim = "}"
	}

	funcs := sprig.TxtFuncMap()
	funcs["texescape"] = EscapeTeX
	if opts.Converter != nil {
		funcs["html2latex"] = opts.Converter.HTMLToLaTeX
		funcs["md2latex"] = opts.Converter.MarkdownToLaTeX
	} else {
		funcs["html2latex"] = missingConverter
		funcs["md2latex"] = missingConverter
	}

	return &Templates{fsys: fsys, opts: opts, funcs: funcs, global: opts.Global}
}

// Render parses templateRef and executes it with data merged over the global context.
// Missing keys are an error rather than rendering as "<no value>".
func (t *Templates) Render(templateRef string, data map[string]any) (string, error) {
	name := path.Clean(filepath.ToSlash(templateRef))
	if !fs.ValidPath(name) {
		return "", fmt.Errorf("invalid template path %q", templateRef)
	}

	content, err := fs.ReadFile(t.fsys, name)
	if err != nil {
		return "", fmt.Errorf("loading template %q: %w", templateRef, err)
	}

	tmpl, err := template.New(path.Base(name)).
		Delims(t.opts.LeftDelim, t.opts.RightDelim).
		Funcs(t.funcs).
		Option("missingkey=error").
		Parse(string(content))
	if err != nil {
		return "", fmt.Errorf("parsing template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, MergeContext(t.global, data)); err != nil {
		return "", fmt.Errorf("executing template: %w", err)
	}

	slog.Debug("template rendered", "template", name, "bytes", buf.Len())
	return buf.String(), nil
}

func missingConverter(string) (string, error) {
	return "", fmt.Errorf("no markup converter configured")
}
