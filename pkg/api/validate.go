package api

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Validate checks the request fields for errors. It does not touch the filesystem.
func (r *GenerationRequest) Validate() error {
	if strings.TrimSpace(r.TemplatePath) == "" {
		return fmt.Errorf("template_path is required")
	}
	if strings.TrimSpace(r.DestinationPath) == "" {
		return fmt.Errorf("destination_path is required")
	}
	if r.GenerationContext == nil {
		return fmt.Errorf("generation_context is required")
	}
	if err := checkRelative("template_path", r.TemplatePath); err != nil {
		return err
	}
	if err := checkRelative("destination_path", r.DestinationPath); err != nil {
		return err
	}
	if strings.HasSuffix(r.DestinationPath, "/") {
		return fmt.Errorf("destination_path %q names a directory", r.DestinationPath)
	}
	return nil
}

// ResolveDestination returns the absolute destination path under storageDir.
func (r *GenerationRequest) ResolveDestination(storageDir string) (string, error) {
	return resolveWithin(storageDir, r.DestinationPath)
}

func checkRelative(field, p string) error {
	if filepath.IsAbs(p) {
		return fmt.Errorf("%s %q must be relative to the storage directory", field, p)
	}
	clean := filepath.Clean(p)
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return fmt.Errorf("%s %q escapes the storage directory", field, p)
	}
	return nil
}

func resolveWithin(root, rel string) (string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolving storage directory: %w", err)
	}
	target := filepath.Join(absRoot, rel)
	inside, err := filepath.Rel(absRoot, target)
	if err != nil || inside == "." || inside == ".." || strings.HasPrefix(inside, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q is not within %q", rel, root)
	}
	return target, nil
}
