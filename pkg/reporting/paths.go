package reporting

import (
	"os"
	"path/filepath"
	"strings"
)

// DefaultPathManager implements path management functionality
type DefaultPathManager struct{}

// NewDefaultPathManager creates a new path manager
func NewDefaultPathManager() *DefaultPathManager {
	return &DefaultPathManager{}
}

// GetDefaultOutputDir returns results/<profile>
func (p *DefaultPathManager) GetDefaultOutputDir(profile string) string {
	name := strings.ToLower(strings.TrimSpace(profile))
	if name == "" {
		name = "unknown"
	}
	return filepath.Join("results", name)
}

// EnsureDirectoryExists creates the parent directory of path
func (p *DefaultPathManager) EnsureDirectoryExists(path string) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		return os.MkdirAll(dir, 0755)
	}
	return nil
}

// Package-level convenience function
func DefaultOutputDir(profile string) string {
	return NewDefaultPathManager().GetDefaultOutputDir(profile)
}
