package project

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// FileRepository loads and saves a project file.
type FileRepository struct {
	path string
}

// NewFileRepository creates a repository for the project file at path.
func NewFileRepository(path string) *FileRepository {
	return &FileRepository{path: path}
}

// Load reads and decodes the project file.
func (r *FileRepository) Load(ctx context.Context) (*Project, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		return nil, fmt.Errorf("project: %w", err)
	}
	return Unmarshal(data)
}

// Save writes the project atomically.
// Uses atomic write (write to temp file, then rename) to prevent corruption.
func (r *FileRepository) Save(ctx context.Context, p *Project) error {
	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return err
	}

	data, err := Marshal(p)
	if err != nil {
		return err
	}

	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}

	// Atomic rename
	return os.Rename(tmp, r.path)
}

// Path returns the project file path.
func (r *FileRepository) Path() string {
	return r.path
}
