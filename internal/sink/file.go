package sink

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// FileDestination writes documents into a directory.
type FileDestination struct {
	Dir string
}

// NewFileDestination returns a destination rooted at dir.
func NewFileDestination(dir string) *FileDestination {
	return &FileDestination{Dir: dir}
}

// Put writes payload atomically: a temp file in the same directory is renamed
// over the target once fully written.
func (d *FileDestination) Put(ctx context.Context, name string, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(d.Dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	tmp, err := os.CreateTemp(d.Dir, "."+name+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", name, err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), d.Location(name)); err != nil {
		return fmt.Errorf("rename %s: %w", name, err)
	}
	return nil
}

// Location is the file path of name.
func (d *FileDestination) Location(name string) string {
	return filepath.Join(d.Dir, name)
}

var _ Destination = (*FileDestination)(nil)
