package fs

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/bft-labs/bulkd/internal/domain"
)

// PackFileRepository implements ports.PackStore by writing one file per pack.
type PackFileRepository struct {
	dir string
}

// NewPackFileRepository creates a repository writing into dir.
// The directory is created if it does not exist.
func NewPackFileRepository(dir string) (*PackFileRepository, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	return &PackFileRepository{dir: dir}, nil
}

// FileName returns the file name for a pack opened at the given time and
// written by workerID as its seq-th file.
func FileName(pack domain.Pack, workerID, seq int) string {
	return fmt.Sprintf("bulk%010d_id%d_%d.log", pack.OpenedAt.Unix(), workerID, seq)
}

// Store writes the pack commands joined by newlines.
// Uses atomic write (write to temp file, then rename) so readers never see a
// partially written pack.
func (r *PackFileRepository) Store(pack domain.Pack, workerID, seq int) (string, error) {
	name := FileName(pack, workerID, seq)
	path := filepath.Join(r.dir, name)
	tmp := path + ".tmp"

	if err := os.WriteFile(tmp, []byte(pack.Join("\n")), 0o644); err != nil {
		return "", err
	}

	// Atomic rename
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return "", err
	}
	return name, nil
}

// Dir returns the output directory.
func (r *PackFileRepository) Dir() string {
	return r.dir
}
