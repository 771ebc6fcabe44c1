package snapshot

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// FileSink writes snapshots to a local file.
type FileSink struct {
	path string
	perm os.FileMode
}

// NewFileSink creates a FileSink. Parent directories are created on Put.
func NewFileSink(path string) *FileSink {
	return &FileSink{path: path, perm: 0644}
}

// WithPerm sets the file mode of written snapshots.
func (s *FileSink) WithPerm(perm os.FileMode) *FileSink {
	s.perm = perm
	return s
}

// Put writes data to a temp file next to the target and renames it into
// place, so readers never see a partial snapshot.
func (s *FileSink) Put(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}

	f, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*")
	if err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	tmp := f.Name()

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("snapshot: %w", err)
	}
	if err := f.Chmod(s.perm); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("snapshot: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("snapshot: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("snapshot: %w", err)
	}
	return nil
}

func (s *FileSink) String() string {
	return s.path
}
