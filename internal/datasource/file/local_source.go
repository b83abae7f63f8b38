// Package file implements a local filesystem-backed data source.
package file

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Local is a filesystem data source that opens files from the local disk.
type Local struct{ path string }

// NewLocal returns a Local bound to path. It is safe for concurrent use;
// every Open returns an independent handle.
func NewLocal(path string) *Local { return &Local{path: path} }

// Path returns the configured filesystem path.
func (l *Local) Path() string { return l.path }

// Open opens the configured path for reading.
//
// Behavior:
//   - A canceled context short-circuits before touching the filesystem.
//   - Filesystem errors are wrapped with the path and still match
//     errors.Is(err, os.ErrNotExist) and friends.
//   - The kernel is told the file will be read front to back, which is how
//     both the sampler and the loader consume it.
func (l *Local) Open(ctx context.Context) (io.ReadCloser, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", l.path, err)
	}
	adviseSequential(f)
	return f, nil
}

// Resolve joins an optional folder with a file name. An empty folder returns
// name unchanged; otherwise the folder is taken relative to the working
// directory and the result is cleaned.
func Resolve(folder, name string) (string, error) {
	if folder == "" {
		return name, nil
	}
	if filepath.IsAbs(folder) {
		return filepath.Clean(filepath.Join(folder, name)), nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("resolve %s/%s: %w", folder, name, err)
	}
	return filepath.Clean(filepath.Join(wd, folder, name)), nil
}
