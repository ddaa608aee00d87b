package fs

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"
)

// ErrDirSync indicates the parent directory could not be synced after
// the rename. The new file is in place but its directory entry may not
// be durable yet. Detect with errors.Is(err, ErrDirSync).
var ErrDirSync = errors.New("dir sync")

// tmpSeq distinguishes temp files created by concurrent writers in the
// same directory.
var tmpSeq atomic.Uint64

// AtomicWriter writes files atomically: write to a temp file in the
// target directory, sync it, rename over the destination, then sync the
// parent directory. Readers never observe a partially written file.
type AtomicWriter struct {
	fs FS
}

// NewAtomicWriter creates an AtomicWriter on the given filesystem.
// Panics if fsys is nil.
func NewAtomicWriter(fsys FS) *AtomicWriter {
	if fsys == nil {
		panic("fs is nil")
	}

	return &AtomicWriter{fs: fsys}
}

// Write writes data from r to path atomically and durably. The file is
// chmod'd to perm regardless of umask.
//
// If only the final directory sync fails, the returned error satisfies
// errors.Is(err, ErrDirSync) and the file content itself is complete.
func (w *AtomicWriter) Write(path string, r io.Reader, perm os.FileMode) error {
	if r == nil {
		panic("reader is nil")
	}

	if path == "" {
		return errors.New("path is empty")
	}

	if perm == 0 {
		return errors.New("perm must be non-zero")
	}

	dir, base := filepath.Split(path)
	if base == "" || base == "." {
		return fmt.Errorf("path is invalid: %q", path)
	}

	if dir == "" {
		dir = "."
	}

	dir = filepath.Clean(dir)
	tmpPath := filepath.Join(dir, fmt.Sprintf(".%s.tmp.%d.%d", base, os.Getpid(), tmpSeq.Add(1)))

	tmp, err := w.fs.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}

	err = w.fillAndClose(tmp, r, perm)
	if err != nil {
		_ = w.fs.Remove(tmpPath)

		return err
	}

	err = w.fs.Rename(tmpPath, path)
	if err != nil {
		_ = w.fs.Remove(tmpPath)

		return fmt.Errorf("renaming temp file: %w", err)
	}

	err = w.syncDir(dir)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrDirSync, dir, err)
	}

	return nil
}

func (w *AtomicWriter) fillAndClose(tmp File, r io.Reader, perm os.FileMode) error {
	_, err := io.Copy(tmp, r)
	if err != nil {
		_ = tmp.Close()

		return fmt.Errorf("writing temp file: %w", err)
	}

	// O_CREATE applies the umask; force the requested mode.
	err = tmp.Chmod(perm)
	if err != nil {
		_ = tmp.Close()

		return fmt.Errorf("chmod temp file: %w", err)
	}

	err = tmp.Sync()
	if err != nil {
		_ = tmp.Close()

		return fmt.Errorf("syncing temp file: %w", err)
	}

	err = tmp.Close()
	if err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}

	return nil
}

func (w *AtomicWriter) syncDir(dir string) error {
	d, err := w.fs.Open(dir)
	if err != nil {
		return err
	}

	syncErr := d.Sync()
	closeErr := d.Close()

	return errors.Join(syncErr, closeErr)
}
