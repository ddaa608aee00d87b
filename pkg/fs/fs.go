// Package fs provides the filesystem abstraction used by the file
// store: an [FS] interface with a production implementation ([Real]),
// a fault-injecting implementation for tests ([Chaos]), atomic
// rename-based writes ([AtomicWriter]), and advisory cross-process
// locking ([Locker]).
//
// Paths use OS semantics (like the os package and path/filepath), not
// the slash-separated paths of io/fs. Implementations must be safe for
// concurrent use by multiple goroutines.
package fs

import (
	"io"
	"os"
)

// File is an OS-backed open file. It is satisfied by [os.File] and can
// be used with all stdlib functions accepting [io.Reader], [io.Writer],
// [io.Seeker], or [io.Closer].
//
// [File.Fd] must return a real OS file descriptor usable with syscalls
// (flock in particular) until the file is closed.
type File interface {
	io.ReadWriteCloser
	io.Seeker

	// Fd returns the file descriptor. See [os.File.Fd].
	Fd() uintptr

	// Stat returns the [os.FileInfo] for this file. See [os.File.Stat].
	Stat() (os.FileInfo, error)

	// Sync commits the file's contents to disk. See [os.File.Sync].
	Sync() error

	// Chmod changes the mode of the file. See [os.File.Chmod].
	Chmod(mode os.FileMode) error
}

// FS defines the filesystem operations the file store depends on. All
// methods mirror their [os] package equivalents but can be intercepted
// for fault injection in tests.
type FS interface {
	// Open opens a file for reading. See [os.Open].
	Open(path string) (File, error)

	// OpenFile opens a file with the given flags and permissions. See
	// [os.OpenFile].
	OpenFile(path string, flag int, perm os.FileMode) (File, error)

	// ReadFile reads an entire file into memory. See [os.ReadFile].
	ReadFile(path string) ([]byte, error)

	// WriteFile writes data to a file, creating it if necessary. See
	// [os.WriteFile]. Not atomic; use [AtomicWriter] when a crash must
	// never leave a partially written file behind.
	WriteFile(path string, data []byte, perm os.FileMode) error

	// ReadDir reads the named directory. See [os.ReadDir].
	ReadDir(path string) ([]os.DirEntry, error)

	// MkdirAll creates a directory path. See [os.MkdirAll].
	MkdirAll(path string, perm os.FileMode) error

	// Stat returns file info for the named path. See [os.Stat].
	Stat(path string) (os.FileInfo, error)

	// Remove removes the named file or empty directory. See [os.Remove].
	Remove(path string) error

	// Rename renames (moves) oldpath to newpath. See [os.Rename].
	Rename(oldpath, newpath string) error
}
