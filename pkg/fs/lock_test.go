package fs_test

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/modelfold/domainrepo/pkg/fs"
)

func Test_Locker_Acquires_And_Releases(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "lockfile")
	locker := fs.NewLocker(fs.NewReal())

	lock, err := locker.Lock(path)
	if err != nil {
		t.Fatalf("Lock failed: %v", err)
	}

	if err := lock.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	// Released lock can be re-acquired immediately.
	lock2, err := locker.LockWithTimeout(path, 100*time.Millisecond)
	if err != nil {
		t.Fatalf("re-acquire failed: %v", err)
	}

	_ = lock2.Close()
}

func Test_Lock_Close_Is_Idempotent(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "lockfile")
	locker := fs.NewLocker(fs.NewReal())

	lock, err := locker.Lock(path)
	if err != nil {
		t.Fatalf("Lock failed: %v", err)
	}

	if err := lock.Close(); err != nil {
		t.Fatalf("first Close failed: %v", err)
	}

	if err := lock.Close(); err != nil {
		t.Fatalf("second Close failed: %v", err)
	}
}

func Test_LockWithTimeout_When_Lock_Held_Elsewhere(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "lockfile")
	locker := fs.NewLocker(fs.NewReal())

	held, err := locker.Lock(path)
	if err != nil {
		t.Fatalf("Lock failed: %v", err)
	}

	defer func() { _ = held.Close() }()

	// flock is per-inode and re-entrant within a process only via the
	// same fd; a second open descriptor must block and time out.
	_, err = locker.LockWithTimeout(path, 30*time.Millisecond)
	if !errors.Is(err, fs.ErrWouldBlock) {
		t.Fatalf("err = %v, want ErrWouldBlock", err)
	}
}

func Test_LockWithTimeout_Rejects_Nonpositive_Timeout(t *testing.T) {
	t.Parallel()

	locker := fs.NewLocker(fs.NewReal())

	_, err := locker.LockWithTimeout(filepath.Join(t.TempDir(), "lockfile"), 0)
	if !errors.Is(err, fs.ErrInvalidTimeout) {
		t.Fatalf("err = %v, want ErrInvalidTimeout", err)
	}
}

func Test_RLock_Admits_Concurrent_Readers(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "lockfile")
	locker := fs.NewLocker(fs.NewReal())

	first, err := locker.RLock(path)
	if err != nil {
		t.Fatalf("first RLock failed: %v", err)
	}

	second, err := locker.RLock(path)
	if err != nil {
		t.Fatalf("second RLock failed: %v", err)
	}

	// An exclusive lock must not be grantable while readers hold it.
	_, err = locker.LockWithTimeout(path, 30*time.Millisecond)
	if !errors.Is(err, fs.ErrWouldBlock) {
		t.Fatalf("err = %v, want ErrWouldBlock", err)
	}

	_ = first.Close()
	_ = second.Close()
}
