package fs

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

var (
	// ErrWouldBlock is returned when a lock cannot be acquired before
	// the timeout expires.
	ErrWouldBlock = errors.New("lock would block")

	// ErrInvalidTimeout is returned when a timeout is <= 0.
	ErrInvalidTimeout = errors.New("invalid lock timeout")
)

// Locker provides advisory cross-process locking via flock(2).
//
// flock applies to an inode, not a pathname; all cooperating processes
// must take the lock for it to have effect. Lock a dedicated, stable
// lock file and never replace or unlink it while locks may be held.
// Unix-only.
//
// Locker is stateless and safe for concurrent use as long as the
// underlying [FS] is.
type Locker struct {
	fs    FS
	flock func(fd int, how int) error
}

// NewLocker creates a Locker that uses the given filesystem to open
// lock files.
func NewLocker(fsys FS) *Locker {
	return &Locker{fs: fsys, flock: unix.Flock}
}

// Lock represents a held file lock. Call [Lock.Close] to release it.
type Lock struct {
	mu    sync.Mutex
	file  File
	flock func(fd int, how int) error
}

// Close releases the lock and closes the underlying descriptor.
// Idempotent; subsequent calls return nil.
func (lk *Lock) Close() error {
	lk.mu.Lock()
	defer lk.mu.Unlock()

	if lk.file == nil {
		return nil
	}

	fd := int(lk.file.Fd())

	unlockErr := flockRetryEINTR(lk.flock, fd, unix.LOCK_UN)
	closeErr := lk.file.Close()
	lk.file = nil

	if unlockErr != nil {
		unlockErr = fmt.Errorf("unlocking: %w", unlockErr)
	}

	if closeErr != nil {
		closeErr = fmt.Errorf("closing lock fd: %w", closeErr)
	}

	return errors.Join(unlockErr, closeErr)
}

// Lock acquires an exclusive lock on path, blocking in the kernel until
// it is available. The lock file is created if missing.
func (l *Locker) Lock(path string) (*Lock, error) {
	return l.acquire(path, unix.LOCK_EX, 0)
}

// LockWithTimeout acquires an exclusive lock, polling with exponential
// backoff (1ms to 25ms) until the timeout expires. The timeout is
// best-effort; scheduler delay may overshoot it slightly.
//
// Returns an error satisfying errors.Is(err, ErrWouldBlock) on timeout.
func (l *Locker) LockWithTimeout(path string, timeout time.Duration) (*Lock, error) {
	if timeout <= 0 {
		return nil, fmt.Errorf("%w: timeout must be > 0", ErrInvalidTimeout)
	}

	return l.acquire(path, unix.LOCK_EX|unix.LOCK_NB, timeout)
}

// RLock acquires a shared lock on path, blocking until available.
// Shared locks admit concurrent readers but exclude exclusive holders.
func (l *Locker) RLock(path string) (*Lock, error) {
	return l.acquire(path, unix.LOCK_SH, 0)
}

func (l *Locker) acquire(path string, how int, timeout time.Duration) (*Lock, error) {
	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}

	backoff := time.Millisecond

	for {
		file, err := l.fs.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o600)
		if err != nil {
			return nil, fmt.Errorf("opening lockfile: %w", err)
		}

		err = flockRetryEINTR(l.flock, int(file.Fd()), how)
		if err == nil {
			return &Lock{file: file, flock: l.flock}, nil
		}

		_ = file.Close()

		if !errors.Is(err, unix.EWOULDBLOCK) {
			return nil, fmt.Errorf("flock: %w", err)
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, fmt.Errorf("%w: timed out after %s", ErrWouldBlock, timeout)
		}

		time.Sleep(min(backoff, remaining))

		if backoff < 25*time.Millisecond {
			backoff *= 2
		}
	}
}

// flockRetryEINTR retries flock on EINTR, which the kernel may return
// for blocking acquisitions interrupted by signals.
func flockRetryEINTR(flock func(fd int, how int) error, fd int, how int) error {
	for {
		err := flock(fd, how)
		if !errors.Is(err, unix.EINTR) {
			return err
		}
	}
}
