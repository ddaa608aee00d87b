package fs

import (
	"math/rand/v2"
	"os"
	"sync"
	"syscall"
)

// ChaosConfig controls fault injection probabilities. Each rate runs
// from 0.0 (never) to 1.0 (always). The zero value injects nothing.
type ChaosConfig struct {
	// OpenFailRate makes Open and OpenFile fail with EACCES.
	OpenFailRate float64

	// ReadFailRate makes ReadFile fail with EIO.
	ReadFailRate float64

	// WriteFailRate makes WriteFile and OpenFile-for-write fail with
	// ENOSPC.
	WriteFailRate float64

	// ReadDirFailRate makes ReadDir fail with EIO.
	ReadDirFailRate float64

	// StatFailRate makes Stat fail with EIO.
	StatFailRate float64

	// RemoveFailRate makes Remove fail with EIO.
	RemoveFailRate float64

	// RenameFailRate makes Rename fail with EIO.
	RenameFailRate float64

	// Seed seeds the injection PRNG so failures replay deterministically.
	Seed uint64
}

// Chaos wraps an [FS] and injects failures per [ChaosConfig]. Failed
// operations do not touch the underlying filesystem, so injected
// failures never corrupt state; they only deny it.
//
// Use rates of 1.0 for deterministic "this operation always fails"
// tests; fractional rates with a fixed Seed for randomized soak tests.
type Chaos struct {
	inner FS
	cfg   ChaosConfig

	mu  sync.Mutex
	rng *rand.Rand
}

// NewChaos wraps inner with fault injection.
func NewChaos(inner FS, cfg ChaosConfig) *Chaos {
	return &Chaos{
		inner: inner,
		cfg:   cfg,
		rng:   rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15)),
	}
}

func (c *Chaos) hit(rate float64) bool {
	if rate <= 0 {
		return false
	}

	if rate >= 1 {
		return true
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	return c.rng.Float64() < rate
}

func pathErr(op, path string, errno syscall.Errno) error {
	return &os.PathError{Op: op, Path: path, Err: errno}
}

func (c *Chaos) Open(path string) (File, error) {
	if c.hit(c.cfg.OpenFailRate) {
		return nil, pathErr("open", path, syscall.EACCES)
	}

	return c.inner.Open(path)
}

func (c *Chaos) OpenFile(path string, flag int, perm os.FileMode) (File, error) {
	if c.hit(c.cfg.OpenFailRate) {
		return nil, pathErr("open", path, syscall.EACCES)
	}

	if flag&(os.O_WRONLY|os.O_RDWR) != 0 && c.hit(c.cfg.WriteFailRate) {
		return nil, pathErr("open", path, syscall.ENOSPC)
	}

	return c.inner.OpenFile(path, flag, perm)
}

func (c *Chaos) ReadFile(path string) ([]byte, error) {
	if c.hit(c.cfg.ReadFailRate) {
		return nil, pathErr("read", path, syscall.EIO)
	}

	return c.inner.ReadFile(path)
}

func (c *Chaos) WriteFile(path string, data []byte, perm os.FileMode) error {
	if c.hit(c.cfg.WriteFailRate) {
		return pathErr("write", path, syscall.ENOSPC)
	}

	return c.inner.WriteFile(path, data, perm)
}

func (c *Chaos) ReadDir(path string) ([]os.DirEntry, error) {
	if c.hit(c.cfg.ReadDirFailRate) {
		return nil, pathErr("readdir", path, syscall.EIO)
	}

	return c.inner.ReadDir(path)
}

func (c *Chaos) MkdirAll(path string, perm os.FileMode) error {
	if c.hit(c.cfg.WriteFailRate) {
		return pathErr("mkdir", path, syscall.ENOSPC)
	}

	return c.inner.MkdirAll(path, perm)
}

func (c *Chaos) Stat(path string) (os.FileInfo, error) {
	if c.hit(c.cfg.StatFailRate) {
		return nil, pathErr("stat", path, syscall.EIO)
	}

	return c.inner.Stat(path)
}

func (c *Chaos) Remove(path string) error {
	if c.hit(c.cfg.RemoveFailRate) {
		return pathErr("remove", path, syscall.EIO)
	}

	return c.inner.Remove(path)
}

func (c *Chaos) Rename(oldpath, newpath string) error {
	if c.hit(c.cfg.RenameFailRate) {
		return pathErr("rename", oldpath, syscall.EIO)
	}

	return c.inner.Rename(oldpath, newpath)
}
