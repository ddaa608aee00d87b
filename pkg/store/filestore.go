package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/modelfold/domainrepo/pkg/fs"
)

const (
	// metaExt marks attribute sidecar files. The sidecar is the
	// authoritative record of an object's existence; content without a
	// sidecar is invisible to ListChildren.
	metaExt = ".meta"

	// lockName is the advisory lock file guarding cross-process writes
	// under the store root.
	lockName = ".lock"

	dirPerms  = 0o750
	filePerms = 0o600

	defaultLockTimeout = 10 * time.Second
)

// FileStoreConfig configures a FileStore.
type FileStoreConfig struct {
	// Root is the directory objects are stored under. Required; created
	// if missing.
	Root string

	// FS is the filesystem to use. Default: fs.NewReal(). Inject
	// fs.Chaos to exercise failure paths in tests.
	FS fs.FS

	// LockTimeout is the max wait for the cross-process write lock.
	// Default: 10s.
	LockTimeout time.Duration
}

// FileStore implements [Backend] on a directory. Every object is a
// content file named by its opaque id plus a "<id>.meta" YAML sidecar
// carrying the mime type and attribute set. Both are written
// atomically (temp file + rename), so a reader never observes a
// half-written object. Mutations additionally take an advisory flock
// so that multiple processes sharing the root cannot interleave a
// content write with a sidecar write.
type FileStore struct {
	root        string
	fs          fs.FS
	atomic      *fs.AtomicWriter
	locker      *fs.Locker
	lockPath    string
	lockTimeout time.Duration
}

// sidecar is the on-disk YAML layout of a "<id>.meta" file.
type sidecar struct {
	MimeType   string            `yaml:"mime-type"`
	Attributes map[string]string `yaml:"attributes"`
}

// NewFileStore opens (creating if needed) a file store rooted at
// cfg.Root.
func NewFileStore(cfg FileStoreConfig) (*FileStore, error) {
	if cfg.Root == "" {
		return nil, errors.New("FileStoreConfig.Root is required")
	}

	fsys := cfg.FS
	if fsys == nil {
		fsys = fs.NewReal()
	}

	lockTimeout := cfg.LockTimeout
	if lockTimeout == 0 {
		lockTimeout = defaultLockTimeout
	}

	root := filepath.Clean(cfg.Root)

	err := fsys.MkdirAll(root, dirPerms)
	if err != nil {
		return nil, fmt.Errorf("creating store root: %w", err)
	}

	return &FileStore{
		root:        root,
		fs:          fsys,
		atomic:      fs.NewAtomicWriter(fsys),
		locker:      fs.NewLocker(fsys),
		lockPath:    filepath.Join(root, lockName),
		lockTimeout: lockTimeout,
	}, nil
}

// Root returns the store's root directory.
func (s *FileStore) Root() string {
	return s.root
}

func (s *FileStore) contentPath(id string) string {
	return filepath.Join(s.root, id)
}

func (s *FileStore) metaPath(id string) string {
	return filepath.Join(s.root, id+metaExt)
}

// validID rejects ids that would escape the root or collide with the
// store's own files. Backend ids are machine-generated, so a violation
// here is a caller bug, not user input.
func validID(id string) error {
	if id == "" {
		return errors.New("object id is empty")
	}

	if strings.ContainsAny(id, "/\\") || id == "." || id == ".." {
		return fmt.Errorf("object id %q is not a valid storage name", id)
	}

	if strings.HasPrefix(id, ".") || strings.HasSuffix(id, metaExt) {
		return fmt.Errorf("object id %q collides with store-internal names", id)
	}

	return nil
}

func (s *FileStore) readSidecar(id string) (*sidecar, error) {
	raw, err := s.fs.ReadFile(s.metaPath(id))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("reading sidecar for %s: %w", id, err)
	}

	var sc sidecar

	err = yaml.Unmarshal(raw, &sc)
	if err != nil {
		return nil, fmt.Errorf("decoding sidecar for %s: %w", id, err)
	}

	return &sc, nil
}

func (s *FileStore) writeSidecar(id string, sc *sidecar) error {
	raw, err := yaml.Marshal(sc)
	if err != nil {
		return fmt.Errorf("encoding sidecar for %s: %w", id, err)
	}

	err = s.atomic.Write(s.metaPath(id), bytes.NewReader(raw), filePerms)
	if err != nil {
		return fmt.Errorf("writing sidecar for %s: %w", id, err)
	}

	return nil
}

// withWriteLock runs fn under the cross-process write lock.
func (s *FileStore) withWriteLock(fn func() error) error {
	lock, err := s.locker.LockWithTimeout(s.lockPath, s.lockTimeout)
	if err != nil {
		return fmt.Errorf("acquiring store lock: %w", err)
	}

	defer func() { _ = lock.Close() }()

	return fn()
}

func (s *FileStore) ListChildren(_ context.Context) ([]Object, error) {
	entries, err := s.fs.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("listing store root: %w", err)
	}

	var objects []Object

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, metaExt) {
			continue
		}

		id := strings.TrimSuffix(name, metaExt)

		sc, err := s.readSidecar(id)
		if err != nil {
			// A sidecar that vanished or is unreadable mid-listing
			// belongs to an object being written or deleted; skip it.
			continue
		}

		objects = append(objects, Object{ID: id, MimeType: sc.MimeType})
	}

	return objects, nil
}

func (s *FileStore) GetObject(_ context.Context, id string) (Object, bool, error) {
	err := validID(id)
	if err != nil {
		return Object{}, false, err
	}

	sc, err := s.readSidecar(id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Object{}, false, nil
		}

		return Object{}, false, err
	}

	return Object{ID: id, MimeType: sc.MimeType}, true, nil
}

func (s *FileStore) GetAttributes(_ context.Context, id string) (map[string]string, error) {
	err := validID(id)
	if err != nil {
		return nil, err
	}

	sc, err := s.readSidecar(id)
	if err != nil {
		return nil, err
	}

	attrs := make(map[string]string, len(sc.Attributes))
	for k, v := range sc.Attributes {
		attrs[k] = v
	}

	return attrs, nil
}

func (s *FileStore) SetAttributes(_ context.Context, id string, attrs map[string]string) error {
	err := validID(id)
	if err != nil {
		return err
	}

	return s.withWriteLock(func() error {
		sc, err := s.readSidecar(id)
		if err != nil {
			return err
		}

		sc.Attributes = make(map[string]string, len(attrs))
		for k, v := range attrs {
			sc.Attributes[k] = v
		}

		return s.writeSidecar(id, sc)
	})
}

func (s *FileStore) CreateObject(_ context.Context, name string, content []byte, mimeType string) (Object, error) {
	err := validID(name)
	if err != nil {
		return Object{}, err
	}

	obj := Object{ID: name, MimeType: mimeType}

	err = s.withWriteLock(func() error {
		_, statErr := s.fs.Stat(s.metaPath(name))
		if statErr == nil {
			return fmt.Errorf("object %s already exists", name)
		}

		err := s.atomic.Write(s.contentPath(name), bytes.NewReader(content), filePerms)
		if err != nil {
			return fmt.Errorf("writing content for %s: %w", name, err)
		}

		// Sidecar goes last: its presence makes the object visible.
		return s.writeSidecar(name, &sidecar{MimeType: mimeType})
	})
	if err != nil {
		return Object{}, err
	}

	return obj, nil
}

func (s *FileStore) UpdateObject(_ context.Context, obj Object, content []byte) (Object, error) {
	err := validID(obj.ID)
	if err != nil {
		return Object{}, err
	}

	err = s.withWriteLock(func() error {
		_, err := s.readSidecar(obj.ID)
		if err != nil {
			return err
		}

		err = s.atomic.Write(s.contentPath(obj.ID), bytes.NewReader(content), filePerms)
		if err != nil {
			return fmt.Errorf("writing content for %s: %w", obj.ID, err)
		}

		return nil
	})
	if err != nil {
		return Object{}, err
	}

	return obj, nil
}

func (s *FileStore) DeleteObject(_ context.Context, id string) error {
	err := validID(id)
	if err != nil {
		return err
	}

	return s.withWriteLock(func() error {
		// Sidecar first: once it is gone the object is invisible even
		// if the content removal fails.
		err := s.fs.Remove(s.metaPath(id))
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return ErrNotFound
			}

			return fmt.Errorf("removing sidecar for %s: %w", id, err)
		}

		err = s.fs.Remove(s.contentPath(id))
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("removing content for %s: %w", id, err)
		}

		return nil
	})
}

func (s *FileStore) ReadContent(_ context.Context, id string) (io.ReadCloser, error) {
	err := validID(id)
	if err != nil {
		return nil, err
	}

	// Existence is defined by the sidecar; a bare content file is not
	// an object.
	_, err = s.readSidecar(id)
	if err != nil {
		return nil, err
	}

	f, err := s.fs.Open(s.contentPath(id))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("opening content for %s: %w", id, err)
	}

	return f, nil
}
