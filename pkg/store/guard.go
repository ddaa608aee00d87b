package store

import (
	"context"
	"slices"
	"sync"
)

// ACL is an access-control entry attached to a stored object.
type ACL struct {
	// Owner is the principal that created the object. The owner can
	// always read it.
	Owner string

	// Readers are additional principals allowed to read.
	Readers []string

	// Public grants read to every principal.
	Public bool
}

// Guard answers per-object access questions and persists ACL entries.
// An object without an ACL entry is readable by everyone.
//
// The repository consumes this contract; the real access-control
// subsystem lives outside this module. [AllowAll] and [MemoryGuard]
// cover embedding and tests.
type Guard interface {
	// CanRead reports whether the current caller may read the object.
	CanRead(ctx context.Context, obj Object) (bool, error)

	// SetACL attaches an entry to the object, replacing any previous
	// one. A nil acl removes the entry.
	SetACL(ctx context.Context, obj Object, acl *ACL) error

	// GetACL returns the entry attached to the object, or nil.
	GetACL(ctx context.Context, obj Object) (*ACL, error)

	// RemoveACL detaches any entry from the object. Removing from an
	// object without an entry is a no-op.
	RemoveACL(ctx context.Context, obj Object) error
}

// AllowAll is a Guard that grants every read and stores nothing.
type AllowAll struct{}

func (AllowAll) CanRead(context.Context, Object) (bool, error)  { return true, nil }
func (AllowAll) SetACL(context.Context, Object, *ACL) error     { return nil }
func (AllowAll) GetACL(context.Context, Object) (*ACL, error)   { return nil, nil }
func (AllowAll) RemoveACL(context.Context, Object) error        { return nil }

// MemoryGuard keeps ACL entries in memory and evaluates them against a
// fixed caller principal. Objects without an entry are readable by
// everyone, matching the contract's default-open posture.
type MemoryGuard struct {
	// Principal is the caller identity CanRead evaluates against.
	Principal string

	mu   sync.RWMutex
	acls map[string]*ACL
}

// NewMemoryGuard creates a MemoryGuard for the given caller principal.
func NewMemoryGuard(principal string) *MemoryGuard {
	return &MemoryGuard{
		Principal: principal,
		acls:      make(map[string]*ACL),
	}
}

func (g *MemoryGuard) CanRead(_ context.Context, obj Object) (bool, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	acl := g.acls[obj.ID]
	if acl == nil {
		return true, nil
	}

	if acl.Public || acl.Owner == g.Principal {
		return true, nil
	}

	return slices.Contains(acl.Readers, g.Principal), nil
}

func (g *MemoryGuard) SetACL(_ context.Context, obj Object, acl *ACL) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if acl == nil {
		delete(g.acls, obj.ID)

		return nil
	}

	clone := *acl
	clone.Readers = slices.Clone(acl.Readers)
	g.acls[obj.ID] = &clone

	return nil
}

func (g *MemoryGuard) GetACL(_ context.Context, obj Object) (*ACL, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	acl := g.acls[obj.ID]
	if acl == nil {
		return nil, nil
	}

	clone := *acl
	clone.Readers = slices.Clone(acl.Readers)

	return &clone, nil
}

func (g *MemoryGuard) RemoveACL(_ context.Context, obj Object) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	delete(g.acls, obj.ID)

	return nil
}
