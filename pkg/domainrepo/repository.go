// Package domainrepo stores and serves metadata domain documents and
// their per-locale translation bundles from an object storage backend,
// through a lazily populated in-memory index.
//
// The index is derived state: the backend is the source of truth and
// its contents can change out-of-band, so the index is rebuilt by a
// full rescan whenever it is flagged stale. Mutations invalidate it;
// the next read transparently rebuilds it, which gives read-your-writes
// within the process. The cache is process-local — coherence across
// processes is out of scope.
//
// # Concurrency
//
// Safe for concurrent use. One sync.RWMutex guards the domain index
// and the category index as a unit:
//   - Readers (GetDomain lookups, DomainIDs, DomainIDsByCategory) hold
//     the shared lock.
//   - Mutations and the full reload hold the exclusive lock.
//   - A lookup miss re-checks under the exclusive lock and reloads
//     there if the index is flagged stale, so concurrent reloads cannot
//     clobber each other and plain reads never serialize behind a miss.
//
// Slow backend I/O on the store paths happens outside the lock where
// possible; only the index mutation and reload are serialized.
package domainrepo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/modelfold/domainrepo/pkg/domain"
	"github.com/modelfold/domainrepo/pkg/store"
	"github.com/modelfold/domainrepo/pkg/xmi"
)

// Config configures a Repository.
type Config struct {
	// Backend is the storage backend. Required.
	Backend store.Backend

	// Guard answers per-object access checks. Default: store.AllowAll.
	Guard store.Guard

	// Logger receives reload, migration, and skip diagnostics.
	// Default: zap.NewNop().
	Logger *zap.Logger
}

// Repository is the public facade over one storage backend. Construct
// one per backend handle with New; it owns its index (there is no
// process-global registry).
type Repository struct {
	backend store.Backend
	guard   store.Guard
	log     *zap.Logger

	// mu guards index and needsReload. See the package comment for the
	// locking discipline.
	mu          sync.RWMutex
	index       *domainIndex
	needsReload bool
}

// New creates a Repository over the configured backend. The index
// starts empty and flagged stale; the first read triggers a full
// rescan.
func New(cfg Config) (*Repository, error) {
	if cfg.Backend == nil {
		return nil, errors.New("Config.Backend is required")
	}

	guard := cfg.Guard
	if guard == nil {
		guard = store.AllowAll{}
	}

	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return &Repository{
		backend:     cfg.Backend,
		guard:       guard,
		log:         log,
		index:       newDomainIndex(),
		needsReload: true,
	}, nil
}

// StoreDomain serializes and stores a domain under its own id.
// See StoreDomainBytes for the conflict and reconciliation rules.
func (r *Repository) StoreDomain(ctx context.Context, d *domain.Domain, overwrite bool) error {
	if d == nil || d.ID == "" {
		return ErrDomainIDEmpty
	}

	payload, err := xmi.Generate(d)
	if err != nil {
		return wrapStorage(err, d.ID, nil)
	}

	return r.StoreDomainBytes(ctx, []byte(payload), d.ID, overwrite, nil)
}

// StoreDomainBytes stores a raw domain payload under domainID.
//
// The payload is validated and its embedded identifier reconciled with
// domainID before anything is persisted (see xmi.Reconcile); when the
// two disagree the rewritten payload is stored, never the original. A
// store onto an existing id fails with ErrDomainExists unless overwrite
// is set. On success the index is invalidated and acl, when non-nil, is
// attached to the stored object.
func (r *Repository) StoreDomainBytes(ctx context.Context, payload []byte, domainID string, overwrite bool, acl *store.ACL) error {
	if domainID == "" {
		return ErrDomainIDEmpty
	}

	// Index lookups are suffix-insensitive, so "sales" and "sales.xmi"
	// resolve to the same existing domain here. A failed lookup aborts
	// the store: without it the conflict check cannot run and a retry
	// could create a duplicate document object.
	existing, found, err := r.documentObject(ctx, domainID)
	if err != nil {
		return wrapStorage(err, domainID, nil)
	}

	if found && !overwrite {
		return fmt.Errorf("%w: %s", ErrDomainExists, domainID)
	}

	reconciled, effectiveID, err := xmi.Reconcile(payload, domainID)
	if err != nil {
		// Malformed payload: the ParseError carries the raw text.
		return err
	}

	// Reconcile parses; a payload it accepted always re-parses.
	parsed, err := xmi.Parse(reconciled)
	if err != nil {
		return err
	}

	category := domain.Classify(parsed)

	var obj store.Object

	if found {
		obj, err = r.backend.UpdateObject(ctx, existing, reconciled)
		if err != nil {
			return wrapStorage(err, effectiveID, reconciled)
		}

		err = r.reclassify(ctx, obj.ID, effectiveID, category)
		if err != nil {
			return wrapStorage(err, effectiveID, reconciled)
		}
	} else {
		// Opaque storage name: the domain id may contain characters
		// that are illegal in a storage path.
		obj, err = r.backend.CreateObject(ctx, uuid.NewString(), reconciled, domainMimeType)
		if err != nil {
			return wrapStorage(err, effectiveID, reconciled)
		}

		attrs := map[string]string{
			attrKind:     kindDocument,
			attrDomainID: effectiveID,
			attrCategory: string(category),
		}

		err = r.backend.SetAttributes(ctx, obj.ID, attrs)
		if err != nil {
			return wrapStorage(err, effectiveID, reconciled)
		}
	}

	r.invalidate()

	err = r.guard.SetACL(ctx, obj, acl)
	if err != nil {
		return wrapStorage(err, effectiveID, nil)
	}

	return nil
}

// reclassify refreshes the domain-id and category attributes of an
// updated document object.
func (r *Repository) reclassify(ctx context.Context, objectID, domainID string, category domain.Category) error {
	attrs, err := r.backend.GetAttributes(ctx, objectID)
	if err != nil {
		return err
	}

	attrs[attrKind] = kindDocument
	attrs[attrDomainID] = domainID
	attrs[attrCategory] = string(category)

	return r.backend.SetAttributes(ctx, objectID, attrs)
}

// GetDomain retrieves a domain by id with all locale overlays applied.
//
// An unknown id returns (nil, nil) — absence is not an error. A guard
// denial returns ErrAccessDenied. Any other failure while assembling
// the result is wrapped into a *StorageError carrying the domain id.
func (r *Repository) GetDomain(ctx context.Context, domainID string) (*domain.Domain, error) {
	if domainID == "" {
		return nil, ErrDomainIDEmpty
	}

	obj, found, err := r.documentObject(ctx, domainID)
	if err != nil {
		return nil, wrapStorage(err, domainID, nil)
	}

	if !found {
		return nil, nil
	}

	canRead, err := r.guard.CanRead(ctx, obj)
	if err != nil {
		return nil, wrapStorage(err, domainID, nil)
	}

	if !canRead {
		return nil, fmt.Errorf("%w: domain %s", ErrAccessDenied, domainID)
	}

	payload, err := r.readAll(ctx, obj.ID)
	if err != nil {
		return nil, wrapStorage(err, domainID, nil)
	}

	d, err := xmi.Parse(payload)
	if err != nil {
		return nil, wrapStorage(err, domainID, nil)
	}

	// The external id is authoritative on read; the embedded one may
	// predate a rename.
	d.ID = domainID

	err = r.loadLocaleStrings(ctx, domainID, d)
	if err != nil {
		return nil, wrapStorage(err, domainID, nil)
	}

	return d, nil
}

// loadLocaleStrings merges every indexed locale bundle into d. Absence
// of bundles is normal.
func (r *Repository) loadLocaleStrings(ctx context.Context, domainID string, d *domain.Domain) error {
	r.mu.RLock()
	bundles := r.index.localeFiles(domainID)
	r.mu.RUnlock()

	for locale, obj := range bundles {
		content, err := r.readAll(ctx, obj.ID)
		if err != nil {
			return fmt.Errorf("loading locale %s: %w", locale, err)
		}

		bundle, err := domain.ParseBundle(content)
		if err != nil {
			return fmt.Errorf("loading locale %s: %w", locale, err)
		}

		d.ApplyLocale(locale, bundle)
	}

	return nil
}

// DomainIDs lists every indexed domain id the caller can read, sorted.
// A per-id backend hiccup during access filtering silently omits that
// id; the listing itself never fails for one bad item.
func (r *Repository) DomainIDs(ctx context.Context) ([]string, error) {
	err := r.reloadIfNeeded(ctx)
	if err != nil {
		return nil, wrapStorage(err, "", nil)
	}

	r.mu.RLock()
	ids := r.index.domainIDs()
	r.mu.RUnlock()

	return r.filterReadable(ctx, ids), nil
}

// DomainIDsByCategory lists the readable domain ids classified under
// cat, sorted. Domains whose migration is still pending appear in no
// category.
func (r *Repository) DomainIDsByCategory(ctx context.Context, cat domain.Category) ([]string, error) {
	err := r.reloadIfNeeded(ctx)
	if err != nil {
		return nil, wrapStorage(err, "", nil)
	}

	r.mu.RLock()
	ids := r.index.idsByCategory(cat)
	r.mu.RUnlock()

	return r.filterReadable(ctx, ids), nil
}

// filterReadable drops ids the guard denies or that fail the check.
func (r *Repository) filterReadable(ctx context.Context, ids []string) []string {
	readable := make([]string, 0, len(ids))

	for _, id := range ids {
		r.mu.RLock()
		obj, ok := r.index.document(id)
		r.mu.RUnlock()

		if !ok {
			continue
		}

		canRead, err := r.guard.CanRead(ctx, obj)
		if err != nil {
			r.log.Debug("access check failed, omitting domain",
				zap.String("domain_id", id), zap.Error(err))

			continue
		}

		if canRead {
			readable = append(readable, id)
		}
	}

	return readable
}

// RemoveDomain deletes a domain: its document object, all its locale
// bundles, and its access-control entry. Removing an unknown id is a
// silent no-op.
func (r *Repository) RemoveDomain(ctx context.Context, domainID string) error {
	if domainID == "" {
		return ErrDomainIDEmpty
	}

	r.mu.Lock()

	err := r.reloadIfNeededLocked(ctx)
	if err != nil {
		r.mu.Unlock()

		return wrapStorage(err, domainID, nil)
	}

	docObj, hadDoc := r.index.document(domainID)
	removed := r.index.delete(domainID)
	r.mu.Unlock()

	if len(removed) == 0 {
		return nil
	}

	if hadDoc {
		err = r.guard.RemoveACL(ctx, docObj)
		if err != nil {
			return wrapStorage(err, domainID, nil)
		}
	}

	for _, obj := range removed {
		err = r.backend.DeleteObject(ctx, obj.ID)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return wrapStorage(err, domainID, nil)
		}
	}

	if hadDoc {
		// Best-effort: the annotations sidecar goes with the document.
		err = r.backend.DeleteObject(ctx, docObj.ID+annotationsSuffix)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			r.log.Warn("removing annotations sidecar failed",
				zap.String("domain_id", domainID), zap.Error(err))
		}
	}

	r.invalidate()

	return nil
}

// RemoveModel removes one named model from a domain and re-stores the
// domain. An unknown domain or model is a silent no-op.
func (r *Repository) RemoveModel(ctx context.Context, domainID, modelID string) error {
	if domainID == "" {
		return ErrDomainIDEmpty
	}

	if modelID == "" {
		return ErrModelIDEmpty
	}

	d, err := r.GetDomain(ctx, domainID)
	if err != nil {
		return err
	}

	if d == nil || !d.RemoveModel(modelID) {
		return nil
	}

	return r.StoreDomain(ctx, d, true)
}

// AddLocalizationFile stores a translation bundle for a domain id and
// locale. Storing onto an existing id + locale fails with
// ErrLocaleExists unless overwrite is set.
func (r *Repository) AddLocalizationFile(ctx context.Context, domainID, locale string, content []byte, overwrite bool) error {
	if domainID == "" {
		return ErrDomainIDEmpty
	}

	if locale == "" {
		return ErrLocaleEmpty
	}

	// Exclusive for the whole operation: the duplicate check and the
	// create must not interleave with another writer of the same
	// id + locale.
	r.mu.Lock()
	defer r.mu.Unlock()

	err := r.reloadIfNeededLocked(ctx)
	if err != nil {
		return wrapStorage(err, domainID, nil)
	}

	existing, found := r.index.locale(domainID, locale)
	if found && !overwrite {
		return fmt.Errorf("%w: %s (%s)", ErrLocaleExists, domainID, locale)
	}

	if found {
		_, err = r.backend.UpdateObject(ctx, existing, content)
		if err != nil {
			return wrapStorage(err, domainID, nil)
		}
	} else {
		obj, err := r.backend.CreateObject(ctx, uuid.NewString(), content, localeMimeType)
		if err != nil {
			return wrapStorage(err, domainID, nil)
		}

		attrs := map[string]string{
			attrKind:     kindLocale,
			attrDomainID: domainID,
			attrLocale:   locale,
		}

		err = r.backend.SetAttributes(ctx, obj.ID, attrs)
		if err != nil {
			return wrapStorage(err, domainID, nil)
		}
	}

	r.invalidateLocked()

	return nil
}

// AddLocalizationProperties stores a translation map for a domain id
// and locale, always overwriting. Convenience over AddLocalizationFile
// for callers holding an in-memory bundle.
func (r *Repository) AddLocalizationProperties(ctx context.Context, domainID, locale string, bundle map[string]string) error {
	if len(bundle) == 0 {
		return nil
	}

	content, err := domain.MarshalBundle(bundle)
	if err != nil {
		return wrapStorage(err, domainID, nil)
	}

	return r.AddLocalizationFile(ctx, domainID, locale, content, true)
}

// SetACLFor attaches an access-control entry to a domain's document
// object. A nil acl removes the entry.
func (r *Repository) SetACLFor(ctx context.Context, domainID string, acl *store.ACL) error {
	if domainID == "" {
		return ErrDomainIDEmpty
	}

	obj, found, err := r.documentObject(ctx, domainID)
	if err != nil {
		return wrapStorage(err, domainID, nil)
	}

	if !found {
		return fmt.Errorf("%w: %s", ErrDomainNotFound, domainID)
	}

	err = r.guard.SetACL(ctx, obj, acl)
	if err != nil {
		return wrapStorage(err, domainID, nil)
	}

	return nil
}

// GetACLFor returns the access-control entry attached to a domain's
// document object, or nil when the domain is unknown or has no entry.
func (r *Repository) GetACLFor(ctx context.Context, domainID string) (*store.ACL, error) {
	if domainID == "" {
		return nil, ErrDomainIDEmpty
	}

	obj, found, err := r.documentObject(ctx, domainID)
	if err != nil {
		return nil, wrapStorage(err, domainID, nil)
	}

	if !found {
		return nil, nil
	}

	acl, err := r.guard.GetACL(ctx, obj)
	if err != nil {
		return nil, wrapStorage(err, domainID, nil)
	}

	return acl, nil
}

// HasAccessFor reports whether the caller can read the named domain.
// An unknown domain is not readable.
func (r *Repository) HasAccessFor(ctx context.Context, domainID string) (bool, error) {
	if domainID == "" {
		return false, ErrDomainIDEmpty
	}

	obj, found, err := r.documentObject(ctx, domainID)
	if err != nil {
		return false, wrapStorage(err, domainID, nil)
	}

	if !found {
		return false, nil
	}

	canRead, err := r.guard.CanRead(ctx, obj)
	if err != nil {
		return false, wrapStorage(err, domainID, nil)
	}

	return canRead, nil
}

// Reload rescans the backend and rebuilds the index immediately.
func (r *Repository) Reload(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	err := r.reloadLocked(ctx)
	if err != nil {
		return wrapStorage(err, "", nil)
	}

	return nil
}

// Flush invalidates the index. The next read rebuilds it from the
// backend, picking up any out-of-band changes.
func (r *Repository) Flush() {
	r.invalidate()
}

// documentObject resolves a domain id to its document object with the
// miss → recheck → reload → retry protocol: a shared-mode miss is
// re-checked under the exclusive lock (another goroutine may have just
// reloaded), then the index is reloaded if flagged stale and the lookup
// retried once. A second miss is a genuine absence; a reload failure is
// not, and propagates so callers can distinguish an unreachable backend
// from a missing domain.
func (r *Repository) documentObject(ctx context.Context, domainID string) (store.Object, bool, error) {
	r.mu.RLock()
	obj, ok := r.index.document(domainID)
	r.mu.RUnlock()

	if ok {
		return obj, true, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	obj, ok = r.index.document(domainID)
	if ok {
		return obj, true, nil
	}

	if !r.needsReload {
		return store.Object{}, false, nil
	}

	err := r.reloadLocked(ctx)
	if err != nil {
		return store.Object{}, false, err
	}

	obj, ok = r.index.document(domainID)

	return obj, ok, nil
}

// invalidate flags the index stale and drops its contents.
func (r *Repository) invalidate() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.invalidateLocked()
}

func (r *Repository) invalidateLocked() {
	r.index.reset()
	r.needsReload = true
}

// reloadIfNeeded rebuilds the index when flagged stale. Serialized
// through the exclusive lock so two goroutines cannot reload
// simultaneously and clobber each other's fresher view.
func (r *Repository) reloadIfNeeded(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.reloadIfNeededLocked(ctx)
}

func (r *Repository) reloadIfNeededLocked(ctx context.Context) error {
	if !r.needsReload {
		return nil
	}

	return r.reloadLocked(ctx)
}

// reloadLocked performs the full rescan: enumerate every backing
// object, skip what the guard denies, skip objects with missing or
// unrecognized routing attributes (logged, never fatal), migrate
// unclassified documents, and rebuild both indexes from scratch. The
// caller holds the exclusive lock; the replacement is all-or-nothing —
// a concurrent reader sees the fully old or the fully new view, never
// a mix.
func (r *Repository) reloadLocked(ctx context.Context) error {
	children, err := r.backend.ListChildren(ctx)
	if err != nil {
		return fmt.Errorf("listing backing objects: %w", err)
	}

	r.index.reset()

	r.log.Debug("reloading domain index", zap.Int("objects", len(children)))

	for _, child := range children {
		canRead, err := r.guard.CanRead(ctx, child)
		if err != nil {
			r.log.Warn("access check failed, skipping object",
				zap.String("object_id", child.ID), zap.Error(err))

			continue
		}

		if !canRead {
			continue
		}

		attrs, err := r.backend.GetAttributes(ctx, child.ID)
		if err != nil {
			r.log.Warn("reading attributes failed, skipping object",
				zap.String("object_id", child.ID), zap.Error(err))

			continue
		}

		domainID := attrs[attrDomainID]
		if domainID == "" {
			r.log.Warn("object without domain-id attribute, skipping",
				zap.String("object_id", child.ID))

			continue
		}

		switch attrs[attrKind] {
		case kindDocument:
			if _, classified := attrs[attrCategory]; !classified {
				attrs = r.ensureClassified(ctx, child.ID, attrs)
			}

			r.index.addDocument(domainID, child, domain.Category(attrs[attrCategory]))

		case kindLocale:
			locale := attrs[attrLocale]
			if locale == "" {
				r.log.Warn("locale bundle without locale attribute, skipping",
					zap.String("object_id", child.ID),
					zap.String("domain_id", domainID))

				continue
			}

			r.index.addLocale(domainID, locale, child)

		default:
			r.log.Warn("object with unrecognized kind, skipping",
				zap.String("object_id", child.ID),
				zap.String("kind", attrs[attrKind]))
		}
	}

	r.needsReload = false

	return nil
}

// readAll reads an object's full content.
func (r *Repository) readAll(ctx context.Context, objectID string) ([]byte, error) {
	rc, err := r.backend.ReadContent(ctx, objectID)
	if err != nil {
		return nil, err
	}

	defer func() { _ = rc.Close() }()

	content, err := io.ReadAll(rc)
	if err != nil {
		return nil, err
	}

	return content, nil
}
