package domainrepo

import (
	"slices"

	"github.com/modelfold/domainrepo/pkg/domain"
	"github.com/modelfold/domainrepo/pkg/store"
	"github.com/modelfold/domainrepo/pkg/xmi"
)

// domainIndex maps domain identifiers to their backing objects: one
// document object and zero or more locale-bundle objects per domain,
// plus a derived category index. It holds references only; the backend
// owns the bytes.
//
// All keys are normalized with the .xmi suffix stripped, so the
// suffixed and unsuffixed forms of an identifier resolve to the same
// domain everywhere. The stored (display) form is kept alongside the
// document reference and is what listings return.
//
// domainIndex is not self-locking. The Repository's RWMutex guards the
// domain maps and the category index as one unit; every method here
// assumes the appropriate lock mode is already held.
type domainIndex struct {
	// documents maps normalized domain id → document entry. At most one
	// document per domain.
	documents map[string]docEntry

	// locales maps normalized domain id → locale code → locale-bundle
	// object. At most one bundle per domain + locale.
	locales map[string]map[string]store.Object

	// categories maps category → set of normalized domain ids. Rebuilt
	// wholesale on reload and kept consistent by addDocument/delete;
	// domains whose classification is still pending appear in no
	// category.
	categories map[domain.Category]map[string]struct{}
}

// docEntry pairs a document object with the identifier form it was
// stored under.
type docEntry struct {
	id  string
	obj store.Object
}

func newDomainIndex() *domainIndex {
	ix := &domainIndex{}
	ix.reset()

	return ix
}

// reset drops all index contents.
func (ix *domainIndex) reset() {
	ix.documents = make(map[string]docEntry)
	ix.locales = make(map[string]map[string]store.Object)
	ix.categories = make(map[domain.Category]map[string]struct{})
}

// document returns the document object for a domain id, in either
// suffix form.
func (ix *domainIndex) document(domainID string) (store.Object, bool) {
	entry, ok := ix.documents[xmi.StripExt(domainID)]

	return entry.obj, ok
}

// locale returns the bundle object for a domain id + locale.
func (ix *domainIndex) locale(domainID, locale string) (store.Object, bool) {
	obj, ok := ix.locales[xmi.StripExt(domainID)][locale]

	return obj, ok
}

// localeFiles returns a copy of the locale → object map for a domain
// id. The copy may be used after the lock is released.
func (ix *domainIndex) localeFiles(domainID string) map[string]store.Object {
	bundles := ix.locales[xmi.StripExt(domainID)]
	if len(bundles) == 0 {
		return nil
	}

	out := make(map[string]store.Object, len(bundles))
	for locale, obj := range bundles {
		out[locale] = obj
	}

	return out
}

// domainIDs returns all indexed domain ids in their stored form,
// sorted.
func (ix *domainIndex) domainIDs() []string {
	ids := make([]string, 0, len(ix.documents))
	for _, entry := range ix.documents {
		ids = append(ids, entry.id)
	}

	slices.Sort(ids)

	return ids
}

// idsByCategory returns the domain ids classified under cat, in their
// stored form, sorted.
func (ix *domainIndex) idsByCategory(cat domain.Category) []string {
	set := ix.categories[cat]

	ids := make([]string, 0, len(set))

	for norm := range set {
		if entry, ok := ix.documents[norm]; ok {
			ids = append(ids, entry.id)
		}
	}

	slices.Sort(ids)

	return ids
}

// addDocument indexes a document object under a domain id, replacing
// any previous document for that domain, and files it under cat when
// cat is a known category (an empty or unknown cat leaves the domain
// uncategorized until the next migration pass).
func (ix *domainIndex) addDocument(domainID string, obj store.Object, cat domain.Category) {
	norm := xmi.StripExt(domainID)

	ix.documents[norm] = docEntry{id: domainID, obj: obj}
	ix.dropFromCategories(norm)

	if !cat.Valid() {
		return
	}

	set := ix.categories[cat]
	if set == nil {
		set = make(map[string]struct{})
		ix.categories[cat] = set
	}

	set[norm] = struct{}{}
}

// addLocale indexes a locale-bundle object, replacing any previous
// bundle for that domain + locale.
func (ix *domainIndex) addLocale(domainID, locale string, obj store.Object) {
	norm := xmi.StripExt(domainID)

	bundles := ix.locales[norm]
	if bundles == nil {
		bundles = make(map[string]store.Object)
		ix.locales[norm] = bundles
	}

	bundles[locale] = obj
}

// delete detaches every backing object reference for a domain id and
// returns the removed references (document first, when present).
func (ix *domainIndex) delete(domainID string) []store.Object {
	norm := xmi.StripExt(domainID)

	var removed []store.Object

	if entry, ok := ix.documents[norm]; ok {
		removed = append(removed, entry.obj)
		delete(ix.documents, norm)
	}

	for _, obj := range ix.locales[norm] {
		removed = append(removed, obj)
	}

	delete(ix.locales, norm)
	ix.dropFromCategories(norm)

	return removed
}

func (ix *domainIndex) dropFromCategories(norm string) {
	for cat, set := range ix.categories {
		delete(set, norm)

		if len(set) == 0 {
			delete(ix.categories, cat)
		}
	}
}
