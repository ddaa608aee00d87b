package domainrepo

// Persisted attribute schema on backing objects. These keys are the
// stored contract with existing repositories; do not rename them.
const (
	// attrKind routes an object during reload: document or
	// locale-bundle. Objects without it are skipped (and logged).
	attrKind = "kind"

	// attrDomainID carries the domain identifier. The storage name is
	// opaque, so this attribute is the only link back to the domain.
	attrDomainID = "domain-id"

	// attrLocale carries the locale code, locale-bundle objects only.
	attrLocale = "locale"

	// attrCategory carries the classification, document objects only.
	// Absent means "not yet classified": the object predates the
	// classification scheme and is migrated lazily on reload.
	attrCategory = "category"
)

const (
	kindDocument = "document"
	kindLocale   = "locale-bundle"
)

const (
	domainMimeType = "text/xml"
	localeMimeType = "text/plain"
)
