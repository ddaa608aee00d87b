package domainrepo

import (
	"context"
	"fmt"

	"github.com/modelfold/domainrepo/pkg/xmi"
)

// DomainFileData is the raw export of one domain: the document payload
// plus every locale bundle, keyed by conventional file names. The
// document is stored under "<id>.xmi" and each bundle under
// "messages_<locale>.properties".
type DomainFileData struct {
	// DomainID is the id the export was taken for.
	DomainID string

	// Files maps file name to raw content.
	Files map[string][]byte
}

// ExportDomain collects a domain's raw files for backup or transfer.
// The payload bytes are exactly what the backend holds; no parsing or
// reconciliation is applied. An unknown id returns (nil, nil).
func (r *Repository) ExportDomain(ctx context.Context, domainID string) (*DomainFileData, error) {
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

	data := &DomainFileData{
		DomainID: domainID,
		Files: map[string][]byte{
			xmi.EnsureExt(domainID): payload,
		},
	}

	r.mu.RLock()
	bundles := r.index.localeFiles(domainID)
	r.mu.RUnlock()

	for locale, lobj := range bundles {
		content, err := r.readAll(ctx, lobj.ID)
		if err != nil {
			return nil, wrapStorage(fmt.Errorf("exporting locale %s: %w", locale, err), domainID, nil)
		}

		data.Files["messages_"+locale+".properties"] = content
	}

	return data, nil
}
