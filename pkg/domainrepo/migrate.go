package domainrepo

import (
	"context"

	"go.uber.org/zap"

	"github.com/modelfold/domainrepo/pkg/domain"
	"github.com/modelfold/domainrepo/pkg/xmi"
)

// ensureClassified back-fills the category attribute on a document
// object that predates the classification scheme: read the payload,
// classify it, persist the attribute. Runs during reload, at most once
// per object per rescan; a second pass over an already-migrated object
// is a no-op because the attribute is then present.
//
// Migration failures are logged and swallowed — a domain that cannot be
// classified stays readable and listable, it just appears in no
// category until a later rescan succeeds. The returned attrs reflect
// the classification when it succeeded, the input otherwise.
func (r *Repository) ensureClassified(ctx context.Context, objectID string, attrs map[string]string) map[string]string {
	payload, err := r.readAll(ctx, objectID)
	if err != nil {
		r.log.Warn("classification migration: reading payload failed",
			zap.String("object_id", objectID),
			zap.String("domain_id", attrs[attrDomainID]),
			zap.Error(err))

		return attrs
	}

	d, err := xmi.Parse(payload)
	if err != nil {
		r.log.Warn("classification migration: payload does not parse",
			zap.String("object_id", objectID),
			zap.String("domain_id", attrs[attrDomainID]),
			zap.Error(err))

		return attrs
	}

	attrs[attrCategory] = string(domain.Classify(d))

	err = r.backend.SetAttributes(ctx, objectID, attrs)
	if err != nil {
		// The in-memory classification still stands for this rescan;
		// the attribute write is retried implicitly next reload.
		r.log.Warn("classification migration: persisting category failed",
			zap.String("object_id", objectID),
			zap.String("domain_id", attrs[attrDomainID]),
			zap.Error(err))
	}

	return attrs
}
