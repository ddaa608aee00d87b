package domainrepo

import (
	"context"

	"go.uber.org/zap"
)

// Annotation sidecars: free-form XML attached to a domain's document
// object under "<objectID>-annotations". Annotations are best-effort
// decoration — a failure to store or load them never fails the primary
// operation, it is logged and the caller sees an empty result.
const annotationsSuffix = "-annotations"

// StoreAnnotations attaches an annotations payload to a domain's
// document object, replacing any previous one. Unknown domain ids and
// backend failures are logged, not raised.
func (r *Repository) StoreAnnotations(ctx context.Context, domainID string, annotations []byte) {
	obj, found, err := r.documentObject(ctx, domainID)
	if err != nil {
		r.log.Warn("storing annotations: domain lookup failed",
			zap.String("domain_id", domainID), zap.Error(err))

		return
	}

	if !found {
		r.log.Warn("storing annotations: unknown domain",
			zap.String("domain_id", domainID))

		return
	}

	sidecarID := obj.ID + annotationsSuffix

	sidecar, exists, err := r.backend.GetObject(ctx, sidecarID)
	if err != nil {
		r.log.Warn("storing annotations: sidecar lookup failed",
			zap.String("domain_id", domainID), zap.Error(err))

		return
	}

	if exists {
		_, err = r.backend.UpdateObject(ctx, sidecar, annotations)
	} else {
		_, err = r.backend.CreateObject(ctx, sidecarID, annotations, domainMimeType)
	}

	if err != nil {
		r.log.Warn("storing annotations failed",
			zap.String("domain_id", domainID), zap.Error(err))
	}
}

// LoadAnnotations returns the annotations payload attached to a
// domain's document object, or nil when there is none or the load
// fails (logged).
func (r *Repository) LoadAnnotations(ctx context.Context, domainID string) []byte {
	obj, found, err := r.documentObject(ctx, domainID)
	if err != nil {
		r.log.Debug("loading annotations: domain lookup failed",
			zap.String("domain_id", domainID), zap.Error(err))

		return nil
	}

	if !found {
		return nil
	}

	content, err := r.readAll(ctx, obj.ID+annotationsSuffix)
	if err != nil {
		r.log.Debug("loading annotations failed",
			zap.String("domain_id", domainID), zap.Error(err))

		return nil
	}

	return content
}
