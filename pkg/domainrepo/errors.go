package domainrepo

import (
	"errors"
	"strings"
)

// Validation and access sentinels. These are raised synchronously at
// the call site and never retried internally. Check with errors.Is.
var (
	// ErrDomainIDEmpty indicates a missing or empty domain identifier.
	ErrDomainIDEmpty = errors.New("domain id is empty")

	// ErrModelIDEmpty indicates a missing or empty model identifier.
	ErrModelIDEmpty = errors.New("model id is empty")

	// ErrLocaleEmpty indicates a missing or empty locale code.
	ErrLocaleEmpty = errors.New("locale is empty")

	// ErrDomainExists indicates a store without overwrite onto an
	// existing domain id.
	ErrDomainExists = errors.New("domain already exists")

	// ErrLocaleExists indicates a localization store without overwrite
	// onto an existing domain id + locale.
	ErrLocaleExists = errors.New("locale bundle already exists")

	// ErrAccessDenied indicates the caller lacks read permission. It is
	// surfaced distinctly and never coalesced into a StorageError.
	ErrAccessDenied = errors.New("access denied")

	// ErrDomainNotFound indicates an operation that requires an
	// existing domain was given an unknown id. GetDomain does NOT
	// return this; absence there is (nil, nil).
	ErrDomainNotFound = errors.New("domain not found")
)

// StorageError wraps an unexpected backend or codec failure with the
// domain context it occurred in. For store failures Payload carries the
// offending payload text for diagnosis.
//
// Use errors.As to extract the context and errors.Is to match the
// underlying cause:
//
//	var serr *domainrepo.StorageError
//	if errors.As(err, &serr) {
//	    log.Printf("domain %s failed: %v", serr.DomainID, serr.Err)
//	}
type StorageError struct {
	// DomainID is the domain the failing operation was working on.
	DomainID string

	// Payload is the payload text involved, when the failure happened
	// on a store path. Nil otherwise.
	Payload []byte

	// Err is the underlying cause.
	Err error
}

// Error formats as "<cause> (domain_id=X)".
func (e *StorageError) Error() string {
	if e == nil {
		return ""
	}

	var sb strings.Builder

	if e.Err != nil {
		sb.WriteString(e.Err.Error())
	}

	if e.DomainID != "" {
		if sb.Len() > 0 {
			sb.WriteString(" ")
		}

		sb.WriteString("(domain_id=" + e.DomainID + ")")
	}

	return sb.String()
}

// Unwrap returns the underlying error for errors.Is / errors.As.
func (e *StorageError) Unwrap() error {
	if e == nil {
		return nil
	}

	return e.Err
}

// wrapStorage classifies err as a StorageError carrying the domain id,
// unless it is already a StorageError or an access denial — those pass
// through unchanged (no double-wrapping, no coalescing of denials).
func wrapStorage(err error, domainID string, payload []byte) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, ErrAccessDenied) {
		return err
	}

	existing := &StorageError{}
	if errors.As(err, &existing) {
		if existing.DomainID == "" {
			existing.DomainID = domainID
		}

		if existing.Payload == nil && payload != nil {
			existing.Payload = payload
		}

		return err
	}

	return &StorageError{DomainID: domainID, Payload: payload, Err: err}
}
