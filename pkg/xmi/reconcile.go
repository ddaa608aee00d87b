package xmi

import "strings"

// Reconcile keeps the identifier embedded in a payload consistent with
// the identifier the caller stores the payload under.
//
// Rules, in order:
//
//  1. If the payload embeds no identifier, the caller's id is
//     authoritative and the payload is returned unchanged.
//  2. If the embedded identifier equals the caller's id ignoring a
//     trailing .xmi suffix on either side, the payload is returned
//     unchanged.
//  3. Otherwise the embedded identifier drifted from the external name:
//     it is overwritten with the caller's id, keeping whichever suffix
//     form the old embedded identifier used, and the rewritten payload
//     plus the caller's id with .xmi ensured become authoritative.
//
// Only the .xmi suffix participates in the comparison; other legacy
// suffix variants are deliberately not normalized.
//
// The rewrite is a structured parse and re-serialize of the payload, so
// the payload must be well-formed; a malformed payload yields a
// *ParseError. When no rewrite is needed the input bytes are returned
// as-is, byte for byte.
func Reconcile(payload []byte, domainID string) ([]byte, string, error) {
	d, err := Parse(payload)
	if err != nil {
		return nil, "", err
	}

	embedded := d.ID
	if embedded == "" || SameID(embedded, domainID) {
		return payload, domainID, nil
	}

	// Keep the suffix form the payload already used.
	if strings.HasSuffix(embedded, Ext) {
		d.ID = EnsureExt(domainID)
	} else {
		d.ID = StripExt(domainID)
	}

	rewritten, err := Generate(d)
	if err != nil {
		return nil, "", err
	}

	return []byte(rewritten), EnsureExt(domainID), nil
}

// DomainID extracts the identifier embedded in a payload, or "" when
// the payload carries none.
func DomainID(payload []byte) (string, error) {
	d, err := Parse(payload)
	if err != nil {
		return "", err
	}

	return d.ID, nil
}
