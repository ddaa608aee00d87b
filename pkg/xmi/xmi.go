// Package xmi serializes metadata domains to their on-disk XML payload
// and parses them back.
//
// The payload is UTF-8 XML. The domain identifier may be embedded in a
// <description> element; Reconcile keeps that embedded identifier
// consistent with the identifier the caller stores the payload under.
// Identifier extraction and rewrite go through the parser, never
// through raw text search, so the rules survive formatting differences
// in stored payloads.
package xmi

import (
	"encoding/xml"
	"fmt"
	"slices"
	"strings"

	"github.com/modelfold/domainrepo/pkg/domain"
)

// Ext is the payload filename extension. A domain id may carry it; the
// suffixed and unsuffixed forms name the same domain.
const Ext = ".xmi"

const (
	header  = xml.Header
	version = "1.2"
)

// ParseError is returned when a payload cannot be parsed. It preserves
// the raw payload and the underlying cause for diagnostics.
type ParseError struct {
	// Payload is the raw payload text that failed to parse.
	Payload []byte

	// Err is the underlying cause.
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing xmi payload (%d bytes): %v", len(e.Payload), e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Wire representation. The element layout is the stored contract; do
// not rename elements or attributes.
type xmlDomain struct {
	XMLName     xml.Name        `xml:"xmi"`
	Version     string          `xml:"version,attr"`
	Description *xmlDescription `xml:"description"`
	Name        string          `xml:"name,attr,omitempty"`
	Models      []xmlModel      `xml:"model"`
}

type xmlDescription struct {
	Body string `xml:"body,attr"`
}

type xmlModel struct {
	ID          string        `xml:"id,attr"`
	Name        string        `xml:"name,attr,omitempty"`
	Description string        `xml:"description,attr,omitempty"`
	Properties  []xmlProperty `xml:"property"`
}

type xmlProperty struct {
	Key   string `xml:"key,attr"`
	Value string `xml:"value,attr"`
}

// Generate serializes a domain to its payload text.
//
// The encoding is deterministic: model order is preserved and property
// keys are sorted. The domain id, when non-empty, is embedded in the
// <description> element. Locale overlays are not part of the payload;
// they live in side-car bundles.
func Generate(d *domain.Domain) (string, error) {
	if d == nil {
		return "", fmt.Errorf("generating xmi: domain is nil")
	}

	wire := xmlDomain{
		Version: version,
		Name:    d.Name,
	}

	if d.ID != "" {
		wire.Description = &xmlDescription{Body: d.ID}
	}

	for i := range d.Models {
		m := &d.Models[i]

		wm := xmlModel{
			ID:          m.ID,
			Name:        m.Name,
			Description: m.Description,
		}

		for _, key := range sortedKeys(m.Properties) {
			wm.Properties = append(wm.Properties, xmlProperty{Key: key, Value: m.Properties[key]})
		}

		wire.Models = append(wire.Models, wm)
	}

	out, err := xml.MarshalIndent(&wire, "", "  ")
	if err != nil {
		return "", fmt.Errorf("generating xmi: %w", err)
	}

	return header + string(out) + "\n", nil
}

// Parse validates and decodes a payload into a domain.
//
// The returned domain's ID is the embedded identifier, or empty when
// the payload carries none; callers storing the domain under an
// external identifier overwrite it afterwards. On failure the returned
// error is a *ParseError carrying the raw payload.
func Parse(payload []byte) (*domain.Domain, error) {
	var wire xmlDomain

	err := xml.Unmarshal(payload, &wire)
	if err != nil {
		return nil, &ParseError{Payload: payload, Err: err}
	}

	if wire.Version == "" {
		return nil, &ParseError{Payload: payload, Err: fmt.Errorf("missing version attribute")}
	}

	d := &domain.Domain{Name: wire.Name}

	if wire.Description != nil {
		d.ID = wire.Description.Body
	}

	for _, wm := range wire.Models {
		m := domain.Model{
			ID:          wm.ID,
			Name:        wm.Name,
			Description: wm.Description,
		}

		if len(wm.Properties) > 0 {
			m.Properties = make(map[string]string, len(wm.Properties))
			for _, p := range wm.Properties {
				m.Properties[p.Key] = p.Value
			}
		}

		d.Models = append(d.Models, m)
	}

	err = d.Validate()
	if err != nil {
		return nil, &ParseError{Payload: payload, Err: err}
	}

	return d, nil
}

// EnsureExt returns id with the .xmi suffix appended if missing.
func EnsureExt(id string) string {
	if strings.HasSuffix(id, Ext) {
		return id
	}

	return id + Ext
}

// StripExt returns id without a trailing .xmi suffix.
func StripExt(id string) string {
	return strings.TrimSuffix(id, Ext)
}

// SameID reports whether two domain identifiers name the same domain,
// ignoring a trailing .xmi suffix on either side.
func SameID(a, b string) bool {
	return StripExt(a) == StripExt(b)
}

func sortedKeys(m map[string]string) []string {
	if len(m) == 0 {
		return nil
	}

	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	slices.Sort(keys)

	return keys
}
