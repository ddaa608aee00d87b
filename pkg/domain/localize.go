package domain

import (
	"bytes"
	"fmt"
	"slices"
	"strings"

	"github.com/magiconair/properties"
)

// Translation bundle key suffixes. A bundle key is either a bare domain
// key ("name", "description") or "<modelID>.<suffix>".
const (
	keyName        = "name"
	keyDescription = "description"
)

// ParseBundle parses a flat UTF-8 key/value translation bundle in
// properties format.
func ParseBundle(content []byte) (map[string]string, error) {
	p, err := properties.Load(content, properties.UTF8)
	if err != nil {
		return nil, fmt.Errorf("parsing locale bundle: %w", err)
	}

	return p.Map(), nil
}

// MarshalBundle serializes a translation map to properties text with
// keys in sorted order, so the output is deterministic.
func MarshalBundle(bundle map[string]string) ([]byte, error) {
	keys := make([]string, 0, len(bundle))
	for k := range bundle {
		keys = append(keys, k)
	}

	slices.Sort(keys)

	p := properties.NewProperties()

	for _, k := range keys {
		_, _, err := p.Set(k, bundle[k])
		if err != nil {
			return nil, fmt.Errorf("marshaling locale bundle: %w", err)
		}
	}

	var buf bytes.Buffer

	_, err := p.Write(&buf, properties.UTF8)
	if err != nil {
		return nil, fmt.Errorf("marshaling locale bundle: %w", err)
	}

	return buf.Bytes(), nil
}

// ApplyLocale merges a translation bundle into the domain as an overlay
// for the named locale.
//
// Recognized keys:
//
//	name                     domain display name
//	description              domain description
//	<modelID>.name           model display name
//	<modelID>.description    model description
//
// Keys that reference an unknown model, or carry an unknown suffix, are
// ignored; a bundle authored against an older revision of the domain
// must not fail the merge. Applying the same locale twice replaces the
// previous overlay values key by key.
func (d *Domain) ApplyLocale(locale string, bundle map[string]string) {
	if locale == "" || len(bundle) == 0 {
		return
	}

	for key, value := range bundle {
		switch key {
		case keyName:
			if d.LocalizedNames == nil {
				d.LocalizedNames = make(map[string]string)
			}

			d.LocalizedNames[locale] = value

			continue
		case keyDescription:
			if d.LocalizedDescriptions == nil {
				d.LocalizedDescriptions = make(map[string]string)
			}

			d.LocalizedDescriptions[locale] = value

			continue
		}

		modelID, suffix, ok := strings.Cut(key, ".")
		if !ok {
			continue
		}

		m := d.Model(modelID)
		if m == nil {
			continue
		}

		switch suffix {
		case keyName:
			if m.LocalizedNames == nil {
				m.LocalizedNames = make(map[string]string)
			}

			m.LocalizedNames[locale] = value
		case keyDescription:
			if m.LocalizedDescriptions == nil {
				m.LocalizedDescriptions = make(map[string]string)
			}

			m.LocalizedDescriptions[locale] = value
		}
	}

	if !slices.Contains(d.Locales, locale) {
		d.Locales = append(d.Locales, locale)
		slices.Sort(d.Locales)
	}
}
