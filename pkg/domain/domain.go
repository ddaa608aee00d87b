// Package domain defines the metadata domain model: a named document
// describing zero or more data models, plus classification and
// per-locale translation overlays.
//
// A Domain is the unit of storage and retrieval in the repository. Its
// identifier is caller-visible and may also be embedded inside the
// serialized payload (see the xmi package for the codec and the
// reconciliation rules between the two).
package domain

import (
	"errors"
	"fmt"
	"slices"
)

var (
	// ErrModelIDEmpty indicates a model with no identifier.
	ErrModelIDEmpty = errors.New("model id is empty")

	// ErrDuplicateModelID indicates two models sharing an identifier.
	ErrDuplicateModelID = errors.New("duplicate model id")
)

// Domain is a named metadata document.
type Domain struct {
	// ID is the domain identifier. It is assigned by the caller and may
	// carry a trailing ".xmi" suffix; storage and lookup treat the
	// suffixed and unsuffixed forms as the same domain.
	ID string

	// Name is the default (unlocalized) display name.
	Name string

	// Description is the default (unlocalized) description.
	Description string

	// Models are the data models contained in this domain.
	Models []Model

	// LocalizedNames maps locale code to translated domain name.
	LocalizedNames map[string]string

	// LocalizedDescriptions maps locale code to translated domain
	// description.
	LocalizedDescriptions map[string]string

	// Locales lists the locale codes for which translation overlays
	// have been applied, sorted. Populated by ApplyLocale.
	Locales []string
}

// Model is a single data model inside a domain.
type Model struct {
	// ID is the model identifier, unique within the domain.
	ID string

	// Name is the default display name.
	Name string

	// Description is the default description.
	Description string

	// Properties are free-form key/value annotations. Generator tools
	// mark the models they produce with well-known property keys (see
	// Classify).
	Properties map[string]string

	// LocalizedNames maps locale code to translated display name.
	LocalizedNames map[string]string

	// LocalizedDescriptions maps locale code to translated description.
	LocalizedDescriptions map[string]string
}

// Model returns a pointer to the model with the given id, or nil.
func (d *Domain) Model(modelID string) *Model {
	for i := range d.Models {
		if d.Models[i].ID == modelID {
			return &d.Models[i]
		}
	}

	return nil
}

// RemoveModel deletes the model with the given id. Reports whether a
// model was actually removed.
func (d *Domain) RemoveModel(modelID string) bool {
	for i := range d.Models {
		if d.Models[i].ID == modelID {
			d.Models = slices.Delete(d.Models, i, i+1)

			return true
		}
	}

	return false
}

// Validate checks structural integrity before a write: every model must
// have a non-empty id and ids must be unique within the domain.
//
// The domain id itself is not checked here; the repository validates it
// against the caller-supplied identifier at the store boundary.
func (d *Domain) Validate() error {
	seen := make(map[string]struct{}, len(d.Models))

	for i := range d.Models {
		id := d.Models[i].ID
		if id == "" {
			return fmt.Errorf("model %d: %w", i, ErrModelIDEmpty)
		}

		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w: %q", ErrDuplicateModelID, id)
		}

		seen[id] = struct{}{}
	}

	return nil
}

// LocalizedName returns the model name for the given locale, falling
// back to the default name when no translation exists.
func (m *Model) LocalizedName(locale string) string {
	if name, ok := m.LocalizedNames[locale]; ok {
		return name
	}

	return m.Name
}

// LocalizedDescription returns the model description for the given
// locale, falling back to the default description.
func (m *Model) LocalizedDescription(locale string) string {
	if desc, ok := m.LocalizedDescriptions[locale]; ok {
		return desc
	}

	return m.Description
}
