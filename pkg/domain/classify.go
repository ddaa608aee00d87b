package domain

// Category classifies a domain by how it was produced.
type Category string

const (
	// CategoryMetadata marks a plain, hand-authored metadata domain.
	CategoryMetadata Category = "metadata"

	// CategoryWizard marks a domain produced by a datasource wizard.
	CategoryWizard Category = "wizard-generated"
)

// Generator marker property keys. A model carrying either of these was
// emitted by a schema generator rather than authored by hand. The two
// spellings are both in the wild; treat them identically.
const (
	markerAgileBI = "AGILE_BI_GENERATED_SCHEMA"
	markerWizard  = "WIZARD_GENERATED_SCHEMA"
)

// Valid reports whether c is a known category value.
func (c Category) Valid() bool {
	return c == CategoryMetadata || c == CategoryWizard
}

// Classify determines the category of a domain. A domain is
// wizard-generated when any of its models carries a generator marker
// property; everything else is plain metadata.
//
// Pure function of the parsed domain; no side effects.
func Classify(d *Domain) Category {
	for i := range d.Models {
		props := d.Models[i].Properties
		if props == nil {
			continue
		}

		if _, ok := props[markerAgileBI]; ok {
			return CategoryWizard
		}

		if _, ok := props[markerWizard]; ok {
			return CategoryWizard
		}
	}

	return CategoryMetadata
}
