package domain_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/modelfold/domainrepo/pkg/domain"
)

func Test_Model_Lookup_Returns_Pointer_Into_Domain(t *testing.T) {
	t.Parallel()

	d := &domain.Domain{
		ID: "sales",
		Models: []domain.Model{
			{ID: "orders", Name: "Orders"},
			{ID: "customers", Name: "Customers"},
		},
	}

	m := d.Model("customers")
	require.NotNil(t, m)
	require.Equal(t, "Customers", m.Name)

	// Mutation through the pointer must be visible on the domain.
	m.Name = "Renamed"
	require.Equal(t, "Renamed", d.Models[1].Name)

	require.Nil(t, d.Model("missing"))
}

func Test_RemoveModel_Deletes_Only_The_Named_Model(t *testing.T) {
	t.Parallel()

	d := &domain.Domain{
		ID: "sales",
		Models: []domain.Model{
			{ID: "orders"},
			{ID: "customers"},
			{ID: "products"},
		},
	}

	require.True(t, d.RemoveModel("customers"))

	want := []domain.Model{{ID: "orders"}, {ID: "products"}}
	if diff := cmp.Diff(want, d.Models); diff != "" {
		t.Fatalf("models mismatch (-want +got):\n%s", diff)
	}

	require.False(t, d.RemoveModel("customers"))
	require.Len(t, d.Models, 2)
}

func Test_Validate_When_Model_IDs_Missing_Or_Duplicated(t *testing.T) {
	t.Parallel()

	valid := &domain.Domain{Models: []domain.Model{{ID: "a"}, {ID: "b"}}}
	require.NoError(t, valid.Validate())

	empty := &domain.Domain{Models: []domain.Model{{ID: "a"}, {ID: ""}}}
	require.ErrorIs(t, empty.Validate(), domain.ErrModelIDEmpty)

	dup := &domain.Domain{Models: []domain.Model{{ID: "a"}, {ID: "a"}}}
	require.ErrorIs(t, dup.Validate(), domain.ErrDuplicateModelID)
}

func Test_LocalizedName_Falls_Back_To_Default(t *testing.T) {
	t.Parallel()

	m := domain.Model{
		Name:           "Orders",
		LocalizedNames: map[string]string{"fr_FR": "Commandes"},
	}

	require.Equal(t, "Commandes", m.LocalizedName("fr_FR"))
	require.Equal(t, "Orders", m.LocalizedName("de_DE"))

	require.Equal(t, "", m.LocalizedDescription("fr_FR"))
}

func Test_Classify_When_Generator_Markers_Present(t *testing.T) {
	t.Parallel()

	plain := &domain.Domain{Models: []domain.Model{
		{ID: "a", Properties: map[string]string{"color": "blue"}},
		{ID: "b"},
	}}
	require.Equal(t, domain.CategoryMetadata, domain.Classify(plain))

	agile := &domain.Domain{Models: []domain.Model{
		{ID: "a"},
		{ID: "b", Properties: map[string]string{"AGILE_BI_GENERATED_SCHEMA": "true"}},
	}}
	require.Equal(t, domain.CategoryWizard, domain.Classify(agile))

	wizard := &domain.Domain{Models: []domain.Model{
		{ID: "a", Properties: map[string]string{"WIZARD_GENERATED_SCHEMA": "true"}},
	}}
	require.Equal(t, domain.CategoryWizard, domain.Classify(wizard))

	// Marker presence counts, not its value.
	falsy := &domain.Domain{Models: []domain.Model{
		{ID: "a", Properties: map[string]string{"WIZARD_GENERATED_SCHEMA": "false"}},
	}}
	require.Equal(t, domain.CategoryWizard, domain.Classify(falsy))

	require.Equal(t, domain.CategoryMetadata, domain.Classify(&domain.Domain{}))
}

func Test_Category_Valid_Rejects_Unknown_Values(t *testing.T) {
	t.Parallel()

	require.True(t, domain.CategoryMetadata.Valid())
	require.True(t, domain.CategoryWizard.Valid())
	require.False(t, domain.Category("").Valid())
	require.False(t, domain.Category("other").Valid())
}
