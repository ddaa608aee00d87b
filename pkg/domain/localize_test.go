package domain_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/modelfold/domainrepo/pkg/domain"
)

func Test_ParseBundle_Reads_Properties_Format(t *testing.T) {
	t.Parallel()

	content := []byte("name=Ventes\n# comment\nSalesModel.name=Modèle de ventes\n")

	bundle, err := domain.ParseBundle(content)
	require.NoError(t, err)

	require.Equal(t, "Ventes", bundle["name"])
	require.Equal(t, "Modèle de ventes", bundle["SalesModel.name"])
	require.Len(t, bundle, 2)
}

func Test_MarshalBundle_Is_Deterministic(t *testing.T) {
	t.Parallel()

	bundle := map[string]string{
		"name":             "Ventes",
		"description":      "Domaine des ventes",
		"SalesModel.name":  "Modèle de ventes",
		"OtherModel.name":  "Autre",
		"SalesModel.extra": "ignored downstream",
	}

	first, err := domain.MarshalBundle(bundle)
	require.NoError(t, err)

	second, err := domain.MarshalBundle(bundle)
	require.NoError(t, err)

	require.Equal(t, first, second)

	// Round-trip preserves every pair.
	parsed, err := domain.ParseBundle(first)
	require.NoError(t, err)
	require.Equal(t, bundle, parsed)
}

func Test_ApplyLocale_Merges_Domain_And_Model_Keys(t *testing.T) {
	t.Parallel()

	d := &domain.Domain{
		ID:   "sales",
		Name: "Sales",
		Models: []domain.Model{
			{ID: "SalesModel", Name: "Sales Model"},
		},
	}

	d.ApplyLocale("fr_FR", map[string]string{
		"name":                  "Ventes",
		"description":           "Domaine des ventes",
		"SalesModel.name":       "Modèle de ventes",
		"MissingModel.name":     "dropped",
		"SalesModel.unknownkey": "dropped",
		"bare-unknown":          "dropped",
	})

	require.Equal(t, "Ventes", d.LocalizedNames["fr_FR"])
	require.Equal(t, "Domaine des ventes", d.LocalizedDescriptions["fr_FR"])
	require.Equal(t, "Modèle de ventes", d.Models[0].LocalizedNames["fr_FR"])
	require.Equal(t, []string{"fr_FR"}, d.Locales)

	// Default strings are untouched.
	require.Equal(t, "Sales", d.Name)
	require.Equal(t, "Sales Model", d.Models[0].Name)

	require.Equal(t, "Modèle de ventes", d.Models[0].LocalizedName("fr_FR"))
	require.Equal(t, "Sales Model", d.Models[0].LocalizedName("de_DE"))
}

func Test_ApplyLocale_Twice_Replaces_Previous_Overlay(t *testing.T) {
	t.Parallel()

	d := &domain.Domain{ID: "sales"}

	d.ApplyLocale("fr_FR", map[string]string{"name": "Ventes"})
	d.ApplyLocale("fr_FR", map[string]string{"name": "Ventes v2"})

	require.Equal(t, "Ventes v2", d.LocalizedNames["fr_FR"])
	require.Equal(t, []string{"fr_FR"}, d.Locales)
}

func Test_ApplyLocale_Keeps_Locales_Sorted(t *testing.T) {
	t.Parallel()

	d := &domain.Domain{ID: "sales"}

	d.ApplyLocale("fr_FR", map[string]string{"name": "Ventes"})
	d.ApplyLocale("de_DE", map[string]string{"name": "Verkauf"})
	d.ApplyLocale("en_US", map[string]string{"name": "Sales"})

	require.Equal(t, []string{"de_DE", "en_US", "fr_FR"}, d.Locales)
}
