package xmi_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/modelfold/domainrepo/pkg/domain"
	"github.com/modelfold/domainrepo/pkg/xmi"
)

func sampleDomain() *domain.Domain {
	return &domain.Domain{
		ID:   "sales",
		Name: "Sales",
		Models: []domain.Model{
			{
				ID:          "SalesModel",
				Name:        "Sales Model",
				Description: "All sales figures",
				Properties: map[string]string{
					"visible": "true",
					"color":   "blue",
				},
			},
			{ID: "OtherModel"},
		},
	}
}

func Test_Generate_Then_Parse_Round_Trips(t *testing.T) {
	t.Parallel()

	d := sampleDomain()

	payload, err := xmi.Generate(d)
	require.NoError(t, err)

	parsed, err := xmi.Parse([]byte(payload))
	require.NoError(t, err)

	if diff := cmp.Diff(d, parsed); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func Test_Generate_Is_Deterministic(t *testing.T) {
	t.Parallel()

	first, err := xmi.Generate(sampleDomain())
	require.NoError(t, err)

	second, err := xmi.Generate(sampleDomain())
	require.NoError(t, err)

	require.Equal(t, first, second)
}

func Test_Generate_Omits_Embedded_ID_When_Empty(t *testing.T) {
	t.Parallel()

	payload, err := xmi.Generate(&domain.Domain{Name: "anonymous"})
	require.NoError(t, err)
	require.NotContains(t, payload, "<description")

	id, err := xmi.DomainID([]byte(payload))
	require.NoError(t, err)
	require.Equal(t, "", id)
}

func Test_Parse_When_Payload_Malformed(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		payload string
	}{
		{"NotXML", "this is not xml"},
		{"Truncated", `<?xml version="1.0"?><xmi version="1.2"><model id="a"`},
		{"MissingVersion", `<xmi><model id="a"></model></xmi>`},
		{"EmptyModelID", `<xmi version="1.2"><model id=""></model></xmi>`},
		{"DuplicateModelID", `<xmi version="1.2"><model id="a"></model><model id="a"></model></xmi>`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := xmi.Parse([]byte(tc.payload))
			require.Error(t, err)

			var perr *xmi.ParseError
			require.True(t, errors.As(err, &perr))
			require.Equal(t, tc.payload, string(perr.Payload))
		})
	}
}

func Test_ID_Helpers_Treat_Suffix_Forms_As_Equal(t *testing.T) {
	t.Parallel()

	require.Equal(t, "sales.xmi", xmi.EnsureExt("sales"))
	require.Equal(t, "sales.xmi", xmi.EnsureExt("sales.xmi"))
	require.Equal(t, "sales", xmi.StripExt("sales.xmi"))
	require.Equal(t, "sales", xmi.StripExt("sales"))

	require.True(t, xmi.SameID("sales", "sales.xmi"))
	require.True(t, xmi.SameID("sales.xmi", "sales.xmi"))
	require.False(t, xmi.SameID("sales", "marketing"))

	// Only .xmi is special; other suffixes are opaque.
	require.False(t, xmi.SameID("sales.xml", "sales"))
	require.Equal(t, "sales.xml.xmi", xmi.EnsureExt("sales.xml"))
}

func Test_Reconcile_When_Embedded_ID_Matches(t *testing.T) {
	t.Parallel()

	payload, err := xmi.Generate(sampleDomain())
	require.NoError(t, err)

	// Exact match: payload passes through byte for byte.
	out, effective, err := xmi.Reconcile([]byte(payload), "sales")
	require.NoError(t, err)
	require.Equal(t, payload, string(out))
	require.Equal(t, "sales", effective)

	// Suffix-only difference is still a match, and the caller's form
	// stays authoritative.
	out, effective, err = xmi.Reconcile([]byte(payload), "sales.xmi")
	require.NoError(t, err)
	require.Equal(t, payload, string(out))
	require.Equal(t, "sales.xmi", effective)
}

func Test_Reconcile_When_Embedded_ID_Absent(t *testing.T) {
	t.Parallel()

	payload, err := xmi.Generate(&domain.Domain{Name: "anonymous", Models: []domain.Model{{ID: "m"}}})
	require.NoError(t, err)

	out, effective, err := xmi.Reconcile([]byte(payload), "fresh")
	require.NoError(t, err)
	require.Equal(t, payload, string(out))
	require.Equal(t, "fresh", effective)
}

func Test_Reconcile_Rewrites_Drifted_Embedded_ID(t *testing.T) {
	t.Parallel()

	d := sampleDomain()
	d.ID = "oldname"

	payload, err := xmi.Generate(d)
	require.NoError(t, err)

	out, effective, err := xmi.Reconcile([]byte(payload), "newname")
	require.NoError(t, err)

	// The effective id carries the suffix, the embedded one keeps the
	// unsuffixed form the payload used before.
	require.Equal(t, "newname.xmi", effective)

	embedded, err := xmi.DomainID(out)
	require.NoError(t, err)
	require.Equal(t, "newname", embedded)
	require.False(t, strings.Contains(string(out), "oldname"))

	// Everything except the identifier survives the rewrite.
	parsed, err := xmi.Parse(out)
	require.NoError(t, err)

	want := sampleDomain()
	want.ID = "newname"

	if diff := cmp.Diff(want, parsed); diff != "" {
		t.Fatalf("rewrite mismatch (-want +got):\n%s", diff)
	}
}

func Test_Reconcile_Keeps_Suffixed_Embedded_Form(t *testing.T) {
	t.Parallel()

	d := sampleDomain()
	d.ID = "oldname.xmi"

	payload, err := xmi.Generate(d)
	require.NoError(t, err)

	out, effective, err := xmi.Reconcile([]byte(payload), "newname")
	require.NoError(t, err)
	require.Equal(t, "newname.xmi", effective)

	embedded, err := xmi.DomainID(out)
	require.NoError(t, err)
	require.Equal(t, "newname.xmi", embedded)
}

func Test_Reconcile_When_Payload_Malformed(t *testing.T) {
	t.Parallel()

	_, _, err := xmi.Reconcile([]byte("<broken"), "sales")

	var perr *xmi.ParseError
	require.True(t, errors.As(err, &perr))
}
