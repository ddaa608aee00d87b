package cli_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/modelfold/domainrepo/internal/cli"
)

// runCLI invokes the CLI against a throwaway store and returns exit
// code, stdout, and stderr.
func runCLI(t *testing.T, storeDir string, args ...string) (int, string, string) {
	t.Helper()

	var out, errOut bytes.Buffer

	argv := append([]string{"domainrepo", "--store-dir", storeDir}, args...)
	code := cli.Run(strings.NewReader(""), &out, &errOut, argv, map[string]string{})

	return code, out.String(), errOut.String()
}

func writeSampleDomain(t *testing.T) string {
	t.Helper()

	payload := `<?xml version="1.0" encoding="UTF-8"?>
<xmi version="1.2">
  <description body="sales"></description>
  <model id="SalesModel" name="Sales Model"></model>
</xmi>
`

	path := filepath.Join(t.TempDir(), "sales.xmi")
	require.NoError(t, os.WriteFile(path, []byte(payload), 0o600))

	return path
}

func Test_CLI_Import_Then_Ls_And_Show(t *testing.T) {
	t.Parallel()

	storeDir := t.TempDir()
	sample := writeSampleDomain(t)

	code, out, errOut := runCLI(t, storeDir, "import", sample)
	require.Zero(t, code, "stderr: %s", errOut)
	require.Contains(t, out, "imported sales")

	code, out, _ = runCLI(t, storeDir, "ls")
	require.Zero(t, code)
	require.Equal(t, "sales\n", out)

	code, out, _ = runCLI(t, storeDir, "show", "sales")
	require.Zero(t, code)
	require.Contains(t, out, "Domain: sales")
	require.Contains(t, out, "SalesModel")
}

func Test_CLI_Import_When_Domain_Exists(t *testing.T) {
	t.Parallel()

	storeDir := t.TempDir()
	sample := writeSampleDomain(t)

	code, _, _ := runCLI(t, storeDir, "import", sample)
	require.Zero(t, code)

	// Second import without --force warns and exits nonzero.
	code, _, errOut := runCLI(t, storeDir, "import", sample)
	require.Equal(t, 1, code)
	require.Contains(t, errOut, "already exists")

	// --force replaces.
	code, _, errOut = runCLI(t, storeDir, "import", "-f", sample)
	require.Zero(t, code, "stderr: %s", errOut)
}

func Test_CLI_Localize_And_Category_Listing(t *testing.T) {
	t.Parallel()

	storeDir := t.TempDir()
	sample := writeSampleDomain(t)

	code, _, _ := runCLI(t, storeDir, "import", sample)
	require.Zero(t, code)

	bundle := filepath.Join(t.TempDir(), "messages_fr_FR.properties")
	require.NoError(t, os.WriteFile(bundle, []byte("name=Ventes\n"), 0o600))

	code, _, errOut := runCLI(t, storeDir, "localize", "sales", "fr_FR", bundle)
	require.Zero(t, code, "stderr: %s", errOut)

	code, out, _ := runCLI(t, storeDir, "show", "sales")
	require.Zero(t, code)
	require.Contains(t, out, "fr_FR")

	code, out, _ = runCLI(t, storeDir, "ls", "--category=metadata")
	require.Zero(t, code)
	require.Equal(t, "sales\n", out)

	code, out, _ = runCLI(t, storeDir, "ls", "--category=wizard-generated")
	require.Zero(t, code)
	require.Empty(t, out)

	code, _, errOut = runCLI(t, storeDir, "ls", "--category=bogus")
	require.Equal(t, 1, code)
	require.Contains(t, errOut, "unknown category")
}

func Test_CLI_Export_Writes_Conventional_Files(t *testing.T) {
	t.Parallel()

	storeDir := t.TempDir()
	sample := writeSampleDomain(t)

	code, _, _ := runCLI(t, storeDir, "import", sample)
	require.Zero(t, code)

	bundle := filepath.Join(t.TempDir(), "fr.properties")
	require.NoError(t, os.WriteFile(bundle, []byte("name=Ventes\n"), 0o600))

	code, _, _ = runCLI(t, storeDir, "localize", "sales", "fr_FR", bundle)
	require.Zero(t, code)

	exportDir := filepath.Join(t.TempDir(), "export")

	code, out, errOut := runCLI(t, storeDir, "export", "sales", "--dir", exportDir)
	require.Zero(t, code, "stderr: %s", errOut)
	require.Contains(t, out, "sales.xmi")

	doc, err := os.ReadFile(filepath.Join(exportDir, "sales.xmi"))
	require.NoError(t, err)
	require.Contains(t, string(doc), "SalesModel")

	messages, err := os.ReadFile(filepath.Join(exportDir, "messages_fr_FR.properties"))
	require.NoError(t, err)
	require.Equal(t, "name=Ventes\n", string(messages))
}

func Test_CLI_Rm_And_RmModel(t *testing.T) {
	t.Parallel()

	storeDir := t.TempDir()
	sample := writeSampleDomain(t)

	code, _, _ := runCLI(t, storeDir, "import", sample)
	require.Zero(t, code)

	code, _, errOut := runCLI(t, storeDir, "rm-model", "sales", "SalesModel")
	require.Zero(t, code, "stderr: %s", errOut)

	code, out, _ := runCLI(t, storeDir, "show", "sales")
	require.Zero(t, code)
	require.NotContains(t, out, "SalesModel")

	code, _, _ = runCLI(t, storeDir, "rm", "sales")
	require.Zero(t, code)

	code, out, _ = runCLI(t, storeDir, "ls")
	require.Zero(t, code)
	require.Empty(t, out)
}

func Test_CLI_When_Command_Unknown(t *testing.T) {
	t.Parallel()

	code, _, errOut := runCLI(t, t.TempDir(), "frobnicate")
	require.Equal(t, 1, code)
	require.Contains(t, errOut, "unknown command")
}

func Test_CLI_Without_Arguments_Prints_Usage(t *testing.T) {
	t.Parallel()

	var out, errOut bytes.Buffer

	code := cli.Run(strings.NewReader(""), &out, &errOut, []string{"domainrepo"}, map[string]string{})
	require.Zero(t, code)
	require.Contains(t, out.String(), "Usage: domainrepo")
}

func Test_CLI_Reload_Reports_Count(t *testing.T) {
	t.Parallel()

	storeDir := t.TempDir()
	sample := writeSampleDomain(t)

	code, _, _ := runCLI(t, storeDir, "import", sample)
	require.Zero(t, code)

	code, out, _ := runCLI(t, storeDir, "reload")
	require.Zero(t, code)
	require.Contains(t, out, "indexed 1 domain(s)")
}
