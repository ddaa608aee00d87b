package cli_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/modelfold/domainrepo/internal/cli"
)

func Test_LoadConfig_Defaults_When_No_Files(t *testing.T) {
	t.Parallel()

	workDir := t.TempDir()

	cfg, err := cli.LoadConfig(cli.LoadConfigInput{
		WorkDirOverride: workDir,
		Env:             map[string]string{},
	})
	require.NoError(t, err)
	require.Equal(t, ".domainstore", cfg.StoreDir)
	require.Equal(t, filepath.Join(workDir, ".domainstore"), cfg.StoreDirAbs)
	require.Empty(t, cfg.Sources.Global)
	require.Empty(t, cfg.Sources.Project)
}

func Test_LoadConfig_Project_File_Overrides_Global(t *testing.T) {
	t.Parallel()

	xdg := t.TempDir()
	workDir := t.TempDir()

	globalDir := filepath.Join(xdg, "domainrepo")
	require.NoError(t, os.MkdirAll(globalDir, 0o750))

	// JSONC: comments are allowed.
	global := `{
  // shared store
  "store_dir": "/srv/global-store",
  "principal": "suzy",
}`
	require.NoError(t, os.WriteFile(filepath.Join(globalDir, "config.json"), []byte(global), 0o600))

	project := `{"store_dir": "project-store"}`
	require.NoError(t, os.WriteFile(filepath.Join(workDir, cli.ConfigFileName), []byte(project), 0o600))

	cfg, err := cli.LoadConfig(cli.LoadConfigInput{
		WorkDirOverride: workDir,
		Env:             map[string]string{"XDG_CONFIG_HOME": xdg},
	})
	require.NoError(t, err)

	// Project wins for store_dir; global still contributes principal.
	require.Equal(t, "project-store", cfg.StoreDir)
	require.Equal(t, filepath.Join(workDir, "project-store"), cfg.StoreDirAbs)
	require.Equal(t, "suzy", cfg.Principal)
	require.NotEmpty(t, cfg.Sources.Global)
	require.NotEmpty(t, cfg.Sources.Project)
}

func Test_LoadConfig_CLI_Override_Wins(t *testing.T) {
	t.Parallel()

	workDir := t.TempDir()

	project := `{"store_dir": "project-store"}`
	require.NoError(t, os.WriteFile(filepath.Join(workDir, cli.ConfigFileName), []byte(project), 0o600))

	cfg, err := cli.LoadConfig(cli.LoadConfigInput{
		WorkDirOverride:  workDir,
		StoreDirOverride: "/tmp/flag-store",
		Env:              map[string]string{},
	})
	require.NoError(t, err)
	require.Equal(t, "/tmp/flag-store", cfg.StoreDir)
	require.Equal(t, "/tmp/flag-store", cfg.StoreDirAbs)
}

func Test_LoadConfig_When_Explicit_File_Missing(t *testing.T) {
	t.Parallel()

	_, err := cli.LoadConfig(cli.LoadConfigInput{
		WorkDirOverride: t.TempDir(),
		ConfigPath:      "does-not-exist.json",
		Env:             map[string]string{},
	})
	require.ErrorIs(t, err, cli.ErrConfigFileNotFound)
}

func Test_LoadConfig_When_Config_Malformed(t *testing.T) {
	t.Parallel()

	workDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(workDir, cli.ConfigFileName), []byte("{nope"), 0o600))

	_, err := cli.LoadConfig(cli.LoadConfigInput{
		WorkDirOverride: workDir,
		Env:             map[string]string{},
	})
	require.ErrorIs(t, err, cli.ErrConfigInvalid)
}
