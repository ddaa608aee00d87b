package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tailscale/hujson"
)

// Config holds the CLI configuration.
type Config struct {
	// StoreDir is the directory holding the backing store.
	StoreDir string `json:"store_dir"`

	// Principal is the identity used for access checks. Empty means
	// unrestricted (no access filtering).
	Principal string `json:"principal,omitempty"`

	// Verbose enables debug logging.
	Verbose bool `json:"verbose,omitempty"`

	// StoreDirAbs is the resolved absolute store path. Computed, not
	// serialized.
	StoreDirAbs string `json:"-"`

	// Sources tracks which config files contributed. Diagnostics only.
	Sources ConfigSources `json:"-"`
}

// ConfigSources tracks which config files were loaded.
type ConfigSources struct {
	Global  string
	Project string
}

// ConfigFileName is the project-level config file name.
const ConfigFileName = ".domainrepo.json"

var (
	ErrConfigFileNotFound = errors.New("config file not found")
	ErrConfigFileRead     = errors.New("cannot read config file")
	ErrConfigInvalid      = errors.New("invalid config file")
	ErrStoreDirEmpty      = errors.New("store_dir must not be empty")
)

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		StoreDir: ".domainstore",
	}
}

// LoadConfigInput holds the inputs for LoadConfig.
type LoadConfigInput struct {
	WorkDirOverride  string            // -C/--cwd flag; empty means os.Getwd()
	ConfigPath       string            // -c/--config flag
	StoreDirOverride string            // --store-dir flag; empty means no override
	Env              map[string]string // environment variables
}

// LoadConfig loads configuration with the following precedence
// (highest wins):
//  1. Defaults
//  2. Global user config ($XDG_CONFIG_HOME/domainrepo/config.json or
//     ~/.config/domainrepo/config.json)
//  3. Project config (.domainrepo.json in the working directory)
//  4. Explicit config file via -c
//  5. CLI overrides
//
// Config files are JSONC: comments and trailing commas are allowed.
func LoadConfig(input LoadConfigInput) (Config, error) {
	workDir := input.WorkDirOverride
	if workDir == "" {
		var err error

		workDir, err = os.Getwd()
		if err != nil {
			return Config{}, fmt.Errorf("cannot get working directory: %w", err)
		}
	}

	cfg := DefaultConfig()

	globalCfg, globalPath, err := loadConfigFile(globalConfigPath(input.Env), false)
	if err != nil {
		return Config{}, err
	}

	cfg.Sources.Global = globalPath
	cfg = mergeConfig(cfg, globalCfg)

	projectCfg, projectPath, err := loadProjectConfig(workDir, input.ConfigPath)
	if err != nil {
		return Config{}, err
	}

	cfg.Sources.Project = projectPath
	cfg = mergeConfig(cfg, projectCfg)

	if input.StoreDirOverride != "" {
		cfg.StoreDir = input.StoreDirOverride
	}

	if cfg.StoreDir == "" {
		return Config{}, ErrStoreDirEmpty
	}

	if filepath.IsAbs(cfg.StoreDir) {
		cfg.StoreDirAbs = cfg.StoreDir
	} else {
		cfg.StoreDirAbs = filepath.Join(workDir, cfg.StoreDir)
	}

	return cfg, nil
}

// globalConfigPath resolves the global config location from the
// environment. Empty when neither XDG_CONFIG_HOME nor HOME is set.
func globalConfigPath(env map[string]string) string {
	if xdg := env["XDG_CONFIG_HOME"]; xdg != "" {
		return filepath.Join(xdg, "domainrepo", "config.json")
	}

	if home := env["HOME"]; home != "" {
		return filepath.Join(home, ".config", "domainrepo", "config.json")
	}

	return ""
}

func loadProjectConfig(workDir, configPath string) (Config, string, error) {
	if configPath == "" {
		return loadConfigFile(filepath.Join(workDir, ConfigFileName), false)
	}

	cfgFile := configPath
	if !filepath.IsAbs(cfgFile) {
		cfgFile = filepath.Join(workDir, cfgFile)
	}

	_, err := os.Stat(cfgFile)
	if err != nil {
		return Config{}, "", fmt.Errorf("%w: %s", ErrConfigFileNotFound, configPath)
	}

	return loadConfigFile(cfgFile, true)
}

// loadConfigFile loads one config file. A missing optional file
// returns a zero config and empty path.
func loadConfigFile(path string, mustExist bool) (Config, string, error) {
	if path == "" {
		return Config{}, "", nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if mustExist {
			return Config{}, "", fmt.Errorf("%w: %s", ErrConfigFileRead, path)
		}

		return Config{}, "", nil
	}

	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Config{}, "", fmt.Errorf("%w %s: invalid JSONC: %w", ErrConfigInvalid, path, err)
	}

	var cfg Config

	err = json.Unmarshal(standardized, &cfg)
	if err != nil {
		return Config{}, "", fmt.Errorf("%w %s: invalid JSON: %w", ErrConfigInvalid, path, err)
	}

	return cfg, path, nil
}

func mergeConfig(base, overlay Config) Config {
	if overlay.StoreDir != "" {
		base.StoreDir = overlay.StoreDir
	}

	if overlay.Principal != "" {
		base.Principal = overlay.Principal
	}

	if overlay.Verbose {
		base.Verbose = true
	}

	return base
}
