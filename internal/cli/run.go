// Package cli implements the domainrepo command line interface: a thin
// operational layer over the repository for inspecting, importing, and
// exporting domain documents in a file-backed store.
package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/modelfold/domainrepo/pkg/domainrepo"
	"github.com/modelfold/domainrepo/pkg/fs"
	"github.com/modelfold/domainrepo/pkg/store"
)

const helpFlag = "--help"

// Run is the main entry point. Returns the process exit code.
func Run(in io.Reader, out, errOut io.Writer, args []string, env map[string]string) int {
	o := NewIO(out, errOut)

	if len(args) < 2 {
		printUsage(o)

		return 0
	}

	flags, err := parseGlobalFlags(args[1:])
	if err != nil {
		o.ErrPrintln("error:", err)

		return 1
	}

	if len(flags.remaining) == 0 || flags.remaining[0] == "-h" || flags.remaining[0] == helpFlag {
		printUsage(o)

		return 0
	}

	cfg, err := LoadConfig(LoadConfigInput{
		WorkDirOverride:  flags.workDir,
		ConfigPath:       flags.configPath,
		StoreDirOverride: flags.storeDir,
		Env:              env,
	})
	if err != nil {
		o.ErrPrintln("error:", err)

		return 1
	}

	app, err := newApp(cfg, in)
	if err != nil {
		o.ErrPrintln("error:", err)

		return 1
	}

	defer app.close()

	name := flags.remaining[0]

	cmd, ok := app.commands()[name]
	if !ok {
		o.ErrPrintln("error: unknown command:", name)
		printUsage(o)

		return 1
	}

	return cmd.Run(context.Background(), o, flags.remaining[1:])
}

// app wires one Repository over the configured store for the duration
// of a command.
type app struct {
	cfg  Config
	repo *domainrepo.Repository
	in   io.Reader
	log  *zap.Logger
}

func newApp(cfg Config, in io.Reader) (*app, error) {
	log := zap.NewNop()

	if cfg.Verbose {
		zcfg := zap.NewDevelopmentConfig()
		zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)

		var err error

		log, err = zcfg.Build()
		if err != nil {
			return nil, fmt.Errorf("building logger: %w", err)
		}
	}

	backend, err := store.NewFileStore(store.FileStoreConfig{
		Root: cfg.StoreDirAbs,
		FS:   fs.NewReal(),
	})
	if err != nil {
		return nil, fmt.Errorf("opening store %s: %w", cfg.StoreDirAbs, err)
	}

	var guard store.Guard = store.AllowAll{}
	if cfg.Principal != "" {
		guard = store.NewMemoryGuard(cfg.Principal)
	}

	repo, err := domainrepo.New(domainrepo.Config{
		Backend: backend,
		Guard:   guard,
		Logger:  log,
	})
	if err != nil {
		return nil, err
	}

	return &app{cfg: cfg, repo: repo, in: in, log: log}, nil
}

func (a *app) close() {
	_ = a.log.Sync()
}

// commands returns the registry, keyed by command name.
func (a *app) commands() map[string]*Command {
	cmds := []*Command{
		a.cmdLs(),
		a.cmdShow(),
		a.cmdImport(),
		a.cmdExport(),
		a.cmdRm(),
		a.cmdRmModel(),
		a.cmdLocalize(),
		a.cmdReload(),
		a.cmdShell(),
		a.cmdPrintConfig(),
	}

	byName := make(map[string]*Command, len(cmds))
	for _, c := range cmds {
		byName[c.Name()] = c
	}

	return byName
}

type globalFlags struct {
	workDir    string
	configPath string
	storeDir   string
	remaining  []string
}

// parseGlobalFlags consumes leading global flags; the first non-flag
// argument is the command.
func parseGlobalFlags(args []string) (globalFlags, error) {
	var flags globalFlags

	idx := 0
	for idx < len(args) {
		consumed, err := parseFlag(args, idx, &flags)
		if err != nil {
			return globalFlags{}, err
		}

		if consumed == 0 {
			flags.remaining = args[idx:]

			break
		}

		idx += consumed
	}

	return flags, nil
}

func parseFlag(args []string, idx int, flags *globalFlags) (int, error) {
	arg := args[idx]

	if (arg == "-C" || arg == "--cwd") && idx+1 < len(args) {
		flags.workDir = args[idx+1]

		return 2, nil
	}

	if after, ok := strings.CutPrefix(arg, "--cwd="); ok {
		flags.workDir = after

		return 1, nil
	}

	if arg == "-c" || arg == "--config" {
		if idx+1 >= len(args) {
			return 0, fmt.Errorf("flag requires an argument: %s", arg)
		}

		flags.configPath = args[idx+1]

		return 2, nil
	}

	if after, ok := strings.CutPrefix(arg, "--config="); ok {
		flags.configPath = after

		return 1, nil
	}

	if arg == "--store-dir" {
		if idx+1 >= len(args) {
			return 0, fmt.Errorf("flag requires an argument: %s", arg)
		}

		flags.storeDir = args[idx+1]

		return 2, nil
	}

	if after, ok := strings.CutPrefix(arg, "--store-dir="); ok {
		flags.storeDir = after

		return 1, nil
	}

	if arg == "-h" || arg == helpFlag {
		flags.remaining = []string{helpFlag}

		return len(args) - idx, nil
	}

	if strings.HasPrefix(arg, "-") && arg != "-" {
		return 0, fmt.Errorf("unknown flag: %s", arg)
	}

	return 0, nil
}

func printUsage(o *IO) {
	o.Println(`domainrepo - metadata domain repository

Usage: domainrepo [options] <command> [args]

Options:
  -C, --cwd <dir>        Run as if started in <dir>
  -c, --config <file>    Use specified config file
      --store-dir <dir>  Override the backing store directory

Commands:
  ls [--category=X]              List domain ids
  show <domain-id>               Show a domain
  import <file>...               Import domain documents
  export <domain-id> [--dir=X]   Export a domain's files
  rm <domain-id>                 Remove a domain
  rm-model <domain-id> <model>   Remove a model from a domain
  localize <domain-id> <locale> <file>
                                 Attach a translation bundle
  reload                         Rebuild the index from the store
  shell                          Interactive shell
  print-config                   Show resolved configuration`)
}
