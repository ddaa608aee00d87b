package cli

import (
	"context"
	"encoding/json"

	flag "github.com/spf13/pflag"
)

func (a *app) cmdPrintConfig() *Command {
	return &Command{
		Flags: flag.NewFlagSet("print-config", flag.ContinueOnError),
		Usage: "print-config",
		Short: "Show resolved configuration",
		Exec: func(_ context.Context, o *IO, _ []string) error {
			formatted, err := json.MarshalIndent(a.cfg, "", "  ")
			if err != nil {
				return err
			}

			o.Println(string(formatted))
			o.Println()
			o.Println("# Sources:")

			if a.cfg.Sources.Global != "" {
				o.Println("#   global:", a.cfg.Sources.Global)
			}

			if a.cfg.Sources.Project != "" {
				o.Println("#   project:", a.cfg.Sources.Project)
			}

			if a.cfg.Sources.Global == "" && a.cfg.Sources.Project == "" {
				o.Println("#   (using defaults only)")
			}

			o.Println("#   store:", a.cfg.StoreDirAbs)

			return nil
		},
	}
}
