package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	flag "github.com/spf13/pflag"
)

func (a *app) cmdLocalize() *Command {
	flags := flag.NewFlagSet("localize", flag.ContinueOnError)
	overwrite := flags.BoolP("force", "f", false, "overwrite an existing bundle for this locale")

	return &Command{
		Flags: flags,
		Usage: "localize [-f] <domain-id> <locale> <file>",
		Short: "Attach a translation bundle",
		Long: `Attach a properties-format translation bundle to a domain under a
locale code (for example fr_FR). Attaching a locale that already has a
bundle fails unless --force is given.`,
		Exec: func(ctx context.Context, o *IO, args []string) error {
			if len(args) != 3 {
				return errors.New("expected a domain id, a locale, and a file")
			}

			content, err := os.ReadFile(args[2])
			if err != nil {
				return fmt.Errorf("reading %s: %w", args[2], err)
			}

			return a.repo.AddLocalizationFile(ctx, args[0], args[1], content, *overwrite)
		},
	}
}
