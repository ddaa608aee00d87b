package cli

import (
	"context"
	"errors"

	flag "github.com/spf13/pflag"
)

func (a *app) cmdRm() *Command {
	return &Command{
		Flags: flag.NewFlagSet("rm", flag.ContinueOnError),
		Usage: "rm <domain-id>",
		Short: "Remove a domain",
		Long: `Remove a domain, its translation bundles, and its access control
entry. Removing an unknown id is a no-op.`,
		Exec: func(ctx context.Context, o *IO, args []string) error {
			if len(args) != 1 {
				return errors.New("expected exactly one domain id")
			}

			return a.repo.RemoveDomain(ctx, args[0])
		},
	}
}

func (a *app) cmdRmModel() *Command {
	return &Command{
		Flags: flag.NewFlagSet("rm-model", flag.ContinueOnError),
		Usage: "rm-model <domain-id> <model-id>",
		Short: "Remove a model from a domain",
		Exec: func(ctx context.Context, o *IO, args []string) error {
			if len(args) != 2 {
				return errors.New("expected a domain id and a model id")
			}

			return a.repo.RemoveModel(ctx, args[0], args[1])
		},
	}
}
