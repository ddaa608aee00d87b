package cli

import (
	"context"

	flag "github.com/spf13/pflag"
)

func (a *app) cmdReload() *Command {
	return &Command{
		Flags: flag.NewFlagSet("reload", flag.ContinueOnError),
		Usage: "reload",
		Short: "Rebuild the index from the store",
		Long: `Rescan the backing store and rebuild the in-memory index. Also
back-fills the category classification on legacy domains that predate
it.`,
		Exec: func(ctx context.Context, o *IO, _ []string) error {
			err := a.repo.Reload(ctx)
			if err != nil {
				return err
			}

			ids, err := a.repo.DomainIDs(ctx)
			if err != nil {
				return err
			}

			o.Printf("indexed %d domain(s)\n", len(ids))

			return nil
		},
	}
}
