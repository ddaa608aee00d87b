package cli

import (
	"context"
	"fmt"

	flag "github.com/spf13/pflag"

	"github.com/modelfold/domainrepo/pkg/domain"
)

func (a *app) cmdLs() *Command {
	flags := flag.NewFlagSet("ls", flag.ContinueOnError)
	category := flags.String("category", "", "only list domains in this category (metadata, wizard-generated)")

	return &Command{
		Flags: flags,
		Usage: "ls [--category=X]",
		Short: "List domain ids",
		Long: `List the ids of all readable domains, sorted.

With --category, only domains classified under that category are
listed. Domains whose classification is still pending appear in no
category.`,
		Exec: func(ctx context.Context, o *IO, _ []string) error {
			var (
				ids []string
				err error
			)

			if *category != "" {
				cat := domain.Category(*category)
				if !cat.Valid() {
					return fmt.Errorf("unknown category: %s", *category)
				}

				ids, err = a.repo.DomainIDsByCategory(ctx, cat)
			} else {
				ids, err = a.repo.DomainIDs(ctx)
			}

			if err != nil {
				return err
			}

			for _, id := range ids {
				o.Println(id)
			}

			return nil
		},
	}
}
