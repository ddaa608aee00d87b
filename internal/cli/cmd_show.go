package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	flag "github.com/spf13/pflag"
)

func (a *app) cmdShow() *Command {
	flags := flag.NewFlagSet("show", flag.ContinueOnError)
	raw := flags.Bool("raw", false, "print the raw document payload instead of a summary")

	return &Command{
		Flags: flags,
		Usage: "show [--raw] <domain-id>",
		Short: "Show a domain",
		Exec: func(ctx context.Context, o *IO, args []string) error {
			if len(args) != 1 {
				return errors.New("expected exactly one domain id")
			}

			domainID := args[0]

			if *raw {
				data, err := a.repo.ExportDomain(ctx, domainID)
				if err != nil {
					return err
				}

				if data == nil {
					return fmt.Errorf("domain not found: %s", domainID)
				}

				for name, content := range data.Files {
					if strings.HasSuffix(name, ".xmi") {
						o.Printf("%s", content)
					}
				}

				return nil
			}

			d, err := a.repo.GetDomain(ctx, domainID)
			if err != nil {
				return err
			}

			if d == nil {
				return fmt.Errorf("domain not found: %s", domainID)
			}

			o.Println("Domain:", d.ID)

			if d.Name != "" {
				o.Println("Name:  ", d.Name)
			}

			if d.Description != "" {
				o.Println("Desc:  ", d.Description)
			}

			if len(d.Locales) > 0 {
				o.Println("Locales:", strings.Join(d.Locales, ", "))
			}

			if len(d.Models) > 0 {
				o.Println("Models:")

				for _, m := range d.Models {
					line := "  " + m.ID
					if m.Name != "" {
						line += "  (" + m.Name + ")"
					}

					o.Println(line)
				}
			}

			return nil
		},
	}
}
