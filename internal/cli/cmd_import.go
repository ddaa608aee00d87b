package cli

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	flag "github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"
)

const importParallelism = 4

func (a *app) cmdImport() *Command {
	flags := flag.NewFlagSet("import", flag.ContinueOnError)
	overwrite := flags.BoolP("force", "f", false, "overwrite existing domains")
	idFlag := flags.String("id", "", "domain id (single file only; default: file name without extension)")

	return &Command{
		Flags: flags,
		Usage: "import [-f] <file>...",
		Short: "Import domain documents",
		Long: `Import one or more domain documents into the store.

Each file becomes one domain. The domain id defaults to the file name
without its extension; use --id to override it for a single file. Files
are imported in parallel; a failing file does not stop the others.`,
		Exec: func(ctx context.Context, o *IO, args []string) error {
			if len(args) == 0 {
				return errors.New("expected at least one file")
			}

			if *idFlag != "" && len(args) > 1 {
				return errors.New("--id only applies to a single file")
			}

			var (
				mu       sync.Mutex
				imported []string
			)

			g, ctx := errgroup.WithContext(ctx)
			g.SetLimit(importParallelism)

			for _, path := range args {
				g.Go(func() error {
					domainID := *idFlag
					if domainID == "" {
						base := filepath.Base(path)
						domainID = strings.TrimSuffix(base, filepath.Ext(base))
					}

					payload, err := os.ReadFile(path)
					if err != nil {
						o.Warn("reading %s: %v", path, err)

						return nil
					}

					err = a.repo.StoreDomainBytes(ctx, payload, domainID, *overwrite, nil)
					if err != nil {
						o.Warn("importing %s: %v", path, err)

						return nil
					}

					mu.Lock()
					imported = append(imported, domainID)
					mu.Unlock()

					return nil
				})
			}

			err := g.Wait()
			if err != nil {
				return err
			}

			slices.Sort(imported)

			for _, id := range imported {
				o.Println("imported", id)
			}

			return nil
		},
	}
}
