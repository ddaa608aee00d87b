package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/natefinch/atomic"
	flag "github.com/spf13/pflag"
)

const exportDirPerms = 0o750

func (a *app) cmdExport() *Command {
	flags := flag.NewFlagSet("export", flag.ContinueOnError)
	dir := flags.String("dir", ".", "directory to write the exported files into")

	return &Command{
		Flags: flags,
		Usage: "export <domain-id> [--dir=X]",
		Short: "Export a domain's files",
		Long: `Export a domain's raw files: the document as <id>.xmi plus one
messages_<locale>.properties file per translation bundle. Files are
written atomically; an interrupted export never leaves half-written
files behind.`,
		Exec: func(ctx context.Context, o *IO, args []string) error {
			if len(args) != 1 {
				return errors.New("expected exactly one domain id")
			}

			data, err := a.repo.ExportDomain(ctx, args[0])
			if err != nil {
				return err
			}

			if data == nil {
				return fmt.Errorf("domain not found: %s", args[0])
			}

			err = os.MkdirAll(*dir, exportDirPerms)
			if err != nil {
				return fmt.Errorf("creating export directory: %w", err)
			}

			names := make([]string, 0, len(data.Files))
			for name := range data.Files {
				names = append(names, name)
			}

			slices.Sort(names)

			for _, name := range names {
				dst := filepath.Join(*dir, name)

				err = atomic.WriteFile(dst, bytes.NewReader(data.Files[name]))
				if err != nil {
					return fmt.Errorf("writing %s: %w", dst, err)
				}

				o.Println("wrote", dst)
			}

			return nil
		},
	}
}
