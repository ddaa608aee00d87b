package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	flag "github.com/spf13/pflag"

	"github.com/modelfold/domainrepo/pkg/domain"
)

func (a *app) cmdShell() *Command {
	return &Command{
		Flags: flag.NewFlagSet("shell", flag.ContinueOnError),
		Usage: "shell",
		Short: "Interactive shell",
		Long:  `Open an interactive shell against the configured store.`,
		Exec: func(ctx context.Context, o *IO, _ []string) error {
			sh := &shell{app: a, out: o}

			return sh.run(ctx)
		},
	}
}

// shell is the interactive command loop.
type shell struct {
	app   *app
	out   *IO
	liner *liner.State
}

func shellHistoryFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	return filepath.Join(home, ".domainrepo_history")
}

func (s *shell) run(ctx context.Context) error {
	s.liner = liner.NewLiner()
	defer s.liner.Close()

	s.liner.SetCtrlCAborts(true)
	s.liner.SetCompleter(s.complete)

	if f, err := os.Open(shellHistoryFile()); err == nil {
		_, _ = s.liner.ReadHistory(f)
		_ = f.Close()
	}

	s.out.Printf("domainrepo shell (store: %s)\n", s.app.cfg.StoreDirAbs)
	s.out.Println("Type 'help' for available commands.")
	s.out.Println()

	for {
		line, err := s.liner.Prompt("domainrepo> ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				s.out.Println("\nBye!")

				break
			}

			return fmt.Errorf("reading input: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		s.liner.AppendHistory(line)

		parts := strings.Fields(line)
		cmd := strings.ToLower(parts[0])
		args := parts[1:]

		switch cmd {
		case "exit", "quit", "q":
			s.out.Println("Bye!")
			s.saveHistory()

			return nil

		case "help", "?":
			s.printHelp()

		case "ls", "list":
			s.cmdLs(ctx, args)

		case "show":
			s.cmdShow(ctx, args)

		case "rm", "del":
			s.cmdRm(ctx, args)

		case "rm-model":
			s.cmdRmModel(ctx, args)

		case "locales":
			s.cmdLocales(ctx, args)

		case "reload":
			s.cmdReload(ctx)

		case "flush":
			s.app.repo.Flush()
			s.out.Println("OK: index invalidated")

		default:
			s.out.Printf("Unknown command: %s (type 'help' for commands)\n", cmd)
		}
	}

	s.saveHistory()

	return nil
}

func (s *shell) saveHistory() {
	path := shellHistoryFile()
	if path == "" {
		return
	}

	if f, err := os.Create(path); err == nil {
		_, _ = s.liner.WriteHistory(f)
		_ = f.Close()
	}
}

func (s *shell) complete(line string) []string {
	commands := []string{
		"ls", "list", "show", "rm", "del", "rm-model",
		"locales", "reload", "flush",
		"help", "exit", "quit", "q",
	}

	var completions []string

	lower := strings.ToLower(line)
	for _, cmd := range commands {
		if strings.HasPrefix(cmd, lower) {
			completions = append(completions, cmd)
		}
	}

	return completions
}

func (s *shell) printHelp() {
	s.out.Println("Commands:")
	s.out.Println("  ls [category]            List domain ids")
	s.out.Println("  show <domain-id>         Show a domain summary")
	s.out.Println("  rm <domain-id>           Remove a domain")
	s.out.Println("  rm-model <id> <model>    Remove a model from a domain")
	s.out.Println("  locales <domain-id>      List a domain's locales")
	s.out.Println("  reload                   Rebuild the index from the store")
	s.out.Println("  flush                    Invalidate the index")
	s.out.Println("  help                     Show this help")
	s.out.Println("  exit / quit / q          Exit")
}

func (s *shell) cmdLs(ctx context.Context, args []string) {
	var (
		ids []string
		err error
	)

	if len(args) > 0 {
		cat := domain.Category(args[0])
		if !cat.Valid() {
			s.out.Printf("Unknown category: %s\n", args[0])

			return
		}

		ids, err = s.app.repo.DomainIDsByCategory(ctx, cat)
	} else {
		ids, err = s.app.repo.DomainIDs(ctx)
	}

	if err != nil {
		s.out.Printf("Error: %v\n", err)

		return
	}

	if len(ids) == 0 {
		s.out.Println("(empty)")

		return
	}

	for i, id := range ids {
		s.out.Printf("%3d. %s\n", i+1, id)
	}
}

func (s *shell) cmdShow(ctx context.Context, args []string) {
	if len(args) < 1 {
		s.out.Println("Usage: show <domain-id>")

		return
	}

	d, err := s.app.repo.GetDomain(ctx, args[0])
	if err != nil {
		s.out.Printf("Error: %v\n", err)

		return
	}

	if d == nil {
		s.out.Println("(not found)")

		return
	}

	s.out.Printf("Domain:  %s\n", d.ID)

	if d.Name != "" {
		s.out.Printf("Name:    %s\n", d.Name)
	}

	s.out.Printf("Models:  %d\n", len(d.Models))

	for _, m := range d.Models {
		s.out.Printf("  %s", m.ID)

		if m.Name != "" {
			s.out.Printf("  (%s)", m.Name)
		}

		s.out.Println()
	}

	if len(d.Locales) > 0 {
		s.out.Printf("Locales: %s\n", strings.Join(d.Locales, ", "))
	}
}

func (s *shell) cmdRm(ctx context.Context, args []string) {
	if len(args) < 1 {
		s.out.Println("Usage: rm <domain-id>")

		return
	}

	err := s.app.repo.RemoveDomain(ctx, args[0])
	if err != nil {
		s.out.Printf("Error: %v\n", err)

		return
	}

	s.out.Printf("OK: removed %s\n", args[0])
}

func (s *shell) cmdRmModel(ctx context.Context, args []string) {
	if len(args) < 2 {
		s.out.Println("Usage: rm-model <domain-id> <model-id>")

		return
	}

	err := s.app.repo.RemoveModel(ctx, args[0], args[1])
	if err != nil {
		s.out.Printf("Error: %v\n", err)

		return
	}

	s.out.Printf("OK: removed model %s from %s\n", args[1], args[0])
}

func (s *shell) cmdLocales(ctx context.Context, args []string) {
	if len(args) < 1 {
		s.out.Println("Usage: locales <domain-id>")

		return
	}

	d, err := s.app.repo.GetDomain(ctx, args[0])
	if err != nil {
		s.out.Printf("Error: %v\n", err)

		return
	}

	if d == nil {
		s.out.Println("(not found)")

		return
	}

	if len(d.Locales) == 0 {
		s.out.Println("(no locales)")

		return
	}

	for _, locale := range d.Locales {
		s.out.Println(locale)
	}
}

func (s *shell) cmdReload(ctx context.Context) {
	err := s.app.repo.Reload(ctx)
	if err != nil {
		s.out.Printf("Error: %v\n", err)

		return
	}

	ids, err := s.app.repo.DomainIDs(ctx)
	if err != nil {
		s.out.Printf("Error: %v\n", err)

		return
	}

	s.out.Printf("OK: indexed %d domain(s)\n", len(ids))
}
