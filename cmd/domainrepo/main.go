// domainrepo is the command line interface to the metadata domain
// repository. Run "domainrepo --help" for usage.
package main

import (
	"os"
	"strings"

	"github.com/modelfold/domainrepo/internal/cli"
)

func main() {
	env := make(map[string]string)

	for _, kv := range os.Environ() {
		key, value, ok := strings.Cut(kv, "=")
		if ok {
			env[key] = value
		}
	}

	os.Exit(cli.Run(os.Stdin, os.Stdout, os.Stderr, os.Args, env))
}
