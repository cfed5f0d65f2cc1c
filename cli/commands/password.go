package commands

import (
	"fmt"
	"os"

	"golang.org/x/term"

	"github.com/vvv850/infra-mapper/internal/config"
)

// collectPasswords prompts for a password for every password-auth server
// that does not already carry one. Passwords live in memory for the run
// only and are never written to the config file.
func collectPasswords(specs []config.ServerSpec) error {
	for i := range specs {
		if specs[i].Auth != config.AuthPassword || specs[i].Password != "" {
			continue
		}

		fmt.Fprintf(os.Stderr, "Password for %s@%s: ", specs[i].User, specs[i].Host)

		raw, err := term.ReadPassword(int(os.Stdin.Fd()))

		fmt.Fprintln(os.Stderr)

		if err != nil {
			return fmt.Errorf("failed to read password for %s: %w", specs[i].Host, err)
		}

		specs[i].Password = string(raw)
	}

	return nil
}
