package session

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"

	"github.com/vvv850/infra-mapper/internal/config"
)

// authMethods builds the ssh auth chain for a server spec. Key files are
// read eagerly so a missing identity fails before we ever dial.
func authMethods(spec config.ServerSpec) ([]ssh.AuthMethod, error) {
	switch spec.Auth {
	case config.AuthKey:
		method, err := keyAuth(spec.Identity)

		if err != nil {
			return nil, err
		}

		return []ssh.AuthMethod{method}, nil
	case config.AuthPassword:
		if spec.Password == "" {
			return nil, fmt.Errorf("no password provided for %s@%s", spec.User, spec.Host)
		}

		return []ssh.AuthMethod{ssh.Password(spec.Password)}, nil
	case config.AuthAgent:
		method, err := agentAuth()

		if err != nil {
			return nil, err
		}

		return []ssh.AuthMethod{method}, nil
	}

	return nil, fmt.Errorf("unknown auth method: %s", spec.Auth)
}

func keyAuth(identity string) (ssh.AuthMethod, error) {
	raw, err := os.ReadFile(expandHome(identity))

	if err != nil {
		return nil, err
	}

	signer, err := ssh.ParsePrivateKey(raw)

	if err != nil {
		return nil, err
	}

	return ssh.PublicKeys(signer), nil
}

func agentAuth() (ssh.AuthMethod, error) {
	sock := os.Getenv("SSH_AUTH_SOCK")

	if sock == "" {
		return nil, errors.New("SSH_AUTH_SOCK is not set")
	}

	conn, err := net.Dial("unix", sock)

	if err != nil {
		return nil, err
	}

	client := agent.NewClient(conn)

	return ssh.PublicKeysCallback(client.Signers), nil
}

func expandHome(p string) string {
	if !strings.HasPrefix(p, "~/") {
		return p
	}

	home, err := os.UserHomeDir()

	if err != nil {
		return p
	}

	return filepath.Join(home, p[2:])
}
