package session

import (
	"context"

	"github.com/vvv850/infra-mapper/internal/config"
)

//go:generate mockgen -destination=../mock/session/mock_session.go -package=mock_session . Session,Provider

// Result holds the raw output of a single remote command. A non-zero
// ExitCode with a nil error means the command ran and failed; transport
// problems surface as errors instead.
type Result struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// Session represents an established remote execution channel to one host
type Session interface {
	Run(ctx context.Context, command string) (*Result, error)
	Close() error
}

// Provider establishes sessions for server specs
type Provider interface {
	Connect(ctx context.Context, spec config.ServerSpec) (Session, error)
}
