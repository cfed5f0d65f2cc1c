package discovery

import (
	"context"

	"github.com/vvv850/infra-mapper/internal/exception"
	"github.com/vvv850/infra-mapper/internal/topology"
)

//go:generate mockgen -destination=../mock/discovery/mock_discovery.go -package=mock_discovery . Service

// State tracks a single server's progress through its discovery task.
// Transitions never skip backward; any failure jumps straight to
// StateDone.
type State string

const (
	StatePending    State = "pending"
	StateConnecting State = "connecting"
	StateProbing    State = "probing"
	StateParsing    State = "parsing"
	StateDone       State = "done"
)

// ProgressUpdate is the payload carried by progress events. Err is set
// only on a done update for a failed server.
type ProgressUpdate struct {
	Host  string
	State State
	Err   *exception.DiscoveryError
}

// Service interface for running fleet discovery
type Service interface {
	Run(ctx context.Context) *topology.Fleet
}
