package exception

import "errors"

// ErrRecordNotFound custom database error for failure to find record
var ErrRecordNotFound = errors.New("record not found")

// ErrorKind classifies the ways discovery can fail for a single host
type ErrorKind string

const (
	AuthFailure       ErrorKind = "auth-failure"
	ConnectionFailure ErrorKind = "connection-failure"
	Timeout           ErrorKind = "timeout"
	DockerUnavailable ErrorKind = "docker-unavailable"
	Cancelled         ErrorKind = "cancelled"
)

// DiscoveryError records why a single host could not be probed. It only
// ever affects that host's entry in the fleet.
type DiscoveryError struct {
	Kind   ErrorKind `json:"kind"`
	Host   string    `json:"host"`
	Reason string    `json:"reason"`
}

func (e *DiscoveryError) Error() string {
	if e.Reason == "" {
		return string(e.Kind) + ": " + e.Host
	}

	return string(e.Kind) + ": " + e.Host + ": " + e.Reason
}

// NewDiscoveryError returns a DiscoveryError for the given kind and host
func NewDiscoveryError(kind ErrorKind, host, reason string) *DiscoveryError {
	return &DiscoveryError{Kind: kind, Host: host, Reason: reason}
}
