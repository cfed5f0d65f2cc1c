package topology

import "github.com/vvv850/infra-mapper/internal/exception"

// PortBinding maps a host side address and port to a container port
type PortBinding struct {
	HostAddr      string `json:"hostAddr"`
	HostPort      int    `json:"hostPort"`
	ContainerPort int    `json:"containerPort"`
	Protocol      string `json:"protocol"`
}

// ContainerRecord represents a single running container on a host.
// IDs are short hashes and only unique within that host.
type ContainerRecord struct {
	ID             string        `json:"id"`
	Name           string        `json:"name"`
	Image          string        `json:"image"`
	ComposeProject string        `json:"composeProject,omitempty"`
	ComposeService string        `json:"composeService,omitempty"`
	State          string        `json:"state"`
	Ports          []PortBinding `json:"ports"`
}

// Standalone reports whether the container carries no compose project label
func (c ContainerRecord) Standalone() bool {
	return c.ComposeProject == ""
}

// StackGroup is a set of containers sharing a compose project label
type StackGroup struct {
	Project    string            `json:"project"`
	Containers []ContainerRecord `json:"containers"`
}

// ServerResult is everything discovered on one configured server. A host
// that could not be probed at all carries only Err.
type ServerResult struct {
	Host       string                    `json:"host"`
	Stacks     []StackGroup              `json:"stacks"`
	Standalone []ContainerRecord         `json:"standalone"`
	Warnings   int                       `json:"warnings"`
	Err        *exception.DiscoveryError `json:"err,omitempty"`
}

// Failed reports whether discovery failed entirely for this server
func (r ServerResult) Failed() bool {
	return r.Err != nil
}

// ContainerCount returns the total number of containers across stacks and
// standalone entries
func (r ServerResult) ContainerCount() int {
	count := len(r.Standalone)

	for _, stack := range r.Stacks {
		count += len(stack.Containers)
	}

	return count
}

// Fleet is the complete discovery result for one run. Servers always
// appear in configuration order and the slice length always equals the
// number of configured servers.
type Fleet struct {
	Servers []ServerResult `json:"servers"`
}

// FailedCount returns the number of servers that could not be probed
func (f *Fleet) FailedCount() int {
	count := 0

	for _, result := range f.Servers {
		if result.Failed() {
			count++
		}
	}

	return count
}
