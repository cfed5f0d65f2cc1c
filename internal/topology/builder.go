package topology

import (
	"sort"

	"github.com/vvv850/infra-mapper/internal/exception"
)

// Builder assembles a Fleet from per-server results. Each result is
// placed at the index matching the host's position in the configured
// server list, which keeps the final output in configuration order no
// matter which discovery task finishes first.
type Builder struct {
	hosts   []string
	results []*ServerResult
}

// NewBuilder returns a Builder sized for the given hosts in
// configuration order
func NewBuilder(hosts []string) *Builder {
	return &Builder{
		hosts:   hosts,
		results: make([]*ServerResult, len(hosts)),
	}
}

// Put places a server result at the given configuration index.
// Out-of-range indexes are ignored.
func (b *Builder) Put(index int, result ServerResult) {
	if index < 0 || index >= len(b.results) {
		return
	}

	b.results[index] = &result
}

// Build returns the completed Fleet. Every configured host yields an
// entry: slots never filled become cancelled results so the fleet length
// always equals the configured server count. Stacks and containers are
// normalized into a deterministic order.
func (b *Builder) Build() *Fleet {
	servers := make([]ServerResult, len(b.hosts))

	for i, host := range b.hosts {
		if b.results[i] == nil {
			servers[i] = ServerResult{
				Host: host,
				Err:  exception.NewDiscoveryError(exception.Cancelled, host, "discovery never completed"),
			}
			continue
		}

		servers[i] = normalize(*b.results[i])
	}

	return &Fleet{Servers: servers}
}

// normalize fixes the ordering of stacks and containers within a server
// result: stacks by project name, containers by name then id. Port order
// is already fixed at parse time.
func normalize(result ServerResult) ServerResult {
	sort.SliceStable(result.Stacks, func(i, j int) bool {
		return result.Stacks[i].Project < result.Stacks[j].Project
	})

	for s := range result.Stacks {
		sortContainers(result.Stacks[s].Containers)
	}

	sortContainers(result.Standalone)

	return result
}

func sortContainers(containers []ContainerRecord) {
	sort.SliceStable(containers, func(i, j int) bool {
		if containers[i].Name != containers[j].Name {
			return containers[i].Name < containers[j].Name
		}

		return containers[i].ID < containers[j].ID
	})
}
