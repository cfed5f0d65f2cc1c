package docker

import (
	"net"
	"sort"
	"strconv"
	"strings"

	"github.com/docker/go-connections/nat"

	"github.com/vvv850/infra-mapper/internal/topology"
)

// ParsedHost is the parser's output for one host: containers grouped by
// compose project plus the standalone remainder and a count of lines
// that could not be interpreted.
type ParsedHost struct {
	Stacks     []topology.StackGroup
	Standalone []topology.ContainerRecord
	Warnings   int
}

// Parse turns a raw probe result into typed container records. It is a
// pure function and never fails: malformed lines are skipped and
// counted, a container with unparseable port output still yields a
// record with an empty port list, and stack grouping preserves
// first-seen project order.
func Parse(raw *RawProbeResult) ParsedHost {
	parsed := ParsedHost{
		Stacks:     []topology.StackGroup{},
		Standalone: []topology.ContainerRecord{},
	}

	stackIndex := map[string]int{}

	for _, line := range strings.Split(raw.PS, "\n") {
		line = strings.TrimSpace(line)

		if line == "" {
			continue
		}

		record, ok := parseContainerLine(line)

		if !ok {
			parsed.Warnings++
			continue
		}

		ports, warnings := parsePortText(raw.Ports[record.ID])
		record.Ports = ports
		parsed.Warnings += warnings

		if record.Standalone() {
			parsed.Standalone = append(parsed.Standalone, record)
			continue
		}

		idx, seen := stackIndex[record.ComposeProject]

		if !seen {
			idx = len(parsed.Stacks)
			stackIndex[record.ComposeProject] = idx
			parsed.Stacks = append(parsed.Stacks, topology.StackGroup{
				Project:    record.ComposeProject,
				Containers: []topology.ContainerRecord{},
			})
		}

		parsed.Stacks[idx].Containers = append(parsed.Stacks[idx].Containers, record)
	}

	return parsed
}

// parseContainerLine maps one tab separated ps line to a record
// skeleton. Label fields are optional; anything short of id, name,
// image and state is unusable.
func parseContainerLine(line string) (topology.ContainerRecord, bool) {
	fields := strings.Split(line, "\t")

	if len(fields) < 4 {
		return topology.ContainerRecord{}, false
	}

	record := topology.ContainerRecord{
		ID:    strings.TrimSpace(fields[0]),
		Name:  strings.TrimSpace(fields[1]),
		Image: strings.TrimSpace(fields[2]),
		State: strings.TrimSpace(fields[3]),
		Ports: []topology.PortBinding{},
	}

	if record.ID == "" || record.Name == "" {
		return topology.ContainerRecord{}, false
	}

	if len(fields) > 4 {
		record.ComposeProject = strings.TrimSpace(fields[4])
	}

	if len(fields) > 5 {
		record.ComposeService = strings.TrimSpace(fields[5])
	}

	return record, true
}

// parsePortText parses `docker port` output. Bindings may span multiple
// lines and a line may carry several comma separated bindings. Each
// binding looks like "80/tcp -> 0.0.0.0:8080"; the protocol defaults to
// tcp when unspecified. Output is sorted by (host port, protocol) so
// binding order is deterministic regardless of what docker emits.
func parsePortText(text string) ([]topology.PortBinding, int) {
	bindings := []topology.PortBinding{}
	warnings := 0

	for _, line := range strings.Split(text, "\n") {
		for _, segment := range strings.Split(line, ",") {
			segment = strings.TrimSpace(segment)

			if segment == "" {
				continue
			}

			binding, ok := parseBinding(segment)

			if !ok {
				warnings++
				continue
			}

			bindings = append(bindings, binding)
		}
	}

	sort.SliceStable(bindings, func(i, j int) bool {
		if bindings[i].HostPort != bindings[j].HostPort {
			return bindings[i].HostPort < bindings[j].HostPort
		}

		return bindings[i].Protocol < bindings[j].Protocol
	})

	return bindings, warnings
}

func parseBinding(segment string) (topology.PortBinding, bool) {
	sides := strings.SplitN(segment, "->", 2)

	if len(sides) != 2 {
		return topology.PortBinding{}, false
	}

	proto, portStr := nat.SplitProtoPort(strings.TrimSpace(sides[0]))

	containerPort, err := nat.NewPort(proto, portStr)

	if err != nil {
		return topology.PortBinding{}, false
	}

	hostAddr, hostPortStr, err := net.SplitHostPort(strings.TrimSpace(sides[1]))

	if err != nil {
		return topology.PortBinding{}, false
	}

	hostPort, err := strconv.Atoi(hostPortStr)

	if err != nil {
		return topology.PortBinding{}, false
	}

	return topology.PortBinding{
		HostAddr:      hostAddr,
		HostPort:      hostPort,
		ContainerPort: containerPort.Int(),
		Protocol:      containerPort.Proto(),
	}, true
}
