package render

import (
	"fmt"
	"strings"

	"github.com/vvv850/infra-mapper/internal/topology"
)

// mermaidGen tracks node id allocation while walking a fleet
type mermaidGen struct {
	lines   []string
	counter int
}

// Mermaid renders the fleet as a left-to-right mermaid graph wrapped in
// a markdown fence. Failed servers are kept in the diagram with their
// own styling so a partially failed run still tells the whole story.
func Mermaid(fleet *topology.Fleet) string {
	g := &mermaidGen{lines: []string{"```mermaid", "graph LR"}}

	g.styles()

	for _, server := range fleet.Servers {
		g.server(server)
	}

	g.lines = append(g.lines, "```")

	return strings.Join(g.lines, "\n")
}

func (g *mermaidGen) styles() {
	g.lines = append(g.lines,
		"    classDef server fill:#b3d9ff,stroke:#01579b,stroke-width:3px,color:#000",
		"    classDef serverFailed fill:#ffcdd2,stroke:#c62828,stroke-width:2px,color:#000",
		"    classDef stack fill:#ffe0b2,stroke:#e65100,stroke-width:2px,color:#000",
		"    classDef container fill:#c8e6c9,stroke:#2e7d32,stroke-width:2px,color:#000",
		"    classDef standalone fill:#e1bee7,stroke:#6a1b9a,stroke-width:2px,color:#000",
		"    classDef port fill:#f8bbd0,stroke:#c2185b,stroke-width:1px,color:#000",
		"",
	)
}

func (g *mermaidGen) server(server topology.ServerResult) {
	serverID := g.nextID("srv")

	if server.Failed() {
		label := fmt.Sprintf("%s (failed: %s)", server.Host, server.Err.Kind)
		g.node(serverID, label, "serverFailed")
		return
	}

	label := server.Host

	if server.Warnings > 0 {
		label = fmt.Sprintf("%s (%d parse warnings)", server.Host, server.Warnings)
	}

	g.node(serverID, label, "server")

	for _, stack := range server.Stacks {
		stackID := g.nextID("stk")

		g.edge(serverID, stackID)
		g.node(stackID, "Stack: "+stack.Project, "stack")

		for _, container := range stack.Containers {
			g.container(server.Host, stackID, container, "container")
		}
	}

	for _, container := range server.Standalone {
		g.container(server.Host, serverID, container, "standalone")
	}
}

func (g *mermaidGen) container(host, parentID string, container topology.ContainerRecord, class string) {
	containerID := g.nextID("ctr")

	g.edge(parentID, containerID)
	g.node(containerID, fmt.Sprintf("%s<br/>%s", container.Name, container.Image), class)

	for _, port := range container.Ports {
		portID := g.nextID("prt")

		g.edge(containerID, portID)
		g.node(portID, portLabel(port), "port")
		g.lines = append(g.lines, fmt.Sprintf("    click %s href \"%s\"", portID, portURL(host, port)))
	}
}

func (g *mermaidGen) nextID(prefix string) string {
	id := fmt.Sprintf("%s%d", prefix, g.counter)
	g.counter++

	return id
}

func (g *mermaidGen) node(id, label, class string) {
	g.lines = append(g.lines,
		fmt.Sprintf("    %s[\"%s\"]", id, escapeLabel(label)),
		fmt.Sprintf("    class %s %s", id, class),
	)
}

func (g *mermaidGen) edge(from, to string) {
	g.lines = append(g.lines, fmt.Sprintf("    %s --> %s", from, to))
}

func portLabel(port topology.PortBinding) string {
	if port.HostAddr == "" || port.HostAddr == "0.0.0.0" {
		return fmt.Sprintf("%d → %d/%s", port.HostPort, port.ContainerPort, port.Protocol)
	}

	return fmt.Sprintf("%s:%d → %d/%s", port.HostAddr, port.HostPort, port.ContainerPort, port.Protocol)
}

// portURL links a published port to the service behind it, https for
// 443 and http for everything else
func portURL(host string, port topology.PortBinding) string {
	scheme := "http"

	if port.HostPort == 443 {
		scheme = "https"
	}

	return fmt.Sprintf("%s://%s:%d", scheme, host, port.HostPort)
}

// escapeLabel keeps user controlled names from breaking out of mermaid
// node syntax
func escapeLabel(label string) string {
	return strings.NewReplacer("\"", "#quot;", "[", "(", "]", ")").Replace(label)
}
