package render_test

import (
	"os"
	"path"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vvv850/infra-mapper/internal/exception"
	"github.com/vvv850/infra-mapper/internal/render"
	"github.com/vvv850/infra-mapper/internal/topology"
)

func testFleet() *topology.Fleet {
	return &topology.Fleet{
		Servers: []topology.ServerResult{
			{
				Host: "web.example.com",
				Stacks: []topology.StackGroup{
					{
						Project: "shop",
						Containers: []topology.ContainerRecord{
							{
								ID:             "abc123",
								Name:           "shop-api-1",
								Image:          "nginx:latest",
								ComposeProject: "shop",
								ComposeService: "api",
								State:          "running",
								Ports: []topology.PortBinding{
									{
										HostAddr:      "0.0.0.0",
										HostPort:      8080,
										ContainerPort: 80,
										Protocol:      "tcp",
									},
									{
										HostAddr:      "127.0.0.1",
										HostPort:      9000,
										ContainerPort: 9000,
										Protocol:      "udp",
									},
									{
										HostAddr:      "0.0.0.0",
										HostPort:      443,
										ContainerPort: 8443,
										Protocol:      "tcp",
									},
								},
							},
						},
					},
				},
				Standalone: []topology.ContainerRecord{
					{ID: "def456", Name: "adhoc", Image: "redis:7", State: "exited"},
				},
				Warnings: 2,
			},
			{
				Host: "db.example.com",
				Err: exception.NewDiscoveryError(
					exception.ConnectionFailure,
					"db.example.com",
					"connection refused",
				),
			},
		},
	}
}

func TestMermaid(t *testing.T) {
	out := render.Mermaid(testFleet())

	t.Run("wraps the graph in a markdown fence", func(st *testing.T) {
		assert.Contains(st, out, "```mermaid")
		assert.Contains(st, out, "graph LR")
		assert.Contains(st, out, "classDef serverFailed")
	})

	t.Run("renders servers stacks and containers", func(st *testing.T) {
		assert.Contains(st, out, `"web.example.com (2 parse warnings)"`)
		assert.Contains(st, out, `"Stack: shop"`)
		assert.Contains(st, out, "shop-api-1<br/>nginx:latest")
		assert.Contains(st, out, "adhoc<br/>redis:7")
	})

	t.Run("labels port bindings", func(st *testing.T) {
		// wildcard host address is omitted from the label
		assert.Contains(st, out, `"8080 → 80/tcp"`)
		assert.Contains(st, out, `"127.0.0.1:9000 → 9000/udp"`)
	})

	t.Run("links port nodes to the published service", func(st *testing.T) {
		assert.Contains(st, out, `href "http://web.example.com:8080"`)
		assert.Contains(st, out, `href "https://web.example.com:443"`)
	})

	t.Run("styles failed servers with their error kind", func(st *testing.T) {
		assert.Contains(st, out, `"db.example.com (failed: connection-failure)"`)
		assert.Contains(st, out, "serverFailed")
	})

	t.Run("escapes label breaking characters", func(st *testing.T) {
		fleet := &topology.Fleet{
			Servers: []topology.ServerResult{
				{
					Host: "one",
					Standalone: []topology.ContainerRecord{
						{ID: "x", Name: `odd"name[1]`, Image: "busybox"},
					},
				},
			},
		}

		escaped := render.Mermaid(fleet)

		assert.NotContains(st, escaped, `odd"name[1]`)
		assert.Contains(st, escaped, "odd#quot;name(1)")
	})
}

func TestHTML(t *testing.T) {
	out, err := render.HTML(testFleet())

	assert.NoError(t, err)

	t.Run("renders successful servers", func(st *testing.T) {
		assert.Contains(st, out, `<h2 class="ok">web.example.com</h2>`)
		assert.Contains(st, out, `<h3 class="stack">Stack: shop</h3>`)
		assert.Contains(st, out, "<td>shop-api-1</td>")
		assert.Contains(st, out, "<td>nginx:latest</td>")
		assert.Contains(st, out, "2 line(s) of docker output could not be parsed")
	})

	t.Run("renders standalone containers", func(st *testing.T) {
		assert.Contains(st, out, `<h3 class="standalone">Standalone Containers</h3>`)
		assert.Contains(st, out, "<td>adhoc</td>")
	})

	t.Run("renders failed servers with the reason", func(st *testing.T) {
		assert.Contains(st, out, `<h2 class="failed">db.example.com (failed)</h2>`)
		assert.Contains(st, out, "connection-failure: connection refused")
	})
}

func TestWriteFiles(t *testing.T) {
	t.Run("rejects unknown formats", func(st *testing.T) {
		_, err := render.ParseFormat("svg")

		assert.Error(st, err)
	})

	t.Run("writes the requested files", func(st *testing.T) {
		dir := st.TempDir()

		written, err := render.WriteFiles(testFleet(), render.FormatBoth, dir)

		assert.NoError(st, err)
		assert.Equal(st, []string{
			path.Join(dir, "infrastructure.md"),
			path.Join(dir, "infrastructure.html"),
		}, written)

		raw, err := os.ReadFile(written[0])

		assert.NoError(st, err)
		assert.Contains(st, string(raw), "```mermaid")
	})

	t.Run("mermaid format writes a single file", func(st *testing.T) {
		dir := st.TempDir()

		written, err := render.WriteFiles(testFleet(), render.FormatMermaid, dir)

		assert.NoError(st, err)
		assert.Equal(st, 1, len(written))
	})
}
