package render

import (
	"fmt"
	"os"
	"path"

	"github.com/vvv850/infra-mapper/internal/topology"
)

// Format selects which diagram files a run produces
type Format string

const (
	FormatMermaid Format = "mermaid"
	FormatHTML    Format = "html"
	FormatBoth    Format = "both"
)

const (
	mermaidFileName = "infrastructure.md"
	htmlFileName    = "infrastructure.html"
)

// ParseFormat validates a user supplied format selector
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatMermaid, FormatHTML, FormatBoth:
		return Format(s), nil
	}

	return "", fmt.Errorf("unknown output format %q (want mermaid, html or both)", s)
}

// WriteFiles renders the fleet into the requested diagram files under
// dir and returns the written paths
func WriteFiles(fleet *topology.Fleet, format Format, dir string) ([]string, error) {
	written := []string{}

	if format == FormatMermaid || format == FormatBoth {
		target := path.Join(dir, mermaidFileName)

		if err := os.WriteFile(target, []byte(Mermaid(fleet)+"\n"), 0644); err != nil {
			return written, err
		}

		written = append(written, target)
	}

	if format == FormatHTML || format == FormatBoth {
		page, err := HTML(fleet)

		if err != nil {
			return written, err
		}

		target := path.Join(dir, htmlFileName)

		if err := os.WriteFile(target, []byte(page), 0644); err != nil {
			return written, err
		}

		written = append(written, target)
	}

	return written, nil
}
