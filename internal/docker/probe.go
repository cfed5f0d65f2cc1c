package docker

import (
	"context"
	"strings"

	"github.com/vvv850/infra-mapper/internal/exception"
	"github.com/vvv850/infra-mapper/internal/logger"
	"github.com/vvv850/infra-mapper/internal/remote"
)

const (
	versionCommand = `docker version --format '{{.Server.Version}}'`
	psCommand      = `docker ps --format '{{.ID}}\t{{.Names}}\t{{.Image}}\t{{.State}}\t{{.Label "com.docker.compose.project"}}\t{{.Label "com.docker.compose.service"}}'`
	portCommand    = `docker port `
)

// Prober runs the fixed docker introspection sequence against one host:
// a daemon reachability gate, the container listing, then a port lookup
// per container.
type Prober struct {
	host   string
	runner remote.Runner
	sudo   bool
	log    logger.Logger
}

// NewProber returns a Prober for the given host. When sudo is set every
// docker invocation is prefixed with sudo.
func NewProber(host string, runner remote.Runner, sudo bool) *Prober {
	return &Prober{
		host:   host,
		runner: runner,
		sudo:   sudo,
		log:    logger.New(),
	}
}

// Probe runs the introspection sequence and returns the raw output. A
// failed daemon gate short-circuits without attempting the listing, so
// hosts without docker cost a single round-trip. Individual port lookup
// failures are recorded as empty output rather than aborting the probe.
func (p *Prober) Probe(ctx context.Context) (*RawProbeResult, *exception.DiscoveryError) {
	outcome := p.runner.Run(ctx, p.command(versionCommand))

	switch outcome.Status {
	case remote.OutcomeTransportFailed:
		return nil, outcome.Reason
	case remote.OutcomeCommandFailed:
		return nil, p.unavailable(outcome)
	}

	p.log.Debug().
		Str("host", p.host).
		Str("version", strings.TrimSpace(outcome.Stdout)).
		Msg("docker daemon reachable")

	outcome = p.runner.Run(ctx, p.command(psCommand))

	switch outcome.Status {
	case remote.OutcomeTransportFailed:
		return nil, outcome.Reason
	case remote.OutcomeCommandFailed:
		return nil, p.unavailable(outcome)
	}

	raw := &RawProbeResult{
		Host:  p.host,
		PS:    outcome.Stdout,
		Ports: map[string]string{},
	}

	for _, id := range listedIDs(outcome.Stdout) {
		portOutcome := p.runner.Run(ctx, p.command(portCommand+id))

		if portOutcome.Status == remote.OutcomeTransportFailed &&
			portOutcome.Reason.Kind == exception.Cancelled {
			return nil, portOutcome.Reason
		}

		if portOutcome.Status != remote.OutcomeSuccess {
			p.log.Warn().
				Str("host", p.host).
				Str("container", id).
				Msg("port lookup failed, keeping container without bindings")

			raw.Ports[id] = ""
			continue
		}

		raw.Ports[id] = portOutcome.Stdout
	}

	return raw, nil
}

func (p *Prober) command(cmd string) string {
	if p.sudo {
		return "sudo " + cmd
	}

	return cmd
}

func (p *Prober) unavailable(outcome remote.Outcome) *exception.DiscoveryError {
	reason := "docker not found or not running"

	if strings.Contains(strings.ToLower(outcome.Stderr), "permission denied") {
		reason = "docker requires elevated permissions"
	}

	if detail := strings.TrimSpace(outcome.Stderr); detail != "" {
		reason = reason + ": " + detail
	}

	return exception.NewDiscoveryError(exception.DockerUnavailable, p.host, reason)
}

// listedIDs pulls container ids out of the ps listing. Lines that do not
// even yield an id are left for the parser to count as warnings.
func listedIDs(ps string) []string {
	ids := []string{}

	for _, line := range strings.Split(ps, "\n") {
		line = strings.TrimSpace(line)

		if line == "" {
			continue
		}

		id := strings.SplitN(line, "\t", 2)[0]

		if id != "" {
			ids = append(ids, id)
		}
	}

	return ids
}
