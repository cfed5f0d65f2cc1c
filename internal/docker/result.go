package docker

// RawProbeResult is the unparsed output of one host's probe: the
// container listing plus the port lookup text per container id. It is
// owned by the discovery task that produced it and never shared across
// hosts.
type RawProbeResult struct {
	Host string
	// PS is the tab separated `docker ps` listing
	PS string
	// Ports maps container id to `docker port` output. An id present
	// with empty text means the lookup failed; the container is still
	// reported, just without bindings.
	Ports map[string]string
}
