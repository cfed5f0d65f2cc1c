package discovery

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/vvv850/infra-mapper/internal/config"
	"github.com/vvv850/infra-mapper/internal/docker"
	"github.com/vvv850/infra-mapper/internal/event"
	"github.com/vvv850/infra-mapper/internal/exception"
	"github.com/vvv850/infra-mapper/internal/logger"
	"github.com/vvv850/infra-mapper/internal/remote"
	"github.com/vvv850/infra-mapper/internal/session"
	"github.com/vvv850/infra-mapper/internal/topology"
)

const (
	defaultMaxInFlight   = 8
	defaultServerTimeout = time.Minute * 2
)

// Options configures a Coordinator. Specs and Provider are required,
// everything else has sensible defaults. Progress is optional: when set
// it receives started/done events, delivered best-effort and unordered.
type Options struct {
	Specs          []config.ServerSpec
	Provider       session.Provider
	MaxInFlight    int
	CommandTimeout time.Duration
	ServerTimeout  time.Duration
	Progress       chan *event.Event
}

// Coordinator fans discovery out across all configured servers, one task
// per server bounded by a counting gate, and merges the isolated results
// into a Fleet in configuration order.
type Coordinator struct {
	specs          []config.ServerSpec
	provider       session.Provider
	semaphore      chan struct{}
	commandTimeout time.Duration
	serverTimeout  time.Duration
	progress       chan *event.Event
	log            logger.Logger
}

// NewCoordinator returns a Coordinator for the given options
func NewCoordinator(opts Options) *Coordinator {
	maxInFlight := opts.MaxInFlight

	if maxInFlight <= 0 {
		maxInFlight = defaultMaxInFlight
	}

	serverTimeout := opts.ServerTimeout

	if serverTimeout <= 0 {
		serverTimeout = defaultServerTimeout
	}

	return &Coordinator{
		specs:          opts.Specs,
		provider:       opts.Provider,
		semaphore:      make(chan struct{}, maxInFlight),
		commandTimeout: opts.CommandTimeout,
		serverTimeout:  serverTimeout,
		progress:       opts.Progress,
		log:            logger.New(),
	}
}

// Run discovers every configured server concurrently and always returns
// a complete Fleet: one entry per configured server, failed or cancelled
// hosts included, in configuration order regardless of completion order.
func (c *Coordinator) Run(ctx context.Context) *topology.Fleet {
	hosts := make([]string, len(c.specs))

	for i, spec := range c.specs {
		hosts[i] = spec.Host
	}

	c.log.Info().
		Int("servers", len(c.specs)).
		Msg("starting fleet discovery")

	results := make([]topology.ServerResult, len(c.specs))

	wg := &sync.WaitGroup{}

	for i, spec := range c.specs {
		wg.Add(1)

		go func(idx int, spec config.ServerSpec) {
			defer wg.Done()
			// each task writes only its own slot so no locking is needed
			results[idx] = c.discoverServer(ctx, spec)
		}(i, spec)
	}

	wg.Wait()

	builder := topology.NewBuilder(hosts)

	for i, result := range results {
		builder.Put(i, result)
	}

	return builder.Build()
}

// discoverServer walks one server through
// pending -> connecting -> probing -> parsing -> done
func (c *Coordinator) discoverServer(ctx context.Context, spec config.ServerSpec) topology.ServerResult {
	c.notify(event.ServerDiscoveryStarted, ProgressUpdate{
		Host:  spec.Host,
		State: StatePending,
	})

	// counting gate: acquired before connecting, released on completion
	select {
	case c.semaphore <- struct{}{}:
	case <-ctx.Done():
		return c.fail(spec.Host, exception.NewDiscoveryError(
			exception.Cancelled,
			spec.Host,
			ctx.Err().Error(),
		))
	}

	defer func() { <-c.semaphore }()

	serverCtx, cancel := context.WithTimeout(ctx, c.serverTimeout)
	defer cancel()

	c.log.Debug().Str("host", spec.Host).Str("state", string(StateConnecting)).Msg("discovery")

	sess, err := c.provider.Connect(serverCtx, spec)

	if err != nil {
		return c.fail(spec.Host, c.coerce(ctx, serverCtx, spec.Host, err))
	}

	defer sess.Close()

	c.log.Debug().Str("host", spec.Host).Str("state", string(StateProbing)).Msg("discovery")

	runner := remote.NewExecutor(spec.Host, sess, c.commandTimeout)
	prober := docker.NewProber(spec.Host, runner, spec.UseSudo())

	raw, discoveryErr := prober.Probe(serverCtx)

	if discoveryErr != nil {
		return c.fail(spec.Host, c.refine(ctx, serverCtx, discoveryErr))
	}

	c.log.Debug().Str("host", spec.Host).Str("state", string(StateParsing)).Msg("discovery")

	parsed := docker.Parse(raw)

	result := topology.ServerResult{
		Host:       spec.Host,
		Stacks:     parsed.Stacks,
		Standalone: parsed.Standalone,
		Warnings:   parsed.Warnings,
	}

	c.log.Info().
		Str("host", spec.Host).
		Int("stacks", len(result.Stacks)).
		Int("standalone", len(result.Standalone)).
		Int("warnings", result.Warnings).
		Msg("server discovery complete")

	c.notify(event.ServerDiscoveryDone, ProgressUpdate{
		Host:  spec.Host,
		State: StateDone,
	})

	return result
}

// coerce turns any connect error into a DiscoveryError, folding ambient
// cancellation and per-server deadline into their own kinds
func (c *Coordinator) coerce(ctx, serverCtx context.Context, host string, err error) *exception.DiscoveryError {
	var discoveryErr *exception.DiscoveryError

	if errors.As(err, &discoveryErr) {
		return c.refine(ctx, serverCtx, discoveryErr)
	}

	kind := exception.ConnectionFailure

	if ctx.Err() != nil {
		kind = exception.Cancelled
	} else if serverCtx.Err() != nil {
		kind = exception.Timeout
	}

	return exception.NewDiscoveryError(kind, host, err.Error())
}

// refine rewrites kinds that were classified against the per-server
// context: a run-level cancellation outranks a server timeout, and a
// failure that only the server deadline explains is a timeout even if
// it was first classified as cancelled or dropped
func (c *Coordinator) refine(ctx, serverCtx context.Context, discoveryErr *exception.DiscoveryError) *exception.DiscoveryError {
	if ctx.Err() != nil &&
		(discoveryErr.Kind == exception.Timeout || discoveryErr.Kind == exception.ConnectionFailure) {
		return exception.NewDiscoveryError(exception.Cancelled, discoveryErr.Host, discoveryErr.Reason)
	}

	if serverCtx.Err() != nil && ctx.Err() == nil &&
		(discoveryErr.Kind == exception.ConnectionFailure || discoveryErr.Kind == exception.Cancelled) {
		return exception.NewDiscoveryError(exception.Timeout, discoveryErr.Host, discoveryErr.Reason)
	}

	return discoveryErr
}

func (c *Coordinator) fail(host string, discoveryErr *exception.DiscoveryError) topology.ServerResult {
	c.log.Warn().
		Str("host", host).
		Str("kind", string(discoveryErr.Kind)).
		Str("reason", discoveryErr.Reason).
		Msg("server discovery failed")

	c.notify(event.ServerDiscoveryDone, ProgressUpdate{
		Host:  host,
		State: StateDone,
		Err:   discoveryErr,
	})

	return topology.ServerResult{Host: host, Err: discoveryErr}
}

// notify delivers progress best-effort; a slow or absent consumer never
// blocks discovery
func (c *Coordinator) notify(eventType event.EventType, update ProgressUpdate) {
	if c.progress == nil {
		return
	}

	select {
	case c.progress <- &event.Event{Type: eventType, Payload: update}:
	default:
	}
}
