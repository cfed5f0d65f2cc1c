package remote

import (
	"context"
	"errors"
	"time"

	"github.com/vvv850/infra-mapper/internal/exception"
	"github.com/vvv850/infra-mapper/internal/logger"
	"github.com/vvv850/infra-mapper/internal/session"
)

//go:generate mockgen -destination=../mock/remote/mock_remote.go -package=mock_remote . Runner

// OutcomeStatus tags the three ways a remote command can land
type OutcomeStatus string

const (
	// OutcomeSuccess command ran and exited zero
	OutcomeSuccess OutcomeStatus = "success"
	// OutcomeCommandFailed command ran but exited non-zero; the session
	// remains usable
	OutcomeCommandFailed OutcomeStatus = "command-failed"
	// OutcomeTransportFailed the command never completed: connection
	// dropped, timed out or was cancelled; the session is abandoned
	OutcomeTransportFailed OutcomeStatus = "transport-failed"
)

// Outcome is the classified result of one remote command
type Outcome struct {
	Status   OutcomeStatus
	Stdout   string
	Stderr   string
	ExitCode int
	Reason   *exception.DiscoveryError
}

// Runner executes single commands against one host
type Runner interface {
	Run(ctx context.Context, command string) Outcome
}

const defaultCommandTimeout = time.Second * 30

// Executor is our Runner implementation wrapping an established session
// with a per-command timeout. After any transport failure the session is
// considered dead for the rest of the run and further commands fail fast.
type Executor struct {
	host      string
	sess      session.Session
	timeout   time.Duration
	abandoned *exception.DiscoveryError
	log       logger.Logger
}

// NewExecutor returns an Executor for the given host session. A zero
// timeout selects the default.
func NewExecutor(host string, sess session.Session, timeout time.Duration) *Executor {
	if timeout <= 0 {
		timeout = defaultCommandTimeout
	}

	return &Executor{
		host:    host,
		sess:    sess,
		timeout: timeout,
		log:     logger.New(),
	}
}

// Run executes command on the remote host and classifies the result
func (e *Executor) Run(ctx context.Context, command string) Outcome {
	if e.abandoned != nil {
		return Outcome{Status: OutcomeTransportFailed, Reason: e.abandoned}
	}

	runCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	e.log.Debug().
		Str("host", e.host).
		Str("command", command).
		Msg("running remote command")

	result, err := e.sess.Run(runCtx, command)

	if err != nil {
		e.abandoned = e.classify(ctx, err)

		return Outcome{Status: OutcomeTransportFailed, Reason: e.abandoned}
	}

	outcome := Outcome{
		Status:   OutcomeSuccess,
		Stdout:   string(result.Stdout),
		Stderr:   string(result.Stderr),
		ExitCode: result.ExitCode,
	}

	if result.ExitCode != 0 {
		outcome.Status = OutcomeCommandFailed
	}

	return outcome
}

func (e *Executor) classify(ctx context.Context, err error) *exception.DiscoveryError {
	// an expired deadline on the caller's context is a timeout, not a
	// cancellation; only an explicit cancel counts as cancelled
	if errors.Is(ctx.Err(), context.Canceled) {
		return exception.NewDiscoveryError(exception.Cancelled, e.host, ctx.Err().Error())
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return exception.NewDiscoveryError(exception.Timeout, e.host, "command timed out")
	}

	return exception.NewDiscoveryError(exception.ConnectionFailure, e.host, err.Error())
}
