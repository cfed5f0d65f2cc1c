package session

import (
	"bytes"
	"context"
	"errors"
	"net"
	"strings"
	"time"

	"golang.org/x/crypto/ssh"

	"github.com/vvv850/infra-mapper/internal/config"
	"github.com/vvv850/infra-mapper/internal/exception"
	"github.com/vvv850/infra-mapper/internal/logger"
)

const defaultDialTimeout = time.Second * 10

// SSHProvider is our Provider implementation on top of golang.org/x/crypto/ssh
type SSHProvider struct {
	dialTimeout time.Duration
	log         logger.Logger
}

// NewSSHProvider returns a new SSHProvider with the default dial timeout
func NewSSHProvider() *SSHProvider {
	return &SSHProvider{
		dialTimeout: defaultDialTimeout,
		log:         logger.New(),
	}
}

// Connect establishes an ssh session to the server described by spec.
// Failures are returned as DiscoveryErrors classified into auth,
// connection, timeout or cancellation.
func (p *SSHProvider) Connect(ctx context.Context, spec config.ServerSpec) (Session, error) {
	methods, err := authMethods(spec)

	if err != nil {
		return nil, exception.NewDiscoveryError(
			exception.AuthFailure,
			spec.Host,
			err.Error(),
		)
	}

	clientConf := &ssh.ClientConfig{
		User: spec.User,
		Auth: methods,
		// Hosts come straight from the user's own config so we skip
		// known_hosts verification, same as the usual -o StrictHostKeyChecking=no
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         p.dialTimeout,
	}

	dialer := net.Dialer{Timeout: p.dialTimeout}

	conn, err := dialer.DialContext(ctx, "tcp", spec.Address())

	if err != nil {
		return nil, classifyDialError(ctx, spec.Host, err)
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(conn, spec.Address(), clientConf)

	if err != nil {
		conn.Close()

		if strings.Contains(err.Error(), "unable to authenticate") {
			return nil, exception.NewDiscoveryError(
				exception.AuthFailure,
				spec.Host,
				err.Error(),
			)
		}

		return nil, exception.NewDiscoveryError(
			exception.ConnectionFailure,
			spec.Host,
			err.Error(),
		)
	}

	p.log.Debug().Str("host", spec.Host).Msg("ssh session established")

	return &sshSession{
		host:   spec.Host,
		client: ssh.NewClient(sshConn, chans, reqs),
	}, nil
}

func classifyDialError(ctx context.Context, host string, err error) *exception.DiscoveryError {
	if errors.Is(ctx.Err(), context.Canceled) {
		return exception.NewDiscoveryError(exception.Cancelled, host, ctx.Err().Error())
	}

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return exception.NewDiscoveryError(exception.Timeout, host, err.Error())
	}

	var netErr net.Error

	if errors.As(err, &netErr) && netErr.Timeout() {
		return exception.NewDiscoveryError(exception.Timeout, host, err.Error())
	}

	return exception.NewDiscoveryError(exception.ConnectionFailure, host, err.Error())
}

// sshSession implements Session over a live ssh client connection. Each
// Run opens a fresh channel, so one failed command does not poison the
// connection for subsequent commands.
type sshSession struct {
	host   string
	client *ssh.Client
}

func (s *sshSession) Run(ctx context.Context, command string) (*Result, error) {
	sess, err := s.client.NewSession()

	if err != nil {
		return nil, err
	}

	defer sess.Close()

	var stdout bytes.Buffer
	var stderr bytes.Buffer

	sess.Stdout = &stdout
	sess.Stderr = &stderr

	done := make(chan error, 1)

	go func() {
		done <- sess.Run(command)
	}()

	select {
	case <-ctx.Done():
		// closing the channel unblocks the remote command; the session
		// is abandoned by the caller after a timeout anyway
		sess.Close()
		return nil, ctx.Err()
	case err = <-done:
	}

	result := &Result{
		Stdout: stdout.Bytes(),
		Stderr: stderr.Bytes(),
	}

	if err != nil {
		var exitErr *ssh.ExitError

		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitStatus()
			return result, nil
		}

		return nil, err
	}

	return result, nil
}

func (s *sshSession) Close() error {
	return s.client.Close()
}
