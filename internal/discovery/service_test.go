package discovery_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"

	"github.com/vvv850/infra-mapper/internal/config"
	"github.com/vvv850/infra-mapper/internal/discovery"
	"github.com/vvv850/infra-mapper/internal/event"
	"github.com/vvv850/infra-mapper/internal/exception"
	mock_session "github.com/vvv850/infra-mapper/internal/mock/session"
	"github.com/vvv850/infra-mapper/internal/session"
)

func specsFor(hosts ...string) []config.ServerSpec {
	specs := make([]config.ServerSpec, len(hosts))

	for i, host := range hosts {
		specs[i] = config.ServerSpec{
			Host: host,
			User: "admin",
			Port: 22,
			Auth: config.AuthKey,
		}
	}

	return specs
}

// healthySession answers the probe sequence for a single-stack host
func healthySession(ctrl *gomock.Controller) *mock_session.MockSession {
	sess := mock_session.NewMockSession(ctrl)

	sess.EXPECT().
		Run(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, command string) (*session.Result, error) {
			switch {
			case strings.Contains(command, "docker version"):
				return &session.Result{Stdout: []byte("24.0.7\n")}, nil
			case strings.Contains(command, "docker ps"):
				listing := "abc123\tweb-api-1\tnginx:latest\trunning\tweb\tapi\n"
				return &session.Result{Stdout: []byte(listing)}, nil
			case strings.Contains(command, "docker port"):
				return &session.Result{Stdout: []byte("80/tcp -> 0.0.0.0:8080\n")}, nil
			}

			return &session.Result{}, nil
		}).
		AnyTimes()

	sess.EXPECT().Close().Return(nil).AnyTimes()

	return sess
}

func TestCoordinator(t *testing.T) {
	ctrl := gomock.NewController(t)

	defer ctrl.Finish()

	t.Run("discovers healthy servers", func(st *testing.T) {
		provider := mock_session.NewMockProvider(ctrl)

		provider.EXPECT().
			Connect(gomock.Any(), gomock.Any()).
			DoAndReturn(func(ctx context.Context, spec config.ServerSpec) (session.Session, error) {
				return healthySession(ctrl), nil
			}).
			Times(2)

		coordinator := discovery.NewCoordinator(discovery.Options{
			Specs:    specsFor("host1", "host2"),
			Provider: provider,
		})

		fleet := coordinator.Run(context.Background())

		assert.Equal(st, 2, len(fleet.Servers))
		assert.Equal(st, 0, fleet.FailedCount())
		assert.Equal(st, "web", fleet.Servers[0].Stacks[0].Project)
		assert.Equal(st, 8080, fleet.Servers[0].Stacks[0].Containers[0].Ports[0].HostPort)
	})

	t.Run("isolates a failed server from the rest", func(st *testing.T) {
		provider := mock_session.NewMockProvider(ctrl)

		provider.EXPECT().
			Connect(gomock.Any(), gomock.Any()).
			DoAndReturn(func(ctx context.Context, spec config.ServerSpec) (session.Session, error) {
				if spec.Host == "host2" {
					return nil, exception.NewDiscoveryError(
						exception.ConnectionFailure,
						spec.Host,
						"connection refused",
					)
				}

				return healthySession(ctrl), nil
			}).
			Times(3)

		coordinator := discovery.NewCoordinator(discovery.Options{
			Specs:    specsFor("host1", "host2", "host3"),
			Provider: provider,
		})

		fleet := coordinator.Run(context.Background())

		assert.Equal(st, 3, len(fleet.Servers))
		assert.Equal(st, 1, fleet.FailedCount())

		// configuration order survives regardless of completion order
		assert.Equal(st, "host1", fleet.Servers[0].Host)
		assert.Equal(st, "host2", fleet.Servers[1].Host)
		assert.Equal(st, "host3", fleet.Servers[2].Host)

		assert.False(st, fleet.Servers[0].Failed())
		assert.True(st, fleet.Servers[1].Failed())
		assert.Equal(st, exception.ConnectionFailure, fleet.Servers[1].Err.Kind)
		assert.False(st, fleet.Servers[2].Failed())
	})

	t.Run("cancellation marks every server cancelled", func(st *testing.T) {
		provider := mock_session.NewMockProvider(ctrl)

		provider.EXPECT().
			Connect(gomock.Any(), gomock.Any()).
			DoAndReturn(func(ctx context.Context, spec config.ServerSpec) (session.Session, error) {
				return nil, exception.NewDiscoveryError(
					exception.Cancelled,
					spec.Host,
					ctx.Err().Error(),
				)
			}).
			AnyTimes()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		coordinator := discovery.NewCoordinator(discovery.Options{
			Specs:    specsFor("host1", "host2", "host3"),
			Provider: provider,
		})

		fleet := coordinator.Run(ctx)

		assert.Equal(st, 3, len(fleet.Servers))

		for _, server := range fleet.Servers {
			assert.True(st, server.Failed())
			assert.Equal(st, exception.Cancelled, server.Err.Kind)
		}
	})

	t.Run("a hung server is reported as timeout, not cancelled", func(st *testing.T) {
		provider := mock_session.NewMockProvider(ctrl)

		sess := mock_session.NewMockSession(ctrl)

		// probe commands hang until the per-server deadline fires
		sess.EXPECT().
			Run(gomock.Any(), gomock.Any()).
			DoAndReturn(func(ctx context.Context, command string) (*session.Result, error) {
				<-ctx.Done()
				return nil, ctx.Err()
			}).
			AnyTimes()

		sess.EXPECT().Close().Return(nil).AnyTimes()

		provider.EXPECT().Connect(gomock.Any(), gomock.Any()).Return(sess, nil)

		coordinator := discovery.NewCoordinator(discovery.Options{
			Specs:         specsFor("host1"),
			Provider:      provider,
			ServerTimeout: time.Millisecond * 50,
		})

		fleet := coordinator.Run(context.Background())

		assert.True(st, fleet.Servers[0].Failed())
		assert.Equal(st, exception.Timeout, fleet.Servers[0].Err.Kind)
	})

	t.Run("docker unavailable becomes a failed result", func(st *testing.T) {
		provider := mock_session.NewMockProvider(ctrl)

		sess := mock_session.NewMockSession(ctrl)

		sess.EXPECT().
			Run(gomock.Any(), gomock.Any()).
			Return(&session.Result{
				Stderr:   []byte("docker: command not found"),
				ExitCode: 127,
			}, nil)

		sess.EXPECT().Close().Return(nil)

		provider.EXPECT().Connect(gomock.Any(), gomock.Any()).Return(sess, nil)

		coordinator := discovery.NewCoordinator(discovery.Options{
			Specs:    specsFor("host1"),
			Provider: provider,
		})

		fleet := coordinator.Run(context.Background())

		assert.True(st, fleet.Servers[0].Failed())
		assert.Equal(st, exception.DockerUnavailable, fleet.Servers[0].Err.Kind)
	})

	t.Run("emits started and done progress events", func(st *testing.T) {
		provider := mock_session.NewMockProvider(ctrl)

		provider.EXPECT().
			Connect(gomock.Any(), gomock.Any()).
			DoAndReturn(func(ctx context.Context, spec config.ServerSpec) (session.Session, error) {
				return healthySession(ctrl), nil
			}).
			Times(2)

		progress := make(chan *event.Event, 8)

		coordinator := discovery.NewCoordinator(discovery.Options{
			Specs:    specsFor("host1", "host2"),
			Provider: provider,
			Progress: progress,
		})

		coordinator.Run(context.Background())

		close(progress)

		started := 0
		done := 0

		for evt := range progress {
			update, ok := evt.Payload.(discovery.ProgressUpdate)

			assert.True(st, ok)
			assert.NotEmpty(st, update.Host)

			switch evt.Type {
			case event.ServerDiscoveryStarted:
				started++
			case event.ServerDiscoveryDone:
				done++
			}
		}

		assert.Equal(st, 2, started)
		assert.Equal(st, 2, done)
	})
}
