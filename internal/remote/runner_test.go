package remote_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"

	"github.com/vvv850/infra-mapper/internal/exception"
	mock_session "github.com/vvv850/infra-mapper/internal/mock/session"
	"github.com/vvv850/infra-mapper/internal/remote"
	"github.com/vvv850/infra-mapper/internal/session"
)

func TestExecutor(t *testing.T) {
	ctrl := gomock.NewController(t)

	defer ctrl.Finish()

	t.Run("returns success for zero exit", func(st *testing.T) {
		sess := mock_session.NewMockSession(ctrl)

		sess.EXPECT().Run(gomock.Any(), "docker ps").Return(&session.Result{
			Stdout:   []byte("listing"),
			ExitCode: 0,
		}, nil)

		executor := remote.NewExecutor("host1", sess, 0)

		outcome := executor.Run(context.Background(), "docker ps")

		assert.Equal(st, remote.OutcomeSuccess, outcome.Status)
		assert.Equal(st, "listing", outcome.Stdout)
		assert.Nil(st, outcome.Reason)
	})

	t.Run("keeps session usable after non-zero exit", func(st *testing.T) {
		sess := mock_session.NewMockSession(ctrl)

		sess.EXPECT().Run(gomock.Any(), "docker version").Return(&session.Result{
			Stderr:   []byte("permission denied"),
			ExitCode: 1,
		}, nil)

		sess.EXPECT().Run(gomock.Any(), "uptime").Return(&session.Result{
			Stdout:   []byte("up 4 days"),
			ExitCode: 0,
		}, nil)

		executor := remote.NewExecutor("host1", sess, 0)

		first := executor.Run(context.Background(), "docker version")

		assert.Equal(st, remote.OutcomeCommandFailed, first.Status)
		assert.Equal(st, 1, first.ExitCode)
		assert.Equal(st, "permission denied", first.Stderr)

		second := executor.Run(context.Background(), "uptime")

		assert.Equal(st, remote.OutcomeSuccess, second.Status)
	})

	t.Run("abandons session after transport failure", func(st *testing.T) {
		sess := mock_session.NewMockSession(ctrl)

		// only one call must reach the session
		sess.EXPECT().
			Run(gomock.Any(), "docker ps").
			Return(nil, errors.New("connection reset by peer"))

		executor := remote.NewExecutor("host1", sess, 0)

		first := executor.Run(context.Background(), "docker ps")

		assert.Equal(st, remote.OutcomeTransportFailed, first.Status)
		assert.Equal(st, exception.ConnectionFailure, first.Reason.Kind)

		second := executor.Run(context.Background(), "docker port abc")

		assert.Equal(st, remote.OutcomeTransportFailed, second.Status)
		assert.Equal(st, first.Reason, second.Reason)
	})

	t.Run("classifies command timeout", func(st *testing.T) {
		sess := mock_session.NewMockSession(ctrl)

		sess.EXPECT().
			Run(gomock.Any(), "docker ps").
			DoAndReturn(func(ctx context.Context, command string) (*session.Result, error) {
				<-ctx.Done()
				return nil, ctx.Err()
			})

		executor := remote.NewExecutor("host1", sess, time.Millisecond*10)

		outcome := executor.Run(context.Background(), "docker ps")

		assert.Equal(st, remote.OutcomeTransportFailed, outcome.Status)
		assert.Equal(st, exception.Timeout, outcome.Reason.Kind)
	})

	t.Run("classifies an expired caller deadline as timeout", func(st *testing.T) {
		sess := mock_session.NewMockSession(ctrl)

		sess.EXPECT().
			Run(gomock.Any(), "docker ps").
			DoAndReturn(func(ctx context.Context, command string) (*session.Result, error) {
				<-ctx.Done()
				return nil, ctx.Err()
			})

		ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond*10)
		defer cancel()

		executor := remote.NewExecutor("host1", sess, 0)

		outcome := executor.Run(ctx, "docker ps")

		assert.Equal(st, remote.OutcomeTransportFailed, outcome.Status)
		assert.Equal(st, exception.Timeout, outcome.Reason.Kind)
	})

	t.Run("classifies caller cancellation", func(st *testing.T) {
		sess := mock_session.NewMockSession(ctrl)

		ctx, cancel := context.WithCancel(context.Background())

		sess.EXPECT().
			Run(gomock.Any(), "docker ps").
			DoAndReturn(func(runCtx context.Context, command string) (*session.Result, error) {
				cancel()
				<-runCtx.Done()
				return nil, runCtx.Err()
			})

		executor := remote.NewExecutor("host1", sess, 0)

		outcome := executor.Run(ctx, "docker ps")

		assert.Equal(st, remote.OutcomeTransportFailed, outcome.Status)
		assert.Equal(st, exception.Cancelled, outcome.Reason.Kind)
	})
}
