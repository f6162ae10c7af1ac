package server

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FxBias/internal/domain/models"
	"FxBias/internal/scheduler"
	"FxBias/pkg/config"
	xhttp "FxBias/pkg/http"
	xlogger "FxBias/pkg/logger"
)

type noopLauncher struct{}

func (noopLauncher) Launch(context.Context, []string) (*models.LaunchResult, error) {
	return &models.LaunchResult{}, nil
}

func TestRunContextStopsOnCancel(t *testing.T) {
	cfg, err := config.Parse([]byte("environment: test\n"))
	require.NoError(t, err)
	cfg.Server.ShutdownTimeout = time.Second

	l := xlogger.NewNop()
	srv := xhttp.NewServer(nil, l, xhttp.WithHost("127.0.0.1"), xhttp.WithPort(0), xhttp.WithMetricsPath(""))
	sched := scheduler.New(noopLauncher{}, l)
	require.NoError(t, sched.Schedule("@daily", nil))

	app := New(cfg, l, srv, sched, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.RunContext(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("RunContext did not return after cancel")
	}
}
