package devserver_test

import (
	"context"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adminui/sysdash/internal/client"
	"github.com/adminui/sysdash/internal/config"
	"github.com/adminui/sysdash/internal/devserver"
	"github.com/adminui/sysdash/internal/processes"
	"github.com/adminui/sysdash/internal/session"
)

func startBackend(t *testing.T) *httptest.Server {
	t.Helper()
	cfg := config.DevServerConfig{
		Users: []config.DemoUser{{
			Email: "ops@example.com", Password: "secret", Username: "ops", Role: "Admin",
			Permissions: []string{
				devserver.PermReadStatus, devserver.PermReadLogs,
				devserver.PermReadProcesses, devserver.PermRestartService,
			},
		}},
		AllowedServices: []string{"nginx"},
		LogServices:     []string{"nginx"},
	}
	src := &devserver.StaticSource{Procs: []devserver.Process{
		{ProcessRecord: client.ProcessRecord{PID: 10, Name: "nginx", User: "www-data", CPUPercent: 70, State: "R"}},
		{ProcessRecord: client.ProcessRecord{PID: 11, Name: "nginx", User: "www-data", CPUPercent: 52, State: "S"}},
		{ProcessRecord: client.ProcessRecord{PID: 12, Name: "bash", User: "root", CPUPercent: 3, State: "S"}},
	}}

	ts := httptest.NewServer(devserver.New(cfg, src).Handler())
	t.Cleanup(ts.Close)
	return ts
}

func TestClientAgainstStubBackend(t *testing.T) {
	ts := startBackend(t)
	ctx := context.Background()

	var expired atomic.Int32
	store := session.New(&session.Memory{}, nil)
	api := client.New(ts.URL, store,
		client.WithTimeout(5*time.Second),
		client.WithUnauthorizedHandler(func() { expired.Add(1) }),
	)

	resp, err := api.Login(ctx, "ops@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, "ops", resp.Username)
	assert.True(t, store.IsAuthenticated())

	ctrl := processes.New(api, processes.WithFilters(processes.NewFilterState("cpu", 10)))
	require.NoError(t, ctrl.SetFilter(processes.FieldMinCPU, "50"))

	res, err := ctrl.LoadProcesses(ctx)
	require.NoError(t, err)
	require.False(t, res.Stale)
	require.Len(t, res.Snapshot.Processes, 2)
	assert.Equal(t, 10, res.Snapshot.Processes[0].PID)
	assert.Equal(t, 2, res.Snapshot.ReturnedProcesses)
	assert.Equal(t, 3, res.Snapshot.TotalProcesses)
	assert.Equal(t, "2 / 3", ctrl.State().Pagination())

	p, err := ctrl.Detail(11)
	require.NoError(t, err)
	assert.Equal(t, "nginx", p.Name)

	logs, err := api.ServiceLogs(ctx, "nginx", 5)
	require.NoError(t, err)
	assert.NotEmpty(t, logs.Logs)

	_, err = api.RestartService(ctx, "redis")
	assert.True(t, client.IsForbidden(err))

	token := store.Token()
	require.NoError(t, api.Logout(ctx))
	assert.False(t, store.IsAuthenticated())

	// A revoked token is rejected and the session is cleared again.
	store.SetToken(token)
	_, err = ctrl.LoadProcesses(ctx)
	require.ErrorIs(t, err, client.ErrUnauthorized)
	assert.False(t, store.IsAuthenticated())
	assert.EqualValues(t, 1, expired.Load())
}

func TestLoginRejectedByStubBackend(t *testing.T) {
	ts := startBackend(t)
	store := session.New(nil, nil)
	api := client.New(ts.URL, store)

	_, err := api.Login(context.Background(), "ops@example.com", "wrong")
	require.ErrorIs(t, err, client.ErrUnauthorized)
	assert.False(t, store.IsAuthenticated())
}
