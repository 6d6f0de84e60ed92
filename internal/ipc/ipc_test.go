package ipc

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"glaze/internal/appearance"
	"glaze/internal/config"
	"glaze/internal/taskbar"
)

// stubEnv is a minimal Environment with a single primary taskbar.
type stubEnv struct{}

func (stubEnv) Taskbars() ([]taskbar.Taskbar, error) {
	return []taskbar.Taskbar{{Window: 100, Monitor: 1}}, nil
}
func (stubEnv) ForegroundWindow() taskbar.Window { return 0 }
func (stubEnv) WindowInfo(taskbar.Window) (taskbar.WindowInfo, bool) {
	return taskbar.WindowInfo{}, false
}
func (stubEnv) VisibleWindows() []taskbar.Window                    { return nil }
func (stubEnv) PrimaryMonitor() taskbar.Monitor                     { return 1 }
func (stubEnv) LauncherVisible() bool                               { return false }
func (stubEnv) SetComposition(taskbar.Window, uint32, uint32) error { return nil }
func (stubEnv) SetPeekButtonVisible(bool) error                     { return nil }

type stubSource struct {
	events chan taskbar.Event
}

func newStubSource() *stubSource {
	return &stubSource{events: make(chan taskbar.Event, 8)}
}

func (s *stubSource) Start() error { return nil }
func (s *stubSource) Stop() error {
	close(s.events)
	return nil
}
func (s *stubSource) Events() <-chan taskbar.Event { return s.events }

type stubHistory struct {
	transitions []taskbar.Transition
}

func (s *stubHistory) Recent(ctx context.Context, limit int) ([]taskbar.Transition, error) {
	if limit > len(s.transitions) {
		limit = len(s.transitions)
	}
	return s.transitions[:limit], nil
}

func startTestDaemon(t *testing.T, history HistorySource) (*Client, *taskbar.Worker, *config.Loader) {
	t.Helper()

	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.toml")

	loader := config.NewLoader(configPath)
	_, err := loader.Load()
	require.NoError(t, err)
	t.Cleanup(func() { loader.Close() })

	worker, err := taskbar.NewWorker(taskbar.WorkerConfig{
		Env:         stubEnv{},
		Source:      newStubSource(),
		Config:      loader.Config(),
		Logger:      slog.Default(),
		SettleDelay: 5 * time.Millisecond,
	})
	require.NoError(t, err)
	require.NoError(t, worker.Start())
	t.Cleanup(func() { worker.Stop() })

	handler := &DaemonHandler{
		Version:   "test",
		StartedAt: time.Now(),
		Worker:    worker,
		Loader:    loader,
		History:   history,
	}

	socketPath := filepath.Join(dir, "glazed.sock")
	srv, err := NewServer(DefaultServerConfig(socketPath), handler)
	require.NoError(t, err)
	require.NoError(t, srv.Start())
	t.Cleanup(func() { srv.Stop() })

	client, err := Dial(DefaultClientConfig(socketPath))
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	return client, worker, loader
}

func TestClientPing(t *testing.T) {
	client, _, _ := startTestDaemon(t, nil)
	require.NoError(t, client.Ping(context.Background()))
}

func TestClientStatus(t *testing.T) {
	client, _, loader := startTestDaemon(t, nil)

	status, err := client.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "test", status.Version)
	assert.Equal(t, "running", status.WorkerStatus)
	assert.Equal(t, loader.Path(), status.ConfigPath)
	assert.NotEmpty(t, status.ConfigSummary)
}

func TestClientApplyAndDump(t *testing.T) {
	client, _, _ := startTestDaemon(t, nil)
	ctx := context.Background()

	require.NoError(t, client.Apply(ctx))

	dump, err := client.Dump(ctx)
	require.NoError(t, err)
	assert.Contains(t, dump, "worker: status=running")
	assert.Contains(t, dump, "taskbars: 1")
}

func TestClientReset(t *testing.T) {
	client, _, _ := startTestDaemon(t, nil)
	require.NoError(t, client.Reset(context.Background()))
}

func TestClientReload(t *testing.T) {
	client, _, _ := startTestDaemon(t, nil)

	summary, err := client.Reload(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, summary)
}

func TestClientHistory(t *testing.T) {
	history := &stubHistory{
		transitions: []taskbar.Transition{
			{
				Time:    time.Now(),
				Window:  100,
				Monitor: 1,
				State:   taskbar.StateMaximised,
				Accent:  appearance.AccentBlurBehind,
				Color:   appearance.Color{R: 0x10, G: 0x20, B: 0x30, A: 0xFF},
			},
			{
				Time:   time.Now(),
				Window: 100,
				State:  taskbar.StateDesktop,
				Accent: appearance.AccentTransparentGradient,
			},
		},
	}
	client, _, _ := startTestDaemon(t, history)

	entries, err := client.History(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "maximised_window", entries[0].State)
	assert.Equal(t, "blur", entries[0].Accent)
	assert.Equal(t, "#102030FF", entries[0].Color)
}

func TestClientHistoryUnavailable(t *testing.T) {
	client, _, _ := startTestDaemon(t, nil)

	_, err := client.History(context.Background(), 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrCodeUnavailable)
}

func TestClientSetConfig(t *testing.T) {
	client, _, loader := startTestDaemon(t, nil)

	doc := "version = 1\npeek = \"always_hide\"\n"
	require.NoError(t, client.SetConfig(context.Background(), doc))
	assert.Equal(t, appearance.PeekAlwaysHide, loader.Config().Peek)
}

func TestClientSetConfigRejectsInvalid(t *testing.T) {
	client, _, _ := startTestDaemon(t, nil)

	err := client.SetConfig(context.Background(), "peek = \"sometimes\"\n")
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrCodeInvalidRequest)
}

func TestClientShutdownInvokesCallback(t *testing.T) {
	dir := t.TempDir()
	loader := config.NewLoader(filepath.Join(dir, "config.toml"))
	_, err := loader.Load()
	require.NoError(t, err)
	defer loader.Close()

	worker, err := taskbar.NewWorker(taskbar.WorkerConfig{
		Env:    stubEnv{},
		Source: newStubSource(),
		Config: loader.Config(),
		Logger: slog.Default(),
	})
	require.NoError(t, err)
	require.NoError(t, worker.Start())
	defer worker.Stop()

	shutdown := make(chan struct{}, 1)
	handler := &DaemonHandler{
		Version:    "test",
		StartedAt:  time.Now(),
		Worker:     worker,
		Loader:     loader,
		OnShutdown: func() { shutdown <- struct{}{} },
	}

	socketPath := filepath.Join(dir, "glazed.sock")
	srv, err := NewServer(DefaultServerConfig(socketPath), handler)
	require.NoError(t, err)
	require.NoError(t, srv.Start())
	defer srv.Stop()

	client, err := Dial(DefaultClientConfig(socketPath))
	require.NoError(t, err)
	defer client.Close()

	require.NoError(t, client.Shutdown(context.Background()))

	select {
	case <-shutdown:
	case <-time.After(2 * time.Second):
		t.Fatal("shutdown callback not invoked")
	}
}

func TestDialFailsWhenDaemonDown(t *testing.T) {
	_, err := Dial(DefaultClientConfig(filepath.Join(t.TempDir(), "missing.sock")))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDaemonNotRunning)
}

func TestServerRejectsUnknownType(t *testing.T) {
	client, _, _ := startTestDaemon(t, nil)

	_, err := client.request(context.Background(), MessageType(0x0FFF), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrCodeInvalidRequest)
}
