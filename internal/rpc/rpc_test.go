package rpc

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/erg0nix/sessiontab/internal/config"
	"github.com/erg0nix/sessiontab/internal/core"
	"github.com/erg0nix/sessiontab/internal/metrics"
	"github.com/erg0nix/sessiontab/internal/sessions"
)

type stubSource struct {
	list    []core.Session
	session *core.Session
	err     error
}

func (s *stubSource) ListSessions(context.Context, string, string) ([]core.Session, error) {
	return s.list, s.err
}

func (s *stubSource) GetSession(context.Context, string, string, string) (*core.Session, error) {
	return s.session, s.err
}

func startServer(t *testing.T, source sessions.Source, daemon *DaemonHandler, m *metrics.Metrics) *Client {
	t.Helper()

	listener := bufconn.Listen(1 << 20)
	handler := &SessionHandler{Source: source}
	if m != nil {
		handler.Failures = m.ListFailures
	}
	server := NewServer(m, handler, daemon)
	go func() { _ = server.Serve(listener) }()
	t.Cleanup(server.Stop)

	client, err := Dial("passthrough:///bufnet", grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
		return listener.DialContext(ctx)
	}))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestListSessionsRoundTrip(t *testing.T) {
	source := &stubSource{list: []core.Session{
		{ID: "s2", AppName: "app1", UserID: "alice", LastUpdateTime: 200.5},
		{ID: "s1", AppName: "app1", UserID: "alice", LastUpdateTime: 100},
	}}
	m := metrics.New()
	client := startServer(t, source, nil, m)

	list, err := client.ListSessions(context.Background(), "app1", "alice")
	require.NoError(t, err)

	assert.Equal(t, source.list, list)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("grpc", "ListSessions", "OK")))
}

func TestListSessionsEmpty(t *testing.T) {
	client := startServer(t, &stubSource{}, nil, nil)

	list, err := client.ListSessions(context.Background(), "app1", "alice")

	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestListSessionsRequiresUser(t *testing.T) {
	client := startServer(t, &stubSource{}, nil, nil)

	_, err := client.ListSessions(context.Background(), "app1", "")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "userId")
}

func TestGetSessionRoundTrip(t *testing.T) {
	source := &stubSource{session: &core.Session{
		ID:             "s1",
		AppName:        "app1",
		UserID:         "alice",
		State:          core.State{"count": 2.0, "nested": map[string]any{"ok": true}},
		Events:         []any{map[string]any{"author": "model"}},
		LastUpdateTime: 1700000000,
	}}
	client := startServer(t, source, nil, nil)

	got, err := client.GetSession(context.Background(), "alice", "app1", "s1")
	require.NoError(t, err)

	assert.Equal(t, source.session, got)
}

func TestGetSessionNil(t *testing.T) {
	client := startServer(t, &stubSource{}, nil, nil)

	got, err := client.GetSession(context.Background(), "alice", "app1", "s1")

	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestGetSessionNotFound(t *testing.T) {
	m := metrics.New()
	client := startServer(t, &stubSource{err: sessions.ErrNotFound}, nil, m)

	_, err := client.GetSession(context.Background(), "alice", "app1", "gone")

	require.ErrorIs(t, err, sessions.ErrNotFound)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("grpc", "GetSession", "NotFound")))
}

func TestSourceErrorIsInternal(t *testing.T) {
	m := metrics.New()
	client := startServer(t, &stubSource{err: errors.New("disk on fire")}, nil, m)

	_, err := client.ListSessions(context.Background(), "app1", "alice")

	require.Error(t, err)
	assert.Equal(t, codes.Internal, status.Code(errors.Unwrap(err)))
	assert.NotErrorIs(t, err, sessions.ErrNotFound)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ListFailures))
}

func TestGetSessionRequiresUser(t *testing.T) {
	client := startServer(t, &stubSource{session: &core.Session{ID: "s1"}}, nil, nil)

	_, err := client.GetSession(context.Background(), "", "app1", "s1")

	require.Error(t, err)
	assert.Equal(t, codes.InvalidArgument, status.Code(errors.Unwrap(err)))
	assert.NotErrorIs(t, err, sessions.ErrNotFound)
}

func TestDaemonStatusAndShutdown(t *testing.T) {
	stopped := make(chan struct{})
	daemon := &DaemonHandler{
		Config: config.Config{
			AppName:  "app1",
			Bind:     ":50061",
			HTTPBind: ":8061",
			Backend:  config.SourceFile,
			DataDir:  "/tmp/sessiontab",
		},
		StartTime: time.Now().Add(-time.Minute),
		StopFunc:  func() { close(stopped) },
	}
	client := startServer(t, &stubSource{}, daemon, nil)

	st, err := client.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "app1", st.AppName)
	assert.Equal(t, ":50061", st.Bind)
	assert.Equal(t, config.SourceFile, st.Backend)
	assert.Empty(t, st.Endpoint)
	assert.GreaterOrEqual(t, st.UptimeSeconds, int64(59))

	msg, err := client.Shutdown(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "shutting down", msg)

	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("stop func was not called")
	}
}

func TestSessionStructConversion(t *testing.T) {
	msg, err := sessionsToStruct(nil)
	require.NoError(t, err)
	assert.Len(t, msg.GetFields()["sessions"].GetListValue().GetValues(), 0)

	list, err := sessionsFromStruct(&structpb.Struct{})
	require.NoError(t, err)
	assert.Nil(t, list)

	msg, err = sessionToStruct(nil)
	require.NoError(t, err)
	session, err := sessionFromStruct(msg)
	require.NoError(t, err)
	assert.Nil(t, session)
}

func TestDialTarget(t *testing.T) {
	assert.Equal(t, "127.0.0.1:50061", DialTarget(":50061"))
	assert.Equal(t, "example.com:1", DialTarget("example.com:1"))
}
