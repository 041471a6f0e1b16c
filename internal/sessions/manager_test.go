package sessions

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erg0nix/sessiontab/internal/core"
)

type countingCounter struct {
	mu sync.Mutex
	n  int
}

func (c *countingCounter) Inc() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n++
}

func TestManager_Defaults(t *testing.T) {
	m := NewManager(&fakeSource{}, "app1")

	assert.Equal(t, "app1", m.AppName())
	assert.Equal(t, DefaultUserID, m.UserID())
	assert.Empty(t, m.Sessions())
	assert.NotNil(t, m.Sessions())
}

func TestManager_RefreshSortsByRecency(t *testing.T) {
	source := &fakeSource{
		ListSessionsFunc: func(_ context.Context, appName, userID string) ([]core.Session, error) {
			assert.Equal(t, "app1", appName)
			assert.Equal(t, "alice", userID)
			return summaries("s1", "100", "s2", 200), nil
		},
	}
	m := NewManager(source, "app1")

	m.SetFilter(context.Background(), "alice")

	assert.Equal(t, []string{"s2", "s1"}, ids(m.Sessions()))
	assert.Equal(t, 1, source.ListCalls())
}

func TestManager_RefreshNilResultIsEmpty(t *testing.T) {
	m := NewManager(&fakeSource{}, "app1")

	m.Refresh(context.Background())

	assert.NotNil(t, m.Sessions())
	assert.Empty(t, m.Sessions())
}

func TestManager_EmptyFilterNeverFetches(t *testing.T) {
	source := &fakeSource{
		ListSessionsFunc: func(context.Context, string, string) ([]core.Session, error) {
			return summaries("s1", 1), nil
		},
	}
	m := NewManager(source, "app1", WithUserID(""))

	m.Refresh(context.Background())
	m.SetFilter(context.Background(), "")
	advance := m.AdvancePast(context.Background(), "s1")

	assert.Equal(t, 0, source.ListCalls())
	assert.Empty(t, m.Sessions())
	assert.Equal(t, NoNext, advance.Outcome)
}

func TestManager_SetEmptyFilterEmptiesList(t *testing.T) {
	source := &fakeSource{
		ListSessionsFunc: func(context.Context, string, string) ([]core.Session, error) {
			return summaries("s1", 1, "s2", 2), nil
		},
	}
	m := NewManager(source, "app1")
	m.Refresh(context.Background())
	require.Len(t, m.Sessions(), 2)

	m.SetFilter(context.Background(), "")

	assert.Empty(t, m.Sessions())
	assert.Equal(t, 1, source.ListCalls())
}

func TestManager_ClearFilterIsLocal(t *testing.T) {
	source := &fakeSource{
		ListSessionsFunc: func(context.Context, string, string) ([]core.Session, error) {
			return summaries("s1", 1), nil
		},
	}
	m := NewManager(source, "app1")
	m.Refresh(context.Background())
	require.Len(t, m.Sessions(), 1)

	m.ClearFilter()

	assert.Empty(t, m.UserID())
	assert.Empty(t, m.Sessions())
	assert.Equal(t, 1, source.ListCalls())
}

func TestManager_ListFailureResetsAndReportsOnce(t *testing.T) {
	handler := &recordingHandler{}
	counter := &countingCounter{}
	fail := false
	source := &fakeSource{
		ListSessionsFunc: func(context.Context, string, string) ([]core.Session, error) {
			if fail {
				return nil, errors.New("network unreachable")
			}
			return summaries("s1", 1), nil
		},
	}
	m := NewManager(source, "app1",
		WithUserID("alice"),
		WithLogger(slog.New(handler)),
		WithFailureCounter(counter))

	m.Refresh(context.Background())
	require.Len(t, m.Sessions(), 1)

	fail = true
	m.Refresh(context.Background())

	assert.Empty(t, m.Sessions())
	assert.Equal(t, 1, handler.count(slog.LevelError))
	assert.Equal(t, 1, counter.n)
}

func TestManager_LastIssuedRefreshWins(t *testing.T) {
	started := make(chan int, 2)
	release := map[int]chan struct{}{1: make(chan struct{}), 2: make(chan struct{})}
	results := map[int][]core.Session{
		1: summaries("old", 1),
		2: summaries("new", 2),
	}

	var mu sync.Mutex
	call := 0
	source := &fakeSource{
		ListSessionsFunc: func(context.Context, string, string) ([]core.Session, error) {
			mu.Lock()
			call++
			n := call
			mu.Unlock()

			started <- n
			<-release[n]
			return results[n], nil
		},
	}
	m := NewManager(source, "app1")

	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); m.Refresh(context.Background()) }()
	require.Equal(t, 1, <-started)
	go func() { defer wg.Done(); m.Refresh(context.Background()) }()
	require.Equal(t, 2, <-started)

	close(release[2])
	require.Eventually(t, func() bool {
		return len(m.Sessions()) == 1 && m.Sessions()[0].ID == "new"
	}, time.Second, 5*time.Millisecond)

	close(release[1])
	wg.Wait()

	assert.Equal(t, []string{"new"}, ids(m.Sessions()))
}

func TestManager_ClearFilterDiscardsInFlightRefresh(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	source := &fakeSource{
		ListSessionsFunc: func(context.Context, string, string) ([]core.Session, error) {
			close(started)
			<-release
			return summaries("s1", 1), nil
		},
	}
	m := NewManager(source, "app1")

	done := make(chan struct{})
	go func() { defer close(done); m.Refresh(context.Background()) }()
	<-started

	m.ClearFilter()
	close(release)
	<-done

	assert.Empty(t, m.Sessions())
}

func TestManager_GetSessionNormalizesAndNotifies(t *testing.T) {
	var selected []core.Session
	var reloaded []core.Session
	source := &fakeSource{
		GetSessionFunc: func(_ context.Context, userID, appName, sessionID string) (*core.Session, error) {
			assert.Equal(t, "alice", userID)
			assert.Equal(t, "app1", appName)
			assert.Equal(t, "s1", sessionID)
			return &core.Session{ID: "s1", AppName: "app1"}, nil
		},
	}
	m := NewManager(source, "app1",
		WithUserID("alice"),
		WithCallbacks(Callbacks{
			OnSelected: func(s core.Session) { selected = append(selected, s) },
			OnReloaded: func(s core.Session) { reloaded = append(reloaded, s) },
		}))

	got, err := m.GetSession(context.Background(), "s1")
	require.NoError(t, err)

	want := core.Session{ID: "s1", AppName: "app1", UserID: "", State: core.State{}, Events: []any{}}
	assert.Equal(t, want, got)
	assert.Equal(t, []core.Session{want}, selected)
	assert.Empty(t, reloaded)
	assert.Empty(t, m.Sessions())
}

func TestManager_ReloadSessionNotifiesReloaded(t *testing.T) {
	var selected, reloaded int
	source := &fakeSource{
		GetSessionFunc: func(context.Context, string, string, string) (*core.Session, error) {
			return &core.Session{ID: "s1"}, nil
		},
	}
	m := NewManager(source, "app1", WithCallbacks(Callbacks{
		OnSelected: func(core.Session) { selected++ },
		OnReloaded: func(core.Session) { reloaded++ },
	}))

	_, err := m.ReloadSession(context.Background(), "s1")
	require.NoError(t, err)

	assert.Equal(t, 0, selected)
	assert.Equal(t, 1, reloaded)
}

func TestManager_GetSessionFailure(t *testing.T) {
	handler := &recordingHandler{}
	notified := false
	source := &fakeSource{
		GetSessionFunc: func(context.Context, string, string, string) (*core.Session, error) {
			return nil, ErrNotFound
		},
	}
	m := NewManager(source, "app1",
		WithLogger(slog.New(handler)),
		WithCallbacks(Callbacks{OnSelected: func(core.Session) { notified = true }}))

	_, err := m.GetSession(context.Background(), "gone")

	require.ErrorIs(t, err, ErrNotFound)
	assert.False(t, notified)
	assert.Equal(t, 1, handler.count(slog.LevelError))
}

func TestManager_NilCallbacksAreSkipped(t *testing.T) {
	source := &fakeSource{
		GetSessionFunc: func(context.Context, string, string, string) (*core.Session, error) {
			return nil, nil
		},
	}
	m := NewManager(source, "app1")

	got, err := m.GetSession(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, core.State{}, got.State)

	_, err = m.ReloadSession(context.Background(), "s1")
	require.NoError(t, err)
}

func TestManager_AdvancePast(t *testing.T) {
	list := summaries("C", 100, "A", 300, "B", 200)
	source := &fakeSource{
		ListSessionsFunc: func(context.Context, string, string) ([]core.Session, error) {
			out := make([]core.Session, len(list))
			copy(out, list)
			return out, nil
		},
	}
	m := NewManager(source, "app1")

	got := m.AdvancePast(context.Background(), "B")
	assert.Equal(t, Next, got.Outcome)
	assert.Equal(t, "C", got.Session.ID)

	got = m.AdvancePast(context.Background(), "C")
	assert.Equal(t, Wrapped, got.Outcome)
	assert.Equal(t, "A", got.Session.ID)

	got = m.AdvancePast(context.Background(), "nope")
	assert.Equal(t, Unmatched, got.Outcome)
	assert.Equal(t, "A", got.Session.ID)

	assert.Equal(t, 3, source.ListCalls())
}

func TestManager_AdvancePastShortList(t *testing.T) {
	for _, list := range [][]core.Session{nil, summaries("only", 1)} {
		source := &fakeSource{
			ListSessionsFunc: func(context.Context, string, string) ([]core.Session, error) {
				return list, nil
			},
		}
		m := NewManager(source, "app1")

		got := m.AdvancePast(context.Background(), "only")

		assert.Equal(t, NoNext, got.Outcome)
	}
}

func TestManager_AdvancePastAfterFailure(t *testing.T) {
	source := &fakeSource{
		ListSessionsFunc: func(context.Context, string, string) ([]core.Session, error) {
			return nil, errors.New("boom")
		},
	}
	m := NewManager(source, "app1", WithLogger(slog.New(&recordingHandler{})))

	got := m.AdvancePast(context.Background(), "s1")

	assert.Equal(t, NoNext, got.Outcome)
}

func TestManager_FormatTimestamp(t *testing.T) {
	m := NewManager(&fakeSource{}, "app1", WithLocation(time.UTC))

	assert.Equal(t, "1/1/1970, 12:01:40 AM", m.FormatTimestamp(core.Session{LastUpdateTime: 100}))

	m = NewManager(&fakeSource{}, "app1", WithLocation(time.UTC), WithTimeLayout(""))
	assert.Equal(t, "1/1/1970, 12:01:40 AM", m.FormatTimestamp(core.Session{LastUpdateTime: 100}))

	m = NewManager(&fakeSource{}, "app1", WithLocation(time.UTC), WithTimeLayout(time.RFC3339))
	assert.Equal(t, "2023-11-14T22:13:20Z", m.FormatTimestamp(core.Session{LastUpdateTime: 1700000000}))
}
