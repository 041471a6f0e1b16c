package sessions

import (
	"context"
	"log/slog"
	"sync"

	"github.com/erg0nix/sessiontab/internal/core"
)

type fakeSource struct {
	mu sync.Mutex

	ListSessionsFunc func(ctx context.Context, appName, userID string) ([]core.Session, error)
	GetSessionFunc   func(ctx context.Context, userID, appName, sessionID string) (*core.Session, error)

	listCalls int
	getCalls  int
}

func (f *fakeSource) ListSessions(ctx context.Context, appName, userID string) ([]core.Session, error) {
	f.mu.Lock()
	f.listCalls++
	f.mu.Unlock()

	if f.ListSessionsFunc != nil {
		return f.ListSessionsFunc(ctx, appName, userID)
	}
	return nil, nil
}

func (f *fakeSource) GetSession(ctx context.Context, userID, appName, sessionID string) (*core.Session, error) {
	f.mu.Lock()
	f.getCalls++
	f.mu.Unlock()

	if f.GetSessionFunc != nil {
		return f.GetSessionFunc(ctx, userID, appName, sessionID)
	}
	return nil, nil
}

func (f *fakeSource) ListCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listCalls
}

func (f *fakeSource) GetCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.getCalls
}

type recordingHandler struct {
	mu      sync.Mutex
	records []slog.Record
}

func (h *recordingHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *recordingHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, r)
	return nil
}

func (h *recordingHandler) WithAttrs([]slog.Attr) slog.Handler { return h }

func (h *recordingHandler) WithGroup(string) slog.Handler { return h }

func (h *recordingHandler) count(level slog.Level) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	n := 0
	for _, r := range h.records {
		if r.Level == level {
			n++
		}
	}
	return n
}

func ids(list []core.Session) []string {
	out := make([]string, 0, len(list))
	for _, s := range list {
		out = append(out, s.ID)
	}
	return out
}

func summaries(pairs ...any) []core.Session {
	var out []core.Session
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, core.Session{
			ID:             pairs[i].(string),
			LastUpdateTime: core.Timestamp(core.FloatFromAny(pairs[i+1])),
		})
	}
	return out
}
