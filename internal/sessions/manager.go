package sessions

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/erg0nix/sessiontab/internal/core"
)

// Counter is the part of a metrics counter the manager increments on list failures.
type Counter interface {
	Inc()
}

// Option configures a Manager.
type Option func(*Manager)

// WithUserID sets the initial filter. An empty id starts the manager unfiltered.
func WithUserID(userID string) Option {
	return func(m *Manager) { m.userID = userID }
}

func WithCallbacks(cb Callbacks) Option {
	return func(m *Manager) { m.callbacks = cb }
}

func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithFailureCounter counts list fetch failures next to the log line.
func WithFailureCounter(counter Counter) Option {
	return func(m *Manager) { m.failures = counter }
}

func WithTimeLayout(layout string) Option {
	return func(m *Manager) { m.timeLayout = layout }
}

func WithLocation(loc *time.Location) Option {
	return func(m *Manager) { m.location = loc }
}

// Manager owns the user filter and the current session list of one app and
// mediates every query through a Source. It is safe for concurrent use.
type Manager struct {
	source     Source
	appName    string
	callbacks  Callbacks
	logger     *slog.Logger
	failures   Counter
	timeLayout string
	location   *time.Location

	mu      sync.Mutex
	userID  string
	list    []core.Session
	issued  uint64
	applied uint64
}

func NewManager(source Source, appName string, opts ...Option) *Manager {
	m := &Manager{
		source:     source,
		appName:    appName,
		userID:     DefaultUserID,
		logger:     slog.Default(),
		timeLayout: DefaultTimeLayout,
		list:       []core.Session{},
	}

	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) AppName() string {
	return m.appName
}

func (m *Manager) UserID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.userID
}

// Sessions returns a copy of the current list, most recent first.
func (m *Manager) Sessions() []core.Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]core.Session, len(m.list))
	copy(out, m.list)
	return out
}

// SetFilter changes the user filter and refetches. An empty id still goes
// through Refresh and its empty-filter guard.
func (m *Manager) SetFilter(ctx context.Context, userID string) {
	m.mu.Lock()
	m.userID = userID
	m.mu.Unlock()

	m.Refresh(ctx)
}

// ClearFilter drops the filter and empties the list without fetching.
// Fetches already in flight are discarded when they complete.
func (m *Manager) ClearFilter() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.userID = ""
	m.issued++
	m.applied = m.issued
	m.list = []core.Session{}
}

// Refresh refetches the list for the current filter. Failures empty the list
// and are logged; they are never returned. When refreshes overlap, only the
// most recently issued one that completes is kept.
func (m *Manager) Refresh(ctx context.Context) {
	m.mu.Lock()
	userID := m.userID
	if userID == "" {
		m.issued++
		m.applied = m.issued
		m.list = []core.Session{}
		m.mu.Unlock()
		return
	}
	m.issued++
	seq := m.issued
	m.mu.Unlock()

	list, err := m.source.ListSessions(ctx, m.appName, userID)
	if err != nil {
		m.logger.Error("failed to fetch sessions", "app", m.appName, "user", userID, "error", err)
		if m.failures != nil {
			m.failures.Inc()
		}
		m.apply(seq, []core.Session{})
		return
	}

	if list == nil {
		list = []core.Session{}
	}
	SortByRecency(list)
	m.apply(seq, list)
}

func (m *Manager) apply(seq uint64, list []core.Session) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if seq <= m.applied {
		m.logger.Debug("discarding stale session list", "app", m.appName, "seq", seq, "applied", m.applied)
		return
	}
	m.applied = seq
	m.list = list
}

// GetSession fetches one session, normalizes it and hands it to OnSelected.
// The stored list is left untouched.
func (m *Manager) GetSession(ctx context.Context, sessionID string) (core.Session, error) {
	session, err := m.fetch(ctx, sessionID)
	if err != nil {
		return core.Session{}, err
	}

	if m.callbacks.OnSelected != nil {
		m.callbacks.OnSelected(session)
	}
	return session, nil
}

// ReloadSession is GetSession for refreshing the detail of the session that
// is already active; it notifies OnReloaded instead.
func (m *Manager) ReloadSession(ctx context.Context, sessionID string) (core.Session, error) {
	session, err := m.fetch(ctx, sessionID)
	if err != nil {
		return core.Session{}, err
	}

	if m.callbacks.OnReloaded != nil {
		m.callbacks.OnReloaded(session)
	}
	return session, nil
}

func (m *Manager) fetch(ctx context.Context, sessionID string) (core.Session, error) {
	userID := m.UserID()

	raw, err := m.source.GetSession(ctx, userID, m.appName, sessionID)
	if err != nil {
		m.logger.Error("failed to fetch session", "app", m.appName, "user", userID, "session", sessionID, "error", err)
		return core.Session{}, fmt.Errorf("get session %s: %w", sessionID, err)
	}
	return Normalize(raw), nil
}

// FormatTimestamp renders the session's last update time for display.
func (m *Manager) FormatTimestamp(session core.Session) string {
	return FormatTimestamp(session.LastUpdateTime, m.timeLayout, m.location)
}

// AdvancePast refreshes the list and picks the session that follows sessionID.
func (m *Manager) AdvancePast(ctx context.Context, sessionID string) Advance {
	m.Refresh(ctx)
	return NextAfter(m.Sessions(), sessionID)
}
