// Package sessions keeps the client-side view of the sessions that belong to
// one app/user pair: listing, recency ordering, detail lookup and cycling.
package sessions

import (
	"context"
	"errors"

	"github.com/erg0nix/sessiontab/internal/core"
)

// DefaultUserID is the filter a new Manager starts with.
const DefaultUserID = "user"

// ErrNotFound is returned by a Source when the requested session does not exist.
var ErrNotFound = errors.New("session not found")

// Source lists and fetches sessions from wherever they live.
type Source interface {
	// ListSessions returns the sessions of one app/user pair. A nil slice
	// with a nil error means there are none.
	ListSessions(ctx context.Context, appName, userID string) ([]core.Session, error)
	// GetSession returns the full record of one session. The record may be
	// nil or have missing fields; callers normalize it.
	GetSession(ctx context.Context, userID, appName, sessionID string) (*core.Session, error)
}

// Callbacks receive the sessions resolved by Manager.GetSession and
// Manager.ReloadSession. Nil fields are skipped.
type Callbacks struct {
	OnSelected func(core.Session)
	OnReloaded func(core.Session)
}
