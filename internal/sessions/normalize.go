package sessions

import (
	"sort"

	"github.com/erg0nix/sessiontab/internal/core"
)

// Normalize turns a raw record from a Source into a canonical Session. Missing
// identity fields stay empty strings, a missing state becomes an empty State
// and missing events become an empty slice. LastUpdateTime passes through.
func Normalize(raw *core.Session) core.Session {
	if raw == nil {
		return core.Session{State: core.State{}, Events: []any{}}
	}

	session := *raw
	if session.State == nil {
		session.State = core.State{}
	}
	if session.Events == nil {
		session.Events = []any{}
	}
	return session
}

// SortByRecency orders sessions in place, most recently updated first.
// Sessions with equal timestamps keep their source order.
func SortByRecency(list []core.Session) {
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].LastUpdateTime > list[j].LastUpdateTime
	})
}
