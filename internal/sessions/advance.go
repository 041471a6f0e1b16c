package sessions

import "github.com/erg0nix/sessiontab/internal/core"

// AdvanceOutcome says how NextAfter picked its session.
type AdvanceOutcome int

const (
	// NoNext means the list had fewer than two sessions.
	NoNext AdvanceOutcome = iota
	// Next is the session right after the matched one.
	Next
	// Wrapped means the matched session was last and the first one was picked.
	Wrapped
	// Unmatched means no session had the id; the first session is offered
	// and the caller decides whether to use it.
	Unmatched
)

func (o AdvanceOutcome) String() string {
	switch o {
	case NoNext:
		return "none"
	case Next:
		return "next"
	case Wrapped:
		return "wrapped"
	case Unmatched:
		return "unmatched"
	default:
		return "unknown"
	}
}

// Advance is the result of moving past a session.
type Advance struct {
	Session core.Session
	Outcome AdvanceOutcome
}

// OK reports whether a session was picked.
func (a Advance) OK() bool {
	return a.Outcome != NoNext
}

// NextAfter picks the session that follows sessionID in list.
func NextAfter(list []core.Session, sessionID string) Advance {
	if len(list) <= 1 {
		return Advance{Outcome: NoNext}
	}

	index := -1
	for i, s := range list {
		if s.ID == sessionID {
			index = i
			break
		}
	}

	switch index {
	case -1:
		return Advance{Session: list[0], Outcome: Unmatched}
	case len(list) - 1:
		return Advance{Session: list[0], Outcome: Wrapped}
	default:
		return Advance{Session: list[index+1], Outcome: Next}
	}
}
