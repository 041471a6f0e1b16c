package sessions

import (
	"time"

	"github.com/erg0nix/sessiontab/internal/core"
)

// DefaultTimeLayout renders timestamps the way an en-US locale prints a date and time.
const DefaultTimeLayout = "1/2/2006, 3:04:05 PM"

// FormatTimestamp renders ts in loc using layout. A nil loc means time.Local
// and an empty layout means DefaultTimeLayout.
func FormatTimestamp(ts core.Timestamp, layout string, loc *time.Location) string {
	if layout == "" {
		layout = DefaultTimeLayout
	}
	if loc == nil {
		loc = time.Local
	}
	return ts.Time().In(loc).Format(layout)
}
