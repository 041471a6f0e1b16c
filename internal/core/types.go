package core

import (
	"encoding/json"
	"math"
	"time"
)

// State is the opaque structured payload attached to a session.
type State map[string]any

// Session is a unit of application state tied to one app and one user.
// List results use the same shape with State and Events usually left nil.
type Session struct {
	ID             string    `json:"id"`
	AppName        string    `json:"appName"`
	UserID         string    `json:"userId"`
	State          State     `json:"state,omitempty"`
	Events         []any     `json:"events,omitempty"`
	LastUpdateTime Timestamp `json:"lastUpdateTime"`
}

// Timestamp is a point in time in seconds since the Unix epoch. Sources send
// it either as a JSON number or as a numeric string.
type Timestamp float64

// UnmarshalJSON accepts numbers, numeric strings and null. Anything that does
// not parse as a number decodes to zero.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*t = Timestamp(FloatFromAny(raw))
	return nil
}

// Seconds returns the raw epoch seconds.
func (t Timestamp) Seconds() float64 {
	return float64(t)
}

// Time converts the timestamp into a time.Time, keeping sub-second precision.
func (t Timestamp) Time() time.Time {
	sec, frac := math.Modf(float64(t))
	return time.Unix(int64(sec), int64(frac*float64(time.Second)))
}

// TimestampOf converts a time.Time back into epoch seconds.
func TimestampOf(at time.Time) Timestamp {
	return Timestamp(float64(at.UnixNano()) / float64(time.Second))
}
