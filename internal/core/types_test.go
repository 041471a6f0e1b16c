package core

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimestampUnmarshal(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Timestamp
	}{
		{name: "number", input: `200`, want: 200},
		{name: "fractional number", input: `1700000000.5`, want: 1700000000.5},
		{name: "numeric string", input: `"100"`, want: 100},
		{name: "padded string", input: `" 42.25 "`, want: 42.25},
		{name: "null", input: `null`, want: 0},
		{name: "garbage string", input: `"yesterday"`, want: 0},
		{name: "bool", input: `true`, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ts Timestamp
			require.NoError(t, json.Unmarshal([]byte(tt.input), &ts))
			assert.Equal(t, tt.want, ts)
		})
	}
}

func TestSessionDecodesMixedTimestamps(t *testing.T) {
	var list []Session
	err := json.Unmarshal([]byte(`[{"id":"s1","lastUpdateTime":"100"},{"id":"s2","lastUpdateTime":200}]`), &list)
	require.NoError(t, err)

	require.Len(t, list, 2)
	assert.Equal(t, Timestamp(100), list[0].LastUpdateTime)
	assert.Equal(t, Timestamp(200), list[1].LastUpdateTime)
	assert.Nil(t, list[0].State)
	assert.Nil(t, list[0].Events)
}

func TestTimestampTimeRoundTrip(t *testing.T) {
	at := time.Date(2025, 3, 1, 12, 30, 15, 500_000_000, time.UTC)

	ts := TimestampOf(at)

	assert.Equal(t, at.Unix(), ts.Time().Unix())
	assert.InDelta(t, 500*time.Millisecond, time.Duration(ts.Time().Nanosecond()), float64(time.Millisecond))
}

func TestFloatFromAny(t *testing.T) {
	assert.Equal(t, 3.0, FloatFromAny(3))
	assert.Equal(t, 3.0, FloatFromAny(int64(3)))
	assert.Equal(t, 2.5, FloatFromAny(json.Number("2.5")))
	assert.Equal(t, 0.0, FloatFromAny("NaN"))
	assert.Equal(t, 0.0, FloatFromAny([]int{1}))
}

func TestNewRequestID(t *testing.T) {
	a := NewRequestID()
	b := NewRequestID()

	assert.True(t, strings.HasPrefix(string(a), "req_"))
	assert.NotEqual(t, a, b)
}
