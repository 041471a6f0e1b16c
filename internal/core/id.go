package core

import (
	"crypto/rand"
	"encoding/hex"
	"time"
)

// RequestID tags a single outbound call to a session source for log correlation.
type RequestID string

func NewRequestID() RequestID {
	return RequestID("req_" + timestamp() + "_" + randomSeed())
}

func timestamp() string {
	return time.Now().UTC().Format("20060102T150405.000000000")
}

func randomSeed() string {
	buffer := make([]byte, 6)
	_, _ = rand.Read(buffer)
	return hex.EncodeToString(buffer)
}
