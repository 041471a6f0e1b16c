package adkapi

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/erg0nix/sessiontab/internal/core"
)

// RequestLogger appends request/response records to a daily JSONL file when
// debug logging is enabled.
type RequestLogger struct {
	logDir       string
	logRequests  bool
	logResponses bool
	logger       *slog.Logger
}

type LogEntry struct {
	Timestamp  string          `json:"timestamp"`
	RequestID  string          `json:"request_id"`
	Type       string          `json:"type"`
	Method     string          `json:"method,omitempty"`
	URL        string          `json:"url,omitempty"`
	Body       json.RawMessage `json:"body,omitempty"`
	Duration   string          `json:"duration,omitempty"`
	Error      string          `json:"error,omitempty"`
	StatusCode int             `json:"status_code,omitempty"`
}

func NewRequestLogger(logDir string, logRequests, logResponses bool, logger *slog.Logger) *RequestLogger {
	return &RequestLogger{
		logDir:       logDir,
		logRequests:  logRequests,
		logResponses: logResponses,
		logger:       logger,
	}
}

func (l *RequestLogger) LogRequest(requestID core.RequestID, method, url string) {
	if !l.logRequests {
		return
	}

	l.writeLog(LogEntry{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		RequestID: string(requestID),
		Type:      "request",
		Method:    method,
		URL:       url,
	})
	l.logger.Debug("session source request", "request_id", requestID, "method", method, "url", url)
}

func (l *RequestLogger) LogResponse(requestID core.RequestID, statusCode int, body []byte, duration time.Duration) {
	if !l.logResponses {
		return
	}

	entry := LogEntry{
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		RequestID:  string(requestID),
		Type:       "response",
		StatusCode: statusCode,
		Duration:   duration.String(),
	}
	if json.Valid(body) {
		entry.Body = body
	}

	l.writeLog(entry)
}

func (l *RequestLogger) LogError(requestID core.RequestID, statusCode int, errorBody []byte, url string) {
	l.writeLog(LogEntry{
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		RequestID:  string(requestID),
		Type:       "error",
		URL:        url,
		StatusCode: statusCode,
		Error:      string(errorBody),
	})

	l.logger.Warn("session source request failed",
		"request_id", requestID,
		"status_code", statusCode,
		"url", url,
		"error", string(errorBody),
	)
}

func (l *RequestLogger) writeLog(entry LogEntry) {
	if l.logDir == "" {
		return
	}

	_ = os.MkdirAll(l.logDir, 0o755)

	logFile := filepath.Join(l.logDir, fmt.Sprintf("adkapi_%s.jsonl", time.Now().Format("2006-01-02")))

	data, _ := json.Marshal(entry)
	f, err := os.OpenFile(logFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return
	}
	defer f.Close()

	_, _ = f.Write(data)
	_, _ = f.WriteString("\n")
}
