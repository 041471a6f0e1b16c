// Package adkapi talks to an ADK API server's session REST routes.
package adkapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/erg0nix/sessiontab/internal/config"
	"github.com/erg0nix/sessiontab/internal/core"
	"github.com/erg0nix/sessiontab/internal/sessions"
)

// RequestIDHeader carries the client-side request id on every call.
const RequestIDHeader = "X-Request-ID"

var _ sessions.Source = (*Client)(nil)

type Config struct {
	Endpoint    string
	HTTPTimeout time.Duration
}

// Client implements sessions.Source against
// GET {endpoint}/apps/{app}/users/{user}/sessions[/{id}].
type Client struct {
	endpoint      string
	client        *http.Client
	requestLogger *RequestLogger
}

func NewClient(cfg Config, debugCfg config.DebugConfig) *Client {
	timeout := cfg.HTTPTimeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	client := &Client{
		endpoint: strings.TrimRight(cfg.Endpoint, "/"),
		client:   &http.Client{Timeout: timeout},
	}

	if debugCfg.LogRequests || debugCfg.LogResponses {
		client.requestLogger = NewRequestLogger(
			debugCfg.LogDirectory,
			debugCfg.LogRequests,
			debugCfg.LogResponses,
			slog.Default(),
		)
	}

	return client
}

func (c *Client) ListSessions(ctx context.Context, appName, userID string) ([]core.Session, error) {
	var list []core.Session
	if err := c.get(ctx, sessionsPath(appName, userID), &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *Client) GetSession(ctx context.Context, userID, appName, sessionID string) (*core.Session, error) {
	var session *core.Session
	path := sessionsPath(appName, userID) + "/" + url.PathEscape(sessionID)
	if err := c.get(ctx, path, &session); err != nil {
		return nil, err
	}
	return session, nil
}

func sessionsPath(appName, userID string) string {
	return "/apps/" + url.PathEscape(appName) + "/users/" + url.PathEscape(userID) + "/sessions"
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	requestID := core.NewRequestID()
	endpointURL := c.endpoint + path

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpointURL, nil)
	if err != nil {
		return fmt.Errorf("adkapi: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, string(requestID))

	if c.requestLogger != nil {
		c.requestLogger.LogRequest(requestID, req.Method, endpointURL)
	}

	startTime := time.Now()
	httpResp, err := c.client.Do(req)
	duration := time.Since(startTime)

	if err != nil {
		if c.requestLogger != nil {
			c.requestLogger.LogError(requestID, 0, []byte(err.Error()), endpointURL)
		}
		return fmt.Errorf("adkapi: request failed (request_id=%s): %w", requestID, err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return fmt.Errorf("adkapi: read response (request_id=%s): %w", requestID, err)
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		if c.requestLogger != nil {
			c.requestLogger.LogError(requestID, httpResp.StatusCode, body, endpointURL)
		}

		if httpResp.StatusCode == http.StatusNotFound {
			return fmt.Errorf("adkapi: %s: %w", path, sessions.ErrNotFound)
		}

		if msg := errorMessage(body); msg != "" {
			return fmt.Errorf("adkapi: server error (request_id=%s): %s: %s", requestID, httpResp.Status, msg)
		}
		return fmt.Errorf("adkapi: server error (request_id=%s): %s", requestID, httpResp.Status)
	}

	if c.requestLogger != nil {
		c.requestLogger.LogResponse(requestID, httpResp.StatusCode, body, duration)
	}

	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("adkapi: decode response (request_id=%s): %w", requestID, err)
	}
	return nil
}

// errorMessage pulls the "error" or "detail" field out of a JSON error body,
// falling back to the trimmed body text.
func errorMessage(body []byte) string {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err == nil {
		for _, key := range []string{"error", "detail"} {
			if msg, ok := payload[key].(string); ok && msg != "" {
				return msg
			}
		}
	}
	return strings.TrimSpace(string(body))
}
