package sessions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/erg0nix/sessiontab/internal/core"
)

var _ Source = (*FileSource)(nil)

// FileSource implements Source with one JSON file per session laid out as
// <BaseDir>/sessions/<app>/<user>/<id>.json.
type FileSource struct {
	BaseDir string
}

func (source *FileSource) userDir(appName, userID string) string {
	return filepath.Join(source.BaseDir, "sessions", appName, userID)
}

func (source *FileSource) sessionPath(appName, userID, sessionID string) string {
	return filepath.Join(source.userDir(appName, userID), sessionID+".json")
}

// ListSessions returns the summaries of every session stored for the pair,
// most recently updated first. State and events are left out.
func (source *FileSource) ListSessions(ctx context.Context, appName, userID string) ([]core.Session, error) {
	if err := validateSegments(appName, userID); err != nil {
		return nil, err
	}

	dir := source.userDir(appName, userID)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	var result []core.Session
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		sessionID := strings.TrimSuffix(entry.Name(), ".json")
		session, err := source.read(appName, userID, sessionID)
		if err != nil {
			slog.Warn("skipping unreadable session file", "path", filepath.Join(dir, entry.Name()), "error", err)
			continue
		}

		session.State = nil
		session.Events = nil
		result = append(result, *session)
	}

	SortByRecency(result)
	return result, nil
}

// GetSession returns the full stored record or ErrNotFound.
func (source *FileSource) GetSession(ctx context.Context, userID, appName, sessionID string) (*core.Session, error) {
	if err := validateSegments(appName, userID, sessionID); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return source.read(appName, userID, sessionID)
}

func (source *FileSource) read(appName, userID, sessionID string) (*core.Session, error) {
	path := source.sessionPath(appName, userID, sessionID)

	stat, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, sessionID)
		}
		return nil, fmt.Errorf("stat session: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}

	var session core.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("parse session %s: %w", sessionID, err)
	}

	if session.ID == "" {
		session.ID = sessionID
	}
	if session.AppName == "" {
		session.AppName = appName
	}
	if session.UserID == "" {
		session.UserID = userID
	}
	if session.LastUpdateTime == 0 {
		session.LastUpdateTime = core.TimestampOf(stat.ModTime())
	}

	return &session, nil
}

// Save writes the session to disk, stamping LastUpdateTime when it is unset.
func (source *FileSource) Save(session core.Session) error {
	if session.ID == "" {
		return errors.New("save session: missing id")
	}
	if err := validateSegments(session.AppName, session.UserID, session.ID); err != nil {
		return err
	}

	if session.LastUpdateTime == 0 {
		session.LastUpdateTime = core.TimestampOf(time.Now())
	}

	if err := os.MkdirAll(source.userDir(session.AppName, session.UserID), 0o755); err != nil {
		return fmt.Errorf("create sessions directory: %w", err)
	}

	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	if err := os.WriteFile(source.sessionPath(session.AppName, session.UserID, session.ID), data, 0o644); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}

// Delete removes a stored session.
func (source *FileSource) Delete(appName, userID, sessionID string) error {
	if err := validateSegments(appName, userID, sessionID); err != nil {
		return err
	}

	if err := os.Remove(source.sessionPath(appName, userID, sessionID)); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrNotFound, sessionID)
		}
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func validateSegments(segments ...string) error {
	for _, s := range segments {
		if s == "" || s == "." || s == ".." || strings.ContainsAny(s, `/\`) {
			return fmt.Errorf("invalid path segment %q", s)
		}
	}
	return nil
}
