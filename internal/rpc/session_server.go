package rpc

import (
	"context"
	"errors"
	"log/slog"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/erg0nix/sessiontab/internal/sessions"
)

// SessionHandler serves SessionService from a sessions.Source. Failures, when
// set, is incremented for every list the source fails to produce.
type SessionHandler struct {
	Source   sessions.Source
	Logger   *slog.Logger
	Failures sessions.Counter
}

func (h *SessionHandler) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

func (h *SessionHandler) ListSessions(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	appName := stringField(req, "appName")
	userID := stringField(req, "userId")
	if appName == "" || userID == "" {
		return nil, status.Error(codes.InvalidArgument, "appName and userId are required")
	}

	list, err := h.Source.ListSessions(ctx, appName, userID)
	if err != nil {
		h.logger().Error("list sessions failed", "app", appName, "user", userID, "error", err)
		if h.Failures != nil {
			h.Failures.Inc()
		}
		return nil, toStatus(err)
	}

	resp, err := sessionsToStruct(list)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return resp, nil
}

func (h *SessionHandler) GetSession(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	appName := stringField(req, "appName")
	userID := stringField(req, "userId")
	sessionID := stringField(req, "sessionId")
	if appName == "" || userID == "" || sessionID == "" {
		return nil, status.Error(codes.InvalidArgument, "appName, userId and sessionId are required")
	}

	session, err := h.Source.GetSession(ctx, userID, appName, sessionID)
	if err != nil {
		if !errors.Is(err, sessions.ErrNotFound) {
			h.logger().Error("get session failed", "app", appName, "user", userID, "session", sessionID, "error", err)
		}
		return nil, toStatus(err)
	}

	resp, err := sessionToStruct(session)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return resp, nil
}

func toStatus(err error) error {
	switch {
	case errors.Is(err, sessions.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return status.FromContextError(err).Err()
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
