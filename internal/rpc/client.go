package rpc

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/erg0nix/sessiontab/internal/core"
	"github.com/erg0nix/sessiontab/internal/sessions"
)

var _ sessions.Source = (*Client)(nil)

// Client talks to a running daemon. It implements sessions.Source.
type Client struct {
	conn *grpc.ClientConn
}

// DialTarget turns a listen address such as ":50061" into something a client
// can dial.
func DialTarget(bind string) string {
	if strings.HasPrefix(bind, ":") {
		return "127.0.0.1" + bind
	}
	return bind
}

func Dial(bind string, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)

	conn, err := grpc.NewClient(DialTarget(bind), opts...)
	if err != nil {
		return nil, fmt.Errorf("rpc: dial %s: %w", bind, err)
	}
	return &Client{conn: conn}, nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) ListSessions(ctx context.Context, appName, userID string) ([]core.Session, error) {
	req, err := structpb.NewStruct(map[string]any{"appName": appName, "userId": userID})
	if err != nil {
		return nil, fmt.Errorf("rpc: build request: %w", err)
	}

	resp := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, listSessionsMethod, req, resp); err != nil {
		return nil, fromStatus("list sessions", err)
	}

	list, err := sessionsFromStruct(resp)
	if err != nil {
		return nil, fmt.Errorf("rpc: list sessions: %w", err)
	}
	return list, nil
}

func (c *Client) GetSession(ctx context.Context, userID, appName, sessionID string) (*core.Session, error) {
	req, err := structpb.NewStruct(map[string]any{"appName": appName, "userId": userID, "sessionId": sessionID})
	if err != nil {
		return nil, fmt.Errorf("rpc: build request: %w", err)
	}

	resp := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, getSessionMethod, req, resp); err != nil {
		return nil, fromStatus("get session", err)
	}

	session, err := sessionFromStruct(resp)
	if err != nil {
		return nil, fmt.Errorf("rpc: get session: %w", err)
	}
	return session, nil
}

func (c *Client) Status(ctx context.Context) (Status, error) {
	resp := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, getStatusMethod, &structpb.Struct{}, resp); err != nil {
		return Status{}, fromStatus("get status", err)
	}

	var st Status
	if err := fromValue(structpb.NewStructValue(resp), &st); err != nil {
		return Status{}, fmt.Errorf("rpc: get status: %w", err)
	}
	return st, nil
}

// Shutdown asks the daemon to stop and returns its reply message.
func (c *Client) Shutdown(ctx context.Context) (string, error) {
	resp := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, shutdownMethod, &structpb.Struct{}, resp); err != nil {
		return "", fromStatus("shutdown", err)
	}
	return stringField(resp, "message"), nil
}

func fromStatus(op string, err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return fmt.Errorf("rpc: %s: %w", op, err)
	}

	switch st.Code() {
	case codes.NotFound:
		return fmt.Errorf("rpc: %s: %s: %w", op, st.Message(), sessions.ErrNotFound)
	case codes.Canceled:
		return fmt.Errorf("rpc: %s: %w", op, context.Canceled)
	case codes.DeadlineExceeded:
		return fmt.Errorf("rpc: %s: %w", op, context.DeadlineExceeded)
	default:
		return fmt.Errorf("rpc: %s: %w", op, err)
	}
}
