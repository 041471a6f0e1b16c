package rpc

import (
	"context"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/erg0nix/sessiontab/internal/config"
)

// Status describes a running daemon.
type Status struct {
	Bind          string `json:"bind"`
	HTTPBind      string `json:"httpBind"`
	AppName       string `json:"appName"`
	Backend       string `json:"backend"`
	Endpoint      string `json:"endpoint,omitempty"`
	DataDir       string `json:"dataDir"`
	UptimeSeconds int64  `json:"uptimeSeconds"`
	StartedAt     string `json:"startedAt"`
}

type DaemonHandler struct {
	Config    config.Config
	StartTime time.Time
	StopFunc  func()
}

func (h *DaemonHandler) GetStatus(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	uptimeSeconds := int64(0)
	startedAtText := ""
	if !h.StartTime.IsZero() {
		uptimeSeconds = int64(time.Since(h.StartTime).Seconds())
		startedAtText = h.StartTime.Format(time.RFC3339)
	}

	st := Status{
		Bind:          h.Config.Bind,
		HTTPBind:      h.Config.HTTPBind,
		AppName:       h.Config.AppName,
		Backend:       h.Config.Backend,
		DataDir:       h.Config.DataDir,
		UptimeSeconds: uptimeSeconds,
		StartedAt:     startedAtText,
	}
	if h.Config.Backend == config.SourceHTTP {
		st.Endpoint = h.Config.Endpoint
	}

	value, err := toValue(st)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return value.GetStructValue(), nil
}

func (h *DaemonHandler) Shutdown(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	if h.StopFunc != nil {
		go h.StopFunc()
	}

	return structpb.NewStruct(map[string]any{"message": "shutting down"})
}
