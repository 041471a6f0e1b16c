package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/erg0nix/sessiontab/internal/app"
	"github.com/erg0nix/sessiontab/internal/rpc"
)

func newPsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ps",
		Short: "Show the daemon status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}

			t := newTable("NAME", "STATUS", "PID", "GRPC", "HTTP", "BACKEND", "UPTIME")
			addServerRow(cmd.Context(), t, a)

			fmt.Fprintln(cmd.OutOrStdout(), t.Render())
			return nil
		},
	}
}

func addServerRow(ctx context.Context, t *table.Table, a *App) {
	pid := app.ReadPID(app.PIDFile(a.Config.DataDir))
	if pid == 0 {
		t.Row("sessiontab", styleError.Render("stopped"), "-", a.ServerAddr, "-", "-", "-")
		return
	}

	status := styleSuccess.Render("running")
	httpBind, backend, uptime := "-", "-", "-"

	client, err := rpc.Dial(a.ServerAddr)
	if err == nil {
		defer client.Close()
		ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()

		if st, err := client.Status(ctx); err == nil {
			httpBind = orDash(st.HTTPBind)
			backend = orDash(st.Backend)
			uptime = (time.Duration(st.UptimeSeconds) * time.Second).String()
		} else {
			status = styleWarning.Render("unreachable")
		}
	}

	t.Row("sessiontab", status, fmt.Sprintf("%d", pid), a.ServerAddr, httpBind, backend, uptime)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
