package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/erg0nix/sessiontab/internal/rpc"
)

func newStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the session daemon",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := newApp(cmd)
			if err != nil {
				return err
			}

			stopServer(cmd.Context(), cmd.OutOrStdout(), app.ServerAddr)
			return nil
		},
	}
}

func stopServer(ctx context.Context, out io.Writer, serverAddr string) {
	client, err := rpc.Dial(serverAddr)
	if err != nil {
		fmt.Fprintln(out, styleDim.Render("daemon not running"))
		return
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := client.Shutdown(ctx); err != nil {
		fmt.Fprintln(out, styleDim.Render("daemon not running at "+serverAddr))
		return
	}

	fmt.Fprintln(out, styleSuccess.Render("stopped daemon"))
}
