package cli

import (
	"github.com/spf13/cobra"

	"github.com/erg0nix/sessiontab/internal/app"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the session daemon",
		Args:  cobra.NoArgs,
		RunE:  runServeCmd,
	}

	cmd.Flags().Bool("foreground", false, "run the daemon in the foreground")
	cmd.Flags().String("bind", "", "gRPC bind address (overrides config)")
	cmd.Flags().String("http-bind", "", "REST and metrics bind address (overrides config)")

	return cmd
}

func runServeCmd(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	foreground, _ := cmd.Flags().GetBool("foreground")
	bindOverride, _ := cmd.Flags().GetString("bind")
	httpBindOverride, _ := cmd.Flags().GetString("http-bind")

	cfg := a.Config
	if bindOverride != "" {
		cfg.Bind = bindOverride
	}
	if httpBindOverride != "" {
		cfg.HTTPBind = httpBindOverride
	}

	if foreground {
		return app.RunServer(cfg)
	}

	return startServer(cmd.OutOrStdout(), cfg, a.ConfigPath)
}
