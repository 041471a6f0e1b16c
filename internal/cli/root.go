// Package cli implements the sessiontab command line.
package cli

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/erg0nix/sessiontab/internal/app"
	"github.com/erg0nix/sessiontab/internal/config"
	"github.com/erg0nix/sessiontab/internal/rpc"
)

func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "sessiontab",
		Short:         "Browse and cycle agent sessions",
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	rootCmd.PersistentFlags().StringP("config", "c", "", "path to config file")
	rootCmd.PersistentFlags().String("server", "", "daemon gRPC address")
	rootCmd.PersistentFlags().String("source", "", "where to read sessions from: grpc, http or file")
	rootCmd.PersistentFlags().String("app", "", "app name (overrides config)")

	rootCmd.AddCommand(newSessionsCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newStopCmd())
	rootCmd.AddCommand(newPsCmd())

	return rootCmd
}

func loadConfig(path string) (config.Config, error) {
	configPath := path
	if configPath == "" {
		configPath = filepath.Join(config.Default().DataDir, "config.toml")
	}
	return config.LoadOrCreate(configPath)
}

func resolveServer(override string, cfg config.Config) string {
	if override != "" {
		return override
	}
	return rpc.DialTarget(cfg.Bind)
}

func alreadyRunning(dataDir string) bool {
	return app.ReadPID(app.PIDFile(dataDir)) != 0
}

func loadActiveSession(dataDir string) string {
	path := filepath.Join(dataDir, "active_session")
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

func saveActiveSession(dataDir string, sessionID string) error {
	if sessionID == "" {
		return nil
	}

	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("save active session: mkdir: %w", err)
	}

	path := filepath.Join(dataDir, "active_session")
	if err := os.WriteFile(path, []byte(sessionID), 0o644); err != nil {
		return fmt.Errorf("save active session: %w", err)
	}
	return nil
}

func printServerNotRunning(out io.Writer, addr string, err error) {
	fmt.Fprintln(out, styleError.Render("daemon is not running at "+addr))
	fmt.Fprintln(out, "start with: "+styleCommand.Render("sessiontab serve"))
	if err != nil {
		fmt.Fprintln(out, styleDim.Render(err.Error()))
	}
}

func startServer(out io.Writer, cfg config.Config, configPath string) error {
	if alreadyRunning(cfg.DataDir) {
		fmt.Fprintln(out, styleDim.Render("daemon already running at "+resolveServer("", cfg)))
		return nil
	}

	serverCmd := exec.Command(os.Args[0], "serve", "--foreground")
	if configPath != "" {
		serverCmd.Args = append(serverCmd.Args, "--config", configPath)
	}
	serverCmd.Args = append(serverCmd.Args, "--bind", cfg.Bind, "--http-bind", cfg.HTTPBind)

	logFile := filepath.Join(cfg.DataDir, "server.log")
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("start server: create data dir: %w", err)
	}

	logOut, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("start server: open log: %w", err)
	}
	defer logOut.Close()

	serverCmd.Stdout = logOut
	serverCmd.Stderr = logOut

	if err := serverCmd.Start(); err != nil {
		return fmt.Errorf("start server: %w", err)
	}

	fmt.Fprintln(out,
		styleSuccess.Render("started daemon")+" "+
			stylePID.Render(fmt.Sprintf("pid %d", serverCmd.Process.Pid)))
	return nil
}
