package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/erg0nix/sessiontab/internal/config"
	"github.com/erg0nix/sessiontab/internal/core"
	"github.com/erg0nix/sessiontab/internal/sessions"
)

func newSessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "sessions",
		Aliases: []string{"session"},
		Short:   "Session management commands",
	}

	cmd.PersistentFlags().StringP("user", "u", "", "user id to filter by (overrides config)")

	cmd.AddCommand(newSessionsListCmd())
	cmd.AddCommand(newSessionsUseCmd())
	cmd.AddCommand(newSessionsShowCmd())
	cmd.AddCommand(newSessionsNextCmd())

	return cmd
}

// Swapped in tests to drive the picker path without a terminal.
var (
	interactive = isInteractive
	pick        = pickSession
)

// failureCount notices list fetch failures the manager only logs.
type failureCount struct{ n int }

func (f *failureCount) Inc() { f.n++ }

// sessionCommand bundles what every sessions subcommand needs.
type sessionCommand struct {
	app      *App
	out      io.Writer
	manager  *sessions.Manager
	failures *failureCount
	release  func()
}

func newSessionCommand(cmd *cobra.Command, callbacks sessions.Callbacks) (*sessionCommand, error) {
	a, err := newApp(cmd)
	if err != nil {
		return nil, err
	}

	userID, _ := cmd.Flags().GetString("user")
	if userID == "" {
		userID = a.Config.UserID
	}

	source, release, err := a.newSource()
	if err != nil {
		return nil, err
	}

	failures := &failureCount{}
	manager, err := a.newManager(source, userID, callbacks, sessions.WithFailureCounter(failures))
	if err != nil {
		release()
		return nil, err
	}

	return &sessionCommand{
		app:      a,
		out:      cmd.OutOrStdout(),
		manager:  manager,
		failures: failures,
		release:  release,
	}, nil
}

func (c *sessionCommand) context(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, c.app.Config.RequestTimeout())
}

// refresh fetches the list and reports why it came back empty.
func (c *sessionCommand) refresh(ctx context.Context) []core.Session {
	c.manager.Refresh(ctx)
	list := c.manager.Sessions()

	switch {
	case c.manager.UserID() == "":
		fmt.Fprintln(c.out, styleDim.Render("No user filter set; pass --user."))
	case c.failures.n > 0 && c.app.Config.Source == config.SourceGRPC:
		printServerNotRunning(c.out, c.app.ServerAddr, nil)
	case c.failures.n > 0:
		fmt.Fprintln(c.out, styleError.Render("failed to fetch sessions"))
	case len(list) == 0:
		fmt.Fprintln(c.out, styleDim.Render("No sessions found."))
	}
	return list
}

// activate persists the selected session as the active one.
func (c *sessionCommand) activate(session core.Session) {
	if err := saveActiveSession(c.app.Config.DataDir, session.ID); err != nil {
		fmt.Fprintln(c.out, styleError.Render(err.Error()))
		return
	}
	fmt.Fprintf(c.out, "%s session %s\n", styleSuccess.Render("Activated"), session.ID)
}

func newSessionsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List sessions, most recently updated first",
		Args:  cobra.NoArgs,
		RunE:  runSessionsListCmd,
	}
}

func runSessionsListCmd(cmd *cobra.Command, _ []string) error {
	var sc *sessionCommand
	sc, err := newSessionCommand(cmd, sessions.Callbacks{
		OnSelected: func(s core.Session) { sc.activate(s) },
	})
	if err != nil {
		return err
	}
	defer sc.release()

	ctx, cancel := sc.context(cmd.Context())
	list := sc.refresh(ctx)
	cancel()
	if len(list) == 0 {
		return nil
	}

	activeID := loadActiveSession(sc.app.Config.DataDir)

	if !interactive(sc.out) {
		printSessionsTable(sc.out, sc.manager, list, activeID)
		return nil
	}

	selected, err := pick(sc.manager, list, activeID)
	if err != nil || selected == "" {
		return err
	}

	// fresh request budget; the picker may have outlived the first one
	ctx, cancel = sc.context(cmd.Context())
	defer cancel()

	_, err = sc.manager.GetSession(ctx, selected)
	return err
}

func printSessionsTable(out io.Writer, manager *sessions.Manager, list []core.Session, activeID string) {
	t := newTable("", "SESSION ID", "USER", "UPDATED")

	for _, s := range list {
		marker := " "
		id := s.ID
		if id == activeID {
			marker = styleActive.Render("*")
			id = styleActive.Render(id)
		}
		t.Row(marker, id, s.UserID, manager.FormatTimestamp(s))
	}

	fmt.Fprintln(out, t.Render())
}

func pickSession(manager *sessions.Manager, list []core.Session, activeID string) (string, error) {
	var opts []huh.Option[string]
	for _, s := range list {
		label := s.ID
		if s.ID == activeID {
			label = "* " + s.ID
		}

		opt := huh.NewOption(label, s.ID)
		opt.Key = label + "  " + styleDim.Render(manager.FormatTimestamp(s))
		if s.ID == activeID {
			opt = opt.Selected(true)
		}
		opts = append(opts, opt)
	}

	var selected string
	err := huh.NewSelect[string]().
		Title("Pick a session").
		Options(opts...).
		Value(&selected).
		Run()
	if err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return "", nil
		}
		return "", err
	}
	return selected, nil
}

func newSessionsUseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "use <session-id>",
		Short: "Fetch a session and make it the active one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var sc *sessionCommand
			sc, err := newSessionCommand(cmd, sessions.Callbacks{
				OnSelected: func(s core.Session) { sc.activate(s) },
			})
			if err != nil {
				return err
			}
			defer sc.release()

			ctx, cancel := sc.context(cmd.Context())
			defer cancel()

			_, err = sc.manager.GetSession(ctx, args[0])
			return err
		},
	}
}

func newSessionsShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show [session-id]",
		Short: "Reload and show a session, the active one by default",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSessionsShowCmd,
	}

	cmd.Flags().Bool("json", false, "print the raw session record")

	return cmd
}

func runSessionsShowCmd(cmd *cobra.Command, args []string) error {
	asJSON, _ := cmd.Flags().GetBool("json")

	var sc *sessionCommand
	var printErr error
	sc, err := newSessionCommand(cmd, sessions.Callbacks{
		OnReloaded: func(s core.Session) {
			if asJSON {
				printErr = printSessionJSON(sc.out, s)
				return
			}
			printSessionDetail(sc.out, sc.manager, s, loadActiveSession(sc.app.Config.DataDir))
		},
	})
	if err != nil {
		return err
	}
	defer sc.release()

	sessionID := ""
	if len(args) > 0 {
		sessionID = args[0]
	} else {
		sessionID = loadActiveSession(sc.app.Config.DataDir)
		if sessionID == "" {
			return errors.New("no active session; specify a session ID or pick one with sessions list")
		}
	}

	ctx, cancel := sc.context(cmd.Context())
	defer cancel()

	if _, err := sc.manager.ReloadSession(ctx, sessionID); err != nil {
		return err
	}
	return printErr
}

func printSessionDetail(out io.Writer, manager *sessions.Manager, s core.Session, activeID string) {
	statusText := styleDim.Render("inactive")
	if s.ID == activeID {
		statusText = styleSuccess.Render("active")
	}

	keys := make([]string, 0, len(s.State))
	for k := range s.State {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	stateText := styleDim.Render("empty")
	if len(keys) > 0 {
		stateText = strings.Join(keys, ", ")
	}

	fmt.Fprintln(out, kvLine("Session", s.ID))
	fmt.Fprintln(out, kvLine("Status", statusText))
	fmt.Fprintln(out, kvLine("App", s.AppName))
	fmt.Fprintln(out, kvLine("User", s.UserID))
	fmt.Fprintln(out, kvLine("Updated", manager.FormatTimestamp(s)))
	fmt.Fprintln(out, kvLine("Events", fmt.Sprintf("%d", len(s.Events))))
	fmt.Fprintln(out, kvLine("State", stateText))
}

func printSessionJSON(out io.Writer, s core.Session) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	_, err = fmt.Fprintln(out, string(data))
	return err
}

func newSessionsNextCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "next",
		Short: "Activate the session after the active one, wrapping around",
		Args:  cobra.NoArgs,
		RunE:  runSessionsNextCmd,
	}
}

func runSessionsNextCmd(cmd *cobra.Command, _ []string) error {
	var sc *sessionCommand
	sc, err := newSessionCommand(cmd, sessions.Callbacks{
		OnSelected: func(s core.Session) { sc.activate(s) },
	})
	if err != nil {
		return err
	}
	defer sc.release()

	ctx, cancel := sc.context(cmd.Context())
	defer cancel()

	activeID := loadActiveSession(sc.app.Config.DataDir)
	advance := sc.manager.AdvancePast(ctx, activeID)

	switch advance.Outcome {
	case sessions.NoNext:
		if sc.failures.n > 0 {
			return errors.New("failed to fetch sessions")
		}
		fmt.Fprintln(sc.out, styleDim.Render("No other session to switch to."))
		return nil
	case sessions.Unmatched:
		if activeID == "" {
			fmt.Fprintln(sc.out, styleDim.Render("no active session; activating the most recent one"))
			break
		}
		fmt.Fprintln(sc.out, styleWarning.Render(
			fmt.Sprintf("active session %q is not in the list; switching to the most recent one", activeID)))
	case sessions.Wrapped:
		fmt.Fprintln(sc.out, styleDim.Render("wrapped around to the most recent session"))
	}

	_, err = sc.manager.GetSession(ctx, advance.Session.ID)
	return err
}
