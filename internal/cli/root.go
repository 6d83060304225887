package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"text/tabwriter"

	"freeradical-go/internal/config"
	"freeradical-go/internal/session"
	"freeradical-go/pkg/freeradical"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	okColor   = color.New(color.FgGreen, color.Bold)
	infoColor = color.New(color.FgCyan)
	warnColor = color.New(color.FgYellow)
	errColor  = color.New(color.FgRed)
)

// App is the state shared by every command of one CLI run.
type App struct {
	Config  config.ClientConfig
	Session *session.Manager
	Out     io.Writer
	Err     io.Writer
}

func NewApp(cfg config.ClientConfig, store session.Store, out, errOut io.Writer) (*App, error) {
	clientCfg := freeradical.Config{
		BaseURL: cfg.BaseURL,
		APIKey:  cfg.APIKey,
		Timeout: cfg.Timeout,
		Debug:   cfg.Debug,
	}
	if cfg.Debug {
		clientCfg.Logger = log.New(errOut, "", log.LstdFlags)
	}
	manager, err := session.NewManager(clientCfg, store)
	if err != nil {
		return nil, err
	}
	return &App{Config: cfg, Session: manager, Out: out, Err: errOut}, nil
}

func (a *App) client() *freeradical.Client {
	return a.Session.Client()
}

// NewRootCommand builds the command tree. Every command first tries to
// restore the stored session; a stale one is dropped with a warning.
func NewRootCommand(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "freeradical",
		Short:         "FreeRadical CMS command line client",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			if _, err := app.Session.Restore(cmd.Context()); err != nil {
				if freeradical.IsUnauthorized(err) {
					warnColor.Fprintln(app.Err, "Stored session expired, log in again")
					return
				}
				warnColor.Fprintf(app.Err, "Could not restore session: %v\n", err)
			}
		},
	}
	root.SetOut(app.Out)
	root.SetErr(app.Err)
	root.AddCommand(
		app.loginCommand(),
		app.logoutCommand(),
		app.whoamiCommand(),
		app.pagesCommand(),
		app.modulesCommand(),
		app.mediaCommand(),
		app.searchCommand(),
		app.webhooksCommand(),
		app.exportCommand(),
		app.importCommand(),
		app.healthCommand(),
		app.metricsCommand(),
	)
	return root
}

// ReportError prints a failed command the way the CLI reports everything
// else.
func ReportError(w io.Writer, err error) {
	var apiErr *freeradical.APIError
	if errors.As(err, &apiErr) {
		errColor.Fprintf(w, "Error (%d): %s\n", apiErr.Status, apiErr.Message)
		return
	}
	errColor.Fprintf(w, "Error: %v\n", err)
}

func (a *App) printJSON(v any) error {
	enc := json.NewEncoder(a.Out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (a *App) table() *tabwriter.Writer {
	return tabwriter.NewWriter(a.Out, 0, 4, 2, ' ', 0)
}

func (a *App) success(format string, args ...any) {
	okColor.Fprintf(a.Out, format+"\n", args...)
}

func (a *App) info(format string, args ...any) {
	infoColor.Fprintf(a.Out, format+"\n", args...)
}

func (a *App) warn(format string, args ...any) {
	warnColor.Fprintf(a.Err, format+"\n", args...)
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}
