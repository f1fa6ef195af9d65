// Package commands implements the gigfin subcommands.
package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/subcommands"

	"gigfin/internal/cli"
	"gigfin/internal/core"
	"gigfin/internal/render"
)

// Opener builds the environment a command runs against.
type Opener func(ctx context.Context) (*cli.Env, error)

// App carries what every command shares.
type App struct {
	Open   Opener
	Out    io.Writer
	ErrOut io.Writer
	Now    func() time.Time
}

// NewApp returns an App that bootstraps from the process environment and
// writes to stdout.
func NewApp() *App {
	return &App{
		Open:   cli.Bootstrap,
		Out:    os.Stdout,
		ErrOut: os.Stderr,
		Now:    time.Now,
	}
}

// Register adds the subcommands to c.
func Register(c *subcommands.Commander, app *App) {
	c.Register(&addCmd{app: app}, "entries")
	c.Register(&editCmd{app: app}, "entries")
	c.Register(&deleteCmd{app: app}, "entries")
	c.Register(&listCmd{app: app}, "entries")

	c.Register(&totalsCmd{app: app}, "reports")
	c.Register(&trendsCmd{app: app}, "reports")
	c.Register(&insightsCmd{app: app}, "reports")

	c.Register(&invoiceCmd{app: app}, "invoices")

	c.Register(&serveCmd{app: app}, "server")
}

// run opens the environment, calls fn and maps its error to an exit status.
func (a *App) run(ctx context.Context, fn func(ctx context.Context, env *cli.Env) error) subcommands.ExitStatus {
	env, err := a.Open(ctx)
	if err != nil {
		fmt.Fprintln(a.ErrOut, "Error:", err)
		return subcommands.ExitFailure
	}
	defer env.Close()

	if err := fn(ctx, env); err != nil {
		fmt.Fprintln(a.ErrOut, "Error:", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func (a *App) usageError(format string, args ...any) subcommands.ExitStatus {
	fmt.Fprintf(a.ErrOut, "Error: "+format+"\n", args...)
	return subcommands.ExitUsageError
}

func (a *App) print(env *cli.Env, markdown string) error {
	return render.Terminal(a.Out, markdown, env.Config.RenderStyle)
}

// ledgersFor resolves -l. Empty means both ledgers.
func ledgersFor(name string) ([]core.LedgerName, error) {
	if strings.TrimSpace(name) == "" {
		return core.Ledgers(), nil
	}
	l, err := core.ParseLedger(name)
	if err != nil {
		return nil, err
	}
	return []core.LedgerName{l}, nil
}

// refMonth parses -ref as YYYY-MM, defaulting to now's month.
func refMonth(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC), nil
	}
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("reference month must be YYYY-MM, got %q", s)
	}
	return t, nil
}

// visited reports which flags were set on the command line.
func visited(f *flag.FlagSet) map[string]bool {
	set := make(map[string]bool)
	f.Visit(func(fl *flag.Flag) { set[fl.Name] = true })
	return set
}
