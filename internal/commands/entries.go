package commands

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"

	"gigfin/internal/cli"
	"gigfin/internal/core"
	"gigfin/internal/render"
)

type addCmd struct {
	app         *App
	ledger      string
	date        string
	amount      string
	typ         string
	description string
}

func (*addCmd) Name() string     { return "add" }
func (*addCmd) Synopsis() string { return "add an income or expense entry to a ledger" }
func (*addCmd) Usage() string {
	return `gigfin add -l <business|personal> -a <amount> -t <income|expense> [-d <YYYY-MM-DD>] [-m <description>]

  Adds an entry. The date defaults to today.
`
}

func (c *addCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.ledger, "l", "", "Ledger: business or personal.")
	f.StringVar(&c.date, "d", "", "Entry date (YYYY-MM-DD). Defaults to today.")
	f.StringVar(&c.amount, "a", "", "Amount, e.g. 1200.50 or 1200,50.")
	f.StringVar(&c.typ, "t", "", "Entry type: income or expense.")
	f.StringVar(&c.description, "m", "", "Description.")
}

func (c *addCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	name, err := core.ParseLedger(c.ledger)
	if err != nil {
		return c.app.usageError("%v", err)
	}
	fields, err := c.fields()
	if err != nil {
		return c.app.usageError("%v", err)
	}

	return c.app.run(ctx, func(ctx context.Context, env *cli.Env) error {
		e, err := env.Store.AddEntry(ctx, name, fields)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.app.Out, "Added %s entry #%d: %s %s %s\n",
			name, e.ID, e.Date, e.Type, core.FormatAmount(e.Amount, env.Config.Currency))
		return nil
	})
}

func (c *addCmd) fields() (core.EntryFields, error) {
	var (
		f   core.EntryFields
		err error
	)
	f.Date = core.DateOf(c.app.Now())
	if c.date != "" {
		if f.Date, err = core.ParseDate(c.date); err != nil {
			return f, err
		}
	}
	if f.Amount, err = core.ParseAmount(c.amount); err != nil {
		return f, fmt.Errorf("%w: %q", err, c.amount)
	}
	if f.Type, err = core.ParseEntryType(c.typ); err != nil {
		return f, err
	}
	f.Description = c.description
	return f, f.Validate()
}

type editCmd struct {
	app         *App
	ledger      string
	id          int64
	date        string
	amount      string
	typ         string
	description string
}

func (*editCmd) Name() string     { return "edit" }
func (*editCmd) Synopsis() string { return "change fields of an existing entry" }
func (*editCmd) Usage() string {
	return `gigfin edit -l <ledger> -id <id> [-d <date>] [-a <amount>] [-t <type>] [-m <description>]

  Updates only the fields given on the command line.
`
}

func (c *editCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.ledger, "l", "", "Ledger: business or personal.")
	f.Int64Var(&c.id, "id", 0, "Entry id.")
	f.StringVar(&c.date, "d", "", "New date (YYYY-MM-DD).")
	f.StringVar(&c.amount, "a", "", "New amount.")
	f.StringVar(&c.typ, "t", "", "New type: income or expense.")
	f.StringVar(&c.description, "m", "", "New description. Pass an empty string to clear it.")
}

func (c *editCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	name, err := core.ParseLedger(c.ledger)
	if err != nil {
		return c.app.usageError("%v", err)
	}
	if c.id <= 0 {
		return c.app.usageError("-id must be a positive entry id")
	}
	patch, err := c.patch(visited(f))
	if err != nil {
		return c.app.usageError("%v", err)
	}

	return c.app.run(ctx, func(ctx context.Context, env *cli.Env) error {
		e, err := env.Store.UpdateEntry(ctx, name, c.id, patch)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.app.Out, "Updated %s entry #%d: %s %s %s\n",
			name, e.ID, e.Date, e.Type, core.FormatAmount(e.Amount, env.Config.Currency))
		return nil
	})
}

func (c *editCmd) patch(set map[string]bool) (core.EntryPatch, error) {
	var p core.EntryPatch
	if set["d"] {
		d, err := core.ParseDate(c.date)
		if err != nil {
			return p, err
		}
		p.Date = &d
	}
	if set["a"] {
		a, err := core.ParseAmount(c.amount)
		if err != nil {
			return p, fmt.Errorf("%w: %q", err, c.amount)
		}
		p.Amount = &a
	}
	if set["t"] {
		t, err := core.ParseEntryType(c.typ)
		if err != nil {
			return p, err
		}
		p.Type = &t
	}
	if set["m"] {
		desc := c.description
		p.Description = &desc
	}
	if p.IsEmpty() {
		return p, fmt.Errorf("nothing to change: pass at least one of -d, -a, -t, -m")
	}
	return p, p.Validate()
}

type deleteCmd struct {
	app    *App
	ledger string
	id     int64
}

func (*deleteCmd) Name() string     { return "delete" }
func (*deleteCmd) Synopsis() string { return "remove an entry from a ledger" }
func (*deleteCmd) Usage() string {
	return `gigfin delete -l <ledger> -id <id>
`
}

func (c *deleteCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.ledger, "l", "", "Ledger: business or personal.")
	f.Int64Var(&c.id, "id", 0, "Entry id.")
}

func (c *deleteCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	name, err := core.ParseLedger(c.ledger)
	if err != nil {
		return c.app.usageError("%v", err)
	}
	if c.id <= 0 {
		return c.app.usageError("-id must be a positive entry id")
	}

	return c.app.run(ctx, func(ctx context.Context, env *cli.Env) error {
		e, err := env.Store.DeleteEntry(ctx, name, c.id)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.app.Out, "Deleted %s entry #%d (%s, %s)\n",
			name, e.ID, e.Date, core.FormatAmount(e.Amount, env.Config.Currency))
		return nil
	})
}

type listCmd struct {
	app    *App
	ledger string
	head   int
}

func (*listCmd) Name() string     { return "list" }
func (*listCmd) Synopsis() string { return "list ledger entries, most recent first" }
func (*listCmd) Usage() string {
	return `gigfin list [-l <ledger>] [-head <n>]

  Lists entries of one ledger, or both when -l is omitted.
`
}

func (c *listCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.ledger, "l", "", "Ledger to list. Defaults to both.")
	f.IntVar(&c.head, "head", 0, "Show only the first N entries.")
}

func (c *listCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	names, err := ledgersFor(c.ledger)
	if err != nil {
		return c.app.usageError("%v", err)
	}

	return c.app.run(ctx, func(_ context.Context, env *cli.Env) error {
		var md string
		for _, name := range names {
			entries, err := env.Store.ListEntries(name)
			if err != nil {
				return err
			}
			if c.head > 0 && len(entries) > c.head {
				entries = entries[:c.head]
			}
			md += render.LedgerTable(name, entries, env.Config.Currency) + "\n"
		}
		return c.app.print(env, md)
	})
}

type totalsCmd struct {
	app    *App
	ledger string
}

func (*totalsCmd) Name() string     { return "totals" }
func (*totalsCmd) Synopsis() string { return "show income, expense and net per ledger" }
func (*totalsCmd) Usage() string {
	return `gigfin totals [-l <ledger>]
`
}

func (c *totalsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.ledger, "l", "", "Ledger to total. Defaults to both.")
}

func (c *totalsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	names, err := ledgersFor(c.ledger)
	if err != nil {
		return c.app.usageError("%v", err)
	}

	return c.app.run(ctx, func(_ context.Context, env *cli.Env) error {
		var md string
		for _, name := range names {
			t, err := env.Store.Totals(name)
			if err != nil {
				return err
			}
			md += render.TotalsBlock(name, t, env.Config.Currency) + "\n"
		}
		return c.app.print(env, md)
	})
}
