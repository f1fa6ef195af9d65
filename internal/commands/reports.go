package commands

import (
	"context"
	"flag"

	"github.com/google/subcommands"

	"gigfin/internal/aggregate"
	"gigfin/internal/cli"
	"gigfin/internal/render"
)

type trendsCmd struct {
	app    *App
	ledger string
	ref    string
}

func (*trendsCmd) Name() string     { return "trends" }
func (*trendsCmd) Synopsis() string { return "show the trailing 12 months of income and expense" }
func (*trendsCmd) Usage() string {
	return `gigfin trends [-l <ledger>] [-ref <YYYY-MM>]

  Prints one row per month, oldest first, ending at the reference month.
`
}

func (c *trendsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.ledger, "l", "", "Ledger. Defaults to both.")
	f.StringVar(&c.ref, "ref", "", "Reference month (YYYY-MM). Defaults to the current month.")
}

func (c *trendsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	names, err := ledgersFor(c.ledger)
	if err != nil {
		return c.app.usageError("%v", err)
	}
	ref, err := refMonth(c.ref, c.app.Now())
	if err != nil {
		return c.app.usageError("%v", err)
	}

	return c.app.run(ctx, func(_ context.Context, env *cli.Env) error {
		var md string
		for _, name := range names {
			entries, err := env.Store.Entries(name)
			if err != nil {
				return err
			}
			md += render.TrendTable(name, aggregate.MonthlyBuckets(entries, ref), env.Config.Currency) + "\n"
		}
		return c.app.print(env, md)
	})
}

type insightsCmd struct {
	app *App
	ref string
}

func (*insightsCmd) Name() string     { return "insights" }
func (*insightsCmd) Synopsis() string { return "show savings rates, volatility and income status" }
func (*insightsCmd) Usage() string {
	return `gigfin insights [-ref <YYYY-MM>]
`
}

func (c *insightsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.ref, "ref", "", "Reference month (YYYY-MM). Defaults to the current month.")
}

func (c *insightsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	ref, err := refMonth(c.ref, c.app.Now())
	if err != nil {
		return c.app.usageError("%v", err)
	}

	return c.app.run(ctx, func(_ context.Context, env *cli.Env) error {
		state := env.Store.Snapshot()
		in := aggregate.BuildInsights(state.Business, state.Personal, ref, env.Config.IncomeThreshold)
		return c.app.print(env, render.InsightsList(in, env.Config.Currency))
	})
}
