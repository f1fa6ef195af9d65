package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"

	"gigfin/internal/commands"
)

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")

	commands.Register(commander, commands.NewApp())

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}
