// cmd/ledgerctl/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path"

	"github.com/google/subcommands"
	"github.com/joho/godotenv"

	app "money-tracker/internal"
	"money-tracker/internal/cli"
	"money-tracker/internal/config"
)

func main() {
	_ = godotenv.Load()

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	for _, c := range cli.Commands {
		commander.Register(c, "")
	}
	flag.Parse()

	ctx := context.Background()
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(int(subcommands.ExitFailure))
	}
	// The CLI keeps logs quiet unless asked otherwise.
	if os.Getenv("LOG_LEVEL") == "" {
		cfg.LogLevel = "error"
	}

	application := app.NewApplication()
	if err := application.InitializeWithConfig(ctx, cfg); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(int(subcommands.ExitFailure))
	}
	env := &cli.Env{Config: cfg, Service: application.LedgerService, Out: os.Stdout}

	status := commander.Execute(ctx, env)
	_ = application.Shutdown(ctx)
	os.Exit(int(status))
}
