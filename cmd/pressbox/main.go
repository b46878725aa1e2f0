package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/andrebq/pressbox/cmd/pressbox/ledger"
	"github.com/andrebq/pressbox/cmd/pressbox/serve"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "pressbox",
		Usage: "Tiny content API with invitation-gated accounts",
		Commands: []*cli.Command{
			serve.Cmd(),
			ledger.Cmd(),
		},
	}
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	err := app.RunContext(ctx, os.Args)
	if err != nil {
		log.Error().Err(err).Msg("Application failed")
	}
}
