package cmdflags

import (
	"github.com/urfave/cli/v2"
)

// Ledger is the shared flag pointing at the ledger directory, every
// subcommand that touches durable state uses the same spelling.
func Ledger(out *string) cli.Flag {
	return &cli.StringFlag{
		Name:        "ledger",
		Aliases:     []string{"l"},
		Usage:       "Path to the ledger directory",
		Destination: out,
		Value:       *out,
	}
}

func Bind(out *string) cli.Flag {
	return &cli.StringFlag{
		Name:        "bind",
		Usage:       "Address to bind the HTTP server to",
		Destination: out,
		Value:       *out,
	}
}
