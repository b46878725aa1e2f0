package ledger

import (
	"fmt"

	"github.com/andrebq/pressbox/internal/cmdflags"
	"github.com/andrebq/pressbox/ledger"
	"github.com/urfave/cli/v2"
)

func Cmd() *cli.Command {
	ledgerDir := "pressbox-ledger"
	return &cli.Command{
		Name:  "ledger",
		Usage: "Administrative commands over a pressbox ledger",
		Flags: []cli.Flag{
			cmdflags.Ledger(&ledgerDir),
		},
		Subcommands: []*cli.Command{
			inviteCmd(&ledgerDir),
			listCmd(&ledgerDir),
		},
	}
}

func inviteCmd(ledgerDir *string) *cli.Command {
	return &cli.Command{
		Name:      "invite",
		Usage:     "Provision a username so it becomes allowed to register",
		ArgsUsage: "<username>",
		Action: func(ctx *cli.Context) error {
			if ctx.NArg() != 1 {
				return fmt.Errorf("invite takes exactly one username")
			}
			store, err := ledger.Open(ctx.Context, *ledgerDir, true)
			if err != nil {
				return err
			}
			defer store.Close()
			_, err = store.Provision(ctx.Context, ctx.Args().First())
			return err
		},
	}
}

func listCmd(ledgerDir *string) *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List provisioned usernames and their registration state",
		Action: func(ctx *cli.Context) error {
			store, err := ledger.Open(ctx.Context, *ledgerDir, false)
			if err != nil {
				return err
			}
			defer store.Close()
			idents, err := store.ListIdentities(ctx.Context)
			if err != nil {
				return err
			}
			for name, registered := range idents {
				state := "invited"
				if registered {
					state = "registered"
				}
				fmt.Fprintf(ctx.App.Writer, "%v\t%v\n", name, state)
			}
			return nil
		},
	}
}
