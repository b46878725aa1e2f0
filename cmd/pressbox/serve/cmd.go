package serve

import (
	"net/http"

	accapi "github.com/andrebq/pressbox/accounts/api"
	"github.com/andrebq/pressbox/internal/cmdflags"
	"github.com/andrebq/pressbox/internal/httpserver"
	"github.com/andrebq/pressbox/ledger"
	ledgerapi "github.com/andrebq/pressbox/ledger/api"
	"github.com/urfave/cli/v2"
)

func Cmd() *cli.Command {
	bindAddr := "localhost:7008"
	ledgerDir := "pressbox-ledger"
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the content API backed by the given ledger",
		Flags: []cli.Flag{
			cmdflags.Bind(&bindAddr),
			cmdflags.Ledger(&ledgerDir),
		},
		Action: func(ctx *cli.Context) error {
			store, err := ledger.Open(ctx.Context, ledgerDir, true)
			if err != nil {
				return err
			}
			defer store.Close()
			realm := accapi.NewRealm(store, accapi.InMemoryCredentialCache())
			accountAPI := accapi.AsHandler(store)
			contentAPI, err := ledgerapi.AsHandler(ctx.Context, store, realm)
			if err != nil {
				return err
			}
			mux := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path == "/register" || r.URL.Path == "/login" {
					accountAPI.ServeHTTP(w, r)
					return
				}
				contentAPI.ServeHTTP(w, r)
			})
			return httpserver.Serve(ctx.Context, bindAddr, mux)
		},
	}
}
