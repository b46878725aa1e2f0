package testutil

import (
	"context"
	"os"

	"github.com/andrebq/pressbox/ledger"
)

type (
	TestLog interface {
		Fatal(...interface{})
		Log(...interface{})
	}
)

// AcquireLedger opens a fresh writable ledger in a temporary directory and
// returns it with its cleanup function.
func AcquireLedger(ctx context.Context, t TestLog) (*ledger.L, func()) {
	dir, err := os.MkdirTemp("", "pressbox-tests")
	if err != nil {
		t.Fatal(err)
	}
	l, err := ledger.Open(ctx, dir, true)
	if err != nil {
		t.Fatal(err)
	}
	return l, func() {
		err := l.Close()
		if err != nil {
			t.Log("unable to close ledger", err)
		}
		err = os.RemoveAll(dir)
		if err != nil {
			t.Log("unable to cleanup temp dir", dir)
		}
	}
}
