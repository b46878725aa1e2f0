package accounts

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/andrebq/pressbox/internal/testutil"
)

func TestRegisterRequiresInvitation(t *testing.T) {
	ctx := context.Background()
	store, cleanup := testutil.AcquireLedger(ctx, t)
	defer cleanup()

	err := Register(ctx, store, "mallory", PlainText("password"))
	if !errors.Is(err, ErrNotInvited) {
		t.Fatalf("expecting ErrNotInvited, got %v", err)
	}
	idents, err := store.ListIdentities(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(idents) != 0 {
		t.Fatalf("a refused registration must not touch the store, found %v", idents)
	}
}

func TestRegisterHappensOnce(t *testing.T) {
	ctx := context.Background()
	store, cleanup := testutil.AcquireLedger(ctx, t)
	defer cleanup()

	_, err := store.Provision(ctx, "alice")
	if err != nil {
		t.Fatal(err)
	}
	err = Register(ctx, store, "alice", PlainText("password"))
	if err != nil {
		t.Fatal(err)
	}
	row, err := store.FindForLogin(ctx, "alice")
	if err != nil {
		t.Fatal(err)
	}

	err = Register(ctx, store, "alice", PlainText("another password"))
	if !errors.Is(err, ErrAlreadyRegistered) {
		t.Fatalf("expecting ErrAlreadyRegistered, got %v", err)
	}
	after, err := store.FindForLogin(ctx, "alice")
	if err != nil {
		t.Fatal(err)
	}
	if after != row {
		t.Fatal("a conflicting registration must not change the stored credentials")
	}
}

func TestConcurrentRegistrations(t *testing.T) {
	const attempts = 8
	ctx := context.Background()
	store, cleanup := testutil.AcquireLedger(ctx, t)
	defer cleanup()

	_, err := store.Provision(ctx, "alice")
	if err != nil {
		t.Fatal(err)
	}

	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			errs[slot] = Register(ctx, store, "alice", PlainText("password"))
		}(i)
	}
	wg.Wait()

	var won, lost int
	for _, err := range errs {
		switch {
		case err == nil:
			won++
		case errors.Is(err, ErrAlreadyRegistered):
			lost++
		default:
			t.Fatalf("unexpected registration error %v", err)
		}
	}
	if won != 1 {
		t.Fatalf("exactly one concurrent registration should win, got %v", won)
	}
	if lost != attempts-1 {
		t.Fatalf("the other %v attempts should observe the conflict, got %v", attempts-1, lost)
	}

	if _, err := store.FindForLogin(ctx, "alice"); err != nil {
		t.Fatalf("the winning registration should have activated the identity, got %v", err)
	}
}

func TestRegisterNeverReturnsSecrets(t *testing.T) {
	ctx := context.Background()
	store, cleanup := testutil.AcquireLedger(ctx, t)
	defer cleanup()

	_, err := store.Provision(ctx, "alice")
	if err != nil {
		t.Fatal(err)
	}
	if err := Register(ctx, store, "alice", PlainText("password")); err != nil {
		t.Fatal(err)
	}

	row, err := store.FindForLogin(ctx, "alice")
	if err != nil {
		t.Fatal(err)
	}
	if len(row.Salt) != randomSecretLen*2 || len(row.Token) != randomSecretLen*2 {
		t.Fatalf("salt and token should be %v hex chars, got %v / %v", randomSecretLen*2, len(row.Salt), len(row.Token))
	}
	if row.Salt == row.Token {
		t.Fatal("salt and token must be independent secrets")
	}
	if row.PasswordHash != Derive(PlainText("password"), row.Salt) {
		t.Fatal("stored hash should be the derivation of the password with the stored salt")
	}
}
