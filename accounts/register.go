package accounts

import (
	"context"
	"errors"
	"fmt"

	"github.com/andrebq/pressbox/ledger"
)

// Register turns the provisioned, token-less identity for username into an
// active account. The whole read-then-activate sequence runs inside a
// single ledger transaction, so out of any number of concurrent attempts
// for the same username exactly one can succeed; the others observe
// ErrAlreadyRegistered.
//
// The salt, token and password hash never leave this function, callers
// learn the token through Login.
func Register(ctx context.Context, l *ledger.L, username string, password PlainText) error {
	reg, err := l.BeginRegistration(ctx, username)
	if errors.Is(err, ledger.ErrIdentityNotFound) {
		return ErrNotInvited
	} else if err != nil {
		return fmt.Errorf("accounts: unable to start registration for %v, cause %w", username, err)
	}
	defer reg.Rollback()
	if reg.Registered() {
		return ErrAlreadyRegistered
	}
	salt, err := randomHex(randomSecretLen)
	if err != nil {
		return err
	}
	token, err := randomHex(randomSecretLen)
	if err != nil {
		return err
	}
	err = reg.Activate(ctx, salt, token, Derive(password, salt))
	if errors.Is(err, ledger.ErrAlreadyActivated) {
		return ErrAlreadyRegistered
	} else if err != nil {
		return fmt.Errorf("accounts: unable to activate %v, cause %w", username, err)
	}
	err = reg.Commit()
	if err != nil {
		return fmt.Errorf("accounts: unable to finish registration for %v, cause %w", username, err)
	}
	return nil
}
