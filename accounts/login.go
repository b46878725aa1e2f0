package accounts

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"

	"github.com/andrebq/pressbox/ledger"
)

// Login verifies password against the stored hash and returns the bearer
// token issued at registration. Unknown usernames, identities that never
// registered and wrong passwords all fail with the same
// ErrInvalidCredentials so responses cannot be used to enumerate users.
func Login(ctx context.Context, l *ledger.L, username string, password PlainText) (string, error) {
	row, err := l.FindForLogin(ctx, username)
	if errors.Is(err, ledger.ErrIdentityNotFound) {
		return "", ErrInvalidCredentials
	} else if err != nil {
		return "", fmt.Errorf("accounts: unable to verify credentials for %v, cause %w", username, err)
	}
	candidate := Derive(password, row.Salt)
	if subtle.ConstantTimeCompare([]byte(candidate), []byte(row.PasswordHash)) != 1 {
		return "", ErrInvalidCredentials
	}
	return row.Token, nil
}
