package accounts

import (
	"context"
	"strings"

	"github.com/andrebq/pressbox/ledger"
)

// SplitCredential breaks a presented "username:token" credential at the
// first colon. It reports false for anything malformed: no colon, empty
// username or empty token.
func SplitCredential(credential string) (username, token string, ok bool) {
	idx := strings.Index(credential, ":")
	if idx <= 0 || idx == len(credential)-1 {
		return "", "", false
	}
	return credential[:idx], credential[idx+1:], true
}

// Authorize reports whether credential matches a registered identity.
// Malformed credentials and unknown or mismatched pairs are a plain
// (false, nil); a non-nil error means the ledger itself failed and the
// caller should not treat the request as merely unauthorized.
func Authorize(ctx context.Context, l *ledger.L, credential string) (bool, error) {
	username, token, ok := SplitCredential(credential)
	if !ok {
		return false, nil
	}
	return l.LookupAuth(ctx, username, token)
}
