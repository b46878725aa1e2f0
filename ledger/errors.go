package ledger

import (
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"
)

type (
	PostNotFound struct {
		ID int64
	}

	AssetNotFound struct {
		Path string
	}
)

var (
	// ErrIdentityNotFound signals that no identity row exists for the
	// requested username (for login lookups, that includes rows that
	// never finished registration).
	ErrIdentityNotFound = errors.New("ledger: identity not found")

	// ErrAlreadyActivated signals that the row already carries a token
	// and cannot be activated again.
	ErrAlreadyActivated = errors.New("ledger: identity already activated")

	// ErrDuplicateIdentity signals a second Provision for a username.
	ErrDuplicateIdentity = errors.New("ledger: identity already provisioned")

	ErrEmptyUsername = errors.New("ledger: username cannot be empty")

	// ErrReadOnly signals a mutation attempted on a ledger opened
	// without write access.
	ErrReadOnly = errors.New("ledger: opened as read-only")
)

func (p PostNotFound) Error() string {
	return fmt.Sprintf("post %v not found", p.ID)
}

func (a AssetNotFound) Error() string {
	return fmt.Sprintf("asset %v not found", a.Path)
}

func isUniqueViolation(err error) bool {
	var serr sqlite3.Error
	if errors.As(err, &serr) {
		return serr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}
