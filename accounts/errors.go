package accounts

import "errors"

var (
	// ErrNotInvited is returned when registration is attempted for a
	// username that was never provisioned.
	ErrNotInvited = errors.New("accounts: username not allowed to register")

	// ErrAlreadyRegistered is returned when the identity already holds a
	// token. The stored credentials are left untouched.
	ErrAlreadyRegistered = errors.New("accounts: identity already registered")

	// ErrInvalidCredentials covers both unknown usernames and wrong
	// passwords, callers cannot tell the two apart.
	ErrInvalidCredentials = errors.New("accounts: invalid credentials")
)
