// Package accounts implements the credential workflows of a pressbox
// ledger: invitation-gated registration, password login and bearer-token
// authorization.
//
// Identities are never created here. An operator provisions a username
// ahead of time (see the ledger package and the `pressbox ledger invite`
// command), which leaves a row without salt, password hash or token. That
// row is the whitelist: registration only ever transitions an existing
// token-less row into an active one, and it does so exactly once.
//
// Passwords are never stored. Registration derives a PBKDF2 hash from the
// password and a per-identity random salt, and login re-derives the hash
// and compares it in constant time. The token handed out on registration
// is a long-lived bearer secret, presented afterwards as
// "username:token"; there is no rotation and no reset in this design, a
// lost token means a lost account.
package accounts
