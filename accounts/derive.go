package accounts

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

type (
	// PlainText holds a secret that should not outlive the operation
	// using it. Callers that own the buffer can Zero it afterwards.
	PlainText []byte
)

const (
	// 100k rounds of PBKDF2-SHA256 keeps a single derivation visibly
	// slow without making login a denial-of-service vector.
	deriveRounds = 100000
	deriveKeyLen = 32

	randomSecretLen = 32
)

func (p PlainText) Zero() {
	for i := range p {
		p[i] = 0
	}
}

// Derive stretches secret with salt into a fixed-length lowercase hex
// string. It is deterministic: equal inputs always produce equal output,
// which is what lets login re-derive and compare.
func Derive(secret PlainText, salt string) string {
	key := pbkdf2.Key(secret, []byte(salt), deriveRounds, deriveKeyLen, sha256.New)
	return hex.EncodeToString(key)
}

// randomHex returns n cryptographically random bytes as lowercase hex,
// used for both salts and tokens.
func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	_, err := rand.Read(buf)
	if err != nil {
		return "", fmt.Errorf("accounts: unable to read random bytes, cause %w", err)
	}
	return hex.EncodeToString(buf), nil
}
