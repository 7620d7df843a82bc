package auth

import "github.com/dmitrijs2005/contactkeeper/internal/common"

// VerificationTokenSize is the number of random bytes behind a token.
const VerificationTokenSize = 16

// VerificationTokens produces opaque one-time email verification tokens.
// A token carries no account reference; it is only meaningful as a lookup key.
type VerificationTokens struct{}

func (VerificationTokens) Generate() (string, error) {
	return common.MakeRandURLString(VerificationTokenSize)
}
