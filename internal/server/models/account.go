// Package models holds the server-side domain records.
package models

import (
	"strings"
	"time"

	"github.com/dmitrijs2005/contactkeeper/internal/common"
)

// Tier is the subscription plan of an account.
type Tier string

const (
	TierStarter  Tier = "starter"
	TierPro      Tier = "pro"
	TierBusiness Tier = "business"
)

// Tiers lists every valid Tier in ascending order.
var Tiers = []Tier{TierStarter, TierPro, TierBusiness}

// ParseTier accepts exactly one of the Tiers values.
func ParseTier(s string) (Tier, error) {
	for _, t := range Tiers {
		if string(t) == s {
			return t, nil
		}
	}
	return "", common.NewError(common.KindBadRequest, "subscription must be one of starter, pro, business")
}

// Account is a user account together with its credential state.
//
// SessionToken is the single token currently allowed to authenticate
// requests; nil means logged out. VerificationToken is non-nil while the
// email address is still unconfirmed.
type Account struct {
	ID                string
	Email             string
	PasswordHash      string
	SessionToken      *string
	Verified          bool
	VerificationToken *string
	Subscription      Tier
	AvatarURL         string
	CreatedAt         time.Time
}

// Summary returns the public projection of the account.
func (a *Account) Summary() *AccountSummary {
	return &AccountSummary{Email: a.Email, Subscription: a.Subscription}
}

// AccountSummary is what callers may see about an account.
type AccountSummary struct {
	Email        string `json:"email"`
	Subscription Tier   `json:"subscription"`
}

// NormalizeEmail trims and lower-cases an address. Every store write and
// lookup goes through it, so addresses differing only in case are the same
// account.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
