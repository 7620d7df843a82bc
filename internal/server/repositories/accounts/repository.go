// Package accounts is the credential store: persistence of account records,
// their password hashes, verification state and current session token.
package accounts

import (
	"context"

	"github.com/dmitrijs2005/contactkeeper/internal/server/models"
)

// Repository persists accounts. Emails passed in are expected to be
// normalized already (models.NormalizeEmail).
//
// Lookups return common.ErrorNotFound when nothing matches; Create returns
// common.ErrorConflict when the email or verification token is taken.
type Repository interface {
	// Create inserts a new account and fills in its ID and CreatedAt.
	Create(ctx context.Context, account *models.Account) (*models.Account, error)

	GetByID(ctx context.Context, id string) (*models.Account, error)
	GetByEmail(ctx context.Context, email string) (*models.Account, error)

	// ConsumeVerificationToken marks the account holding token as verified
	// and clears the token in one atomic step, so a token can be consumed
	// at most once even under concurrent calls.
	ConsumeVerificationToken(ctx context.Context, token string) (*models.Account, error)

	// SetVerificationToken replaces the pending verification token of an
	// unverified account.
	SetVerificationToken(ctx context.Context, id string, token string) error

	// SetSessionToken stores token as the account's current session token;
	// nil logs the account out.
	SetSessionToken(ctx context.Context, id string, token *string) error

	UpdateSubscription(ctx context.Context, id string, tier models.Tier) (*models.Account, error)
	UpdateAvatar(ctx context.Context, id string, avatarURL string) error
}
