package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"

	"github.com/dmitrijs2005/contactkeeper/internal/common"
	"github.com/dmitrijs2005/contactkeeper/internal/server/models"
)

// AccountLookup is the part of the account store the Guard needs.
type AccountLookup interface {
	GetByID(ctx context.Context, id string) (*models.Account, error)
}

// Guard resolves an Authorization header into the account it authorizes. A
// token passes only if it verifies and is still the account's current
// session token, so logout and a newer login revoke it.
type Guard struct {
	tokens   *SessionTokens
	accounts AccountLookup
}

func NewGuard(tokens *SessionTokens, accounts AccountLookup) *Guard {
	return &Guard{tokens: tokens, accounts: accounts}
}

// Authenticate returns the account authorized by header, or an error of kind
// common.KindUnauthorized. Store failures other than not-found are returned
// as is.
func (g *Guard) Authenticate(ctx context.Context, header string) (*models.Account, error) {
	token, ok := strings.CutPrefix(header, common.BearerScheme)
	if !ok || token == "" {
		return nil, common.ErrorUnauthorized
	}

	accountID, err := g.tokens.Verify(token)
	if err != nil {
		return nil, err
	}

	account, err := g.accounts.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, err
	}

	if account.SessionToken == nil ||
		subtle.ConstantTimeCompare([]byte(*account.SessionToken), []byte(token)) != 1 {
		return nil, common.ErrorUnauthorized
	}

	return account, nil
}
