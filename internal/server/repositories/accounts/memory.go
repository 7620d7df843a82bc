package accounts

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/contactkeeper/internal/common"
	"github.com/dmitrijs2005/contactkeeper/internal/server/models"
	"github.com/google/uuid"
)

// MemoryRepository keeps accounts in process memory. Every method holds the
// same mutex, which gives the atomicity Repository promises. It is meant for
// tests and for running the server without a database.
type MemoryRepository struct {
	mu       sync.Mutex
	accounts map[string]*models.Account
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{accounts: make(map[string]*models.Account)}
}

func (r *MemoryRepository) Create(_ context.Context, account *models.Account) (*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, a := range r.accounts {
		if a.Email == account.Email {
			return nil, common.ErrorConflict
		}
		if sameToken(a.VerificationToken, account.VerificationToken) {
			return nil, common.ErrorConflict
		}
	}

	account.ID = uuid.NewString()
	account.CreatedAt = time.Now()
	r.accounts[account.ID] = clone(account)
	return account, nil
}

func (r *MemoryRepository) GetByID(_ context.Context, id string) (*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.accounts[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return clone(a), nil
}

func (r *MemoryRepository) GetByEmail(_ context.Context, email string) (*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, a := range r.accounts {
		if a.Email == email {
			return clone(a), nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *MemoryRepository) ConsumeVerificationToken(_ context.Context, token string) (*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, a := range r.accounts {
		if a.VerificationToken != nil && *a.VerificationToken == token {
			a.Verified = true
			a.VerificationToken = nil
			return clone(a), nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *MemoryRepository) SetVerificationToken(_ context.Context, id string, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.accounts[id]
	if !ok || a.Verified {
		return common.ErrorNotFound
	}
	for otherID, other := range r.accounts {
		if otherID != id && sameToken(other.VerificationToken, &token) {
			return common.ErrorConflict
		}
	}
	a.VerificationToken = &token
	return nil
}

func (r *MemoryRepository) SetSessionToken(_ context.Context, id string, token *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.accounts[id]
	if !ok {
		return common.ErrorNotFound
	}
	a.SessionToken = copyString(token)
	return nil
}

func (r *MemoryRepository) UpdateSubscription(_ context.Context, id string, tier models.Tier) (*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.accounts[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	a.Subscription = tier
	return clone(a), nil
}

func (r *MemoryRepository) UpdateAvatar(_ context.Context, id string, avatarURL string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.accounts[id]
	if !ok {
		return common.ErrorNotFound
	}
	a.AvatarURL = avatarURL
	return nil
}

func sameToken(a, b *string) bool {
	return a != nil && b != nil && *a == *b
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func clone(a *models.Account) *models.Account {
	c := *a
	c.SessionToken = copyString(a.SessionToken)
	c.VerificationToken = copyString(a.VerificationToken)
	return &c
}
