// Package contacts stores the address book entries of every account.
package contacts

import (
	"context"

	"github.com/dmitrijs2005/contactkeeper/internal/server/models"
)

// ListOptions selects a page of an owner's contacts, oldest first.
// A nil Favorite returns both favorites and the rest.
type ListOptions struct {
	Favorite *bool
	Limit    int
	Offset   int
}

// Repository persists contacts. Every method is scoped to ownerID: a contact
// of another account behaves exactly like a missing one and yields
// common.ErrorNotFound.
type Repository interface {
	// Create inserts contact and fills in its ID and timestamps.
	Create(ctx context.Context, contact *models.Contact) (*models.Contact, error)

	List(ctx context.Context, ownerID string, opts ListOptions) ([]*models.Contact, error)
	Get(ctx context.Context, ownerID, id string) (*models.Contact, error)

	// Update overwrites name, email and phone, and favorite when set.
	Update(ctx context.Context, ownerID, id string, fields models.ContactFields) (*models.Contact, error)

	SetFavorite(ctx context.Context, ownerID, id string, favorite bool) (*models.Contact, error)

	// Delete removes the contact and returns it as it was.
	Delete(ctx context.Context, ownerID, id string) (*models.Contact, error)
}
