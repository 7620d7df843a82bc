package contacts

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/dmitrijs2005/contactkeeper/internal/common"
	"github.com/dmitrijs2005/contactkeeper/internal/server/models"
	"github.com/google/uuid"
)

// MemoryRepository keeps contacts in process memory for tests and for
// running the server without a database.
type MemoryRepository struct {
	mu       sync.Mutex
	contacts map[string]*models.Contact
	now      func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{contacts: make(map[string]*models.Contact), now: time.Now}
}

func (r *MemoryRepository) Create(_ context.Context, contact *models.Contact) (*models.Contact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	contact.ID = uuid.NewString()
	contact.CreatedAt = r.now()
	contact.UpdatedAt = contact.CreatedAt

	c := *contact
	r.contacts[c.ID] = &c
	return contact, nil
}

func (r *MemoryRepository) List(_ context.Context, ownerID string, opts ListOptions) ([]*models.Contact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	all := make([]*models.Contact, 0)
	for _, c := range r.contacts {
		if c.OwnerID != ownerID {
			continue
		}
		if opts.Favorite != nil && c.Favorite != *opts.Favorite {
			continue
		}
		cp := *c
		all = append(all, &cp)
	}

	slices.SortFunc(all, func(a, b *models.Contact) int {
		if n := a.CreatedAt.Compare(b.CreatedAt); n != 0 {
			return n
		}
		if a.ID < b.ID {
			return -1
		}
		if a.ID > b.ID {
			return 1
		}
		return 0
	})

	if opts.Offset >= len(all) {
		return []*models.Contact{}, nil
	}
	all = all[opts.Offset:]
	if opts.Limit > 0 && opts.Limit < len(all) {
		all = all[:opts.Limit]
	}
	return all, nil
}

func (r *MemoryRepository) Get(_ context.Context, ownerID, id string) (*models.Contact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, err := r.owned(ownerID, id)
	if err != nil {
		return nil, err
	}
	cp := *c
	return &cp, nil
}

func (r *MemoryRepository) Update(_ context.Context, ownerID, id string, fields models.ContactFields) (*models.Contact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, err := r.owned(ownerID, id)
	if err != nil {
		return nil, err
	}
	c.Name, c.Email, c.Phone = fields.Name, fields.Email, fields.Phone
	if fields.Favorite != nil {
		c.Favorite = *fields.Favorite
	}
	c.UpdatedAt = r.now()

	cp := *c
	return &cp, nil
}

func (r *MemoryRepository) SetFavorite(_ context.Context, ownerID, id string, favorite bool) (*models.Contact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, err := r.owned(ownerID, id)
	if err != nil {
		return nil, err
	}
	c.Favorite = favorite
	c.UpdatedAt = r.now()

	cp := *c
	return &cp, nil
}

func (r *MemoryRepository) Delete(_ context.Context, ownerID, id string) (*models.Contact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, err := r.owned(ownerID, id)
	if err != nil {
		return nil, err
	}
	delete(r.contacts, id)
	return c, nil
}

// owned must be called with mu held.
func (r *MemoryRepository) owned(ownerID, id string) (*models.Contact, error) {
	c, ok := r.contacts[id]
	if !ok || c.OwnerID != ownerID {
		return nil, common.ErrorNotFound
	}
	return c, nil
}
