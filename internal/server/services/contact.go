package services

import (
	"context"
	"database/sql"
	"errors"

	"github.com/dmitrijs2005/contactkeeper/internal/common"
	"github.com/dmitrijs2005/contactkeeper/internal/logging"
	"github.com/dmitrijs2005/contactkeeper/internal/server/models"
	"github.com/dmitrijs2005/contactkeeper/internal/server/repositories/contacts"
	"github.com/dmitrijs2005/contactkeeper/internal/server/repositories/repomanager"
	"github.com/go-playground/validator/v10"
)

const (
	DefaultContactsPageSize = 20
	MaxContactsPageSize     = 100
)

var ErrContactNotFound = common.NewError(common.KindNotFound, "contact not found")

// ContactQuery selects a page of contacts. Zero Page and Limit mean the
// first page of DefaultContactsPageSize.
type ContactQuery struct {
	Page     int
	Limit    int
	Favorite *bool
}

// ContactService manages the contacts of the calling account. Contacts of
// other accounts are reported as ErrContactNotFound.
type ContactService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	validate    *validator.Validate
	log         logging.Logger
}

func NewContactService(db *sql.DB, m repomanager.RepositoryManager, log logging.Logger) *ContactService {
	return &ContactService{
		db:          db,
		repomanager: m,
		validate:    validator.New(),
		log:         log.With("module", "contacts"),
	}
}

func (s *ContactService) repo() contacts.Repository {
	return s.repomanager.Contacts(s.db)
}

func (s *ContactService) List(ctx context.Context, ownerID string, q ContactQuery) ([]*models.Contact, error) {
	if q.Page == 0 {
		q.Page = 1
	}
	if q.Limit == 0 {
		q.Limit = DefaultContactsPageSize
	}
	if q.Page < 1 || q.Limit < 1 || q.Limit > MaxContactsPageSize {
		return nil, common.NewError(common.KindBadRequest, "page must be positive and limit between 1 and 100")
	}

	return s.repo().List(ctx, ownerID, contacts.ListOptions{
		Favorite: q.Favorite,
		Limit:    q.Limit,
		Offset:   (q.Page - 1) * q.Limit,
	})
}

func (s *ContactService) Get(ctx context.Context, ownerID, id string) (*models.Contact, error) {
	c, err := s.repo().Get(ctx, ownerID, id)
	return c, notFoundAs(err)
}

func (s *ContactService) Create(ctx context.Context, ownerID string, fields models.ContactFields) (*models.Contact, error) {
	fields, err := s.validateContact(fields)
	if err != nil {
		return nil, err
	}

	c := &models.Contact{
		OwnerID: ownerID,
		Name:    fields.Name,
		Email:   fields.Email,
		Phone:   fields.Phone,
	}
	if fields.Favorite != nil {
		c.Favorite = *fields.Favorite
	}

	c, err = s.repo().Create(ctx, c)
	if err != nil {
		return nil, err
	}
	s.log.Info(ctx, "contact created", "account_id", ownerID, "contact_id", c.ID)
	return c, nil
}

// Update replaces name, email and phone; favorite changes only when given.
func (s *ContactService) Update(ctx context.Context, ownerID, id string, fields models.ContactFields) (*models.Contact, error) {
	fields, err := s.validateContact(fields)
	if err != nil {
		return nil, err
	}
	c, err := s.repo().Update(ctx, ownerID, id, fields)
	return c, notFoundAs(err)
}

// SetFavorite changes only the favorite flag.
func (s *ContactService) SetFavorite(ctx context.Context, ownerID, id string, favorite bool) (*models.Contact, error) {
	c, err := s.repo().SetFavorite(ctx, ownerID, id, favorite)
	return c, notFoundAs(err)
}

func (s *ContactService) Delete(ctx context.Context, ownerID, id string) (*models.Contact, error) {
	c, err := s.repo().Delete(ctx, ownerID, id)
	if err != nil {
		return nil, notFoundAs(err)
	}
	s.log.Info(ctx, "contact deleted", "account_id", ownerID, "contact_id", id)
	return c, nil
}

func (s *ContactService) validateContact(fields models.ContactFields) (models.ContactFields, error) {
	fields = fields.Normalize()
	if fields.Name == "" {
		return fields, common.NewError(common.KindBadRequest, "missing required name field")
	}
	if err := s.validate.Var(fields.Email, "omitempty,email"); err != nil {
		return fields, common.NewError(common.KindBadRequest, "email is not valid")
	}
	if err := s.validate.Var(fields.Phone, "omitempty,max=32"); err != nil {
		return fields, common.NewError(common.KindBadRequest, "phone is too long")
	}
	return fields, nil
}

func notFoundAs(err error) error {
	if errors.Is(err, common.ErrorNotFound) {
		return ErrContactNotFound
	}
	return err
}
