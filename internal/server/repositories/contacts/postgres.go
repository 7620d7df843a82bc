package contacts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/contactkeeper/internal/common"
	"github.com/dmitrijs2005/contactkeeper/internal/dbx"
	"github.com/dmitrijs2005/contactkeeper/internal/server/models"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

const contactColumns = `id, owner_id, name, email, phone, favorite, created_at, updated_at`

// PostgresRepository implements Repository over dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, contact *models.Contact) (*models.Contact, error) {
	query :=
		`INSERT INTO contacts (owner_id, name, email, phone, favorite)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		contact.OwnerID, contact.Name, contact.Email, contact.Phone, contact.Favorite,
	).Scan(&contact.ID, &contact.CreatedAt, &contact.UpdatedAt)
	if err != nil {
		return nil, dbError(err)
	}

	return contact, nil
}

func (r *PostgresRepository) List(ctx context.Context, ownerID string, opts ListOptions) ([]*models.Contact, error) {
	query :=
		`SELECT ` + contactColumns + ` FROM contacts
		 WHERE owner_id = $1 AND ($2::boolean IS NULL OR favorite = $2)
		 ORDER BY created_at, id
		 LIMIT $3 OFFSET $4`

	rows, err := r.db.QueryContext(ctx, query, ownerID, opts.Favorite, opts.Limit, opts.Offset)
	if err != nil {
		return nil, dbError(err)
	}
	defer rows.Close()

	result := make([]*models.Contact, 0)
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

func (r *PostgresRepository) Get(ctx context.Context, ownerID, id string) (*models.Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM contacts WHERE id = $1 AND owner_id = $2`
	return r.queryOne(ctx, query, id, ownerID)
}

func (r *PostgresRepository) Update(ctx context.Context, ownerID, id string, fields models.ContactFields) (*models.Contact, error) {
	query :=
		`UPDATE contacts
		 SET name = $3, email = $4, phone = $5, favorite = COALESCE($6, favorite), updated_at = now()
		 WHERE id = $1 AND owner_id = $2
		 RETURNING ` + contactColumns
	return r.queryOne(ctx, query, id, ownerID, fields.Name, fields.Email, fields.Phone, fields.Favorite)
}

func (r *PostgresRepository) SetFavorite(ctx context.Context, ownerID, id string, favorite bool) (*models.Contact, error) {
	query :=
		`UPDATE contacts SET favorite = $3, updated_at = now()
		 WHERE id = $1 AND owner_id = $2
		 RETURNING ` + contactColumns
	return r.queryOne(ctx, query, id, ownerID, favorite)
}

func (r *PostgresRepository) Delete(ctx context.Context, ownerID, id string) (*models.Contact, error) {
	query := `DELETE FROM contacts WHERE id = $1 AND owner_id = $2 RETURNING ` + contactColumns
	return r.queryOne(ctx, query, id, ownerID)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanContact(s scanner) (*models.Contact, error) {
	var c models.Contact
	err := s.Scan(&c.ID, &c.OwnerID, &c.Name, &c.Email, &c.Phone, &c.Favorite, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *PostgresRepository) queryOne(ctx context.Context, query string, args ...any) (*models.Contact, error) {
	c, err := scanContact(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, dbError(err)
	}
	return c, nil
}

// dbError maps driver errors. An id that is not a UUID cannot name any row,
// so it is reported as not found rather than as a failure.
func dbError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.InvalidTextRepresentation:
			return common.ErrorNotFound
		case pgerrcode.ForeignKeyViolation:
			return common.Wrap(common.KindNotFound, "owner not found", err)
		}
	}
	return fmt.Errorf("db error: %w", err)
}
