package accounts

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

const accountColumns = `id, email, password_hash, session_token, verified, verification_token, subscription, avatar_url, created_at`

// PostgresRepository implements Repository over dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, account *models.Account) (*models.Account, error) {
	query :=
		`INSERT INTO accounts (email, password_hash, verification_token, subscription, avatar_url)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		account.Email, account.PasswordHash, account.VerificationToken, account.Subscription, account.AvatarURL,
	).Scan(&account.ID, &account.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, common.ErrorConflict
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return account, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	return r.queryOne(ctx, query, id)
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE email = $1`
	return r.queryOne(ctx, query, email)
}

func (r *PostgresRepository) ConsumeVerificationToken(ctx context.Context, token string) (*models.Account, error) {
	query :=
		`UPDATE accounts SET verified = TRUE, verification_token = NULL
		 WHERE verification_token = $1
		 RETURNING ` + accountColumns
	return r.queryOne(ctx, query, token)
}

func (r *PostgresRepository) SetVerificationToken(ctx context.Context, id string, token string) error {
	query := `UPDATE accounts SET verification_token = $2 WHERE id = $1 AND verified = FALSE`
	return r.execOne(ctx, query, id, token)
}

func (r *PostgresRepository) SetSessionToken(ctx context.Context, id string, token *string) error {
	query := `UPDATE accounts SET session_token = $2 WHERE id = $1`
	return r.execOne(ctx, query, id, token)
}

func (r *PostgresRepository) UpdateSubscription(ctx context.Context, id string, tier models.Tier) (*models.Account, error) {
	query :=
		`UPDATE accounts SET subscription = $2
		 WHERE id = $1
		 RETURNING ` + accountColumns
	return r.queryOne(ctx, query, id, tier)
}

func (r *PostgresRepository) UpdateAvatar(ctx context.Context, id string, avatarURL string) error {
	query := `UPDATE accounts SET avatar_url = $2 WHERE id = $1`
	return r.execOne(ctx, query, id, avatarURL)
}

func (r *PostgresRepository) queryOne(ctx context.Context, query string, args ...any) (*models.Account, error) {
	var (
		a                 models.Account
		sessionToken      sql.NullString
		verificationToken sql.NullString
	)

	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&a.ID, &a.Email, &a.PasswordHash, &sessionToken, &a.Verified,
		&verificationToken, &a.Subscription, &a.AvatarURL, &a.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	a.SessionToken = fromNullString(sessionToken)
	a.VerificationToken = fromNullString(verificationToken)
	return &a, nil
}

// execOne runs an update that must touch exactly one row.
func (r *PostgresRepository) execOne(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return common.ErrorConflict
		}
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func fromNullString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
