package accounts

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/contactkeeper/internal/common"
	"github.com/dmitrijs2005/contactkeeper/internal/server/models"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

var accountRowColumns = []string{
	"id", "email", "password_hash", "session_token", "verified",
	"verification_token", "subscription", "avatar_url", "created_at",
}

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^INSERT\s+INTO\s+accounts\s*\(email,\s*password_hash,\s*verification_token,\s*subscription,\s*avatar_url\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4,\s*\$5\)\s*RETURNING\s+id,\s*created_at$`

	now := time.Now()
	mock.ExpectQuery(q).
		WithArgs("a@x.com", "hash", "vtok", "starter", "https://avatar").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("acc-1", now))

	vt := "vtok"
	got, err := repo.Create(context.Background(), &models.Account{
		Email: "a@x.com", PasswordHash: "hash", VerificationToken: &vt,
		Subscription: models.TierStarter, AvatarURL: "https://avatar",
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if got.ID != "acc-1" || !got.CreatedAt.Equal(now) {
		t.Fatalf("unexpected account: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sql expectations: %v", err)
	}
}

func TestCreate_UniqueViolationIsConflict(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`INSERT\s+INTO\s+accounts`).
		WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "accounts_email_key"})

	_, err := repo.Create(context.Background(), &models.Account{Email: "a@x.com"})
	if !errors.Is(err, common.ErrorConflict) {
		t.Fatalf("want common.ErrorConflict, got %v", err)
	}
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`INSERT\s+INTO\s+accounts`).WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), &models.Account{Email: "a@x.com"})
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestGetByEmail_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+id,\s*email,.*\s+FROM\s+accounts\s+WHERE\s+email\s*=\s*\$1$`

	rows := sqlmock.NewRows(accountRowColumns).
		AddRow("acc-1", "a@x.com", "hash", "sess", true, nil, "pro", "https://avatar", time.Now())
	mock.ExpectQuery(q).WithArgs("a@x.com").WillReturnRows(rows)

	got, err := repo.GetByEmail(context.Background(), "a@x.com")
	if err != nil {
		t.Fatalf("GetByEmail error: %v", err)
	}
	if got.ID != "acc-1" || !got.Verified || got.Subscription != models.TierPro {
		t.Fatalf("unexpected account: %+v", got)
	}
	if got.SessionToken == nil || *got.SessionToken != "sess" {
		t.Fatalf("session token not scanned: %+v", got.SessionToken)
	}
	if got.VerificationToken != nil {
		t.Fatalf("NULL verification token must scan to nil, got %q", *got.VerificationToken)
	}
}

func TestGetByID_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`FROM\s+accounts\s+WHERE\s+id\s*=\s*\$1`).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "ghost")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}

func TestConsumeVerificationToken_IsSingleConditionalUpdate(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^UPDATE\s+accounts\s+SET\s+verified\s*=\s*TRUE,\s*verification_token\s*=\s*NULL\s+WHERE\s+verification_token\s*=\s*\$1\s+RETURNING\s+id,`

	rows := sqlmock.NewRows(accountRowColumns).
		AddRow("acc-1", "a@x.com", "hash", nil, true, nil, "starter", "", time.Now())
	mock.ExpectQuery(q).WithArgs("vtok").WillReturnRows(rows)

	got, err := repo.ConsumeVerificationToken(context.Background(), "vtok")
	if err != nil {
		t.Fatalf("ConsumeVerificationToken error: %v", err)
	}
	if !got.Verified || got.VerificationToken != nil {
		t.Fatalf("unexpected account: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sql expectations: %v", err)
	}
}

func TestConsumeVerificationToken_NoMatch(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`UPDATE\s+accounts\s+SET\s+verified`).
		WithArgs("used").
		WillReturnRows(sqlmock.NewRows(accountRowColumns))

	_, err := repo.ConsumeVerificationToken(context.Background(), "used")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}

func TestSetSessionToken(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^UPDATE\s+accounts\s+SET\s+session_token\s*=\s*\$2\s+WHERE\s+id\s*=\s*\$1$`

	mock.ExpectExec(q).WithArgs("acc-1", "tok").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q).WithArgs("acc-1", nil).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q).WithArgs("ghost", nil).WillReturnResult(sqlmock.NewResult(0, 0))

	tok := "tok"
	if err := repo.SetSessionToken(context.Background(), "acc-1", &tok); err != nil {
		t.Fatalf("set token: %v", err)
	}
	if err := repo.SetSessionToken(context.Background(), "acc-1", nil); err != nil {
		t.Fatalf("clear token: %v", err)
	}
	if err := repo.SetSessionToken(context.Background(), "ghost", nil); !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sql expectations: %v", err)
	}
}

func TestSetVerificationToken_OnlyForUnverified(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^UPDATE\s+accounts\s+SET\s+verification_token\s*=\s*\$2\s+WHERE\s+id\s*=\s*\$1\s+AND\s+verified\s*=\s*FALSE$`
	mock.ExpectExec(q).WithArgs("acc-1", "fresh").WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.SetVerificationToken(context.Background(), "acc-1", "fresh"); err != nil {
		t.Fatalf("SetVerificationToken error: %v", err)
	}
}

func TestUpdateSubscription(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows(accountRowColumns).
		AddRow("acc-1", "a@x.com", "hash", "sess", true, nil, "business", "", time.Now())
	mock.ExpectQuery(`(?s)^UPDATE\s+accounts\s+SET\s+subscription\s*=\s*\$2\s+WHERE\s+id\s*=\s*\$1\s+RETURNING`).
		WithArgs("acc-1", "business").
		WillReturnRows(rows)

	got, err := repo.UpdateSubscription(context.Background(), "acc-1", models.TierBusiness)
	if err != nil {
		t.Fatalf("UpdateSubscription error: %v", err)
	}
	if got.Subscription != models.TierBusiness {
		t.Fatalf("unexpected tier: %s", got.Subscription)
	}
}

func TestUpdateAvatar_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`UPDATE\s+accounts\s+SET\s+avatar_url`).
		WithArgs("acc-1", "https://cdn/a.png").
		WillReturnError(errors.New("db err"))

	err := repo.UpdateAvatar(context.Background(), "acc-1", "https://cdn/a.png")
	if err == nil || !regexp.MustCompile(`db error: .*db err`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}
