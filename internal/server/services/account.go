// Package services contains server-side business logic. AccountService
// drives the account lifecycle (signup, email verification, login, logout,
// subscription changes); AvatarService handles avatar uploads.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/contactkeeper/internal/common"
	"github.com/dmitrijs2005/contactkeeper/internal/dbx"
	"github.com/dmitrijs2005/contactkeeper/internal/logging"
	"github.com/dmitrijs2005/contactkeeper/internal/server/auth"
	"github.com/dmitrijs2005/contactkeeper/internal/server/config"
	"github.com/dmitrijs2005/contactkeeper/internal/server/mail"
	"github.com/dmitrijs2005/contactkeeper/internal/server/models"
	"github.com/dmitrijs2005/contactkeeper/internal/server/repositories/repomanager"
)

var (
	ErrEmailInUse         = common.NewError(common.KindConflict, "email in use")
	ErrInvalidCredentials = common.NewError(common.KindUnauthorized, "email or password is wrong")
	ErrAccountNotFound    = common.NewError(common.KindNotFound, "user not found")
)

// ResendOutcome tells the caller what ResendVerification did.
type ResendOutcome int

const (
	ResendSent ResendOutcome = iota
	ResendAlreadyVerified
)

// MailDispatcher queues a message for background delivery.
type MailDispatcher interface {
	Dispatch(ctx context.Context, msg mail.Message)
}

type TokenGenerator interface {
	Generate() (string, error)
}

// AccountService orchestrates the account state machine:
// unverified → verified/logged out ⇄ verified/logged in.
type AccountService struct {
	db             *sql.DB
	repomanager    repomanager.RepositoryManager
	hasher         auth.PasswordHasher
	verification   TokenGenerator
	sessions       *auth.SessionTokens
	mailer         MailDispatcher
	log            logging.Logger
	publicBaseURL  string
	rotateOnResend bool

	// dummyHash is compared against when the email is unknown, so Login
	// costs the same whether or not the account exists.
	dummyHash string
}

// NewAccountService constructs an AccountService. db may be nil when the
// repository manager keeps no transactional state (the memory manager).
func NewAccountService(
	db *sql.DB,
	m repomanager.RepositoryManager,
	cfg *config.Config,
	hasher auth.PasswordHasher,
	verification TokenGenerator,
	sessions *auth.SessionTokens,
	mailer MailDispatcher,
	log logging.Logger,
) (*AccountService, error) {
	seed, err := common.MakeRandHexString(16)
	if err != nil {
		return nil, err
	}
	dummy, err := hasher.Hash(seed)
	if err != nil {
		return nil, fmt.Errorf("error preparing dummy hash: %w", err)
	}
	return &AccountService{
		db:             db,
		repomanager:    m,
		hasher:         hasher,
		verification:   verification,
		sessions:       sessions,
		mailer:         mailer,
		log:            log.With("module", "accounts"),
		publicBaseURL:  cfg.PublicBaseURL,
		rotateOnResend: cfg.RotateVerificationTokenOnResend,
		dummyHash:      dummy,
	}, nil
}

// Signup creates an unverified account and mails its verification link.
// Delivery happens in the background and never fails the signup.
func (s *AccountService) Signup(ctx context.Context, email, password string) (*models.AccountSummary, error) {
	email = models.NormalizeEmail(email)

	var account *models.Account
	err := s.inTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Accounts(tx)

		_, err := repo.GetByEmail(ctx, email)
		if err == nil {
			return ErrEmailInUse
		}
		if !errors.Is(err, common.ErrorNotFound) {
			return err
		}

		hash, err := s.hasher.Hash(password)
		if err != nil {
			return err
		}

		token, err := s.verification.Generate()
		if err != nil {
			return fmt.Errorf("error generating verification token: %w", err)
		}

		account, err = repo.Create(ctx, &models.Account{
			Email:             email,
			PasswordHash:      hash,
			VerificationToken: &token,
			Subscription:      models.TierStarter,
			AvatarURL:         DefaultAvatarURL(email),
		})
		if errors.Is(err, common.ErrorConflict) {
			return ErrEmailInUse
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info(ctx, "account created", "account_id", account.ID)
	s.mailer.Dispatch(ctx, mail.VerificationMessage(account.Email, s.publicBaseURL, *account.VerificationToken))

	return account.Summary(), nil
}

// Verify consumes a verification token. A token works once; afterwards, or
// if it never existed, ErrAccountNotFound is returned.
func (s *AccountService) Verify(ctx context.Context, token string) error {
	if token == "" {
		return ErrAccountNotFound
	}
	account, err := s.repomanager.Accounts(s.db).ConsumeVerificationToken(ctx, token)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return ErrAccountNotFound
		}
		return err
	}
	s.log.Info(ctx, "account verified", "account_id", account.ID)
	return nil
}

// ResendVerification mails the verification link again. Verified accounts
// are left untouched and reported as ResendAlreadyVerified.
func (s *AccountService) ResendVerification(ctx context.Context, email string) (ResendOutcome, error) {
	repo := s.repomanager.Accounts(s.db)

	account, err := repo.GetByEmail(ctx, models.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return 0, ErrAccountNotFound
		}
		return 0, err
	}

	if account.Verified || account.VerificationToken == nil {
		return ResendAlreadyVerified, nil
	}

	token := *account.VerificationToken
	if s.rotateOnResend {
		token, err = s.verification.Generate()
		if err != nil {
			return 0, fmt.Errorf("error generating verification token: %w", err)
		}
		if err := repo.SetVerificationToken(ctx, account.ID, token); err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				// verified concurrently
				return ResendAlreadyVerified, nil
			}
			return 0, err
		}
	}

	s.mailer.Dispatch(ctx, mail.VerificationMessage(account.Email, s.publicBaseURL, token))
	return ResendSent, nil
}

// Login checks credentials and makes a freshly issued token the account's
// only valid session token. Unknown email, wrong password and unverified
// account all fail with the same ErrInvalidCredentials.
func (s *AccountService) Login(ctx context.Context, email, password string) (string, error) {
	repo := s.repomanager.Accounts(s.db)

	account, err := repo.GetByEmail(ctx, models.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.hasher.Verify(password, s.dummyHash)
			return "", ErrInvalidCredentials
		}
		return "", err
	}

	if !s.hasher.Verify(password, account.PasswordHash) || !account.Verified {
		return "", ErrInvalidCredentials
	}

	token, err := s.sessions.Issue(account.ID)
	if err != nil {
		return "", fmt.Errorf("error issuing session token: %w", err)
	}

	if err := repo.SetSessionToken(ctx, account.ID, &token); err != nil {
		return "", err
	}

	s.log.Info(ctx, "account logged in", "account_id", account.ID)
	return token, nil
}

// Logout clears the current session token. Logging out twice is fine.
func (s *AccountService) Logout(ctx context.Context, accountID string) error {
	return s.repomanager.Accounts(s.db).SetSessionToken(ctx, accountID, nil)
}

// Current returns the public view of an already authenticated account.
func (s *AccountService) Current(_ context.Context, account *models.Account) *models.AccountSummary {
	return account.Summary()
}

func (s *AccountService) ChangeSubscription(ctx context.Context, accountID, tier string) (*models.Account, error) {
	t, err := models.ParseTier(tier)
	if err != nil {
		return nil, err
	}
	return s.repomanager.Accounts(s.db).UpdateSubscription(ctx, accountID, t)
}

// inTx runs fn in a transaction, or directly when there is no database.
func (s *AccountService) inTx(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) error {
	if s.db == nil {
		return fn(ctx, nil)
	}
	return dbx.WithTx(ctx, s.db, nil, fn)
}
