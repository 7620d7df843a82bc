package services

import (
	"context"
	"crypto/md5"
	"database/sql"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/contactkeeper/internal/common"
	"github.com/dmitrijs2005/contactkeeper/internal/logging"
	"github.com/dmitrijs2005/contactkeeper/internal/server/config"
	"github.com/dmitrijs2005/contactkeeper/internal/server/models"
	"github.com/dmitrijs2005/contactkeeper/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// AvatarUploadExpiry is how long a presigned avatar upload URL stays valid.
const AvatarUploadExpiry = 15 * time.Minute

// DefaultAvatarURL returns the Gravatar identicon for email, assigned to
// every new account.
func DefaultAvatarURL(email string) string {
	sum := md5.Sum([]byte(models.NormalizeEmail(email)))
	return "https://www.gravatar.com/avatar/" + hex.EncodeToString(sum[:]) + "?s=250&d=identicon"
}

type Presigner interface {
	PresignPut(ctx context.Context, key string, expires time.Duration) (string, error)
}

type AvatarUpload struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

// AvatarService lets an account upload a new avatar straight to object
// storage and then point its profile at the uploaded object.
type AvatarService struct {
	repomanager repomanager.RepositoryManager
	db          *sql.DB
	presigner   Presigner
	baseURL     string
	log         logging.Logger
}

func NewAvatarService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, presigner Presigner, log logging.Logger) *AvatarService {
	return &AvatarService{
		repomanager: m,
		db:          db,
		presigner:   presigner,
		baseURL:     strings.TrimRight(cfg.AvatarBaseURL, "/"),
		log:         log.With("module", "avatars"),
	}
}

func avatarPrefix(accountID string) string {
	return "avatars/" + accountID + "/"
}

// RequestUpload returns a fresh object key under the account's prefix and a
// presigned PUT URL for it.
func (s *AvatarService) RequestUpload(ctx context.Context, accountID string) (*AvatarUpload, error) {
	key := avatarPrefix(accountID) + uuid.NewString()

	url, err := s.presigner.PresignPut(ctx, key, AvatarUploadExpiry)
	if err != nil {
		return nil, fmt.Errorf("error presigning avatar upload: %w", err)
	}
	return &AvatarUpload{Key: key, URL: url}, nil
}

// Commit makes the object at key the account's avatar and returns its public
// URL. Keys outside the account's own prefix are rejected.
func (s *AvatarService) Commit(ctx context.Context, accountID, key string) (string, error) {
	rest, ok := strings.CutPrefix(key, avatarPrefix(accountID))
	if !ok || rest == "" || strings.Contains(rest, "/") || strings.Contains(rest, "..") {
		return "", common.NewError(common.KindBadRequest, "avatar key does not belong to this account")
	}

	avatarURL := s.baseURL + "/" + key
	if err := s.repomanager.Accounts(s.db).UpdateAvatar(ctx, accountID, avatarURL); err != nil {
		return "", err
	}

	s.log.Info(ctx, "avatar updated", "account_id", accountID)
	return avatarURL, nil
}
