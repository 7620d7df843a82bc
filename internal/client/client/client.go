package client

import (
	"context"

	"github.com/dmitrijs2005/contactkeeper/internal/client/models"
)

// Client is the API contract used by the CLI.
type Client interface {
	Ping(ctx context.Context) error
	Signup(ctx context.Context, email, password string) (*models.AccountSummary, error)
	Verify(ctx context.Context, verificationToken string) error
	ResendVerification(ctx context.Context, email string) error
	Login(ctx context.Context, email, password string) error
	Logout(ctx context.Context) error
	Current(ctx context.Context) (*models.AccountSummary, error)
	ChangeSubscription(ctx context.Context, tier string) (*models.AccountSummary, error)
	RequestAvatarUpload(ctx context.Context) (*models.AvatarUpload, error)
	UploadAvatar(ctx context.Context, presignedURL string, data []byte) error
	CommitAvatar(ctx context.Context, key string) (string, error)
	LoggedIn() bool
}
