package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/contactkeeper/internal/client/models"
	"github.com/dmitrijs2005/contactkeeper/internal/common"
)

// envelope mirrors the server response body. Data is decoded lazily.
type envelope struct {
	Status  string          `json:"status"`
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type HTTPClient struct {
	baseURL string
	http    *http.Client

	mu           sync.RWMutex
	sessionToken string
}

var _ Client = (*HTTPClient)(nil)

// NewHTTPClient returns a client for the API rooted at baseURL. timeout
// bounds every request, zero means no limit.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sessionToken
}

func (c *HTTPClient) setToken(t string) {
	c.mu.Lock()
	c.sessionToken = t
	c.mu.Unlock()
}

// LoggedIn reports whether a session token is held.
func (c *HTTPClient) LoggedIn() bool {
	return c.token() != ""
}

// do sends body as JSON (when non-nil), checks the status and decodes the
// envelope data into out (when non-nil).
func (c *HTTPClient) do(ctx context.Context, method, path string, auth bool, body, out any) error {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth {
		t := c.token()
		if t == "" {
			return ErrNotLoggedIn
		}
		req.Header.Set(common.AuthorizationHeaderName, common.BearerScheme+t)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	var env envelope
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil && resp.StatusCode < 300 {
			return fmt.Errorf("decode response: %w", err)
		}
	}

	if resp.StatusCode >= 300 {
		return &APIError{Code: resp.StatusCode, Message: env.Message}
	}

	if out != nil {
		if len(env.Data) == 0 {
			return errors.New("response has no data")
		}
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func (c *HTTPClient) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/ping", false, nil, nil)
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userData struct {
	User *models.AccountSummary `json:"user"`
}

func (c *HTTPClient) Signup(ctx context.Context, email, password string) (*models.AccountSummary, error) {
	var out userData
	if err := c.do(ctx, http.MethodPost, "/users/signup", false, credentials{email, password}, &out); err != nil {
		return nil, err
	}
	return out.User, nil
}

func (c *HTTPClient) Verify(ctx context.Context, verificationToken string) error {
	return c.do(ctx, http.MethodGet, "/users/verify/"+url.PathEscape(verificationToken), false, nil, nil)
}

func (c *HTTPClient) ResendVerification(ctx context.Context, email string) error {
	return c.do(ctx, http.MethodPost, "/users/verify", false, map[string]string{"email": email}, nil)
}

// Login stores the returned session token for subsequent calls.
func (c *HTTPClient) Login(ctx context.Context, email, password string) error {
	var out struct {
		Token string `json:"token"`
	}
	if err := c.do(ctx, http.MethodPost, "/users/login", false, credentials{email, password}, &out); err != nil {
		return err
	}
	if out.Token == "" {
		return errors.New("empty token in login response")
	}
	c.setToken(out.Token)
	return nil
}

// Logout revokes the session on the server and forgets the token. The token
// is dropped locally even when the server already considers it invalid.
func (c *HTTPClient) Logout(ctx context.Context) error {
	err := c.do(ctx, http.MethodPost, "/users/logout", true, nil, nil)
	if err == nil || errors.Is(err, ErrUnauthorized) {
		c.setToken("")
	}
	return err
}

func (c *HTTPClient) Current(ctx context.Context) (*models.AccountSummary, error) {
	var out userData
	if err := c.do(ctx, http.MethodGet, "/users/current", true, nil, &out); err != nil {
		return nil, err
	}
	return out.User, nil
}

func (c *HTTPClient) ChangeSubscription(ctx context.Context, tier string) (*models.AccountSummary, error) {
	var out struct {
		Result *models.AccountSummary `json:"result"`
	}
	if err := c.do(ctx, http.MethodPatch, "/users", true, map[string]string{"subscription": tier}, &out); err != nil {
		return nil, err
	}
	return out.Result, nil
}

func (c *HTTPClient) RequestAvatarUpload(ctx context.Context) (*models.AvatarUpload, error) {
	var out models.AvatarUpload
	if err := c.do(ctx, http.MethodPost, "/users/avatars/upload", true, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) CommitAvatar(ctx context.Context, key string) (string, error) {
	var out struct {
		AvatarURL string `json:"avatarURL"`
	}
	if err := c.do(ctx, http.MethodPatch, "/users/avatars", true, map[string]string{"key": key}, &out); err != nil {
		return "", err
	}
	return out.AvatarURL, nil
}

// UploadAvatar PUTs data to a presigned URL obtained from RequestAvatarUpload.
// The request goes straight to object storage, without the session token.
func (c *HTTPClient) UploadAvatar(ctx context.Context, presignedURL string, data []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, presignedURL, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.ContentLength = int64(len(data))

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		return &APIError{Code: resp.StatusCode}
	}
	return nil
}
