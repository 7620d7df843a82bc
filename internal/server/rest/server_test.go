package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/contactkeeper/internal/common"
	"github.com/dmitrijs2005/contactkeeper/internal/logging"
	"github.com/dmitrijs2005/contactkeeper/internal/server/auth"
	"github.com/dmitrijs2005/contactkeeper/internal/server/config"
	"github.com/dmitrijs2005/contactkeeper/internal/server/mail"
	"github.com/dmitrijs2005/contactkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/contactkeeper/internal/server/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type outbox struct {
	mu  sync.Mutex
	msg []mail.Message
}

func (o *outbox) Dispatch(_ context.Context, m mail.Message) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.msg = append(o.msg, m)
}

func (o *outbox) lastToken(t *testing.T) string {
	t.Helper()
	o.mu.Lock()
	defer o.mu.Unlock()
	require.NotEmpty(t, o.msg)
	text := o.msg[len(o.msg)-1].Text
	i := strings.LastIndex(text, "/users/verify/")
	require.GreaterOrEqual(t, i, 0)
	return text[i+len("/users/verify/"):]
}

type stubPresigner struct{}

func (stubPresigner) PresignPut(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://s3.test/" + key, nil
}

func newTestServer(t *testing.T) (*Server, *outbox) {
	t.Helper()
	cfg := &config.Config{PublicBaseURL: "http://api.test", AvatarBaseURL: "https://cdn.test"}
	rm := repomanager.NewMemoryRepositoryManager()
	tokens := auth.NewSessionTokens([]byte("k"), time.Hour)
	box := &outbox{}

	accounts, err := services.NewAccountService(nil, rm, cfg, auth.NewBcryptHasher(4), auth.VerificationTokens{}, tokens, box, logging.Nop{})
	require.NoError(t, err)
	avatars := services.NewAvatarService(nil, rm, cfg, stubPresigner{}, logging.Nop{})
	contacts := services.NewContactService(nil, rm, logging.Nop{})

	return NewServer("127.0.0.1:0", logging.Nop{}, accounts, avatars, contacts, auth.NewGuard(tokens, rm.Accounts(nil))), box
}

type response struct {
	Status  string          `json:"status"`
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func do(t *testing.T, s *Server, method, path, token string, body any) (int, response) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	var r response
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &r), rec.Body.String())
	}
	return rec.Code, r
}

func signupAndVerify(t *testing.T, s *Server, box *outbox, email, password string) {
	t.Helper()
	code, _ := do(t, s, http.MethodPost, "/users/signup", "", jsonBody{"email": email, "password": password})
	require.Equal(t, http.StatusCreated, code)
	code, _ = do(t, s, http.MethodGet, "/users/verify/"+box.lastToken(t), "", nil)
	require.Equal(t, http.StatusOK, code)
}

func login(t *testing.T, s *Server, email, password string) string {
	t.Helper()
	code, r := do(t, s, http.MethodPost, "/users/login", "", jsonBody{"email": email, "password": password})
	require.Equal(t, http.StatusOK, code, r.Message)
	var data struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(r.Data, &data))
	require.NotEmpty(t, data.Token)
	return data.Token
}

type jsonBody = map[string]any

func TestPing(t *testing.T) {
	s, _ := newTestServer(t)
	code, r := do(t, s, http.MethodGet, "/ping", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "success", r.Status)
}

func TestSignup(t *testing.T) {
	s, _ := newTestServer(t)

	code, r := do(t, s, http.MethodPost, "/users/signup", "", jsonBody{"email": "a@x.com", "password": "pw123"})
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, "success", r.Status)
	assert.Equal(t, 201, r.Code)
	assert.JSONEq(t, `{"user":{"email":"a@x.com","subscription":"starter"}}`, string(r.Data))

	code, r = do(t, s, http.MethodPost, "/users/signup", "", jsonBody{"email": "A@x.com", "password": "other"})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "error", r.Status)
	assert.Equal(t, "email in use", r.Message)
}

func TestSignup_Validation(t *testing.T) {
	s, _ := newTestServer(t)

	for _, body := range []jsonBody{
		{"email": "not-an-email", "password": "pw"},
		{"email": "a@x.com"},
		{"password": "pw"},
	} {
		code, r := do(t, s, http.MethodPost, "/users/signup", "", body)
		assert.Equal(t, http.StatusBadRequest, code, "body %v", body)
		assert.Equal(t, 400, r.Code)
	}
}

func TestVerifyAndResend(t *testing.T) {
	s, box := newTestServer(t)

	code, _ := do(t, s, http.MethodPost, "/users/verify", "", jsonBody{"email": "ghost@x.com"})
	assert.Equal(t, http.StatusNotFound, code)

	code, r := do(t, s, http.MethodPost, "/users/verify", "", jsonBody{})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "missing required field email", r.Message)

	code, _ = do(t, s, http.MethodPost, "/users/signup", "", jsonBody{"email": "a@x.com", "password": "pw"})
	require.Equal(t, http.StatusCreated, code)
	token := box.lastToken(t)

	code, r = do(t, s, http.MethodPost, "/users/verify", "", jsonBody{"email": "a@x.com"})
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Verification email sent", r.Message)
	assert.Equal(t, token, box.lastToken(t))

	code, r = do(t, s, http.MethodGet, "/users/verify/"+token, "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Verification successful", r.Message)

	code, _ = do(t, s, http.MethodGet, "/users/verify/"+token, "", nil)
	assert.Equal(t, http.StatusNotFound, code)

	before := len(box.msg)
	code, r = do(t, s, http.MethodPost, "/users/verify", "", jsonBody{"email": "a@x.com"})
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Verification has already been passed", r.Message)
	assert.Len(t, box.msg, before, "no mail for a verified account")
}

func TestScenario_SignupVerifyLoginCurrentLogout(t *testing.T) {
	s, box := newTestServer(t)
	signupAndVerify(t, s, box, "a@x.com", "pw123")

	token := login(t, s, "a@x.com", "pw123")

	code, r := do(t, s, http.MethodGet, "/users/current", token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"user":{"email":"a@x.com","subscription":"starter"}}`, string(r.Data))

	code, _ = do(t, s, http.MethodPost, "/users/logout", token, nil)
	assert.Equal(t, http.StatusNoContent, code)

	code, r = do(t, s, http.MethodGet, "/users/current", token, nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "Not authorized", r.Message)
}

func TestScenario_LoginBeforeVerification(t *testing.T) {
	s, box := newTestServer(t)

	code, _ := do(t, s, http.MethodPost, "/users/signup", "", jsonBody{"email": "b@x.com", "password": "pw"})
	require.Equal(t, http.StatusCreated, code)

	code, unverified := do(t, s, http.MethodPost, "/users/login", "", jsonBody{"email": "b@x.com", "password": "pw"})
	assert.Equal(t, http.StatusUnauthorized, code)

	_, wrongPw := do(t, s, http.MethodPost, "/users/login", "", jsonBody{"email": "b@x.com", "password": "nope"})
	assert.Equal(t, unverified, wrongPw)

	code, _ = do(t, s, http.MethodGet, "/users/verify/"+box.lastToken(t), "", nil)
	require.Equal(t, http.StatusOK, code)

	login(t, s, "b@x.com", "pw")
}

func TestSecondLoginRevokesFirst(t *testing.T) {
	s, box := newTestServer(t)
	signupAndVerify(t, s, box, "a@x.com", "pw")

	first := login(t, s, "a@x.com", "pw")
	second := login(t, s, "a@x.com", "pw")

	code, _ := do(t, s, http.MethodGet, "/users/current", first, nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = do(t, s, http.MethodGet, "/users/current", second, nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	s, _ := newTestServer(t)

	for _, rt := range []struct{ method, path string }{
		{http.MethodPost, "/users/logout"},
		{http.MethodGet, "/users/current"},
		{http.MethodPatch, "/users"},
		{http.MethodPost, "/users/avatars/upload"},
		{http.MethodPatch, "/users/avatars"},
		{http.MethodGet, "/contacts"},
		{http.MethodPost, "/contacts"},
		{http.MethodPatch, "/contacts/some-id/favorite"},
		{http.MethodDelete, "/contacts/some-id"},
	} {
		code, _ := do(t, s, rt.method, rt.path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, code, "%s %s", rt.method, rt.path)

		code, _ = do(t, s, rt.method, rt.path, "garbage", nil)
		assert.Equal(t, http.StatusUnauthorized, code, "%s %s", rt.method, rt.path)
	}
}

func TestChangeSubscription(t *testing.T) {
	s, box := newTestServer(t)
	signupAndVerify(t, s, box, "a@x.com", "pw")
	token := login(t, s, "a@x.com", "pw")

	code, r := do(t, s, http.MethodPatch, "/users", token, jsonBody{"subscription": "business"})
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"result":{"email":"a@x.com","subscription":"business"}}`, string(r.Data))

	code, _ = do(t, s, http.MethodPatch, "/users", token, jsonBody{"subscription": "gold"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, r = do(t, s, http.MethodGet, "/users/current", token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"user":{"email":"a@x.com","subscription":"business"}}`, string(r.Data))
}

func TestAvatarUploadAndCommit(t *testing.T) {
	s, box := newTestServer(t)
	signupAndVerify(t, s, box, "a@x.com", "pw")
	token := login(t, s, "a@x.com", "pw")

	code, r := do(t, s, http.MethodPost, "/users/avatars/upload", token, nil)
	require.Equal(t, http.StatusOK, code)
	var up services.AvatarUpload
	require.NoError(t, json.Unmarshal(r.Data, &up))
	assert.True(t, strings.HasPrefix(up.Key, "avatars/"))
	assert.Equal(t, "https://s3.test/"+up.Key, up.URL)

	code, r = do(t, s, http.MethodPatch, "/users/avatars", token, jsonBody{"key": up.Key})
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"avatarURL":"https://cdn.test/`+up.Key+`"}`, string(r.Data))

	code, _ = do(t, s, http.MethodPatch, "/users/avatars", token, jsonBody{"key": "avatars/someone-else/x"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = do(t, s, http.MethodPatch, "/users/avatars", token, jsonBody{})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestStatusOf(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{common.ErrorBadRequest, http.StatusBadRequest},
		{common.ErrTokenExpired, http.StatusUnauthorized},
		{services.ErrAccountNotFound, http.StatusNotFound},
		{services.ErrEmailInUse, http.StatusConflict},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, statusOf(tc.err), "%v", tc.err)
	}
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	s, _ := newTestServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- s.Run(ctx)
	}()

	select {
	case err := <-done:
		t.Fatalf("server exited too early: %v", err)
	case <-time.After(150 * time.Millisecond):
	}

	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned error on graceful stop: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop within timeout after context cancel")
	}
}

func TestRun_ReturnsErrorOnBadAddress(t *testing.T) {
	s, _ := newTestServer(t)
	s.address = "127.0.0.1:99999"

	if err := s.Run(context.Background()); err == nil {
		t.Fatal("expected error from Run on bad address, got nil")
	}
}

type failingSender struct{}

func (failingSender) Send(context.Context, mail.Message) error {
	return errors.New("sendgrid: 503")
}

func TestSignupAndResend_DeliveryFailureIsNotReported(t *testing.T) {
	cfg := &config.Config{PublicBaseURL: "http://api.test"}
	rm := repomanager.NewMemoryRepositoryManager()
	tokens := auth.NewSessionTokens([]byte("k"), time.Hour)
	dispatcher := mail.NewDispatcher(failingSender{}, logging.Nop{}, time.Second)

	accounts, err := services.NewAccountService(nil, rm, cfg, auth.NewBcryptHasher(4), auth.VerificationTokens{}, tokens, dispatcher, logging.Nop{})
	require.NoError(t, err)
	s := NewServer("127.0.0.1:0", logging.Nop{}, accounts,
		services.NewAvatarService(nil, rm, cfg, stubPresigner{}, logging.Nop{}),
		services.NewContactService(nil, rm, logging.Nop{}),
		auth.NewGuard(tokens, rm.Accounts(nil)))

	code, _ := do(t, s, http.MethodPost, "/users/signup", "", jsonBody{"email": "a@x.com", "password": "pw"})
	assert.Equal(t, http.StatusCreated, code)

	code, r := do(t, s, http.MethodPost, "/users/verify", "", jsonBody{"email": "a@x.com"})
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Verification email sent", r.Message)

	dispatcher.Wait()
}
