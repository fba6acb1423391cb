package http_handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/baechuer/edu-quiz/services/identity-service/internal/application/identity"
	"github.com/baechuer/edu-quiz/services/identity-service/internal/application/otp"
	"github.com/baechuer/edu-quiz/services/identity-service/internal/application/quiz"
	"github.com/baechuer/edu-quiz/services/identity-service/internal/audit"
	"github.com/baechuer/edu-quiz/services/identity-service/internal/domain"
	"github.com/baechuer/edu-quiz/services/identity-service/internal/infrastructure/memory"
	"github.com/baechuer/edu-quiz/services/identity-service/internal/infrastructure/security"
	appCtx "github.com/baechuer/edu-quiz/services/identity-service/internal/pkg/context"
)

// switchMailer delegates to a LogMailer unless failing is set.
type switchMailer struct {
	inner *memory.LogMailer

	mu      sync.Mutex
	failing bool
}

func (m *switchMailer) Send(ctx context.Context, msg domain.Email) error {
	m.mu.Lock()
	failing := m.failing
	m.mu.Unlock()
	if failing {
		return errors.New("smtp: connection refused")
	}
	return m.inner.Send(ctx, msg)
}

func (m *switchMailer) fail(v bool) {
	m.mu.Lock()
	m.failing = v
	m.mu.Unlock()
}

type testEnv struct {
	repo    *memory.AccountRepo
	mailer  *switchMailer
	hasher  *security.BcryptHasher
	signer  *security.JWTSigner
	svc     *identity.Service
	authn   *identity.Authenticator
	quizzes *quiz.Service
	auth    *AuthHandler
	quiz    *QuizHandler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	lg := zerolog.Nop()
	repo := memory.NewAccountRepo()
	mailer := &switchMailer{inner: memory.NewLogMailer(lg)}
	hasher := security.NewBcryptHasher(4)
	signer := security.NewJWTSigner("test-secret", "identity-service-test")

	svc := identity.NewService(repo, hasher, mailer, otp.NewEngine(10*time.Minute), identity.Config{DispatchTimeout: time.Second})
	authn := identity.NewAuthenticator(repo, hasher, signer, time.Hour)
	quizzes := quiz.NewService(memory.NewQuizRepo())

	return &testEnv{
		repo:    repo,
		mailer:  mailer,
		hasher:  hasher,
		signer:  signer,
		svc:     svc,
		authn:   authn,
		quizzes: quizzes,
		auth:    NewAuthHandler(svc, authn, audit.New(lg)),
		quiz:    NewQuizHandler(quizzes),
	}
}

// pendingCode reads the outstanding OTP straight from the store.
func (e *testEnv) pendingCode(t *testing.T, email string) string {
	t.Helper()
	acc, err := e.repo.FindByEmail(context.Background(), email)
	require.NoError(t, err)
	require.NotNil(t, acc.OTP, "no pending otp for %s", email)
	return acc.OTP.Code
}

// seedAccount stores a ready-to-use account with password "secret123".
func (e *testEnv) seedAccount(t *testing.T, email string, verified bool, roles ...domain.Role) domain.Account {
	t.Helper()
	hash, err := e.hasher.Hash("secret123")
	require.NoError(t, err)
	now := time.Now().UTC()
	acc, err := e.repo.Create(context.Background(), domain.Account{
		ID:            "id-" + email,
		Email:         email,
		PasswordHash:  hash,
		Roles:         roles,
		IsActive:      true,
		EmailVerified: verified,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
	require.NoError(t, err)
	return acc
}

// mustJSONBody marshals v to JSON and returns an io.Reader for request body.
func mustJSONBody(t *testing.T, v any) io.Reader {
	t.Helper()

	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(b)
}

// mustReadData decodes the {"data": ...} envelope into out.
func mustReadData(t *testing.T, r io.Reader, out any) {
	t.Helper()

	var env struct {
		Data json.RawMessage `json:"data"`
	}
	raw, err := io.ReadAll(r)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &env), "body=%s", raw)
	require.NotEmpty(t, env.Data, "no data in body=%s", raw)
	require.NoError(t, json.Unmarshal(env.Data, out), "body=%s", raw)
}

// errorCode extracts error.code from an error body.
func errorCode(t *testing.T, r io.Reader) string {
	t.Helper()

	var env struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(r).Decode(&env))
	return env.Error.Code
}

func postJSON(t *testing.T, h http.HandlerFunc, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, mustJSONBody(t, body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h(rr, req)
	return rr
}

// withAccount injects the account Authorize would have stored.
func withAccount(req *http.Request, acc domain.Account) *http.Request {
	return req.WithContext(appCtx.WithAccount(req.Context(), acc))
}

// withURLParam injects chi URL param (e.g. /accounts/{id}) into request context.
func withURLParam(req *http.Request, key, val string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, val)

	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	return req.WithContext(ctx)
}
