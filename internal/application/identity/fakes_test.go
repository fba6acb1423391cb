package identity

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/baechuer/edu-quiz/services/identity-service/internal/application/otp"
	"github.com/baechuer/edu-quiz/services/identity-service/internal/domain"
)

/*
Fakes for ports
*/

type fakeStore struct {
	mu sync.Mutex

	byEmail map[string]domain.Account
	now     func() time.Time

	// injected errors (if set, method returns error)
	findErr   error
	createErr error
	updateErr error

	// beforeUpdate runs under no lock right before an update is applied; tests
	// use it to interleave a competing writer.
	beforeUpdate func()

	updates int
}

func newFakeStore(now func() time.Time) *fakeStore {
	return &fakeStore{byEmail: map[string]domain.Account{}, now: now}
}

func (f *fakeStore) FindByEmail(_ context.Context, email string) (domain.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.findErr != nil {
		return domain.Account{}, f.findErr
	}
	a, ok := f.byEmail[email]
	if !ok {
		return domain.Account{}, domain.ErrAccountNotFound()
	}
	return a, nil
}

func (f *fakeStore) FindByID(_ context.Context, id string) (domain.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, a := range f.byEmail {
		if a.ID == id {
			return a, nil
		}
	}
	return domain.Account{}, domain.ErrAccountNotFound()
}

func (f *fakeStore) Create(_ context.Context, a domain.Account) (domain.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.createErr != nil {
		return domain.Account{}, f.createErr
	}
	if _, ok := f.byEmail[a.Email]; ok {
		return domain.Account{}, domain.ErrAccountExists()
	}
	f.byEmail[a.Email] = a
	return a, nil
}

func (f *fakeStore) UpdateByEmail(_ context.Context, email string, p domain.AccountPatch) (domain.Account, error) {
	if f.beforeUpdate != nil {
		hook := f.beforeUpdate
		f.beforeUpdate = nil
		hook()
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.updateErr != nil {
		return domain.Account{}, f.updateErr
	}
	a, ok := f.byEmail[email]
	if !ok {
		return domain.Account{}, domain.ErrAccountNotFound()
	}
	if err := p.Apply(&a); err != nil {
		return domain.Account{}, err
	}
	a.UpdatedAt = f.now().UTC()
	f.byEmail[email] = a
	f.updates++
	return a, nil
}

func (f *fakeStore) UpdateByID(ctx context.Context, id string, p domain.AccountPatch) (domain.Account, error) {
	a, err := f.FindByID(ctx, id)
	if err != nil {
		return domain.Account{}, err
	}
	return f.UpdateByEmail(ctx, a.Email, p)
}

// put seeds an account directly.
func (f *fakeStore) put(a domain.Account) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byEmail[a.Email] = a
}

func (f *fakeStore) get(t *testing.T, email string) domain.Account {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.byEmail[email]
	require.True(t, ok, "account %s not stored", email)
	return a
}

type fakeHasher struct {
	hashErr error
}

func (h *fakeHasher) Hash(pw string) (string, error) {
	if h.hashErr != nil {
		return "", h.hashErr
	}
	return "h:" + pw, nil
}

func (h *fakeHasher) Compare(hash, pw string) error {
	if hash != "h:"+pw {
		return errors.New("mismatch")
	}
	return nil
}

type fakeMailer struct {
	mu   sync.Mutex
	err  error
	sent []domain.Email
}

func (m *fakeMailer) Send(_ context.Context, msg domain.Email) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *fakeMailer) last(t *testing.T) domain.Email {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.sent, "no email sent")
	return m.sent[len(m.sent)-1]
}

type fakeSigner struct {
	err    error
	signed []domain.SessionClaim
}

func (s *fakeSigner) Sign(c domain.SessionClaim) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.signed = append(s.signed, c)
	return "tok:" + c.Subject, nil
}

func (s *fakeSigner) Verify(tok string) (domain.SessionClaim, error) {
	for _, c := range s.signed {
		if "tok:"+c.Subject == tok {
			return c, nil
		}
	}
	return domain.SessionClaim{}, domain.ErrTokenInvalid()
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type auditEntry struct {
	action string
	fields map[string]string
}

type testEnv struct {
	svc    *Service
	auth   *Authenticator
	guard  *Guard
	store  *fakeStore
	hasher *fakeHasher
	mailer *fakeMailer
	signer *fakeSigner
	clock  *fakeClock

	mu      sync.Mutex
	audits  []auditEntry
	guarded []string
}

var t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func newEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		hasher: &fakeHasher{},
		mailer: &fakeMailer{},
		signer: &fakeSigner{},
		clock:  &fakeClock{t: t0},
	}
	env.store = newFakeStore(env.clock.Now)

	engine := otp.NewEngine(otp.DefaultTTL, otp.WithClock(env.clock.Now))
	env.svc = NewService(env.store, env.hasher, env.mailer, engine, Config{DispatchTimeout: time.Second}).
		WithClock(env.clock.Now).
		WithAudit(func(action string, fields map[string]string) {
			env.mu.Lock()
			defer env.mu.Unlock()
			env.audits = append(env.audits, auditEntry{action: action, fields: fields})
		})
	env.auth = NewAuthenticator(env.store, env.hasher, env.signer, time.Hour).WithClock(env.clock.Now)
	env.guard = NewGuard(env.store).WithObserver(func(result string) {
		env.mu.Lock()
		defer env.mu.Unlock()
		env.guarded = append(env.guarded, result)
	})
	return env
}

func (e *testEnv) hasAudit(action string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, a := range e.audits {
		if a.action == action {
			return true
		}
	}
	return false
}

// register creates an unverified student and returns the issued code.
func (e *testEnv) register(t *testing.T, email, password string) string {
	t.Helper()
	_, err := e.svc.Register(context.Background(), RegisterInput{
		Email:    email,
		Password: password,
		Roles:    []string{"student"},
	})
	require.NoError(t, err)
	return e.store.get(t, email).OTP.Code
}

// verified seeds a verified, active account directly.
func (e *testEnv) verified(email, password string, roles ...domain.Role) domain.Account {
	a := domain.Account{
		ID:            "id-" + strings.SplitN(email, "@", 2)[0],
		Email:         email,
		PasswordHash:  "h:" + password,
		Roles:         roles,
		IsActive:      true,
		EmailVerified: true,
		CreatedAt:     t0,
		UpdatedAt:     t0,
	}
	e.store.put(a)
	return a
}

func requireErrCode(t *testing.T, err error, code string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error code=%q, got nil", code)
	}
	if !domain.Is(err, code) {
		t.Fatalf("expected code=%q, got err=%v", code, err)
	}
}
