package identity

import (
	"context"
	"time"

	"github.com/baechuer/edu-quiz/services/identity-service/internal/domain"
)

const defaultSessionTTL = 24 * time.Hour

type Authenticator struct {
	accounts AccountStore
	hasher   PasswordHasher
	signer   TokenSigner

	sessionTTL time.Duration
	now        func() time.Time
}

func NewAuthenticator(accounts AccountStore, hasher PasswordHasher, signer TokenSigner, sessionTTL time.Duration) *Authenticator {
	if sessionTTL <= 0 {
		sessionTTL = defaultSessionTTL
	}
	return &Authenticator{
		accounts:   accounts,
		hasher:     hasher,
		signer:     signer,
		sessionTTL: sessionTTL,
		now:        time.Now,
	}
}

func (a *Authenticator) WithClock(now func() time.Time) *Authenticator {
	if now != nil {
		a.now = now
	}
	return a
}

// Session is a signed token plus the claim it carries.
type Session struct {
	Token     string
	TokenType string // "Bearer"
	ExpiresIn int64  // seconds
	Claim     domain.SessionClaim
}

type LoginResult struct {
	Account domain.Account
	Session Session
}

// Authenticate checks credentials. Order: unknown email, wrong password, unverified email.
// is_active is not checked here; the Guard enforces it on every protected call.
func (a *Authenticator) Authenticate(ctx context.Context, email, password string) (domain.Account, error) {
	email = domain.NormalizeEmail(email)
	if email == "" || password == "" {
		return domain.Account{}, domain.ErrInvalidCredentials()
	}

	acc, err := a.accounts.FindByEmail(ctx, email)
	if err != nil {
		return domain.Account{}, err
	}
	if err := a.hasher.Compare(acc.PasswordHash, password); err != nil {
		return domain.Account{}, domain.ErrInvalidCredentials()
	}
	if !acc.EmailVerified {
		return domain.Account{}, domain.ErrEmailNotVerified()
	}
	return acc, nil
}

// IssueSession signs a claim for acc valid for the configured TTL.
func (a *Authenticator) IssueSession(acc domain.Account) (Session, error) {
	claim := domain.ClaimFor(acc, a.now(), a.sessionTTL)
	tok, err := a.signer.Sign(claim)
	if err != nil {
		return Session{}, domain.ErrTokenSignFailed(err)
	}
	return Session{
		Token:     tok,
		TokenType: "Bearer",
		ExpiresIn: int64(a.sessionTTL.Seconds()),
		Claim:     claim,
	}, nil
}

func (a *Authenticator) Login(ctx context.Context, email, password string) (LoginResult, error) {
	acc, err := a.Authenticate(ctx, email, password)
	if err != nil {
		return LoginResult{}, err
	}
	sess, err := a.IssueSession(acc)
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{Account: acc, Session: sess}, nil
}
