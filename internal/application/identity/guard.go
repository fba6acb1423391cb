package identity

import (
	"context"

	"github.com/baechuer/edu-quiz/services/identity-service/internal/domain"
)

// Guard decides whether the bearer of a session claim may perform an operation.
// The account is re-read on every call so deactivation and role changes take
// effect before the token expires.
type Guard struct {
	accounts AccountStore
	observe  func(result string)
}

func NewGuard(accounts AccountStore) *Guard {
	return &Guard{accounts: accounts, observe: func(string) {}}
}

// WithObserver receives "allow", the deny code, or "error" for every decision.
func (g *Guard) WithObserver(fn func(result string)) *Guard {
	if fn != nil {
		g.observe = fn
	}
	return g
}

// Authorize returns the current account on Allow. Denials are checked in a
// fixed order so the first failing condition is the one reported:
// account_not_found, account_inactive, account_unverified, insufficient_role.
func (g *Guard) Authorize(ctx context.Context, claim domain.SessionClaim, allowed ...domain.Role) (domain.Account, error) {
	acc, err := g.decide(ctx, claim, allowed)
	switch {
	case err == nil:
		g.observe("allow")
	case domain.Is(err, domain.CodeAccountNotFound),
		domain.Is(err, domain.CodeAccountInactive),
		domain.Is(err, domain.CodeAccountUnverified),
		domain.Is(err, domain.CodeInsufficientRole):
		g.observe(domain.CodeOf(err))
	default:
		g.observe("error")
	}
	return acc, err
}

func (g *Guard) decide(ctx context.Context, claim domain.SessionClaim, allowed []domain.Role) (domain.Account, error) {
	email := domain.NormalizeEmail(claim.Subject)
	if email == "" {
		return domain.Account{}, domain.ErrAccountNotFound()
	}

	acc, err := g.accounts.FindByEmail(ctx, email)
	if err != nil {
		return domain.Account{}, err
	}
	if !acc.IsActive {
		return domain.Account{}, domain.ErrAccountInactive()
	}
	if !acc.EmailVerified {
		return domain.Account{}, domain.ErrAccountUnverified()
	}
	// Roles come from the store, not the token.
	if !domain.HasAnyRole(acc.Roles, allowed) {
		return domain.Account{}, domain.ErrInsufficientRole(allowed)
	}
	return acc, nil
}
