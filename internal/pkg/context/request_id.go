package context

import (
	"context"

	"github.com/baechuer/edu-quiz/services/identity-service/internal/domain"
)

type contextKey string

const (
	requestIDKey contextKey = "request_id"
	claimKey     contextKey = "session_claim"
	accountKey   contextKey = "account"
)

// WithRequestID injects ID
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// GetRequestID extracts ID
func GetRequestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// WithClaim stores the verified session claim.
func WithClaim(ctx context.Context, c domain.SessionClaim) context.Context {
	return context.WithValue(ctx, claimKey, c)
}

func GetClaim(ctx context.Context) (domain.SessionClaim, bool) {
	if ctx == nil {
		return domain.SessionClaim{}, false
	}
	c, ok := ctx.Value(claimKey).(domain.SessionClaim)
	return c, ok
}

// WithAccount stores the account the Guard allowed.
func WithAccount(ctx context.Context, a domain.Account) context.Context {
	return context.WithValue(ctx, accountKey, a)
}

func GetAccount(ctx context.Context) (domain.Account, bool) {
	if ctx == nil {
		return domain.Account{}, false
	}
	a, ok := ctx.Value(accountKey).(domain.Account)
	return a, ok
}
