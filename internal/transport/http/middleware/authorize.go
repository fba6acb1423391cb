package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/baechuer/edu-quiz/services/identity-service/internal/domain"
	appCtx "github.com/baechuer/edu-quiz/services/identity-service/internal/pkg/context"
)

type Authorizer interface {
	Authorize(ctx context.Context, claim domain.SessionClaim, allowed ...domain.Role) (domain.Account, error)
}

type AuthorizeOptions struct {
	// MaskReasons turns every deny into a generic forbidden.
	MaskReasons bool
	// OnDeny is told about each denied request (audit).
	OnDeny func(ctx context.Context, email, route, reason string)
}

// Authorize runs the Guard against a fresh account read. Must run after Auth.
// On allow the account is stored in the request context for the handler.
func Authorize(guard Authorizer, opts AuthorizeOptions, writeErr WriteErrFunc, allowed ...domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claim, ok := appCtx.GetClaim(r.Context())
			if !ok {
				// Auth not applied
				writeErr(w, r, domain.ErrTokenMissing())
				return
			}

			acc, err := guard.Authorize(r.Context(), claim, allowed...)
			if err != nil {
				var de *domain.Error
				denied := errors.As(err, &de) && (de.Kind == domain.KindForbidden || de.Kind == domain.KindNotFound)
				if !denied {
					writeErr(w, r, err)
					return
				}
				if opts.OnDeny != nil {
					opts.OnDeny(r.Context(), claim.Subject, r.URL.Path, de.Code)
				}
				if opts.MaskReasons {
					err = domain.ErrForbidden()
				} else if de.Kind == domain.KindNotFound {
					// a token for a vanished account is still a deny, not a 404
					err = domain.New(domain.KindForbidden, de.Code, de.Message)
				}
				writeErr(w, r, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(appCtx.WithAccount(r.Context(), acc)))
		})
	}
}
