package identity

import (
	"context"

	"github.com/baechuer/edu-quiz/services/identity-service/internal/domain"
)

/*
AccountStore
------------
Persistence port for accounts.
Emails are passed already normalized. Every Update* call is a single atomic
merge: the patch preconditions are evaluated against the same row that is
written, and updated_at is refreshed by the store.

FindBy* return domain.ErrAccountNotFound when no row matches.
Create returns domain.ErrAccountExists on an email collision.
Update* return domain.ErrPreconditionFailed when a precondition does not hold.
*/
type AccountStore interface {
	FindByEmail(ctx context.Context, email string) (domain.Account, error)
	FindByID(ctx context.Context, id string) (domain.Account, error)
	Create(ctx context.Context, a domain.Account) (domain.Account, error)
	UpdateByEmail(ctx context.Context, email string, p domain.AccountPatch) (domain.Account, error)
	UpdateByID(ctx context.Context, id string, p domain.AccountPatch) (domain.Account, error)
}

/*
Mailer
------
Delivers one message. SMTP, broker and log implementations live under
infrastructure. A returned error is reported as DispatchFailed; nothing that
was persisted before the send is rolled back.
*/
type Mailer interface {
	Send(ctx context.Context, msg domain.Email) error
}

// PasswordHasher abstracts bcrypt.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash string, password string) error // nil if match
}

// TokenSigner issues and verifies session tokens. Used by the Authenticator and the auth middleware.
type TokenSigner interface {
	Sign(claim domain.SessionClaim) (string, error)
	Verify(token string) (domain.SessionClaim, error)
}
