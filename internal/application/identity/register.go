package identity

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/baechuer/edu-quiz/services/identity-service/internal/domain"
)

type RegisterInput struct {
	Email    string
	Password string
	Roles    []string
	Profile  domain.Profile
	// IsActive defaults to true.
	IsActive *bool
}

// RegisterResult is returned alongside a DispatchFailed error when the account
// was created but the verification email could not be sent.
type RegisterResult struct {
	Account         domain.Account
	EmailDispatched bool
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (RegisterResult, error) {
	email := domain.NormalizeEmail(in.Email)
	if email == "" {
		return RegisterResult{}, domain.ErrMissingField("email")
	}
	if !strings.Contains(email, "@") {
		return RegisterResult{}, domain.ErrInvalidField("email", "not an email address")
	}
	if in.Password == "" {
		return RegisterResult{}, domain.ErrMissingField("password")
	}
	roles, err := domain.NormalizeRoles(in.Roles)
	if err != nil {
		return RegisterResult{}, err
	}

	// Fast path; the store's unique constraint is what actually guarantees it.
	if _, err := s.accounts.FindByEmail(ctx, email); err == nil {
		return RegisterResult{}, domain.ErrAccountExists()
	} else if !domain.Is(err, domain.CodeAccountNotFound) {
		return RegisterResult{}, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return RegisterResult{}, domain.ErrHashFailed(err)
	}

	code, err := s.issueOTP(email, domain.OTPVerifyEmail)
	if err != nil {
		return RegisterResult{}, err
	}

	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}
	now := s.now().UTC()
	created, err := s.accounts.Create(ctx, domain.Account{
		ID:            uuid.NewString(),
		Email:         email,
		PasswordHash:  hash,
		Roles:         roles,
		IsActive:      active,
		EmailVerified: false,
		OTP:           &code,
		Profile:       in.Profile,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
	if err != nil {
		return RegisterResult{}, err
	}
	s.audit("account.registered", map[string]string{
		"account_id": created.ID,
		"email":      created.Email,
		"roles":      domain.JoinRoles(created.Roles),
	})

	if err := s.dispatch(ctx, "account.registered", otpEmail(created.Email, code, s.otps.TTL())); err != nil {
		return RegisterResult{Account: created, EmailDispatched: false}, err
	}
	return RegisterResult{Account: created, EmailDispatched: true}, nil
}
