package identity

import (
	"context"

	"github.com/baechuer/edu-quiz/services/identity-service/internal/domain"
)

// ResendOTP replaces any pending code with a fresh verification code and mails it.
// Earlier codes stop working immediately, expired or not.
func (s *Service) ResendOTP(ctx context.Context, email string) (domain.Account, error) {
	email = domain.NormalizeEmail(email)
	if email == "" {
		return domain.Account{}, domain.ErrMissingField("email")
	}

	a, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		return domain.Account{}, err
	}
	if a.EmailVerified {
		return domain.Account{}, domain.ErrAlreadyVerified()
	}

	code, err := s.issueOTP(email, domain.OTPVerifyEmail)
	if err != nil {
		return domain.Account{}, err
	}
	updated, err := s.accounts.UpdateByEmail(ctx, email, domain.AccountPatch{
		SetOTP:       &code,
		IfUnverified: true,
	})
	if err != nil {
		// verified between our read and write
		if domain.Is(err, domain.CodePreconditionFailed) {
			return domain.Account{}, domain.ErrAlreadyVerified()
		}
		return domain.Account{}, err
	}
	s.audit("otp.resent", map[string]string{"account_id": updated.ID, "email": updated.Email})

	if err := s.dispatch(ctx, "otp.resent", otpEmail(updated.Email, code, s.otps.TTL())); err != nil {
		return updated, err
	}
	return updated, nil
}
