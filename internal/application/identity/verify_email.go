package identity

import (
	"context"

	"github.com/baechuer/edu-quiz/services/identity-service/internal/domain"
)

// VerifyEmail consumes the pending OTP and marks the mailbox as verified.
//
// The code is checked before the verified flag, so replaying a consumed code
// reports a mismatch. A verified account only reaches AlreadyVerified with a
// matching password-reset code, which stays pending.
func (s *Service) VerifyEmail(ctx context.Context, email, code string) (domain.Account, error) {
	email = domain.NormalizeEmail(email)
	if email == "" {
		return domain.Account{}, domain.ErrMissingField("email")
	}
	if code == "" {
		return domain.Account{}, domain.ErrMissingField("otp")
	}

	a, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		return domain.Account{}, err
	}
	if err := s.checkOTP(a, code); err != nil {
		return domain.Account{}, err
	}
	if a.EmailVerified {
		return domain.Account{}, domain.ErrAlreadyVerified()
	}

	updated, err := s.accounts.UpdateByEmail(ctx, email, domain.AccountPatch{
		EmailVerified: domain.Ptr(true),
		ClearOTP:      true,
		IfOTPCode:     a.OTP.Code,
	})
	if err != nil {
		return domain.Account{}, lostRace(err)
	}

	s.audit("email.verified", map[string]string{"account_id": updated.ID, "email": updated.Email})
	return updated, nil
}
