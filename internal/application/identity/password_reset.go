package identity

import (
	"context"

	"github.com/baechuer/edu-quiz/services/identity-service/internal/domain"
)

// ForgotPassword issues a password-reset code. Verification status is not
// changed; the code replaces whatever was pending.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	email = domain.NormalizeEmail(email)
	if email == "" {
		return domain.ErrMissingField("email")
	}

	if _, err := s.accounts.FindByEmail(ctx, email); err != nil {
		return err
	}

	code, err := s.issueOTP(email, domain.OTPPasswordReset)
	if err != nil {
		return err
	}
	updated, err := s.accounts.UpdateByEmail(ctx, email, domain.AccountPatch{SetOTP: &code})
	if err != nil {
		return err
	}
	s.audit("password.reset_requested", map[string]string{"account_id": updated.ID, "email": updated.Email})

	return s.dispatch(ctx, "password.reset_requested", otpEmail(updated.Email, code, s.otps.TTL()))
}

// ResetPassword replaces the password hash and consumes the code.
// The new hash is computed before anything is written, so a hashing failure
// leaves the code usable for a retry.
func (s *Service) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	email = domain.NormalizeEmail(email)
	if email == "" {
		return domain.ErrMissingField("email")
	}
	if code == "" {
		return domain.ErrMissingField("otp")
	}
	if newPassword == "" {
		return domain.ErrMissingField("new_password")
	}

	a, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if err := s.checkOTP(a, code); err != nil {
		return err
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return domain.ErrHashFailed(err)
	}

	updated, err := s.accounts.UpdateByEmail(ctx, email, domain.AccountPatch{
		PasswordHash: &hash,
		ClearOTP:     true,
		IfOTPCode:    a.OTP.Code,
	})
	if err != nil {
		return lostRace(err)
	}

	s.audit("password.reset", map[string]string{"account_id": updated.ID, "email": updated.Email})
	return nil
}
