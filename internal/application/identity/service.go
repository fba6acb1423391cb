package identity

import (
	"context"
	"time"

	"github.com/baechuer/edu-quiz/services/identity-service/internal/application/otp"
	"github.com/baechuer/edu-quiz/services/identity-service/internal/domain"
)

const defaultDispatchTimeout = 10 * time.Second

// Service is the identity lifecycle manager: registration, email verification,
// OTP re-issue and password recovery.
type Service struct {
	accounts AccountStore
	hasher   PasswordHasher
	mailer   Mailer
	otps     *otp.Engine

	dispatchTimeout time.Duration
	now             func() time.Time
	audit           func(action string, fields map[string]string)
}

type Config struct {
	// DispatchTimeout bounds a single email send. It runs detached from the
	// request context because the state it reports on is already persisted.
	DispatchTimeout time.Duration
}

func NewService(accounts AccountStore, hasher PasswordHasher, mailer Mailer, otps *otp.Engine, cfg Config) *Service {
	timeout := cfg.DispatchTimeout
	if timeout <= 0 {
		timeout = defaultDispatchTimeout
	}
	return &Service{
		accounts:        accounts,
		hasher:          hasher,
		mailer:          mailer,
		otps:            otps,
		dispatchTimeout: timeout,
		now:             time.Now,
		audit:           func(string, map[string]string) {},
	}
}

func (s *Service) WithAudit(fn func(action string, fields map[string]string)) *Service {
	if fn != nil {
		s.audit = fn
	}
	return s
}

func (s *Service) WithClock(now func() time.Time) *Service {
	if now != nil {
		s.now = now
	}
	return s
}

// issueOTP draws a fresh code and records the issuance.
func (s *Service) issueOTP(email string, purpose domain.OTPPurpose) (domain.OTP, error) {
	code, err := s.otps.Issue(purpose)
	if err != nil {
		return domain.OTP{}, err
	}
	s.audit("otp.issued", map[string]string{"email": email, "purpose": string(purpose)})
	return code, nil
}

// checkOTP validates submitted against the account's pending code.
func (s *Service) checkOTP(a domain.Account, submitted string) error {
	v := s.otps.Validate(a.OTP, submitted)
	s.audit("otp.checked", map[string]string{"email": a.Email, "result": v.String()})
	return v.Err()
}

// dispatch sends msg and converts a failure into the non-fatal DispatchFailed error.
func (s *Service) dispatch(ctx context.Context, action string, msg domain.Email) error {
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.dispatchTimeout)
	defer cancel()

	if err := s.mailer.Send(sendCtx, msg); err != nil {
		s.audit(action+".dispatch_failed", map[string]string{"email": msg.To, "error": err.Error()})
		return domain.ErrDispatchFailed(err)
	}
	return nil
}

// lostRace maps a failed OTP precondition to the error the caller would have
// seen had it arrived second.
func lostRace(err error) error {
	if domain.Is(err, domain.CodePreconditionFailed) {
		return domain.ErrOTPMismatch()
	}
	return err
}
