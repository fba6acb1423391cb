// Package otp issues and checks six-digit one-time passcodes.
//
// The engine never consumes a code. Callers clear the stored code once it has
// been used so that it cannot be replayed.
package otp

import (
	"crypto/rand"
	"crypto/subtle"
	"io"
	"math/big"
	"time"

	"github.com/baechuer/edu-quiz/services/identity-service/internal/domain"
)

// DefaultTTL is how long an issued code stays valid.
const DefaultTTL = 600 * time.Second

const (
	minCode = 100000
	maxCode = 999999
)

// Verdict is the outcome of checking a submitted code.
type Verdict int

const (
	VerdictOK Verdict = iota
	VerdictExpired
	VerdictMismatch
)

func (v Verdict) String() string {
	switch v {
	case VerdictOK:
		return "ok"
	case VerdictExpired:
		return "expired"
	default:
		return "mismatch"
	}
}

// Err maps a failing verdict onto the domain taxonomy. VerdictOK maps to nil.
func (v Verdict) Err() error {
	switch v {
	case VerdictOK:
		return nil
	case VerdictExpired:
		return domain.ErrOTPExpired()
	default:
		return domain.ErrOTPMismatch()
	}
}

type Engine struct {
	ttl  time.Duration
	now  func() time.Time
	rand io.Reader
}

type Option func(*Engine)

// WithClock overrides the time source (tests).
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithRandom overrides the entropy source (tests).
func WithRandom(r io.Reader) Option {
	return func(e *Engine) {
		if r != nil {
			e.rand = r
		}
	}
}

func NewEngine(ttl time.Duration, opts ...Option) *Engine {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	e := &Engine{
		ttl:  ttl,
		now:  time.Now,
		rand: rand.Reader,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

func (e *Engine) TTL() time.Duration { return e.ttl }

// Issue draws a code uniformly from [100000, 999999] and stamps it with the current UTC time.
// The caller persists Code and IssuedAt together.
func (e *Engine) Issue(purpose domain.OTPPurpose) (domain.OTP, error) {
	n, err := rand.Int(e.rand, big.NewInt(maxCode-minCode+1))
	if err != nil {
		return domain.OTP{}, domain.ErrRandomFailed(err)
	}
	return domain.OTP{
		Code:     itoa6(minCode + n.Int64()),
		IssuedAt: e.now().UTC(),
		Purpose:  purpose,
	}, nil
}

// Validate checks submitted against the stored code. A missing stored code is a
// mismatch. Expiry is strict: a code is still valid exactly ttl after issue.
func (e *Engine) Validate(stored *domain.OTP, submitted string) Verdict {
	if stored == nil || stored.Code == "" {
		return VerdictMismatch
	}
	if subtle.ConstantTimeCompare([]byte(stored.Code), []byte(submitted)) != 1 {
		return VerdictMismatch
	}
	if e.now().UTC().Sub(stored.IssuedAt) > e.ttl {
		return VerdictExpired
	}
	return VerdictOK
}

func itoa6(n int64) string {
	var b [6]byte
	for i := 5; i >= 0; i-- {
		b[i] = byte('0' + n%10)
		n /= 10
	}
	return string(b[:])
}
