package domain

import (
	"strings"
	"time"
)

// OTPPurpose records why a code was issued. The code itself is interchangeable,
// the purpose only drives the email wording and the verified-account invariant.
type OTPPurpose string

const (
	OTPVerifyEmail   OTPPurpose = "verify_email"
	OTPPasswordReset OTPPurpose = "password_reset"
)

// OTP is a pending one-time passcode. Code and IssuedAt are always set together.
type OTP struct {
	Code     string
	IssuedAt time.Time
	Purpose  OTPPurpose
}

// Profile holds the optional attributes collected at registration.
// Teacher fields stay zero for students.
type Profile struct {
	AcademicLevel     string   `json:"academic_level,omitempty"`
	SchoolInstitution string   `json:"school_institution,omitempty"`
	YearsOfExperience *int     `json:"years_of_experience,omitempty"`
	Location          string   `json:"location,omitempty"`
	PhoneNumber       string   `json:"phone_number,omitempty"`
	TeachingSubjects  []string `json:"teaching_subjects,omitempty"`
	Bio               string   `json:"bio,omitempty"`
}

type Account struct {
	ID            string
	Email         string
	PasswordHash  string
	Roles         []Role
	IsActive      bool
	EmailVerified bool
	OTP           *OTP
	Profile       Profile
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// HasPendingOTP reports whether a code is outstanding.
func (a Account) HasPendingOTP() bool { return a.OTP != nil }

// Validate checks the record-level invariants every store relies on.
func (a Account) Validate() error {
	if a.ID == "" {
		return ErrMissingField("id")
	}
	if NormalizeEmail(a.Email) == "" {
		return ErrMissingField("email")
	}
	if a.PasswordHash == "" {
		return ErrMissingField("password_hash")
	}
	if len(a.Roles) == 0 {
		return ErrMissingField("roles")
	}
	for _, r := range a.Roles {
		if !IsValidRole(string(r)) {
			return ErrInvalidRole(string(r))
		}
	}
	if a.OTP != nil {
		if a.OTP.Code == "" || a.OTP.IssuedAt.IsZero() {
			return ErrInvalidField("otp", "code and issued_at must be set together")
		}
		if a.EmailVerified && a.OTP.Purpose != OTPPasswordReset {
			return ErrInvalidField("otp", "verified account cannot hold a verification code")
		}
	}
	if !a.CreatedAt.IsZero() && a.UpdatedAt.Before(a.CreatedAt) {
		return ErrInvalidField("updated_at", "before created_at")
	}
	return nil
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Email is an outbound message handed to a mailer.
type Email struct {
	To      string
	Subject string
	Body    string
}
