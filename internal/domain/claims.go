package domain

import "time"

// SessionClaim is what a session token asserts about its bearer.
// It is never persisted; the Guard re-reads the account on every protected call.
type SessionClaim struct {
	Subject           string
	Roles             []Role
	AcademicLevel     string
	SchoolInstitution string
	IssuedAt          time.Time
	ExpiresAt         time.Time
}

// ClaimFor builds the claim embedded in a token issued to a at now.
func ClaimFor(a Account, now time.Time, ttl time.Duration) SessionClaim {
	roles := make([]Role, len(a.Roles))
	copy(roles, a.Roles)
	return SessionClaim{
		Subject:           a.Email,
		Roles:             roles,
		AcademicLevel:     a.Profile.AcademicLevel,
		SchoolInstitution: a.Profile.SchoolInstitution,
		IssuedAt:          now.UTC(),
		ExpiresAt:         now.UTC().Add(ttl),
	}
}
