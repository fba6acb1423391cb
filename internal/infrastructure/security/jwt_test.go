package security

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baechuer/edu-quiz/services/identity-service/internal/domain"
)

var issued = time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)

func claim(ttl time.Duration) domain.SessionClaim {
	return domain.SessionClaim{
		Subject:           "alice@x.com",
		Roles:             []domain.Role{domain.RoleStudent, domain.RoleTeacher},
		AcademicLevel:     "A-level",
		SchoolInstitution: "Hill School",
		IssuedAt:          issued,
		ExpiresAt:         issued.Add(ttl),
	}
}

func at(t time.Time) func() time.Time { return func() time.Time { return t } }

func TestJWTSigner_SignAndVerify_RoundTripsClaim(t *testing.T) {
	t.Parallel()

	s := NewJWTSigner("secret", "identity-service").WithClock(at(issued.Add(time.Minute)))
	tok, err := s.Sign(claim(time.Hour))
	require.NoError(t, err)
	require.NotEmpty(t, tok)

	got, err := s.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, claim(time.Hour), got)
}

func TestJWTSigner_Verify_Expired(t *testing.T) {
	t.Parallel()

	s := NewJWTSigner("secret", "identity-service").WithClock(at(issued.Add(2 * time.Hour)))
	tok, err := s.Sign(claim(time.Hour))
	require.NoError(t, err)

	_, err = s.Verify(tok)
	assert.True(t, domain.Is(err, domain.CodeTokenExpired), "got %v", err)
}

func TestJWTSigner_Verify_WrongSecretOrIssuer(t *testing.T) {
	t.Parallel()

	now := at(issued)
	tok, err := NewJWTSigner("secret1", "identity-service").WithClock(now).Sign(claim(time.Hour))
	require.NoError(t, err)

	_, err = NewJWTSigner("secret2", "identity-service").WithClock(now).Verify(tok)
	assert.True(t, domain.Is(err, domain.CodeTokenInvalid), "wrong secret: %v", err)

	_, err = NewJWTSigner("secret1", "someone-else").WithClock(now).Verify(tok)
	assert.True(t, domain.Is(err, domain.CodeTokenInvalid), "wrong issuer: %v", err)
}

func TestJWTSigner_Verify_RejectsOtherAlgorithms(t *testing.T) {
	t.Parallel()

	c := jwt.MapClaims{"sub": "a@x.com", "iss": "identity-service", "exp": issued.Add(time.Hour).Unix()}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS512, c).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = NewJWTSigner("secret", "identity-service").WithClock(at(issued)).Verify(tok)
	assert.True(t, domain.Is(err, domain.CodeTokenInvalid), "got %v", err)
}

func TestJWTSigner_Verify_RejectsUnknownRole(t *testing.T) {
	t.Parallel()

	c := jwt.MapClaims{
		"sub":   "a@x.com",
		"iss":   "identity-service",
		"exp":   issued.Add(time.Hour).Unix(),
		"roles": []string{"superuser"},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = NewJWTSigner("secret", "identity-service").WithClock(at(issued)).Verify(tok)
	assert.True(t, domain.Is(err, domain.CodeTokenInvalid), "got %v", err)
}

func TestJWTSigner_Verify_MissingExpiry(t *testing.T) {
	t.Parallel()

	c := jwt.MapClaims{"sub": "a@x.com", "iss": "identity-service"}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = NewJWTSigner("secret", "identity-service").Verify(tok)
	assert.True(t, domain.Is(err, domain.CodeTokenInvalid), "got %v", err)
}

func TestJWTSigner_Verify_Garbage(t *testing.T) {
	t.Parallel()

	s := NewJWTSigner("secret", "identity-service")
	_, err := s.Verify("not.a.jwt")
	assert.True(t, domain.Is(err, domain.CodeTokenInvalid))

	_, err = s.Verify("")
	assert.True(t, domain.Is(err, domain.CodeTokenMissing))

	_, err = s.Verify(strings.Repeat("a", 10))
	assert.True(t, domain.Is(err, domain.CodeTokenInvalid))
}
