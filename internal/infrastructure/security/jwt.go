package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/baechuer/edu-quiz/services/identity-service/internal/domain"
)

// JWTSigner signs session claims as HS256 JWTs.
type JWTSigner struct {
	secret []byte
	issuer string
	now    func() time.Time
}

func NewJWTSigner(secret string, issuer string) *JWTSigner {
	return &JWTSigner{
		secret: []byte(secret),
		issuer: issuer,
		now:    time.Now,
	}
}

// WithClock sets the time used to validate exp/iat (tests).
func (s *JWTSigner) WithClock(now func() time.Time) *JWTSigner {
	if now != nil {
		s.now = now
	}
	return s
}

type sessionClaims struct {
	Roles             []string `json:"roles"`
	AcademicLevel     string   `json:"academic_level,omitempty"`
	SchoolInstitution string   `json:"school_institution,omitempty"`
	jwt.RegisteredClaims
}

func (s *JWTSigner) Sign(c domain.SessionClaim) (string, error) {
	claims := sessionClaims{
		Roles:             domain.RoleStrings(c.Roles),
		AcademicLevel:     c.AcademicLevel,
		SchoolInstitution: c.SchoolInstitution,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   c.Subject,
			IssuedAt:  jwt.NewNumericDate(c.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(c.ExpiresAt),
		},
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(s.secret)
	if err != nil {
		return "", domain.ErrTokenSignFailed(err)
	}
	return signed, nil
}

func (s *JWTSigner) Verify(token string) (domain.SessionClaim, error) {
	if token == "" {
		return domain.SessionClaim{}, domain.ErrTokenMissing()
	}

	parsed, err := jwt.ParseWithClaims(token, &sessionClaims{}, func(t *jwt.Token) (any, error) {
		// prevent alg confusion
		if t.Method != jwt.SigningMethodHS256 {
			return nil, domain.ErrTokenInvalid()
		}
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return domain.SessionClaim{}, domain.ErrTokenExpired()
		}
		return domain.SessionClaim{}, domain.ErrTokenInvalid()
	}

	claims, ok := parsed.Claims.(*sessionClaims)
	if !ok || !parsed.Valid || claims.Subject == "" {
		return domain.SessionClaim{}, domain.ErrTokenInvalid()
	}

	roles := make([]domain.Role, 0, len(claims.Roles))
	for _, r := range claims.Roles {
		if !domain.IsValidRole(r) {
			return domain.SessionClaim{}, domain.ErrTokenInvalid()
		}
		roles = append(roles, domain.Role(r))
	}

	out := domain.SessionClaim{
		Subject:           claims.Subject,
		Roles:             roles,
		AcademicLevel:     claims.AcademicLevel,
		SchoolInstitution: claims.SchoolInstitution,
		ExpiresAt:         claims.ExpiresAt.Time.UTC(),
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time.UTC()
	}
	return out, nil
}
