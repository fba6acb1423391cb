package postgres

import (
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/baechuer/edu-quiz/services/identity-service/internal/domain"
)

// accountColumns is shared by every SELECT/RETURNING so scanAccount stays in sync.
// roles and profile are read back as text to keep scanning driver-agnostic.
const accountColumns = `id, email, password_hash, array_to_string(roles, ','), is_active, email_verified,
       otp_code, otp_issued_at, otp_purpose, profile::text, created_at, updated_at`

type accountRow struct {
	ID            string
	Email         string
	PasswordHash  string
	Roles         string
	IsActive      bool
	EmailVerified bool
	OTPCode       sql.NullString
	OTPIssuedAt   sql.NullTime
	OTPPurpose    sql.NullString
	Profile       string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(s rowScanner) (accountRow, error) {
	var ar accountRow
	err := s.Scan(
		&ar.ID,
		&ar.Email,
		&ar.PasswordHash,
		&ar.Roles,
		&ar.IsActive,
		&ar.EmailVerified,
		&ar.OTPCode,
		&ar.OTPIssuedAt,
		&ar.OTPPurpose,
		&ar.Profile,
		&ar.CreatedAt,
		&ar.UpdatedAt,
	)
	return ar, err
}

func (ar accountRow) toDomain() (domain.Account, error) {
	a := domain.Account{
		ID:            ar.ID,
		Email:         ar.Email,
		PasswordHash:  ar.PasswordHash,
		IsActive:      ar.IsActive,
		EmailVerified: ar.EmailVerified,
		CreatedAt:     ar.CreatedAt.UTC(),
		UpdatedAt:     ar.UpdatedAt.UTC(),
	}
	for _, r := range strings.Split(ar.Roles, ",") {
		if r != "" {
			a.Roles = append(a.Roles, domain.Role(r))
		}
	}
	if ar.OTPCode.Valid && ar.OTPIssuedAt.Valid {
		a.OTP = &domain.OTP{
			Code:     ar.OTPCode.String,
			IssuedAt: ar.OTPIssuedAt.Time.UTC(),
			Purpose:  domain.OTPPurpose(ar.OTPPurpose.String),
		}
	}
	if ar.Profile != "" {
		if err := json.Unmarshal([]byte(ar.Profile), &a.Profile); err != nil {
			return domain.Account{}, domain.ErrInternal(err)
		}
	}
	return a, nil
}

// textArray renders roles as a postgres array literal for a $n::text[] parameter.
// Role values are a closed set of lowercase words, so no quoting is needed.
func textArray(roles []domain.Role) string {
	return "{" + domain.JoinRoles(roles) + "}"
}

func profileJSON(p domain.Profile) (string, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return "", domain.ErrInternal(err)
	}
	return string(b), nil
}
