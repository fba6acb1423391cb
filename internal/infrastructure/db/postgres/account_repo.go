package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/baechuer/edu-quiz/services/identity-service/internal/domain"
)

type AccountRepo struct {
	db *sql.DB
}

func NewAccountRepo(db *sql.DB) *AccountRepo {
	return &AccountRepo{db: db}
}

func (r *AccountRepo) FindByEmail(ctx context.Context, email string) (domain.Account, error) {
	email = domain.NormalizeEmail(email)
	if email == "" {
		return domain.Account{}, domain.ErrMissingField("email")
	}
	return r.findOne(ctx, "email", email)
}

func (r *AccountRepo) FindByID(ctx context.Context, id string) (domain.Account, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Account{}, domain.ErrMissingField("id")
	}
	return r.findOne(ctx, "id", id)
}

func (r *AccountRepo) findOne(ctx context.Context, col, val string) (domain.Account, error) {
	q := `
SELECT ` + accountColumns + `
FROM accounts
WHERE ` + col + ` = $1
LIMIT 1;
`
	ar, err := scanAccount(r.db.QueryRowContext(ctx, q, val))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Account{}, domain.ErrAccountNotFound()
		}
		return domain.Account{}, domain.ErrDBUnavailable(err)
	}
	return ar.toDomain()
}

func (r *AccountRepo) Create(ctx context.Context, a domain.Account) (domain.Account, error) {
	a.Email = domain.NormalizeEmail(a.Email)
	if err := a.Validate(); err != nil {
		return domain.Account{}, err
	}
	profile, err := profileJSON(a.Profile)
	if err != nil {
		return domain.Account{}, err
	}

	var (
		otpCode, otpPurpose sql.NullString
		otpIssued           sql.NullTime
	)
	if a.OTP != nil {
		otpCode = sql.NullString{String: a.OTP.Code, Valid: true}
		otpIssued = sql.NullTime{Time: a.OTP.IssuedAt.UTC(), Valid: true}
		otpPurpose = sql.NullString{String: string(a.OTP.Purpose), Valid: true}
	}

	// created_at/updated_at are assigned by the database clock.
	q := `
INSERT INTO accounts (id, email, password_hash, roles, is_active, email_verified,
                      otp_code, otp_issued_at, otp_purpose, profile)
VALUES ($1, $2, $3, $4::text[], $5, $6, $7, $8, $9, $10::jsonb)
RETURNING ` + accountColumns + `;
`
	ar, err := scanAccount(r.db.QueryRowContext(ctx, q,
		a.ID, a.Email, a.PasswordHash, textArray(a.Roles), a.IsActive, a.EmailVerified,
		otpCode, otpIssued, otpPurpose, profile,
	))
	if err != nil {
		return domain.Account{}, mapWriteErr(err)
	}
	return ar.toDomain()
}

func (r *AccountRepo) UpdateByEmail(ctx context.Context, email string, p domain.AccountPatch) (domain.Account, error) {
	email = domain.NormalizeEmail(email)
	if email == "" {
		return domain.Account{}, domain.ErrMissingField("email")
	}
	return r.update(ctx, "email", email, p)
}

func (r *AccountRepo) UpdateByID(ctx context.Context, id string, p domain.AccountPatch) (domain.Account, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Account{}, domain.ErrMissingField("id")
	}
	return r.update(ctx, "id", id, p)
}

// update runs the patch as one UPDATE ... RETURNING. Preconditions live in the
// WHERE clause, so the check and the write are a single atomic statement.
func (r *AccountRepo) update(ctx context.Context, col, key string, p domain.AccountPatch) (domain.Account, error) {
	q, args, err := buildUpdate(col, key, p)
	if err != nil {
		return domain.Account{}, err
	}

	ar, err := scanAccount(r.db.QueryRowContext(ctx, q, args...))
	if err == nil {
		return ar.toDomain()
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return domain.Account{}, mapWriteErr(err)
	}

	// No row: either the key is unknown or a precondition failed.
	if p.IfOTPCode == "" && !p.IfUnverified {
		return domain.Account{}, domain.ErrAccountNotFound()
	}
	var one int
	err = r.db.QueryRowContext(ctx, `SELECT 1 FROM accounts WHERE `+col+` = $1;`, key).Scan(&one)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return domain.Account{}, domain.ErrAccountNotFound()
	case err != nil:
		return domain.Account{}, domain.ErrDBUnavailable(err)
	default:
		return domain.Account{}, domain.ErrPreconditionFailed()
	}
}

func buildUpdate(col, key string, p domain.AccountPatch) (string, []any, error) {
	args := []any{key}
	var sets []string
	set := func(expr string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf(expr, len(args)))
	}

	if p.PasswordHash != nil {
		set("password_hash = $%d", *p.PasswordHash)
	}
	if p.EmailVerified != nil {
		set("email_verified = $%d", *p.EmailVerified)
	}
	if p.IsActive != nil {
		set("is_active = $%d", *p.IsActive)
	}
	if p.Roles != nil {
		if len(p.Roles) == 0 {
			return "", nil, domain.ErrMissingField("roles")
		}
		set("roles = $%d::text[]", textArray(p.Roles))
	}
	if p.Profile != nil {
		profile, err := profileJSON(*p.Profile)
		if err != nil {
			return "", nil, err
		}
		set("profile = $%d::jsonb", profile)
	}
	switch {
	case p.ClearOTP:
		sets = append(sets, "otp_code = NULL", "otp_issued_at = NULL", "otp_purpose = NULL")
	case p.SetOTP != nil:
		set("otp_code = $%d", p.SetOTP.Code)
		set("otp_issued_at = $%d", p.SetOTP.IssuedAt.UTC())
		set("otp_purpose = $%d", string(p.SetOTP.Purpose))
	}
	// never moves backwards, even if the server clock does
	sets = append(sets, "updated_at = GREATEST(NOW(), updated_at)")

	conds := []string{col + " = $1"}
	if p.IfOTPCode != "" {
		args = append(args, p.IfOTPCode)
		conds = append(conds, fmt.Sprintf("otp_code = $%d", len(args)))
	}
	if p.IfUnverified {
		conds = append(conds, "email_verified = FALSE")
	}

	q := "UPDATE accounts SET " + strings.Join(sets, ", ") +
		" WHERE " + strings.Join(conds, " AND ") +
		" RETURNING " + accountColumns + ";"
	return q, args, nil
}
