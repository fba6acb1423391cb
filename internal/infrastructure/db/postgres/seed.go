package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/baechuer/edu-quiz/services/identity-service/internal/domain"
)

type SeederHasher interface {
	Hash(password string) (string, error)
}

type SeederRepo interface {
	Create(ctx context.Context, a domain.Account) (domain.Account, error)
}

// SeedAdmin inserts a verified admin account if the email is free. Restart safe.
func SeedAdmin(ctx context.Context, repo SeederRepo, hasher SeederHasher, email, password string, lg zerolog.Logger) error {
	email = domain.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil
	}

	hash, err := hasher.Hash(password)
	if err != nil {
		return err
	}

	_, err = repo.Create(ctx, domain.Account{
		ID:            uuid.NewString(),
		Email:         email,
		PasswordHash:  hash,
		Roles:         []domain.Role{domain.RoleAdmin},
		IsActive:      true,
		EmailVerified: true,
	})
	switch {
	case err == nil:
		lg.Info().Str("email", email).Msg("seed: admin account created")
	case domain.Is(err, domain.CodeAccountExists):
		// ignore duplicates (restart safe)
	default:
		return err
	}
	return nil
}
