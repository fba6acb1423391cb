package memory

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/baechuer/edu-quiz/services/identity-service/internal/domain"
)

// Hasher is the minimal surface we need for seeding.
type Hasher interface {
	Hash(password string) (string, error)
}

// SeedAdmin creates a verified admin for local development.
// Safe to call multiple times (duplicates ignored).
func SeedAdmin(ctx context.Context, accounts *AccountRepo, hasher Hasher, email, password string, lg zerolog.Logger) {
	email = domain.NormalizeEmail(email)
	if email == "" || password == "" {
		return
	}

	hash, err := hasher.Hash(password)
	if err != nil {
		lg.Warn().Err(err).Str("email", email).Msg("seed: hash failed")
		return
	}

	_, err = accounts.Create(ctx, domain.Account{
		ID:            uuid.NewString(),
		Email:         email,
		PasswordHash:  hash,
		Roles:         []domain.Role{domain.RoleAdmin},
		IsActive:      true,
		EmailVerified: true,
	})
	if err != nil {
		// ignore duplicates / restart
		if !domain.Is(err, domain.CodeAccountExists) {
			lg.Warn().Err(err).Str("email", email).Msg("seed: create failed")
		}
		return
	}
	lg.Info().Str("email", email).Msg("seed: admin account created")
}
