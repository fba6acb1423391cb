package identity

import (
	"context"

	"github.com/baechuer/edu-quiz/services/identity-service/internal/domain"
)

// UpdateProfile replaces the profile attributes of the account.
func (s *Service) UpdateProfile(ctx context.Context, email string, p domain.Profile) (domain.Account, error) {
	email = domain.NormalizeEmail(email)
	if email == "" {
		return domain.Account{}, domain.ErrMissingField("email")
	}
	if p.YearsOfExperience != nil && *p.YearsOfExperience < 0 {
		return domain.Account{}, domain.ErrInvalidField("years_of_experience", "must not be negative")
	}

	updated, err := s.accounts.UpdateByEmail(ctx, email, domain.AccountPatch{Profile: &p})
	if err != nil {
		return domain.Account{}, err
	}
	s.audit("profile.updated", map[string]string{"account_id": updated.ID, "email": updated.Email})
	return updated, nil
}

// SetActive enables or disables an account. Disabled accounts are denied by the Guard.
func (s *Service) SetActive(ctx context.Context, actorID, targetID string, active bool) (domain.Account, error) {
	if targetID == "" {
		return domain.Account{}, domain.ErrMissingField("id")
	}

	updated, err := s.accounts.UpdateByID(ctx, targetID, domain.AccountPatch{IsActive: &active})
	if err != nil {
		return domain.Account{}, err
	}

	action := "account.deactivated"
	if active {
		action = "account.activated"
	}
	s.audit(action, map[string]string{"actor_id": actorID, "account_id": updated.ID})
	return updated, nil
}

// SetRoles replaces the role set of an account.
func (s *Service) SetRoles(ctx context.Context, actorID, targetID string, roles []string) (domain.Account, error) {
	if targetID == "" {
		return domain.Account{}, domain.ErrMissingField("id")
	}
	normalized, err := domain.NormalizeRoles(roles)
	if err != nil {
		return domain.Account{}, err
	}

	updated, err := s.accounts.UpdateByID(ctx, targetID, domain.AccountPatch{Roles: normalized})
	if err != nil {
		return domain.Account{}, err
	}
	s.audit("account.roles_changed", map[string]string{
		"actor_id":   actorID,
		"account_id": updated.ID,
		"roles":      domain.JoinRoles(updated.Roles),
	})
	return updated, nil
}
