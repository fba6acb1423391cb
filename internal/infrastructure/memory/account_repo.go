package memory

import (
	"context"
	"sync"
	"time"

	"github.com/baechuer/edu-quiz/services/identity-service/internal/domain"
)

// AccountRepo is an in-process AccountStore. One mutex guards both indexes so
// every patch is checked and applied atomically.
type AccountRepo struct {
	mu      sync.RWMutex
	byID    map[string]domain.Account
	byEmail map[string]string // email -> account id
	now     func() time.Time
}

func NewAccountRepo() *AccountRepo {
	return &AccountRepo{
		byID:    make(map[string]domain.Account),
		byEmail: make(map[string]string),
		now:     time.Now,
	}
}

func (r *AccountRepo) WithClock(now func() time.Time) *AccountRepo {
	if now != nil {
		r.now = now
	}
	return r
}

func (r *AccountRepo) FindByEmail(ctx context.Context, email string) (domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[email]
	if !ok {
		return domain.Account{}, domain.ErrAccountNotFound()
	}
	return clone(r.byID[id]), nil
}

func (r *AccountRepo) FindByID(ctx context.Context, id string) (domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.byID[id]
	if !ok {
		return domain.Account{}, domain.ErrAccountNotFound()
	}
	return clone(a), nil
}

func (r *AccountRepo) Create(ctx context.Context, a domain.Account) (domain.Account, error) {
	if err := a.Validate(); err != nil {
		return domain.Account{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byEmail[a.Email]; exists {
		return domain.Account{}, domain.ErrAccountExists()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = r.now().UTC()
		a.UpdatedAt = a.CreatedAt
	}

	a = clone(a)
	r.byID[a.ID] = a
	r.byEmail[a.Email] = a.ID
	return clone(a), nil
}

func (r *AccountRepo) UpdateByEmail(ctx context.Context, email string, p domain.AccountPatch) (domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.byEmail[email]
	if !ok {
		return domain.Account{}, domain.ErrAccountNotFound()
	}
	return r.apply(id, p)
}

func (r *AccountRepo) UpdateByID(ctx context.Context, id string, p domain.AccountPatch) (domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[id]; !ok {
		return domain.Account{}, domain.ErrAccountNotFound()
	}
	return r.apply(id, p)
}

// apply must be called with the write lock held.
func (r *AccountRepo) apply(id string, p domain.AccountPatch) (domain.Account, error) {
	a := clone(r.byID[id])
	if err := p.Apply(&a); err != nil {
		return domain.Account{}, err
	}
	if err := a.Validate(); err != nil {
		return domain.Account{}, err
	}

	// updated_at never moves backwards
	if now := r.now().UTC(); now.After(a.UpdatedAt) {
		a.UpdatedAt = now
	}
	r.byID[id] = a
	return clone(a), nil
}

// clone detaches slices and pointers so callers cannot mutate stored state.
func clone(a domain.Account) domain.Account {
	a.Roles = append([]domain.Role(nil), a.Roles...)
	if a.OTP != nil {
		o := *a.OTP
		a.OTP = &o
	}
	if a.Profile.YearsOfExperience != nil {
		y := *a.Profile.YearsOfExperience
		a.Profile.YearsOfExperience = &y
	}
	if a.Profile.TeachingSubjects != nil {
		a.Profile.TeachingSubjects = append([]string(nil), a.Profile.TeachingSubjects...)
	}
	return a
}
