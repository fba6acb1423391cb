package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baechuer/edu-quiz/services/identity-service/internal/application/identity"
	"github.com/baechuer/edu-quiz/services/identity-service/internal/domain"
)

var _ identity.AccountStore = (*AccountRepo)(nil)

var t0 = time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)

func newAccount(email string) domain.Account {
	return domain.Account{
		ID:           "id-" + email,
		Email:        email,
		PasswordHash: "hash",
		Roles:        []domain.Role{domain.RoleStudent},
		IsActive:     true,
		OTP:          &domain.OTP{Code: "123456", IssuedAt: t0, Purpose: domain.OTPVerifyEmail},
		CreatedAt:    t0,
		UpdatedAt:    t0,
	}
}

func TestAccountRepo_CreateAndFind(t *testing.T) {
	r := NewAccountRepo()
	ctx := context.Background()

	_, err := r.Create(ctx, newAccount("a@x.com"))
	require.NoError(t, err)

	byEmail, err := r.FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	byID, err := r.FindByID(ctx, "id-a@x.com")
	require.NoError(t, err)
	assert.Equal(t, byEmail, byID)

	_, err = r.FindByEmail(ctx, "b@x.com")
	assert.True(t, domain.Is(err, domain.CodeAccountNotFound))
	_, err = r.FindByID(ctx, "nope")
	assert.True(t, domain.Is(err, domain.CodeAccountNotFound))
}

func TestAccountRepo_CreateDuplicateAndInvalid(t *testing.T) {
	r := NewAccountRepo()
	ctx := context.Background()

	_, err := r.Create(ctx, newAccount("a@x.com"))
	require.NoError(t, err)

	dup := newAccount("a@x.com")
	dup.ID = "other"
	_, err = r.Create(ctx, dup)
	assert.True(t, domain.Is(err, domain.CodeAccountExists))

	bad := newAccount("c@x.com")
	bad.Roles = nil
	_, err = r.Create(ctx, bad)
	assert.True(t, domain.Is(err, domain.CodeMissingField))
}

func TestAccountRepo_ReturnedValuesAreDetached(t *testing.T) {
	r := NewAccountRepo()
	ctx := context.Background()
	_, err := r.Create(ctx, newAccount("a@x.com"))
	require.NoError(t, err)

	a, _ := r.FindByEmail(ctx, "a@x.com")
	a.OTP.Code = "999999"
	a.Roles[0] = domain.RoleAdmin

	again, _ := r.FindByEmail(ctx, "a@x.com")
	assert.Equal(t, "123456", again.OTP.Code)
	assert.Equal(t, domain.RoleStudent, again.Roles[0])
}

func TestAccountRepo_UpdateConditionalAndTimestamps(t *testing.T) {
	clock := t0
	r := NewAccountRepo().WithClock(func() time.Time { return clock })
	ctx := context.Background()
	_, err := r.Create(ctx, newAccount("a@x.com"))
	require.NoError(t, err)

	// stale code
	_, err = r.UpdateByEmail(ctx, "a@x.com", domain.AccountPatch{
		EmailVerified: domain.Ptr(true), ClearOTP: true, IfOTPCode: "000000",
	})
	assert.True(t, domain.Is(err, domain.CodePreconditionFailed))

	clock = t0.Add(time.Minute)
	a, err := r.UpdateByEmail(ctx, "a@x.com", domain.AccountPatch{
		EmailVerified: domain.Ptr(true), ClearOTP: true, IfOTPCode: "123456",
	})
	require.NoError(t, err)
	assert.True(t, a.EmailVerified)
	assert.Nil(t, a.OTP)
	assert.Equal(t, t0.Add(time.Minute), a.UpdatedAt)

	// clock going backwards does not move updated_at back
	clock = t0
	a, err = r.UpdateByID(ctx, a.ID, domain.AccountPatch{IsActive: domain.Ptr(false)})
	require.NoError(t, err)
	assert.False(t, a.IsActive)
	assert.Equal(t, t0.Add(time.Minute), a.UpdatedAt)

	_, err = r.UpdateByEmail(ctx, "ghost@x.com", domain.AccountPatch{})
	assert.True(t, domain.Is(err, domain.CodeAccountNotFound))
	_, err = r.UpdateByID(ctx, "ghost", domain.AccountPatch{})
	assert.True(t, domain.Is(err, domain.CodeAccountNotFound))
}

func TestAccountRepo_RejectsPatchBreakingInvariant(t *testing.T) {
	r := NewAccountRepo()
	ctx := context.Background()
	_, err := r.Create(ctx, newAccount("a@x.com"))
	require.NoError(t, err)

	// verified while still holding a verification code
	_, err = r.UpdateByEmail(ctx, "a@x.com", domain.AccountPatch{EmailVerified: domain.Ptr(true)})
	assert.True(t, domain.Is(err, domain.CodeInvalidField))

	a, _ := r.FindByEmail(ctx, "a@x.com")
	assert.False(t, a.EmailVerified)
}

func TestAccountRepo_ConcurrentConditionalUpdates_OneWins(t *testing.T) {
	r := NewAccountRepo()
	ctx := context.Background()
	_, err := r.Create(ctx, newAccount("a@x.com"))
	require.NoError(t, err)

	const n = 16
	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.UpdateByEmail(ctx, "a@x.com", domain.AccountPatch{
				EmailVerified: domain.Ptr(true), ClearOTP: true, IfOTPCode: "123456",
			})
			if err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
}
