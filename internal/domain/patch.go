package domain

// AccountPatch is a partial update applied atomically to one account.
// Nil fields are left untouched. The If* fields are preconditions: when one does
// not hold, nothing is written and the store returns ErrPreconditionFailed.
type AccountPatch struct {
	PasswordHash  *string
	EmailVerified *bool
	IsActive      *bool
	Roles         []Role
	Profile       *Profile

	SetOTP   *OTP
	ClearOTP bool

	// IfOTPCode requires the stored code to equal this value.
	IfOTPCode string
	// IfUnverified requires email_verified=false.
	IfUnverified bool
}

// Check evaluates the preconditions against the current record.
func (p AccountPatch) Check(a Account) error {
	if p.IfOTPCode != "" && (a.OTP == nil || a.OTP.Code != p.IfOTPCode) {
		return ErrPreconditionFailed()
	}
	if p.IfUnverified && a.EmailVerified {
		return ErrPreconditionFailed()
	}
	return nil
}

// Apply checks the preconditions and merges the patch into a. Timestamps are the
// store's responsibility.
func (p AccountPatch) Apply(a *Account) error {
	if err := p.Check(*a); err != nil {
		return err
	}
	if p.PasswordHash != nil {
		a.PasswordHash = *p.PasswordHash
	}
	if p.EmailVerified != nil {
		a.EmailVerified = *p.EmailVerified
	}
	if p.IsActive != nil {
		a.IsActive = *p.IsActive
	}
	if p.Roles != nil {
		a.Roles = append([]Role(nil), p.Roles...)
	}
	if p.Profile != nil {
		a.Profile = *p.Profile
	}
	switch {
	case p.ClearOTP:
		a.OTP = nil
	case p.SetOTP != nil:
		o := *p.SetOTP
		a.OTP = &o
	}
	return nil
}

func Ptr[T any](v T) *T { return &v }
