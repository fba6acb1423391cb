package domain

import (
	"errors"
	"testing"
)

func TestError_ErrorString_NoCause(t *testing.T) {
	err := New(KindAuth, CodeInvalidCredentials, "invalid email or password")

	if err.Error() != "auth (invalid_credentials): invalid email or password" {
		t.Fatalf("unexpected error string: %q", err.Error())
	}
}

func TestError_ErrorString_WithCause(t *testing.T) {
	root := errors.New("root cause")
	err := Wrap(KindInternal, "hash_failed", "hash failed", root)

	if !errors.Is(err, root) {
		t.Fatalf("expected errors.Is to match cause")
	}
}

func TestError_Unwrap(t *testing.T) {
	root := errors.New("root")
	err := Wrap(KindInternal, "internal_error", "internal", root)

	if errors.Unwrap(err) != root {
		t.Fatalf("unwrap did not return cause")
	}
}

func TestWithMeta_AttachesMeta(t *testing.T) {
	err := ErrMissingField("email")

	if err.Meta["field"] != "email" {
		t.Fatalf("unexpected meta value: %+v", err.Meta)
	}
}

func TestIs_MatchesCode(t *testing.T) {
	err := ErrOTPMismatch()

	if !Is(err, CodeOTPMismatch) {
		t.Fatalf("expected code match")
	}
	if Is(err, CodeOTPExpired) {
		t.Fatalf("unexpected code match")
	}
}

func TestIs_NonDomainError(t *testing.T) {
	if Is(errors.New("plain error"), CodeInvalidCredentials) {
		t.Fatalf("should not match non-domain error")
	}
	if CodeOf(errors.New("plain")) != "" {
		t.Fatalf("expected empty code for plain error")
	}
}

func TestIs_WrappedDomainError(t *testing.T) {
	err := errors.Join(errors.New("ctx"), ErrAccountNotFound())
	if !Is(err, CodeAccountNotFound) {
		t.Fatalf("expected wrapped match")
	}
}

func TestDispatchFailed_IsDegradedWithCause(t *testing.T) {
	root := errors.New("smtp down")
	err := ErrDispatchFailed(root)

	if err.Kind != KindDegraded {
		t.Fatalf("unexpected kind %q", err.Kind)
	}
	if !errors.Is(err, root) {
		t.Fatalf("expected wrapped cause")
	}
}

func TestInsufficientRole_ListsAllowed(t *testing.T) {
	err := ErrInsufficientRole([]Role{RoleTeacher, RoleAdmin})
	if err.Kind != KindForbidden {
		t.Fatalf("unexpected kind")
	}
	if err.Meta["allowed"] != "teacher,admin" {
		t.Fatalf("unexpected meta %+v", err.Meta)
	}
}

func TestKinds(t *testing.T) {
	cases := []struct {
		err  *Error
		kind ErrKind
	}{
		{ErrInvalidField("email", "bad format"), KindValidation},
		{ErrOTPExpired(), KindValidation},
		{ErrTokenMissing(), KindAuth},
		{ErrAccountInactive(), KindForbidden},
		{ErrAccountUnverified(), KindForbidden},
		{ErrEmailNotVerified(), KindForbidden},
		{ErrAccountNotFound(), KindNotFound},
		{ErrAccountExists(), KindConflict},
		{ErrAlreadyVerified(), KindConflict},
		{ErrRateLimited("login"), KindRateLimited},
		{ErrDBUnavailable(errors.New("x")), KindInfrastructure},
	}
	for _, c := range cases {
		if c.err.Kind != c.kind {
			t.Fatalf("%s: expected kind %q, got %q", c.err.Code, c.kind, c.err.Kind)
		}
	}
}
