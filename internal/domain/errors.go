package domain

import (
	"errors"
	"fmt"
)

// ErrKind is used to map domain errors to HTTP status codes consistently.
type ErrKind string

const (
	KindValidation     ErrKind = "validation"     // 400
	KindAuth           ErrKind = "auth"           // 401
	KindForbidden      ErrKind = "forbidden"      // 403
	KindNotFound       ErrKind = "not_found"      // 404
	KindConflict       ErrKind = "conflict"       // 409
	KindRateLimited    ErrKind = "rate_limited"   // 429
	KindDegraded       ErrKind = "degraded"       // 202, state was persisted
	KindInfrastructure ErrKind = "infrastructure" // 503
	KindInternal       ErrKind = "internal"       // 500
)

// Stable machine codes. Clients switch on these; do not rename.
const (
	CodeValidationFailed   = "validation_failed"
	CodeInvalidJSON        = "invalid_json"
	CodeMissingField       = "missing_field"
	CodeInvalidField       = "invalid_field"
	CodeInvalidRole        = "invalid_role"
	CodeAccountNotFound    = "account_not_found"
	CodeAccountExists      = "account_exists"
	CodeInvalidCredentials = "invalid_credentials"
	CodeEmailNotVerified   = "email_not_verified"
	CodeAlreadyVerified    = "already_verified"
	CodeOTPMismatch        = "otp_mismatch"
	CodeOTPExpired         = "otp_expired"
	CodeAccountInactive    = "account_inactive"
	CodeAccountUnverified  = "account_unverified"
	CodeInsufficientRole   = "insufficient_role"
	CodeDispatchFailed     = "dispatch_failed"
	CodePreconditionFailed = "precondition_failed"
	CodeQuizNotFound       = "quiz_not_found"
	CodeTokenMissing       = "token_missing"
	CodeTokenInvalid       = "token_invalid"
	CodeTokenExpired       = "token_expired"
	CodeForbidden          = "forbidden"
	CodeRateLimited        = "rate_limited"
)

// Error is a structured domain error.
// - Kind: high-level category for HTTP mapping
// - Code: stable machine code
// - Message: safe summary for clients
// - Meta: optional details (field, reason, etc.)
// - Cause: wrapped internal error for logging/diagnostics
type Error struct {
	Kind    ErrKind
	Code    string
	Message string
	Meta    map[string]string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (%s): %s: %v", e.Kind, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s (%s): %s", e.Kind, e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

func New(kind ErrKind, code, msg string) *Error {
	return &Error{Kind: kind, Code: code, Message: msg}
}

func Wrap(kind ErrKind, code, msg string, cause error) *Error {
	return &Error{Kind: kind, Code: code, Message: msg, Cause: cause}
}

func WithMeta(err *Error, meta map[string]string) *Error {
	err.Meta = meta
	return err
}

// Is reports whether err (or anything it wraps) is a domain error with the given code.
func Is(err error, code string) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf returns the domain code of err, or "" for non-domain errors.
func CodeOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// ----------------------
// Validation errors (400)
// ----------------------

func ErrInvalidJSON(cause error) *Error {
	return Wrap(KindValidation, CodeInvalidJSON, "invalid JSON body", cause)
}

func ErrMissingField(field string) *Error {
	return WithMeta(New(KindValidation, CodeMissingField, "missing required field"), map[string]string{
		"field": field,
	})
}

func ErrInvalidField(field, reason string) *Error {
	return WithMeta(New(KindValidation, CodeInvalidField, "invalid field"), map[string]string{
		"field":  field,
		"reason": reason,
	})
}

// ErrValidation carries per-field messages produced by request validation.
func ErrValidation(fields map[string]string) *Error {
	return WithMeta(New(KindValidation, CodeValidationFailed, "request validation failed"), fields)
}

func ErrInvalidRole(role string) *Error {
	return WithMeta(
		New(KindValidation, CodeInvalidRole, "invalid role"),
		map[string]string{"role": role},
	)
}

// OTP failures are reported as 400 like the other "bad submission" cases.

func ErrOTPMismatch() *Error {
	return New(KindValidation, CodeOTPMismatch, "invalid verification code")
}

func ErrOTPExpired() *Error {
	return New(KindValidation, CodeOTPExpired, "verification code has expired")
}

// ----------------------
// Auth errors (401)
// ----------------------

func ErrInvalidCredentials() *Error {
	return New(KindAuth, CodeInvalidCredentials, "invalid email or password")
}

func ErrTokenMissing() *Error {
	return New(KindAuth, CodeTokenMissing, "no token provided")
}

func ErrTokenInvalid() *Error {
	return New(KindAuth, CodeTokenInvalid, "invalid token")
}

func ErrTokenExpired() *Error {
	return New(KindAuth, CodeTokenExpired, "token is expired")
}

// ----------------------
// Forbidden (403)
// ----------------------

func ErrForbidden() *Error {
	return New(KindForbidden, CodeForbidden, "forbidden")
}

func ErrEmailNotVerified() *Error {
	return New(KindForbidden, CodeEmailNotVerified, "email not verified, check your inbox for the verification code")
}

func ErrAccountInactive() *Error {
	return New(KindForbidden, CodeAccountInactive, "account is inactive")
}

func ErrAccountUnverified() *Error {
	return New(KindForbidden, CodeAccountUnverified, "account email is not verified")
}

func ErrInsufficientRole(allowed []Role) *Error {
	return WithMeta(New(KindForbidden, CodeInsufficientRole, "insufficient role"), map[string]string{
		"allowed": JoinRoles(allowed),
	})
}

// ----------------------
// Not Found (404)
// ----------------------

func ErrAccountNotFound() *Error {
	return New(KindNotFound, CodeAccountNotFound, "account not found")
}

func ErrQuizNotFound() *Error {
	return New(KindNotFound, CodeQuizNotFound, "quiz not found")
}

// ----------------------
// Conflict (409)
// ----------------------

func ErrAccountExists() *Error {
	return New(KindConflict, CodeAccountExists, "email already registered")
}

func ErrAlreadyVerified() *Error {
	return New(KindConflict, CodeAlreadyVerified, "email already verified")
}

// ErrPreconditionFailed is returned by stores when a conditional update lost a race.
func ErrPreconditionFailed() *Error {
	return New(KindConflict, CodePreconditionFailed, "record changed concurrently")
}

// ----------------------
// Rate limit (429)
// ----------------------

func ErrRateLimited(scope string) *Error {
	return WithMeta(New(KindRateLimited, CodeRateLimited, "too many requests"), map[string]string{
		"scope": scope,
	})
}

// ----------------------
// Degraded (state persisted, side effect failed)
// ----------------------

func ErrDispatchFailed(cause error) *Error {
	return Wrap(KindDegraded, CodeDispatchFailed, "verification email could not be sent, request a new code", cause)
}

// ----------------------
// Infrastructure / internal (5xx)
// ----------------------

func ErrDBUnavailable(cause error) *Error {
	return Wrap(KindInfrastructure, "db_unavailable", "database unavailable", cause)
}

func ErrRedisUnavailable(cause error) *Error {
	return Wrap(KindInfrastructure, "redis_unavailable", "cache unavailable", cause)
}

func ErrHashFailed(cause error) *Error {
	return Wrap(KindInternal, "hash_failed", "password hashing failed", cause)
}

func ErrTokenSignFailed(cause error) *Error {
	return Wrap(KindInternal, "token_sign_failed", "token signing failed", cause)
}

func ErrRandomFailed(cause error) *Error {
	return Wrap(KindInternal, "random_failed", "random generation failed", cause)
}

func ErrInternal(cause error) *Error {
	return Wrap(KindInternal, "internal_error", "internal error", cause)
}
