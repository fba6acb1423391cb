package audit

import (
	"context"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	reqctx "github.com/baechuer/edu-quiz/services/identity-service/internal/pkg/context"
)

// Logger provides structured audit logging for identity business events.
type Logger struct {
	log zerolog.Logger
}

// New creates a new audit logger
func New(log zerolog.Logger) *Logger {
	return &Logger{
		log: log.With().Bool("audit", true).Logger(),
	}
}

// Record writes one audit event. Email fields are masked; failure events
// (".dispatch_failed", "deactivated", "denied") are logged at warn.
func (l *Logger) Record(ctx context.Context, action string, fields map[string]string) {
	ev := l.log.Info()
	if isWarning(action) {
		ev = l.log.Warn()
	}
	ev = ev.Str("action", action)

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v := fields[k]
		if k == "email" || strings.HasSuffix(k, "_email") {
			v = maskEmail(v)
		}
		ev = ev.Str(k, v)
	}
	if id := reqctx.GetRequestID(ctx); id != "" {
		ev = ev.Str("request_id", id)
	}
	ev.Msg("audit")
}

// Func adapts Record to the hook signature taken by the application services.
func (l *Logger) Func() func(action string, fields map[string]string) {
	return func(action string, fields map[string]string) {
		l.Record(context.Background(), action, fields)
	}
}

// AccessDenied logs a Guard denial on a protected route.
func (l *Logger) AccessDenied(ctx context.Context, email, route, reason string) {
	l.log.Warn().
		Str("action", "access_denied").
		Str("email", maskEmail(email)).
		Str("route", route).
		Str("reason", reason).
		Str("request_id", reqctx.GetRequestID(ctx)).
		Msg("Access denied")
}

// LoginFailed logs a failed login attempt
func (l *Logger) LoginFailed(ctx context.Context, email, ip, reason string) {
	l.log.Warn().
		Str("action", "login_failed").
		Str("email", maskEmail(email)).
		Str("ip", ip).
		Str("reason", reason).
		Str("request_id", reqctx.GetRequestID(ctx)).
		Msg("Login attempt failed")
}

// LoginSuccess logs a successful login
func (l *Logger) LoginSuccess(ctx context.Context, accountID, email, ip string) {
	l.log.Info().
		Str("action", "login_success").
		Str("account_id", accountID).
		Str("email", maskEmail(email)).
		Str("ip", ip).
		Str("request_id", reqctx.GetRequestID(ctx)).
		Msg("Account logged in")
}

func isWarning(action string) bool {
	return strings.HasSuffix(action, ".dispatch_failed") ||
		strings.HasSuffix(action, "deactivated") ||
		strings.Contains(action, "denied")
}

// maskEmail partially masks email for privacy in logs
func maskEmail(email string) string {
	at := strings.IndexByte(email, '@')
	if len(email) < 5 || at < 0 {
		return "***"
	}
	if at < 2 {
		return email[:1] + "***" + email[at:]
	}
	return email[:2] + "***" + email[at:]
}
