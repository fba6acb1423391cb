package router

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
)

type HealthHandler interface {
	Healthz(w http.ResponseWriter, r *http.Request)
	Readyz(w http.ResponseWriter, r *http.Request)
}

type AuthHandler interface {
	// Registration and login
	RegisterStudent(w http.ResponseWriter, r *http.Request)
	RegisterTeacher(w http.ResponseWriter, r *http.Request)
	Login(w http.ResponseWriter, r *http.Request)

	// OTP flows
	VerifyEmail(w http.ResponseWriter, r *http.Request)
	ResendOTP(w http.ResponseWriter, r *http.Request)
	ForgotPassword(w http.ResponseWriter, r *http.Request)
	ResetPassword(w http.ResponseWriter, r *http.Request)

	// Guarded
	Me(w http.ResponseWriter, r *http.Request)
	UpdateProfile(w http.ResponseWriter, r *http.Request)
	AdminSetStatus(w http.ResponseWriter, r *http.Request)
	AdminSetRoles(w http.ResponseWriter, r *http.Request)
}

type QuizHandler interface {
	Create(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
}

type Deps struct {
	Health  HealthHandler
	Auth    AuthHandler
	Quiz    QuizHandler
	Metrics http.Handler

	// Global chain, outermost first (request id, access log, metrics).
	Global []func(http.Handler) http.Handler

	// AuthMW verifies the bearer token. The role middlewares run the Guard
	// and must come after it.
	AuthMW    func(http.Handler) http.Handler
	AnyRoleMW func(http.Handler) http.Handler
	AdminMW   func(http.Handler) http.Handler
	TeacherMW func(http.Handler) http.Handler

	// Rate limits; nil means unlimited.
	AuthRateMW func(http.Handler) http.Handler
	OTPRateMW  func(http.Handler) http.Handler
}

func passthrough(next http.Handler) http.Handler { return next }

func New(deps Deps) (http.Handler, error) {
	if deps.Health == nil {
		return nil, fmt.Errorf("nil Health handler")
	}
	if deps.Auth == nil {
		return nil, fmt.Errorf("nil Auth handler")
	}
	if deps.Quiz == nil {
		return nil, fmt.Errorf("nil Quiz handler")
	}
	if deps.AuthMW == nil {
		return nil, fmt.Errorf("nil Auth middleware")
	}
	if deps.AnyRoleMW == nil {
		return nil, fmt.Errorf("nil AnyRole middleware")
	}
	if deps.AdminMW == nil {
		return nil, fmt.Errorf("nil Admin middleware")
	}
	if deps.TeacherMW == nil {
		return nil, fmt.Errorf("nil Teacher middleware")
	}
	if deps.AuthRateMW == nil {
		deps.AuthRateMW = passthrough
	}
	if deps.OTPRateMW == nil {
		deps.OTPRateMW = passthrough
	}

	r := chi.NewRouter()
	for _, mw := range deps.Global {
		if mw != nil {
			r.Use(mw)
		}
	}

	r.Get("/healthz", deps.Health.Healthz)
	r.Get("/readyz", deps.Health.Readyz)
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics)
	}

	r.Route("/auth/v1", func(r chi.Router) {
		// --- Public, rate limited ---
		r.Group(func(r chi.Router) {
			r.Use(deps.AuthRateMW)
			r.Post("/register/student", deps.Auth.RegisterStudent)
			r.Post("/register/teacher", deps.Auth.RegisterTeacher)
			r.Post("/login", deps.Auth.Login)
			r.Post("/verify-email", deps.Auth.VerifyEmail)
			r.Post("/reset-password", deps.Auth.ResetPassword)
		})
		// these send email
		r.Group(func(r chi.Router) {
			r.Use(deps.OTPRateMW)
			r.Post("/resend-otp", deps.Auth.ResendOTP)
			r.Post("/forgot-password", deps.Auth.ForgotPassword)
		})

		// --- Any verified, active account ---
		r.Group(func(r chi.Router) {
			r.Use(deps.AuthMW, deps.AnyRoleMW)
			r.Get("/me", deps.Auth.Me)
			r.Patch("/me/profile", deps.Auth.UpdateProfile)
		})

		// --- Admin ---
		r.Route("/admin", func(r chi.Router) {
			r.Use(deps.AuthMW, deps.AdminMW)
			r.Post("/accounts/{id}/status", deps.Auth.AdminSetStatus)
			r.Post("/accounts/{id}/roles", deps.Auth.AdminSetRoles)
		})
	})

	r.Route("/quiz/v1", func(r chi.Router) {
		r.Get("/quizzes", deps.Quiz.List)
		r.Get("/quizzes/{id}", deps.Quiz.Get)
		r.With(deps.AuthMW, deps.TeacherMW).Post("/quizzes", deps.Quiz.Create)
	})

	return r, nil
}
