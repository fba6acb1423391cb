package http_handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/baechuer/edu-quiz/services/identity-service/internal/application/identity"
	"github.com/baechuer/edu-quiz/services/identity-service/internal/audit"
	"github.com/baechuer/edu-quiz/services/identity-service/internal/domain"
	"github.com/baechuer/edu-quiz/services/identity-service/internal/logger"
	appCtx "github.com/baechuer/edu-quiz/services/identity-service/internal/pkg/context"
	"github.com/baechuer/edu-quiz/services/identity-service/internal/transport/http/dto"
	"github.com/baechuer/edu-quiz/services/identity-service/internal/transport/http/middleware"
	"github.com/baechuer/edu-quiz/services/identity-service/internal/transport/http/response"
)

type AuthHandler struct {
	svc   *identity.Service
	authn *identity.Authenticator
	audit *audit.Logger
}

func NewAuthHandler(svc *identity.Service, authn *identity.Authenticator, auditLog *audit.Logger) *AuthHandler {
	return &AuthHandler{svc: svc, authn: authn, audit: auditLog}
}

// decode reads and validates a request body; it writes the error itself.
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := response.DecodeJSON(w, r, dst); err != nil {
		response.WriteError(w, r, err)
		return false
	}
	if err := dto.Validate(dst); err != nil {
		response.WriteError(w, r, err)
		return false
	}
	return true
}

func (h *AuthHandler) RegisterStudent(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterStudentRequest
	if !decode(w, r, &req) {
		return
	}
	h.register(w, r, req.ToInput())
}

func (h *AuthHandler) RegisterTeacher(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterTeacherRequest
	if !decode(w, r, &req) {
		return
	}
	h.register(w, r, req.ToInput())
}

func (h *AuthHandler) register(w http.ResponseWriter, r *http.Request, in identity.RegisterInput) {
	res, err := h.svc.Register(r.Context(), in)
	if err != nil && !domain.Is(err, domain.CodeDispatchFailed) {
		response.WriteError(w, r, err)
		return
	}

	logger.WithCtx(r.Context()).Info().
		Str("account_id", res.Account.ID).
		Str("roles", domain.JoinRoles(res.Account.Roles)).
		Bool("email_dispatched", res.EmailDispatched).
		Msg("account_registered")

	body := dto.RegisterResponse{
		Account:         dto.NewAccountView(res.Account),
		EmailDispatched: res.EmailDispatched,
		Message:         "account created, check your email for the verification code",
	}
	if err != nil {
		// account persisted; the client should ask for a new code
		body.Message = "account created but the verification email could not be sent, request a new code"
		response.Accepted(w, body)
		return
	}
	response.Created(w, body)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if !decode(w, r, &req) {
		return
	}

	res, err := h.authn.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if h.audit != nil {
			h.audit.LoginFailed(r.Context(), req.Email, middleware.ClientIP(r), domain.CodeOf(err))
		}
		response.WriteError(w, r, err)
		return
	}
	if h.audit != nil {
		h.audit.LoginSuccess(r.Context(), res.Account.ID, res.Account.Email, middleware.ClientIP(r))
	}

	response.OK(w, dto.NewSessionResponse(res.Account, res.Session))
}

// VerifyEmail consumes the code and signs the caller in.
func (h *AuthHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req dto.VerifyEmailRequest
	if !decode(w, r, &req) {
		return
	}

	acc, err := h.svc.VerifyEmail(r.Context(), req.Email, req.OTP)
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	sess, err := h.authn.IssueSession(acc)
	if err != nil {
		response.WriteError(w, r, err)
		return
	}

	logger.WithCtx(r.Context()).Info().Str("account_id", acc.ID).Msg("email_verified")
	response.OK(w, dto.NewSessionResponse(acc, sess))
}

func (h *AuthHandler) ResendOTP(w http.ResponseWriter, r *http.Request) {
	var req dto.EmailRequest
	if !decode(w, r, &req) {
		return
	}

	_, err := h.svc.ResendOTP(r.Context(), req.Email)
	writeDispatch(w, r, err, "a new verification code has been sent")
}

func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req dto.EmailRequest
	if !decode(w, r, &req) {
		return
	}

	err := h.svc.ForgotPassword(r.Context(), req.Email)
	writeDispatch(w, r, err, "a password reset code has been sent")
}

func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req dto.ResetPasswordRequest
	if !decode(w, r, &req) {
		return
	}

	if err := h.svc.ResetPassword(r.Context(), req.Email, req.OTP, req.NewPassword); err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.OK(w, dto.MessageResponse{Message: "password has been reset"})
}

// writeDispatch answers an operation whose only side effect after persisting is an email.
func writeDispatch(w http.ResponseWriter, r *http.Request, err error, okMsg string) {
	switch {
	case err == nil:
		sent := true
		response.OK(w, dto.MessageResponse{Message: okMsg, EmailDispatched: &sent})
	case domain.Is(err, domain.CodeDispatchFailed):
		sent := false
		response.Accepted(w, dto.MessageResponse{
			Message:         "code issued but the email could not be sent, try again",
			EmailDispatched: &sent,
		})
	default:
		response.WriteError(w, r, err)
	}
}

// ---- guarded routes (Authorize has put the account in context) ----

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	acc, ok := appCtx.GetAccount(r.Context())
	if !ok {
		response.WriteError(w, r, domain.ErrTokenMissing())
		return
	}
	response.OK(w, dto.NewAccountView(acc))
}

func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	acc, ok := appCtx.GetAccount(r.Context())
	if !ok {
		response.WriteError(w, r, domain.ErrTokenMissing())
		return
	}
	var req dto.UpdateProfileRequest
	if !decode(w, r, &req) {
		return
	}

	updated, err := h.svc.UpdateProfile(r.Context(), acc.Email, req.ToProfile())
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.OK(w, dto.NewAccountView(updated))
}

func (h *AuthHandler) AdminSetStatus(w http.ResponseWriter, r *http.Request) {
	actor, _ := appCtx.GetAccount(r.Context())
	targetID := chi.URLParam(r, "id")

	var req dto.SetStatusRequest
	if !decode(w, r, &req) {
		return
	}

	updated, err := h.svc.SetActive(r.Context(), actor.ID, targetID, *req.IsActive)
	if err != nil {
		response.WriteError(w, r, err)
		return
	}

	logger.WithCtx(r.Context()).Info().
		Str("actor_id", actor.ID).
		Str("target_id", updated.ID).
		Bool("is_active", updated.IsActive).
		Msg("account_status_changed")

	response.OK(w, dto.NewAccountView(updated))
}

func (h *AuthHandler) AdminSetRoles(w http.ResponseWriter, r *http.Request) {
	actor, _ := appCtx.GetAccount(r.Context())
	targetID := chi.URLParam(r, "id")

	var req dto.SetRolesRequest
	if !decode(w, r, &req) {
		return
	}

	updated, err := h.svc.SetRoles(r.Context(), actor.ID, targetID, req.Roles)
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.OK(w, dto.NewAccountView(updated))
}
