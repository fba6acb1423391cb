package http_handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/baechuer/edu-quiz/services/identity-service/internal/application/quiz"
	"github.com/baechuer/edu-quiz/services/identity-service/internal/domain"
	"github.com/baechuer/edu-quiz/services/identity-service/internal/logger"
	appCtx "github.com/baechuer/edu-quiz/services/identity-service/internal/pkg/context"
	"github.com/baechuer/edu-quiz/services/identity-service/internal/transport/http/dto"
	"github.com/baechuer/edu-quiz/services/identity-service/internal/transport/http/response"
)

type QuizHandler struct {
	svc *quiz.Service
}

func NewQuizHandler(svc *quiz.Service) *QuizHandler {
	return &QuizHandler{svc: svc}
}

// Create is mounted behind Authorize(teacher); the author is the allowed account.
func (h *QuizHandler) Create(w http.ResponseWriter, r *http.Request) {
	author, ok := appCtx.GetAccount(r.Context())
	if !ok {
		response.WriteError(w, r, domain.ErrTokenMissing())
		return
	}

	var req dto.CreateQuizRequest
	if !decode(w, r, &req) {
		return
	}

	q, err := h.svc.Create(r.Context(), author, req.ToInput())
	if err != nil {
		response.WriteError(w, r, err)
		return
	}

	logger.WithCtx(r.Context()).Info().
		Str("quiz_id", q.ID).
		Str("teacher_id", author.ID).
		Int("questions", len(q.Questions)).
		Msg("quiz_created")

	response.Created(w, dto.NewQuizView(q, true))
}

func (h *QuizHandler) Get(w http.ResponseWriter, r *http.Request) {
	q, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.OK(w, dto.NewQuizView(q, false))
}

// List handles GET /quiz/v1/quizzes?teacher_email=&class_level=&limit=
func (h *QuizHandler) List(w http.ResponseWriter, r *http.Request) {
	qv := r.URL.Query()
	f := quiz.ListFilter{
		TeacherEmail: strings.TrimSpace(qv.Get("teacher_email")),
		ClassLevel:   domain.ClassLevel(strings.TrimSpace(qv.Get("class_level"))),
	}
	if raw := strings.TrimSpace(qv.Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			response.WriteError(w, r, domain.ErrInvalidField("limit", "must be a non-negative integer"))
			return
		}
		f.Limit = n
	}

	quizzes, err := h.svc.List(r.Context(), f)
	if err != nil {
		response.WriteError(w, r, err)
		return
	}

	out := make([]dto.QuizView, len(quizzes))
	for i, q := range quizzes {
		out[i] = dto.NewQuizView(q, false)
	}
	response.OK(w, out)
}
