package http_handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baechuer/edu-quiz/services/identity-service/internal/domain"
	"github.com/baechuer/edu-quiz/services/identity-service/internal/transport/http/dto"
)

func sampleQuiz() map[string]any {
	return map[string]any{
		"title":            "Kinematics",
		"class_level":      "A-level",
		"start_time":       "2026-11-01T09:00:00Z",
		"duration_minutes": 45,
		"questions": []map[string]any{
			{"text": "Unit of acceleration?", "options": []string{"m/s", "m/s^2"}, "correct_answer": "m/s^2"},
		},
	}
}

func createQuiz(t *testing.T, env *testEnv, author domain.Account, body any) *httptest.ResponseRecorder {
	t.Helper()
	req := withAccount(httptest.NewRequest(http.MethodPost, "/quiz/v1/quizzes", mustJSONBody(t, body)), author)
	rr := httptest.NewRecorder()
	env.quiz.Create(rr, req)
	return rr
}

func TestQuizCreate_AuthorFromContext(t *testing.T) {
	env := newTestEnv(t)
	teacher := env.seedAccount(t, "teach@example.com", true, domain.RoleTeacher)

	rr := createQuiz(t, env, teacher, sampleQuiz())
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var got dto.QuizView
	mustReadData(t, rr.Body, &got)
	assert.NotEmpty(t, got.ID)
	assert.Equal(t, "teach@example.com", got.TeacherEmail)
	require.Len(t, got.Questions, 1)
	assert.Equal(t, "m/s^2", got.Questions[0].CorrectAnswer)
}

func TestQuizCreate_Rejects(t *testing.T) {
	env := newTestEnv(t)
	teacher := env.seedAccount(t, "teach@example.com", true, domain.RoleTeacher)

	bad := sampleQuiz()
	bad["class_level"] = "GCSE"
	rr := createQuiz(t, env, teacher, bad)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	bad = sampleQuiz()
	bad["questions"] = []map[string]any{
		{"text": "q", "options": []string{"a", "b"}, "correct_answer": "c"},
	}
	rr = createQuiz(t, env, teacher, bad)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = httptest.NewRecorder()
	env.quiz.Create(rr, httptest.NewRequest(http.MethodPost, "/quiz/v1/quizzes", mustJSONBody(t, sampleQuiz())))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestQuizGetAndList_HideAnswers(t *testing.T) {
	env := newTestEnv(t)
	teacher := env.seedAccount(t, "teach@example.com", true, domain.RoleTeacher)

	rr := createQuiz(t, env, teacher, sampleQuiz())
	require.Equal(t, http.StatusCreated, rr.Code)
	var created dto.QuizView
	mustReadData(t, rr.Body, &created)

	req := withURLParam(httptest.NewRequest(http.MethodGet, "/quiz/v1/quizzes/"+created.ID, nil), "id", created.ID)
	rr = httptest.NewRecorder()
	env.quiz.Get(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	var got dto.QuizView
	mustReadData(t, rr.Body, &got)
	assert.Empty(t, got.Questions[0].CorrectAnswer)

	req = withURLParam(httptest.NewRequest(http.MethodGet, "/quiz/v1/quizzes/nope", nil), "id", "nope")
	rr = httptest.NewRecorder()
	env.quiz.Get(rr, req)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, domain.CodeQuizNotFound, errorCode(t, rr.Body))

	rr = httptest.NewRecorder()
	env.quiz.List(rr, httptest.NewRequest(http.MethodGet, "/quiz/v1/quizzes?teacher_email=TEACH@example.com&class_level=A-level", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var list []dto.QuizView
	mustReadData(t, rr.Body, &list)
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)

	rr = httptest.NewRecorder()
	env.quiz.List(rr, httptest.NewRequest(http.MethodGet, "/quiz/v1/quizzes?limit=abc", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = httptest.NewRecorder()
	env.quiz.List(rr, httptest.NewRequest(http.MethodGet, "/quiz/v1/quizzes?class_level=GCSE", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
