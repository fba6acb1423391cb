package dto

import (
	"time"

	"github.com/baechuer/edu-quiz/services/identity-service/internal/application/identity"
	"github.com/baechuer/edu-quiz/services/identity-service/internal/domain"
)

// AccountView is the public projection of an account. Hash and OTP never leave the service.
type AccountView struct {
	ID            string         `json:"id"`
	Email         string         `json:"email"`
	Roles         []string       `json:"roles"`
	IsActive      bool           `json:"is_active"`
	EmailVerified bool           `json:"email_verified"`
	Profile       domain.Profile `json:"profile"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

func NewAccountView(a domain.Account) AccountView {
	return AccountView{
		ID:            a.ID,
		Email:         a.Email,
		Roles:         domain.RoleStrings(a.Roles),
		IsActive:      a.IsActive,
		EmailVerified: a.EmailVerified,
		Profile:       a.Profile,
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
}

type RegisterResponse struct {
	Account         AccountView `json:"account"`
	EmailDispatched bool        `json:"email_dispatched"`
	Message         string      `json:"message"`
}

type SessionResponse struct {
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
	ExpiresIn   int64       `json:"expires_in"`
	Account     AccountView `json:"account"`
}

func NewSessionResponse(a domain.Account, s identity.Session) SessionResponse {
	return SessionResponse{
		AccessToken: s.Token,
		TokenType:   s.TokenType,
		ExpiresIn:   s.ExpiresIn,
		Account:     NewAccountView(a),
	}
}

type MessageResponse struct {
	Message         string `json:"message"`
	EmailDispatched *bool  `json:"email_dispatched,omitempty"`
}

type QuizView struct {
	ID              string      `json:"id"`
	TeacherEmail    string      `json:"teacher_email"`
	Title           string      `json:"title"`
	Description     string      `json:"description"`
	ClassLevel      string      `json:"class_level"`
	StartTime       time.Time   `json:"start_time"`
	DurationMinutes int         `json:"duration_minutes"`
	Questions       []QuestionV `json:"questions"`
	CreatedAt       time.Time   `json:"created_at"`
}

// QuestionV hides the answer key on public reads.
type QuestionV struct {
	Text          string   `json:"text"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer,omitempty"`
}

func NewQuizView(q domain.Quiz, withAnswers bool) QuizView {
	qs := make([]QuestionV, len(q.Questions))
	for i, x := range q.Questions {
		qs[i] = QuestionV{Text: x.Text, Options: x.Options}
		if withAnswers {
			qs[i].CorrectAnswer = x.CorrectAnswer
		}
	}
	return QuizView{
		ID:              q.ID,
		TeacherEmail:    q.TeacherEmail,
		Title:           q.Title,
		Description:     q.Description,
		ClassLevel:      string(q.ClassLevel),
		StartTime:       q.StartTime,
		DurationMinutes: q.DurationMinutes,
		Questions:       qs,
		CreatedAt:       q.CreatedAt,
	}
}
