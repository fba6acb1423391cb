// Package quiz handles quiz authoring. Callers authorize the author before
// calling Create; the service only checks the quiz itself.
package quiz

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/baechuer/edu-quiz/services/identity-service/internal/domain"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
	minOptions       = 2
)

type CreateInput struct {
	Title           string
	Description     string
	ClassLevel      string
	StartTime       time.Time
	DurationMinutes int
	Questions       []domain.Question
}

type Service struct {
	store Store
	now   func() time.Time
	audit func(action string, fields map[string]string)
}

func NewService(store Store) *Service {
	return &Service{
		store: store,
		now:   time.Now,
		audit: func(string, map[string]string) {},
	}
}

func (s *Service) WithAudit(fn func(action string, fields map[string]string)) *Service {
	if fn != nil {
		s.audit = fn
	}
	return s
}

func (s *Service) WithClock(now func() time.Time) *Service {
	if now != nil {
		s.now = now
	}
	return s
}

// Create stores a quiz owned by author.
func (s *Service) Create(ctx context.Context, author domain.Account, in CreateInput) (domain.Quiz, error) {
	if author.Email == "" {
		return domain.Quiz{}, domain.ErrForbidden()
	}
	questions, err := validate(in)
	if err != nil {
		return domain.Quiz{}, err
	}

	q := domain.Quiz{
		ID:              uuid.NewString(),
		TeacherEmail:    author.Email,
		Title:           strings.TrimSpace(in.Title),
		Description:     strings.TrimSpace(in.Description),
		ClassLevel:      domain.ClassLevel(in.ClassLevel),
		StartTime:       in.StartTime.UTC(),
		DurationMinutes: in.DurationMinutes,
		Questions:       questions,
		CreatedAt:       s.now().UTC(),
	}
	created, err := s.store.Create(ctx, q)
	if err != nil {
		return domain.Quiz{}, err
	}

	s.audit("quiz.created", map[string]string{
		"quiz_id":   created.ID,
		"teacher":   created.TeacherEmail,
		"questions": strconv.Itoa(len(created.Questions)),
	})
	return created, nil
}

func (s *Service) Get(ctx context.Context, id string) (domain.Quiz, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Quiz{}, domain.ErrMissingField("id")
	}
	return s.store.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, f ListFilter) ([]domain.Quiz, error) {
	if f.ClassLevel != "" && !domain.IsValidClassLevel(string(f.ClassLevel)) {
		return nil, domain.ErrInvalidField("class_level", "unknown class level")
	}
	switch {
	case f.Limit <= 0:
		f.Limit = defaultListLimit
	case f.Limit > maxListLimit:
		f.Limit = maxListLimit
	}
	f.TeacherEmail = domain.NormalizeEmail(f.TeacherEmail)
	return s.store.List(ctx, f)
}

func validate(in CreateInput) ([]domain.Question, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, domain.ErrMissingField("title")
	}
	if !domain.IsValidClassLevel(in.ClassLevel) {
		return nil, domain.ErrInvalidField("class_level", "must be one of O-level, A-level, SAT, IB")
	}
	if in.StartTime.IsZero() {
		return nil, domain.ErrMissingField("start_time")
	}
	if in.DurationMinutes <= 0 {
		return nil, domain.ErrInvalidField("duration_minutes", "must be positive")
	}
	if len(in.Questions) == 0 {
		return nil, domain.ErrMissingField("questions")
	}

	out := make([]domain.Question, 0, len(in.Questions))
	for i, q := range in.Questions {
		field := "questions[" + strconv.Itoa(i) + "]"
		text := strings.TrimSpace(q.Text)
		if text == "" {
			return nil, domain.ErrMissingField(field + ".text")
		}
		if len(q.Options) < minOptions {
			return nil, domain.ErrInvalidField(field+".options", "at least two options required")
		}
		found := false
		for _, o := range q.Options {
			if o == q.CorrectAnswer {
				found = true
				break
			}
		}
		if !found {
			return nil, domain.ErrInvalidField(field+".correct_answer", "must be one of the options")
		}
		out = append(out, domain.Question{
			Text:          text,
			Options:       append([]string(nil), q.Options...),
			CorrectAnswer: q.CorrectAnswer,
		})
	}
	return out, nil
}
