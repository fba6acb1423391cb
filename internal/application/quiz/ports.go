package quiz

import (
	"context"

	"github.com/baechuer/edu-quiz/services/identity-service/internal/domain"
)

// Store persists quizzes. Get returns domain.ErrQuizNotFound for unknown ids.
type Store interface {
	Create(ctx context.Context, q domain.Quiz) (domain.Quiz, error)
	Get(ctx context.Context, id string) (domain.Quiz, error)
	List(ctx context.Context, f ListFilter) ([]domain.Quiz, error)
}

// ListFilter narrows List. Zero fields match everything. Results are newest first.
type ListFilter struct {
	TeacherEmail string
	ClassLevel   domain.ClassLevel
	Limit        int
}
