package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/baechuer/edu-quiz/services/identity-service/internal/application/quiz"
	"github.com/baechuer/edu-quiz/services/identity-service/internal/domain"
)

type QuizRepo struct {
	mu   sync.RWMutex
	byID map[string]domain.Quiz
}

func NewQuizRepo() *QuizRepo {
	return &QuizRepo{byID: make(map[string]domain.Quiz)}
}

func (r *QuizRepo) Create(ctx context.Context, q domain.Quiz) (domain.Quiz, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if q.ID == "" {
		return domain.Quiz{}, domain.ErrInternal(nil)
	}
	r.byID[q.ID] = cloneQuiz(q)
	return cloneQuiz(q), nil
}

func (r *QuizRepo) Get(ctx context.Context, id string) (domain.Quiz, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	q, ok := r.byID[id]
	if !ok {
		return domain.Quiz{}, domain.ErrQuizNotFound()
	}
	return cloneQuiz(q), nil
}

func (r *QuizRepo) List(ctx context.Context, f quiz.ListFilter) ([]domain.Quiz, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Quiz, 0, len(r.byID))
	for _, q := range r.byID {
		if f.TeacherEmail != "" && q.TeacherEmail != f.TeacherEmail {
			continue
		}
		if f.ClassLevel != "" && q.ClassLevel != f.ClassLevel {
			continue
		}
		out = append(out, cloneQuiz(q))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func cloneQuiz(q domain.Quiz) domain.Quiz {
	qs := make([]domain.Question, len(q.Questions))
	for i, x := range q.Questions {
		x.Options = append([]string(nil), x.Options...)
		qs[i] = x
	}
	q.Questions = qs
	return q
}
