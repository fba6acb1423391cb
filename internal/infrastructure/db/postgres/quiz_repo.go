package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/baechuer/edu-quiz/services/identity-service/internal/application/quiz"
	"github.com/baechuer/edu-quiz/services/identity-service/internal/domain"
)

const quizColumns = `id, teacher_email, title, description, class_level, start_time, duration_minutes, questions::text, created_at`

type QuizRepo struct {
	db *sql.DB
}

func NewQuizRepo(db *sql.DB) *QuizRepo {
	return &QuizRepo{db: db}
}

func (r *QuizRepo) Create(ctx context.Context, q domain.Quiz) (domain.Quiz, error) {
	questions, err := json.Marshal(q.Questions)
	if err != nil {
		return domain.Quiz{}, domain.ErrInternal(err)
	}

	const stmt = `
INSERT INTO quizzes (id, teacher_email, title, description, class_level, start_time, duration_minutes, questions, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8::jsonb, $9)
RETURNING ` + quizColumns + `;
`
	out, err := scanQuiz(r.db.QueryRowContext(ctx, stmt,
		q.ID, q.TeacherEmail, q.Title, q.Description, string(q.ClassLevel),
		q.StartTime.UTC(), q.DurationMinutes, string(questions), q.CreatedAt.UTC(),
	))
	if err != nil {
		return domain.Quiz{}, mapWriteErr(err)
	}
	return out, nil
}

func (r *QuizRepo) Get(ctx context.Context, id string) (domain.Quiz, error) {
	const stmt = `SELECT ` + quizColumns + ` FROM quizzes WHERE id = $1 LIMIT 1;`

	q, err := scanQuiz(r.db.QueryRowContext(ctx, stmt, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Quiz{}, domain.ErrQuizNotFound()
		}
		return domain.Quiz{}, domain.ErrDBUnavailable(err)
	}
	return q, nil
}

func (r *QuizRepo) List(ctx context.Context, f quiz.ListFilter) ([]domain.Quiz, error) {
	var (
		conds []string
		args  []any
	)
	if f.TeacherEmail != "" {
		args = append(args, f.TeacherEmail)
		conds = append(conds, fmt.Sprintf("teacher_email = $%d", len(args)))
	}
	if f.ClassLevel != "" {
		args = append(args, string(f.ClassLevel))
		conds = append(conds, fmt.Sprintf("class_level = $%d", len(args)))
	}

	stmt := `SELECT ` + quizColumns + ` FROM quizzes`
	if len(conds) > 0 {
		stmt += ` WHERE ` + strings.Join(conds, " AND ")
	}
	stmt += ` ORDER BY created_at DESC, id DESC`
	if f.Limit > 0 {
		args = append(args, f.Limit)
		stmt += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	stmt += ";"

	rows, err := r.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, domain.ErrDBUnavailable(err)
	}
	defer rows.Close()

	out := []domain.Quiz{}
	for rows.Next() {
		q, err := scanQuiz(rows)
		if err != nil {
			return nil, domain.ErrDBUnavailable(err)
		}
		out = append(out, q)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrDBUnavailable(err)
	}
	return out, nil
}

func scanQuiz(s rowScanner) (domain.Quiz, error) {
	var (
		q          domain.Quiz
		level      string
		questions  string
		start, cre time.Time
	)
	if err := s.Scan(&q.ID, &q.TeacherEmail, &q.Title, &q.Description, &level, &start, &q.DurationMinutes, &questions, &cre); err != nil {
		return domain.Quiz{}, err
	}
	if err := json.Unmarshal([]byte(questions), &q.Questions); err != nil {
		return domain.Quiz{}, fmt.Errorf("decode questions: %w", err)
	}
	q.ClassLevel = domain.ClassLevel(level)
	q.StartTime = start.UTC()
	q.CreatedAt = cre.UTC()
	return q, nil
}
