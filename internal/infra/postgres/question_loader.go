package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"quiz-option-service/internal/domain"
)

// QuestionLoader loads question content from Postgres.
type QuestionLoader struct {
	pool *pgxpool.Pool
}

func NewQuestionLoader(pool *pgxpool.Pool) *QuestionLoader {
	return &QuestionLoader{pool: pool}
}

func (l *QuestionLoader) LoadQuestion(ctx context.Context, questionID string) (domain.Question, error) {
	q := domain.Question{ID: questionID}
	err := l.pool.QueryRow(ctx, `SELECT options_html, answer_html FROM questions WHERE id=$1`, questionID).
		Scan(&q.OptionsHTML, &q.AnswerHTML)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	if err != nil {
		return domain.Question{}, fmt.Errorf("load question: %w", err)
	}
	return q, nil
}

// SaveQuestion inserts or replaces a question.
func (l *QuestionLoader) SaveQuestion(ctx context.Context, q domain.Question) error {
	_, err := l.pool.Exec(ctx, `INSERT INTO questions (id, options_html, answer_html) VALUES ($1, $2, $3)
ON CONFLICT (id) DO UPDATE SET options_html=EXCLUDED.options_html, answer_html=EXCLUDED.answer_html`,
		q.ID, q.OptionsHTML, q.AnswerHTML)
	if err != nil {
		return fmt.Errorf("save question: %w", err)
	}
	return nil
}
