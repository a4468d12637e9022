// Package sqlite serves question content from an embedded SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite" // driver: sqlite

	"quiz-option-service/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS questions (
	id           TEXT PRIMARY KEY,
	options_html TEXT NOT NULL,
	answer_html  TEXT NOT NULL,
	created_at   TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);`

// QuestionLoader loads questions from a SQLite database.
type QuestionLoader struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and ensures the schema exists.
func Open(ctx context.Context, path string) (*QuestionLoader, error) {
	if path == "" {
		path = "questions.db"
	}
	dsn := "file:" + path + "?cache=shared&mode=rwc&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return &QuestionLoader{db: db}, nil
}

func (l *QuestionLoader) Close() error {
	return l.db.Close()
}

func (l *QuestionLoader) LoadQuestion(ctx context.Context, questionID string) (domain.Question, error) {
	q := domain.Question{ID: questionID}
	err := l.db.QueryRowContext(ctx, `SELECT options_html, answer_html FROM questions WHERE id = ?`, questionID).
		Scan(&q.OptionsHTML, &q.AnswerHTML)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	if err != nil {
		return domain.Question{}, fmt.Errorf("load question: %w", err)
	}
	return q, nil
}

// SaveQuestion inserts or replaces a question.
func (l *QuestionLoader) SaveQuestion(ctx context.Context, q domain.Question) error {
	_, err := l.db.ExecContext(ctx, `INSERT INTO questions (id, options_html, answer_html) VALUES (?, ?, ?)
ON CONFLICT(id) DO UPDATE SET options_html = excluded.options_html, answer_html = excluded.answer_html`,
		q.ID, q.OptionsHTML, q.AnswerHTML)
	if err != nil {
		return fmt.Errorf("save question: %w", err)
	}
	return nil
}
