// Package postgres reads scoring data straight from PostgreSQL with pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"quiz-web-service/internal/domain"
)

// AnswerKeyLoader loads the correct option of every question of a quiz.
type AnswerKeyLoader struct {
	pool *pgxpool.Pool
}

func NewAnswerKeyLoader(pool *pgxpool.Pool) *AnswerKeyLoader {
	return &AnswerKeyLoader{pool: pool}
}

func (l *AnswerKeyLoader) LoadAnswerKey(ctx context.Context, quizID int64) (domain.AnswerKey, error) {
	key := domain.AnswerKey{QuizID: quizID}
	err := l.pool.QueryRow(ctx, `SELECT passing_score FROM quizzes WHERE id=$1`, quizID).Scan(&key.PassingScore)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.AnswerKey{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.AnswerKey{}, fmt.Errorf("load quiz: %w", err)
	}

	rows, err := l.pool.Query(ctx, `SELECT id, correct_option_index FROM questions WHERE quiz_id=$1`, quizID)
	if err != nil {
		return domain.AnswerKey{}, fmt.Errorf("load questions: %w", err)
	}
	defer rows.Close()

	key.Correct = make(map[int64]int)
	for rows.Next() {
		var id int64
		var idx int
		if err := rows.Scan(&id, &idx); err != nil {
			return domain.AnswerKey{}, fmt.Errorf("scan question: %w", err)
		}
		key.Correct[id] = idx
	}
	if err := rows.Err(); err != nil {
		return domain.AnswerKey{}, fmt.Errorf("load questions: %w", err)
	}
	return key, nil
}
