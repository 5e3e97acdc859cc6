package postgres

import (
	"context"
	"errors"
	"fmt"

	"codeduel/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

const questionColumns = `id, company, question, link, level, solved_by_aditya, solved_by_ananya, winner`

// scanner is satisfied by both pgx.Row and pgx.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

// QuestionStore persists the question pool in the questions table.
type QuestionStore struct {
	pool *pgxpool.Pool
}

func NewQuestionStore(pool *pgxpool.Pool) *QuestionStore {
	return &QuestionStore{pool: pool}
}

func (s *QuestionStore) List(ctx context.Context) ([]domain.Question, error) {
	return s.query(ctx, `SELECT `+questionColumns+` FROM questions ORDER BY seq`)
}

func (s *QuestionStore) ListUnsolved(ctx context.Context) ([]domain.Question, error) {
	return s.query(ctx, `SELECT `+questionColumns+` FROM questions
		WHERE NOT solved_by_aditya AND NOT solved_by_ananya ORDER BY seq`)
}

func (s *QuestionStore) GetMany(ctx context.Context, ids []string) ([]domain.Question, error) {
	if len(ids) == 0 {
		return []domain.Question{}, nil
	}
	found, err := s.query(ctx, `SELECT `+questionColumns+` FROM questions WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]domain.Question, len(found))
	for _, q := range found {
		byID[q.ID] = q
	}
	out := make([]domain.Question, 0, len(ids))
	for _, id := range ids {
		if q, ok := byID[id]; ok {
			out = append(out, q)
		}
	}
	return out, nil
}

func (s *QuestionStore) Create(ctx context.Context, q domain.Question) error {
	_, err := s.pool.Exec(ctx, `INSERT INTO questions (`+questionColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		q.ID, q.Company, q.Question, q.Link, q.Level, q.SolvedBy[domain.UserA], q.SolvedBy[domain.UserB], winnerColumn(q.Winner))
	if err != nil {
		return fmt.Errorf("insert question: %w", err)
	}
	return nil
}

func (s *QuestionStore) Update(ctx context.Context, id string, fn func(*domain.Question) error) (domain.Question, error) {
	var updated domain.Question
	err := s.pool.BeginFunc(ctx, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `SELECT `+questionColumns+` FROM questions WHERE id = $1 FOR UPDATE`, id)
		q, err := scanQuestion(row)
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrQuestionNotFound
		}
		if err != nil {
			return fmt.Errorf("select question: %w", err)
		}
		if err := fn(&q); err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `UPDATE questions SET company = $2, question = $3, link = $4, level = $5,
			solved_by_aditya = $6, solved_by_ananya = $7, winner = $8 WHERE id = $1`,
			q.ID, q.Company, q.Question, q.Link, q.Level, q.SolvedBy[domain.UserA], q.SolvedBy[domain.UserB], winnerColumn(q.Winner))
		if err != nil {
			return fmt.Errorf("update question: %w", err)
		}
		updated = q
		return nil
	})
	if err != nil {
		return domain.Question{}, err
	}
	return updated, nil
}

func (s *QuestionStore) query(ctx context.Context, sql string, args ...interface{}) ([]domain.Question, error) {
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query questions: %w", err)
	}
	defer rows.Close()

	out := []domain.Question{}
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func scanQuestion(row scanner) (domain.Question, error) {
	var (
		q      domain.Question
		winner *string
	)
	if err := row.Scan(&q.ID, &q.Company, &q.Question, &q.Link, &q.Level,
		&q.SolvedBy[domain.UserA], &q.SolvedBy[domain.UserB], &winner); err != nil {
		return domain.Question{}, err
	}
	w, err := parseWinner(winner)
	if err != nil {
		return domain.Question{}, err
	}
	q.Winner = w
	return q, nil
}

func winnerColumn(w *domain.User) *string {
	if w == nil {
		return nil
	}
	name := w.String()
	return &name
}

func parseWinner(raw *string) (*domain.User, error) {
	if raw == nil {
		return nil, nil
	}
	u, err := domain.ParseUser(*raw)
	if err != nil {
		return nil, err
	}
	return &u, nil
}
