package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"codeduel/internal/domain"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

const (
	contestColumns = `code, question_ids, start_time, end_time, duration, status, solves, winner`

	uniqueViolation = "23505"
)

// ContestStore persists contests; the solve log is a JSONB array.
type ContestStore struct {
	pool *pgxpool.Pool
}

func NewContestStore(pool *pgxpool.Pool) *ContestStore {
	return &ContestStore{pool: pool}
}

func (s *ContestStore) Insert(ctx context.Context, c domain.Contest) error {
	solves, err := json.Marshal(nonNilSolves(c.Solves))
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `INSERT INTO contests (`+contestColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		c.Code, c.QuestionIDs, c.StartTime, c.EndTime, c.Duration, string(c.Status), solves, winnerColumn(c.Winner))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domain.ErrDuplicateCode
		}
		return fmt.Errorf("insert contest: %w", err)
	}
	return nil
}

func (s *ContestStore) Get(ctx context.Context, code string) (domain.Contest, error) {
	c, err := scanContest(s.pool.QueryRow(ctx, `SELECT `+contestColumns+` FROM contests WHERE code = $1`, code))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Contest{}, domain.ErrContestNotFound
	}
	if err != nil {
		return domain.Contest{}, fmt.Errorf("select contest: %w", err)
	}
	return c, nil
}

func (s *ContestStore) ListByStatus(ctx context.Context, status domain.ContestStatus) ([]domain.Contest, error) {
	return s.query(ctx, `SELECT `+contestColumns+` FROM contests WHERE status = $1 ORDER BY start_time DESC`, string(status))
}

func (s *ContestStore) ListDue(ctx context.Context, now time.Time) ([]domain.Contest, error) {
	return s.query(ctx, `SELECT `+contestColumns+` FROM contests
		WHERE status = $1 AND end_time <= $2 ORDER BY end_time`, string(domain.ContestLive), now)
}

// Update locks the row for the duration of fn, so a concurrent finalizer
// waits and then observes the committed status.
func (s *ContestStore) Update(ctx context.Context, code string, fn func(*domain.Contest) error) (domain.Contest, error) {
	var updated domain.Contest
	err := s.pool.BeginFunc(ctx, func(tx pgx.Tx) error {
		c, err := scanContest(tx.QueryRow(ctx, `SELECT `+contestColumns+` FROM contests WHERE code = $1 FOR UPDATE`, code))
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrContestNotFound
		}
		if err != nil {
			return fmt.Errorf("select contest: %w", err)
		}
		if err := fn(&c); err != nil {
			return err
		}
		solves, err := json.Marshal(nonNilSolves(c.Solves))
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `UPDATE contests SET solves = $2, status = $3, winner = $4 WHERE code = $1`,
			c.Code, solves, string(c.Status), winnerColumn(c.Winner)); err != nil {
			return fmt.Errorf("update contest: %w", err)
		}
		updated = c
		return nil
	})
	if err != nil {
		return domain.Contest{}, err
	}
	return updated, nil
}

func (s *ContestStore) query(ctx context.Context, sql string, args ...interface{}) ([]domain.Contest, error) {
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query contests: %w", err)
	}
	defer rows.Close()

	out := []domain.Contest{}
	for rows.Next() {
		c, err := scanContest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan contest: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func scanContest(row scanner) (domain.Contest, error) {
	var (
		c      domain.Contest
		status string
		solves []byte
		winner *string
	)
	if err := row.Scan(&c.Code, &c.QuestionIDs, &c.StartTime, &c.EndTime, &c.Duration, &status, &solves, &winner); err != nil {
		return domain.Contest{}, err
	}
	c.Status = domain.ContestStatus(status)
	if err := json.Unmarshal(solves, &c.Solves); err != nil {
		return domain.Contest{}, fmt.Errorf("decode solves: %w", err)
	}
	w, err := parseWinner(winner)
	if err != nil {
		return domain.Contest{}, err
	}
	c.Winner = w
	return c, nil
}

func nonNilSolves(solves []domain.Solve) []domain.Solve {
	if solves == nil {
		return []domain.Solve{}
	}
	return solves
}
