package app

import (
	"context"
	"time"

	"codeduel/internal/domain"
)

// QuestionRepository abstracts where the question pool lives (memory, Postgres, MongoDB).
type QuestionRepository interface {
	List(ctx context.Context) ([]domain.Question, error)
	ListUnsolved(ctx context.Context) ([]domain.Question, error)
	// GetMany returns the questions found for ids, in the order given.
	// Unknown ids are skipped.
	GetMany(ctx context.Context, ids []string) ([]domain.Question, error)
	Create(ctx context.Context, q domain.Question) error
	// Update applies fn to one question atomically and returns the stored
	// result. Optimistic stores may call fn more than once, so fn must only
	// mutate its argument.
	Update(ctx context.Context, id string, fn func(*domain.Question) error) (domain.Question, error)
}

// ContestRepository abstracts contest persistence.
type ContestRepository interface {
	// Insert must fail with domain.ErrDuplicateCode when the code is taken.
	Insert(ctx context.Context, c domain.Contest) error
	Get(ctx context.Context, code string) (domain.Contest, error)
	ListByStatus(ctx context.Context, status domain.ContestStatus) ([]domain.Contest, error)
	// ListDue returns live contests whose end time is at or before now.
	ListDue(ctx context.Context, now time.Time) ([]domain.Contest, error)
	// Update applies fn to one contest under record-level atomicity. If fn
	// returns an error nothing is written and the error is returned. Optimistic
	// stores re-run fn against fresh state after a lost race and give up with
	// domain.ErrConflict.
	Update(ctx context.Context, code string, fn func(*domain.Contest) error) (domain.Contest, error)
}
