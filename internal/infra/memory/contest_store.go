package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"codeduel/internal/domain"
)

// ContestStore is an in-memory implementation of app.ContestRepository.
type ContestStore struct {
	mu       sync.RWMutex
	contests map[string]domain.Contest
}

func NewContestStore() *ContestStore {
	return &ContestStore{
		contests: make(map[string]domain.Contest),
	}
}

func (s *ContestStore) Insert(_ context.Context, c domain.Contest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.contests[c.Code]; ok {
		return domain.ErrDuplicateCode
	}
	s.contests[c.Code] = cloneContest(c)
	return nil
}

func (s *ContestStore) Get(_ context.Context, code string) (domain.Contest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.contests[code]
	if !ok {
		return domain.Contest{}, domain.ErrContestNotFound
	}
	return cloneContest(c), nil
}

func (s *ContestStore) ListByStatus(_ context.Context, status domain.ContestStatus) ([]domain.Contest, error) {
	return s.filter(func(c domain.Contest) bool { return c.Status == status }), nil
}

func (s *ContestStore) ListDue(_ context.Context, now time.Time) ([]domain.Contest, error) {
	return s.filter(func(c domain.Contest) bool { return c.Due(now) }), nil
}

func (s *ContestStore) Update(_ context.Context, code string, fn func(*domain.Contest) error) (domain.Contest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.contests[code]
	if !ok {
		return domain.Contest{}, domain.ErrContestNotFound
	}
	working := cloneContest(current)
	if err := fn(&working); err != nil {
		return domain.Contest{}, err
	}
	s.contests[code] = working
	return cloneContest(working), nil
}

// filter returns matches ordered by start time, newest first.
func (s *ContestStore) filter(keep func(domain.Contest) bool) []domain.Contest {
	s.mu.RLock()
	out := make([]domain.Contest, 0, len(s.contests))
	for _, c := range s.contests {
		if keep(c) {
			out = append(out, cloneContest(c))
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.After(out[j].StartTime) })
	return out
}

func cloneContest(c domain.Contest) domain.Contest {
	c.QuestionIDs = append([]string(nil), c.QuestionIDs...)
	c.Solves = append([]domain.Solve{}, c.Solves...)
	if c.Winner != nil {
		w := *c.Winner
		c.Winner = &w
	}
	return c
}
