package memory

import (
	"context"
	"sync"

	"codeduel/internal/domain"
)

// QuestionStore keeps the question pool in insertion order.
type QuestionStore struct {
	mu    sync.RWMutex
	order []string
	byID  map[string]domain.Question
}

func NewQuestionStore() *QuestionStore {
	return &QuestionStore{byID: make(map[string]domain.Question)}
}

func (s *QuestionStore) List(_ context.Context) ([]domain.Question, error) {
	return s.collect(func(domain.Question) bool { return true }), nil
}

func (s *QuestionStore) ListUnsolved(_ context.Context) ([]domain.Question, error) {
	return s.collect(domain.Question.UnsolvedByBoth), nil
}

func (s *QuestionStore) GetMany(_ context.Context, ids []string) ([]domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Question, 0, len(ids))
	for _, id := range ids {
		if q, ok := s.byID[id]; ok {
			out = append(out, cloneQuestion(q))
		}
	}
	return out, nil
}

func (s *QuestionStore) Create(_ context.Context, q domain.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[q.ID]; !ok {
		s.order = append(s.order, q.ID)
	}
	s.byID[q.ID] = cloneQuestion(q)
	return nil
}

func (s *QuestionStore) Update(_ context.Context, id string, fn func(*domain.Question) error) (domain.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.byID[id]
	if !ok {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	working := cloneQuestion(current)
	if err := fn(&working); err != nil {
		return domain.Question{}, err
	}
	s.byID[id] = working
	return cloneQuestion(working), nil
}

func (s *QuestionStore) collect(keep func(domain.Question) bool) []domain.Question {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Question, 0, len(s.order))
	for _, id := range s.order {
		if q := s.byID[id]; keep(q) {
			out = append(out, cloneQuestion(q))
		}
	}
	return out
}

func cloneQuestion(q domain.Question) domain.Question {
	if q.Winner != nil {
		w := *q.Winner
		q.Winner = &w
	}
	return q
}
