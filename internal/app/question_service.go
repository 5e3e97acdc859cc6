package app

import (
	"context"
	"fmt"
	"strings"

	"codeduel/internal/domain"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// QuestionService manages the shared question pool.
type QuestionService struct {
	questions QuestionRepository
	logger    *zap.Logger
	rnd       *Randomizer
}

func NewQuestionService(questions QuestionRepository, logger *zap.Logger) *QuestionService {
	return &QuestionService{questions: questions, logger: logger, rnd: newTimeSeededRandomizer()}
}

func (s *QuestionService) List(ctx context.Context) ([]domain.Question, error) {
	return s.questions.List(ctx)
}

// Add stores a new question with both flags cleared.
func (s *QuestionService) Add(ctx context.Context, in domain.NewQuestion) (domain.Question, error) {
	if strings.TrimSpace(in.Question) == "" {
		return domain.Question{}, fmt.Errorf("%w: question text is required", domain.ErrInvalidArgument)
	}
	q := domain.Question{
		ID:       uuid.NewString(),
		Company:  in.Company,
		Question: in.Question,
		Link:     in.Link,
		Level:    in.Level,
	}
	if err := s.questions.Create(ctx, q); err != nil {
		return domain.Question{}, fmt.Errorf("create question: %w", err)
	}
	s.logger.Debug("question added", zap.String("id", q.ID), zap.String("company", q.Company))
	return q, nil
}

// AddAll imports a batch, stopping at the first failure.
func (s *QuestionService) AddAll(ctx context.Context, batch []domain.NewQuestion) (int, error) {
	for i, in := range batch {
		if _, err := s.Add(ctx, in); err != nil {
			return i, fmt.Errorf("question %d: %w", i, err)
		}
	}
	return len(batch), nil
}

// SampleUnsolved returns up to count random questions neither user has solved.
func (s *QuestionService) SampleUnsolved(ctx context.Context, count int) ([]domain.Question, error) {
	if count < 1 {
		count = 1
	}
	pool, err := s.questions.ListUnsolved(ctx)
	if err != nil {
		return nil, err
	}
	return Sample(s.rnd, pool, count), nil
}

// ToggleSolved sets one user's flag directly, outside any contest. Contest
// logs are left untouched.
func (s *QuestionService) ToggleSolved(ctx context.Context, id string, user domain.User, solved bool) (domain.Question, error) {
	if !user.Valid() {
		return domain.Question{}, domain.ErrUnknownUser
	}
	return s.questions.Update(ctx, id, func(q *domain.Question) error {
		q.SetSolved(user, solved)
		return nil
	})
}
