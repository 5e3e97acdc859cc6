package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"codeduel/internal/domain"
	"codeduel/internal/metrics"

	"go.uber.org/zap"
)

const (
	defaultCodeLength      = 6
	defaultMaxCodeAttempts = 5
)

// errNotDue aborts a finalize update without writing.
var errNotDue = errors.New("contest not due")

// ContestService owns the contest lifecycle: creation, solve tracking and finalization.
type ContestService struct {
	contests  ContestRepository
	questions QuestionRepository
	logger    *zap.Logger

	rnd             *Randomizer
	now             func() time.Time
	codeLength      int
	maxCodeAttempts int
}

// ContestOption tweaks a ContestService at construction.
type ContestOption func(*ContestService)

// WithClock is used by tests for deterministic timestamps.
func WithClock(now func() time.Time) ContestOption {
	return func(s *ContestService) { s.now = now }
}

func WithRandomizer(r *Randomizer) ContestOption {
	return func(s *ContestService) { s.rnd = r }
}

func WithCodeLength(n int) ContestOption {
	return func(s *ContestService) {
		if n > 0 {
			s.codeLength = n
		}
	}
}

func WithMaxCodeAttempts(n int) ContestOption {
	return func(s *ContestService) {
		if n > 0 {
			s.maxCodeAttempts = n
		}
	}
}

func NewContestService(contests ContestRepository, questions QuestionRepository, logger *zap.Logger, opts ...ContestOption) *ContestService {
	s := &ContestService{
		contests:        contests,
		questions:       questions,
		logger:          logger,
		rnd:             newTimeSeededRandomizer(),
		now:             time.Now,
		codeLength:      defaultCodeLength,
		maxCodeAttempts: defaultMaxCodeAttempts,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create draws questionCount questions unsolved by both users and opens a
// live contest lasting durationMinutes.
func (s *ContestService) Create(ctx context.Context, questionCount, durationMinutes int) (domain.ContestDetail, error) {
	if questionCount < 1 {
		return domain.ContestDetail{}, fmt.Errorf("%w: question count must be at least 1", domain.ErrInvalidArgument)
	}
	if durationMinutes < 1 {
		return domain.ContestDetail{}, fmt.Errorf("%w: duration must be at least 1 minute", domain.ErrInvalidArgument)
	}
	if durationMinutes > domain.MaxDurationMinutes {
		return domain.ContestDetail{}, fmt.Errorf("%w: duration must be at most %d minutes", domain.ErrInvalidArgument, domain.MaxDurationMinutes)
	}

	pool, err := s.questions.ListUnsolved(ctx)
	if err != nil {
		return domain.ContestDetail{}, fmt.Errorf("list unsolved questions: %w", err)
	}
	if len(pool) < questionCount {
		return domain.ContestDetail{}, fmt.Errorf("%w: have %d, need %d", domain.ErrInsufficientPool, len(pool), questionCount)
	}

	selected := Sample(s.rnd, pool, questionCount)
	ids := make([]string, len(selected))
	for i, q := range selected {
		ids[i] = q.ID
	}

	var contest domain.Contest
	for attempt := 1; ; attempt++ {
		contest = domain.NewContest(s.rnd.Code(s.codeLength), ids, durationMinutes, s.now())
		err = s.contests.Insert(ctx, contest)
		if err == nil {
			break
		}
		if !errors.Is(err, domain.ErrDuplicateCode) || attempt >= s.maxCodeAttempts {
			return domain.ContestDetail{}, fmt.Errorf("insert contest: %w", err)
		}
		s.logger.Warn("contest code collision, retrying", zap.String("code", contest.Code), zap.Int("attempt", attempt))
	}

	metrics.ContestCreated()
	s.logger.Info("contest created",
		zap.String("code", contest.Code),
		zap.Int("questions", questionCount),
		zap.Int("duration_minutes", durationMinutes),
		zap.Time("end_time", contest.EndTime),
	)
	return domain.ContestDetail{Contest: contest, Questions: selected}, nil
}

// Get returns one contest with its questions resolved.
func (s *ContestService) Get(ctx context.Context, code string) (domain.ContestDetail, error) {
	contest, err := s.contests.Get(ctx, code)
	if err != nil {
		return domain.ContestDetail{}, err
	}
	return s.detail(ctx, contest)
}

// ListLive returns the window of every contest still running.
func (s *ContestService) ListLive(ctx context.Context) ([]domain.ContestSummary, error) {
	contests, err := s.contests.ListByStatus(ctx, domain.ContestLive)
	if err != nil {
		return nil, err
	}
	out := make([]domain.ContestSummary, len(contests))
	for i, c := range contests {
		out[i] = c.Summary()
	}
	return out, nil
}

// ListFinished returns finished contests with question detail.
func (s *ContestService) ListFinished(ctx context.Context) ([]domain.ContestDetail, error) {
	contests, err := s.contests.ListByStatus(ctx, domain.ContestFinished)
	if err != nil {
		return nil, err
	}
	out := make([]domain.ContestDetail, 0, len(contests))
	for _, c := range contests {
		d, err := s.detail(ctx, c)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

// RecordSolve applies a solve or unsolve for user on questionID and mirrors
// the flag onto the question itself. The two writes are not atomic.
func (s *ContestService) RecordSolve(ctx context.Context, code string, user domain.User, questionID string, solved bool) (domain.ContestDetail, error) {
	updated, err := s.contests.Update(ctx, code, func(c *domain.Contest) error {
		return c.ApplySolve(user, questionID, solved, s.now())
	})
	if err != nil {
		return domain.ContestDetail{}, err
	}
	metrics.SolveRecorded(user.String(), solved)

	if _, err := s.questions.Update(ctx, questionID, func(q *domain.Question) error {
		q.SolvedBy[user] = solved
		return nil
	}); err != nil {
		s.logger.Error("mirror solve onto question failed",
			zap.String("code", code),
			zap.String("question_id", questionID),
			zap.Error(err),
		)
		return domain.ContestDetail{}, fmt.Errorf("mirror solve: %w", err)
	}

	return s.detail(ctx, updated)
}

// Finalize closes the contest if it is live and due. It reports whether this
// call performed the transition; an already finished contest is left as is.
func (s *ContestService) Finalize(ctx context.Context, code string) (domain.Contest, bool, error) {
	updated, err := s.contests.Update(ctx, code, func(c *domain.Contest) error {
		if !c.Finalize(s.now()) {
			return errNotDue
		}
		return nil
	})
	switch {
	case errors.Is(err, errNotDue), errors.Is(err, domain.ErrConflict):
		current, getErr := s.contests.Get(ctx, code)
		return current, false, getErr
	case err != nil:
		return domain.Contest{}, false, err
	}

	winner := "none"
	if updated.Winner != nil {
		winner = updated.Winner.String()
	}
	metrics.ContestFinalized(winner)
	s.logger.Info("contest finalized",
		zap.String("code", updated.Code),
		zap.String("winner", winner),
		zap.Int("points_"+domain.UserA.String(), updated.Points(domain.UserA)),
		zap.Int("points_"+domain.UserB.String(), updated.Points(domain.UserB)),
	)
	return updated, true, nil
}

// SweepExpired finalizes every due contest. A failure on one contest is
// logged and does not stop the rest; the contest stays live for the next sweep.
func (s *ContestService) SweepExpired(ctx context.Context) (int, error) {
	start := time.Now()
	defer func() { metrics.ObserveSweep(time.Since(start)) }()

	due, err := s.contests.ListDue(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("list due contests: %w", err)
	}

	finalized := 0
	var errs []error
	for _, c := range due {
		_, done, err := s.Finalize(ctx, c.Code)
		if err != nil {
			metrics.SweepFailed()
			s.logger.Error("finalize contest failed", zap.String("code", c.Code), zap.Error(err))
			errs = append(errs, fmt.Errorf("finalize %s: %w", c.Code, err))
			continue
		}
		if done {
			finalized++
		}
	}
	return finalized, errors.Join(errs...)
}

// Stats tallies outcomes across finished contests.
func (s *ContestService) Stats(ctx context.Context) (domain.Stats, error) {
	contests, err := s.contests.ListByStatus(ctx, domain.ContestFinished)
	if err != nil {
		return domain.Stats{}, err
	}
	stats := domain.Stats{Wins: make(map[string]int, len(domain.Users))}
	for _, u := range domain.Users {
		stats.Wins[u.String()] = 0
	}
	for _, c := range contests {
		stats.Finished++
		if c.Winner == nil {
			stats.Ties++
			continue
		}
		stats.Wins[c.Winner.String()]++
	}
	return stats, nil
}

func (s *ContestService) detail(ctx context.Context, c domain.Contest) (domain.ContestDetail, error) {
	questions, err := s.questions.GetMany(ctx, c.QuestionIDs)
	if err != nil {
		return domain.ContestDetail{}, fmt.Errorf("load contest questions: %w", err)
	}
	return domain.ContestDetail{Contest: c, Questions: questions}, nil
}
