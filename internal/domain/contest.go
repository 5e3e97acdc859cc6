package domain

import (
	"sort"
	"time"
)

// MaxDurationMinutes caps a contest window at 30 days.
const MaxDurationMinutes = 30 * 24 * 60

// NewContest stamps a live contest window starting at start.
func NewContest(code string, questionIDs []string, durationMinutes int, start time.Time) Contest {
	return Contest{
		Code:        code,
		QuestionIDs: questionIDs,
		StartTime:   start,
		EndTime:     start.Add(time.Duration(durationMinutes) * time.Minute),
		Duration:    durationMinutes,
		Status:      ContestLive,
		Solves:      []Solve{},
	}
}

// IsLive reports whether the contest still accepts solves.
func (c Contest) IsLive() bool {
	return c.Status == ContestLive
}

// Due reports whether a live contest's window has elapsed at now.
func (c Contest) Due(now time.Time) bool {
	return c.IsLive() && !now.Before(c.EndTime)
}

// HasQuestion reports whether questionID was drawn into the contest.
func (c Contest) HasQuestion(questionID string) bool {
	for _, id := range c.QuestionIDs {
		if id == questionID {
			return true
		}
	}
	return false
}

// ApplySolve replaces any existing entry for (user, questionID). A solved
// event re-appends the pair stamped at now; an unsolve leaves it absent.
func (c *Contest) ApplySolve(user User, questionID string, solved bool, now time.Time) error {
	if !user.Valid() {
		return ErrUnknownUser
	}
	if !c.IsLive() {
		return ErrContestFinished
	}
	if !c.HasQuestion(questionID) {
		return ErrQuestionNotInContest
	}

	kept := make([]Solve, 0, len(c.Solves)+1)
	for _, s := range c.Solves {
		if s.User == user && s.QuestionID == questionID {
			continue
		}
		kept = append(kept, s)
	}
	if solved {
		kept = append(kept, Solve{
			User:       user,
			QuestionID: questionID,
			Solved:     true,
			Timestamp:  now,
		})
	}
	c.Solves = kept
	return nil
}

// Points counts the user's solved entries.
func (c Contest) Points(user User) int {
	n := 0
	for _, s := range c.Solves {
		if s.User == user && s.Solved {
			n++
		}
	}
	return n
}

// Finalize moves a due live contest to finished and fixes its winner. It
// returns false without touching the contest when it is already finished or
// its window has not elapsed.
func (c *Contest) Finalize(now time.Time) bool {
	if !c.Due(now) {
		return false
	}
	c.Winner = DecideWinner(c.Solves)
	c.Status = ContestFinished
	return true
}

// DecideWinner applies the scoring rule: more points wins; equal non-zero
// points go to whoever landed their last solve first; no points means no winner.
func DecideWinner(solves []Solve) *User {
	var times [2][]time.Time
	for _, s := range solves {
		if s.Solved && s.User.Valid() {
			times[s.User] = append(times[s.User], s.Timestamp)
		}
	}

	a, b := len(times[UserA]), len(times[UserB])
	switch {
	case a > b:
		return userPtr(UserA)
	case b > a:
		return userPtr(UserB)
	case a == 0:
		return nil
	}

	for _, ts := range times {
		sort.Slice(ts, func(i, j int) bool { return ts[i].Before(ts[j]) })
	}
	// an exact tie on the last timestamp goes to UserB
	if times[UserA][a-1].Before(times[UserB][b-1]) {
		return userPtr(UserA)
	}
	return userPtr(UserB)
}

func userPtr(u User) *User {
	return &u
}
