package domain

import "time"

// ContestStatus is the lifecycle state of a contest.
type ContestStatus string

const (
	ContestLive     ContestStatus = "live"
	ContestFinished ContestStatus = "finished"
)

// Question is a practice problem shared by both users.
type Question struct {
	ID       string `json:"_id"`
	Company  string `json:"company"`
	Question string `json:"question"`
	Link     string `json:"link"`
	Level    string `json:"level"`
	// SolvedBy is indexed by User.
	SolvedBy [2]bool `json:"-"`
	// Winner is an informational annotation; cleared when either flag drops.
	Winner *User `json:"winner"`
}

// SolvedByBoth reports whether neither user has the question left to do.
func (q Question) SolvedByBoth() bool {
	return q.SolvedBy[UserA] && q.SolvedBy[UserB]
}

// UnsolvedByBoth reports whether the question is eligible for a new contest.
func (q Question) UnsolvedByBoth() bool {
	return !q.SolvedBy[UserA] && !q.SolvedBy[UserB]
}

// SetSolved updates one user's flag and drops a stale winner annotation.
func (q *Question) SetSolved(user User, solved bool) {
	q.SolvedBy[user] = solved
	if !q.SolvedByBoth() {
		q.Winner = nil
	}
}

// NewQuestion is the input for adding a question to the pool.
type NewQuestion struct {
	Company  string `json:"company" yaml:"company"`
	Question string `json:"question" yaml:"question"`
	Link     string `json:"link" yaml:"link"`
	Level    string `json:"level" yaml:"level"`
}

// Solve is one entry in a contest's solve log.
type Solve struct {
	User       User      `json:"user"`
	QuestionID string    `json:"question"`
	Solved     bool      `json:"solved"`
	Timestamp  time.Time `json:"timestamp"`
}

// Contest is a time-boxed duel over a fixed set of questions.
type Contest struct {
	Code        string        `json:"code"`
	QuestionIDs []string      `json:"questionIds"`
	StartTime   time.Time     `json:"startTime"`
	EndTime     time.Time     `json:"endTime"`
	Duration    int           `json:"duration"` // minutes
	Status      ContestStatus `json:"status"`
	Solves      []Solve       `json:"solves"`
	Winner      *User         `json:"winner"`
}

// ContestDetail is a contest with its questions resolved in draw order.
type ContestDetail struct {
	Contest
	Questions []Question `json:"questions"`
}

// ContestSummary is the lightweight view used for the live listing.
type ContestSummary struct {
	Code      string    `json:"code"`
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
	Duration  int       `json:"duration"`
}

// Summary trims a contest down to its window.
func (c Contest) Summary() ContestSummary {
	return ContestSummary{
		Code:      c.Code,
		StartTime: c.StartTime,
		EndTime:   c.EndTime,
		Duration:  c.Duration,
	}
}

// Stats aggregates finished contests.
type Stats struct {
	Wins     map[string]int `json:"wins"`
	Ties     int            `json:"ties"`
	Finished int            `json:"finished"`
}

// Profile is the public profile returned by the external lookup service.
type Profile struct {
	Username   string `json:"username"`
	UserAvatar string `json:"userAvatar"`
	Country    string `json:"countryName"`
	Ranking    int    `json:"ranking"`
	RealName   string `json:"realName"`
}
