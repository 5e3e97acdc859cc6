package domain

import "errors"

var (
	// ErrUnknownUser is returned when a name does not match either participant.
	ErrUnknownUser = errors.New("unknown user")
	// ErrInvalidArgument marks a request that fails basic validation.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrInsufficientPool is returned when too few questions are unsolved by both users.
	ErrInsufficientPool = errors.New("not enough unsolved questions")
	// ErrContestNotFound indicates an unknown contest code.
	ErrContestNotFound = errors.New("contest not found")
	// ErrQuestionNotFound indicates an unknown question id.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrContestFinished is returned when mutating a contest that has already been finalized.
	ErrContestFinished = errors.New("contest already finished")
	// ErrQuestionNotInContest indicates a solve for a question the contest did not draw.
	ErrQuestionNotInContest = errors.New("question is not part of this contest")
	// ErrDuplicateCode is returned by stores when a contest code is already taken.
	ErrDuplicateCode = errors.New("contest code already exists")
	// ErrConflict signals that a guarded update lost a race with a concurrent writer.
	ErrConflict = errors.New("concurrent update conflict")
	// ErrProfileNotFound indicates the profile service has no such user.
	ErrProfileNotFound = errors.New("profile not found")
)
