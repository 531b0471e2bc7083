package domain

import "errors"

var (
	ErrPollNotFound      = errors.New("poll not found")
	ErrPollNotVotable    = errors.New("poll is closed or does not exist")
	ErrInvalidPollID     = errors.New("invalid poll id")
	ErrInvalidOption     = errors.New("invalid option for this poll")
	ErrAlreadyVoted      = errors.New("user has already voted on this poll")
	ErrUserNotFound      = errors.New("user not found")
	ErrTransactionFailed = errors.New("vote could not be recorded, try again")

	// ErrTxConflict marks serialization failures and deadlocks reported
	// by the storage engine. Callers may retry; every other rejection is
	// a final answer.
	ErrTxConflict = errors.New("storage transaction conflict")

	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("a user with this email already exists")
	ErrUsernameTaken      = errors.New("a user with this username already exists")
	ErrForbidden          = errors.New("operation not permitted")
)
