package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/vote2earn/api/internal/core/domain"
)

// VoteTx is the set of storage operations available inside a single
// vote-casting transaction. Reads see the transaction's snapshot, so
// every business decision is made against fresh rows that commit
// together with the writes.
type VoteTx interface {
	// FindVotablePoll returns the poll only if it accepts votes at the
	// given instant, nil otherwise.
	FindVotablePoll(ctx context.Context, pollID uuid.UUID, now time.Time) (*domain.Poll, error)
	// FindOption returns the option only if it belongs to the poll, nil otherwise.
	FindOption(ctx context.Context, optionID, pollID uuid.UUID) (*domain.PollOption, error)
	FindVote(ctx context.Context, userID, pollID uuid.UUID) (*domain.Vote, error)
	// InsertVote returns domain.ErrAlreadyVoted when the unique index on
	// (user_id, poll_id) rejects the row.
	InsertVote(ctx context.Context, vote *domain.Vote) error
	IncrementOptionVoteCount(ctx context.Context, optionID uuid.UUID, by int64) error
	// IncrementUserBalance returns domain.ErrUserNotFound when no row matches.
	IncrementUserBalance(ctx context.Context, userID uuid.UUID, by decimal.Decimal) error
}

type VoteRepository interface {
	// InTx runs fn inside one database transaction, committing when fn
	// returns nil and rolling back otherwise.
	InTx(ctx context.Context, fn func(tx VoteTx) error) error
	HasVoted(ctx context.Context, userID, pollID uuid.UUID) (bool, error)
	// ListVotedPollIDs returns the ids of all polls the user has voted on.
	ListVotedPollIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.VoteSummary, error)
}

type CastVoteInput struct {
	UserID   uuid.UUID
	PollID   uuid.UUID
	OptionID uuid.UUID
}

type VoteService interface {
	CastVote(ctx context.Context, input CastVoteInput) error
	ListMyVotes(ctx context.Context, userID uuid.UUID) ([]*domain.VoteSummary, error)
}
