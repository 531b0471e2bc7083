package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/vote2earn/api/internal/core/domain"
)

type PollRepository interface {
	// Save inserts the poll and all of its options in one transaction.
	Save(ctx context.Context, poll *domain.Poll) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Poll, error)
	// ListVotable returns polls that accept votes at the given instant,
	// newest first.
	ListVotable(ctx context.Context, now time.Time, limit, offset int) ([]*domain.Poll, error)
	ListByOwner(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Poll, error)
	Update(ctx context.Context, poll *domain.Poll) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type CreatePollInput struct {
	Question    string
	Description string
	Budget      decimal.Decimal
	Reward      decimal.Decimal
	EndsAt      time.Time
	Options     []string
}

type UpdatePollInput struct {
	Question    *string
	Description *string
	Budget      *decimal.Decimal
	Reward      *decimal.Decimal
	IsActive    *bool
	EndsAt      *time.Time
}

type ListPollsInput struct {
	Limit  int
	Offset int
}

// PollWithVoteStatus decorates a poll with whether the caller already voted on it.
type PollWithVoteStatus struct {
	*domain.Poll
	HasVoted bool `json:"has_voted"`
}

type PollService interface {
	Create(ctx context.Context, ownerID uuid.UUID, input CreatePollInput) (*domain.Poll, error)
	GetPoll(ctx context.Context, id string) (*domain.Poll, error)
	ListVotable(ctx context.Context, callerID uuid.UUID, input ListPollsInput) ([]*PollWithVoteStatus, error)
	ListCreated(ctx context.Context, ownerID uuid.UUID, input ListPollsInput) ([]*domain.Poll, error)
	Update(ctx context.Context, callerID uuid.UUID, callerRole domain.Role, id string, input UpdatePollInput) (*domain.Poll, error)
	Delete(ctx context.Context, callerID uuid.UUID, callerRole domain.Role, id string) error
}
