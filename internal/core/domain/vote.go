package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Vote records that a user voted on a poll. RewardAmount is a copy of
// the poll's reward at cast time, so later edits to the poll do not
// rewrite vote history. At most one vote exists per (user, poll),
// enforced by a unique index.
type Vote struct {
	ID           uuid.UUID       `json:"id"`
	UserID       uuid.UUID       `json:"user_id"`
	PollID       uuid.UUID       `json:"poll_id"`
	PollOptionID uuid.UUID       `json:"poll_option_id"`
	RewardAmount decimal.Decimal `json:"reward_amount"`
	CreatedAt    time.Time       `json:"created_at"`
}

// VoteSummary is a vote joined with its poll and option for history listings.
type VoteSummary struct {
	ID           uuid.UUID       `json:"id"`
	PollID       uuid.UUID       `json:"poll_id"`
	Question     string          `json:"question"`
	OptionText   string          `json:"option_text"`
	RewardAmount decimal.Decimal `json:"reward_amount"`
	VotedAt      time.Time       `json:"voted_at"`
}
