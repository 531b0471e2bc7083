package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Poll struct {
	ID          uuid.UUID       `json:"id"`
	Question    string          `json:"question"`
	Description string          `json:"description,omitempty"`
	Budget      decimal.Decimal `json:"budget"`
	Reward      decimal.Decimal `json:"reward"`
	IsActive    bool            `json:"is_active"`
	EndsAt      time.Time       `json:"ends_at"`
	UserID      uuid.UUID       `json:"user_id"`
	Options     []PollOption    `json:"options"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// IsVotable is the single definition of "this poll accepts votes".
// Listing uses it to filter, and the vote transaction re-checks it
// against a fresh row so the two can never drift apart.
func (p *Poll) IsVotable(now time.Time) bool {
	return p.IsActive && now.Before(p.EndsAt)
}

type PollOption struct {
	ID        uuid.UUID `json:"id"`
	PollID    uuid.UUID `json:"poll_id"`
	Text      string    `json:"text"`
	VoteCount int64     `json:"vote_count"`
	// RewardPerVote is a holdover from an earlier per-option reward
	// model. Poll.Reward is what votes actually pay out; this field is
	// persisted but never read when crediting.
	RewardPerVote decimal.Decimal `json:"reward_per_vote"`
	CreatedAt     time.Time       `json:"created_at"`
}
