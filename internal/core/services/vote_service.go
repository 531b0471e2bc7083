package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vote2earn/api/internal/core/domain"
	"github.com/vote2earn/api/internal/core/ports"
)

// maxCastAttempts bounds retries of the vote transaction on storage
// conflicts. Business-rule rejections are never retried.
const maxCastAttempts = 3

type voteService struct {
	voteRepo ports.VoteRepository
	log      *zap.Logger
}

func NewVoteService(voteRepo ports.VoteRepository, log *zap.Logger) ports.VoteService {
	return &voteService{
		voteRepo: voteRepo,
		log:      log,
	}
}

// CastVote records a vote, increments the chosen option's tally and
// credits the voter's balance with the poll's reward, all inside one
// database transaction. The unique index on (user_id, poll_id) is the
// authoritative duplicate guard; the HasVoted pre-check only spares a
// transaction in the common repeat-vote case.
func (s *voteService) CastVote(ctx context.Context, input ports.CastVoteInput) error {
	hasVoted, err := s.voteRepo.HasVoted(ctx, input.UserID, input.PollID)
	if err != nil {
		return fmt.Errorf("failed to check existing vote: %w", err)
	}
	if hasVoted {
		return domain.ErrAlreadyVoted
	}

	var lastErr error
	for attempt := 1; attempt <= maxCastAttempts; attempt++ {
		err := s.voteRepo.InTx(ctx, func(tx ports.VoteTx) error {
			return s.castOnce(ctx, tx, input)
		})
		if err == nil {
			return nil
		}
		if !errors.Is(err, domain.ErrTxConflict) {
			return err
		}
		lastErr = err
		s.log.Warn("vote transaction conflict",
			zap.Int("attempt", attempt),
			zap.String("poll_id", input.PollID.String()),
			zap.Error(err))
	}

	s.log.Error("vote transaction failed after retries",
		zap.Int("attempts", maxCastAttempts),
		zap.String("poll_id", input.PollID.String()),
		zap.Error(lastErr))
	return fmt.Errorf("%w: %v", domain.ErrTransactionFailed, lastErr)
}

// castOnce runs the commit protocol for a single attempt. All reads go
// through tx so the votability and duplicate checks see the same
// snapshot the writes commit against.
func (s *voteService) castOnce(ctx context.Context, tx ports.VoteTx, input ports.CastVoteInput) error {
	now := time.Now()

	poll, err := tx.FindVotablePoll(ctx, input.PollID, now)
	if err != nil {
		return fmt.Errorf("failed to load poll: %w", err)
	}
	if poll == nil {
		return domain.ErrPollNotVotable
	}

	option, err := tx.FindOption(ctx, input.OptionID, input.PollID)
	if err != nil {
		return fmt.Errorf("failed to load option: %w", err)
	}
	if option == nil {
		return domain.ErrInvalidOption
	}

	existing, err := tx.FindVote(ctx, input.UserID, input.PollID)
	if err != nil {
		return fmt.Errorf("failed to check existing vote: %w", err)
	}
	if existing != nil {
		return domain.ErrAlreadyVoted
	}

	vote := &domain.Vote{
		ID:           uuid.New(),
		UserID:       input.UserID,
		PollID:       input.PollID,
		PollOptionID: option.ID,
		RewardAmount: poll.Reward,
		CreatedAt:    now,
	}
	if err := tx.InsertVote(ctx, vote); err != nil {
		// A concurrent duplicate lands here as ErrAlreadyVoted via the
		// unique index, not as a generic failure.
		return err
	}

	if err := tx.IncrementOptionVoteCount(ctx, option.ID, 1); err != nil {
		return fmt.Errorf("failed to increment vote count: %w", err)
	}

	return tx.IncrementUserBalance(ctx, input.UserID, poll.Reward)
}

func (s *voteService) ListMyVotes(ctx context.Context, userID uuid.UUID) ([]*domain.VoteSummary, error) {
	votes, err := s.voteRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list votes: %w", err)
	}
	return votes, nil
}
