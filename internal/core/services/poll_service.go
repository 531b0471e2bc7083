package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vote2earn/api/internal/core/domain"
	"github.com/vote2earn/api/internal/core/ports"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// legacyRewardPerVote fills the vestigial per-option reward column.
// Payouts always use Poll.Reward.
var legacyRewardPerVote = decimal.New(1, -4)

type pollService struct {
	pollRepo ports.PollRepository
	voteRepo ports.VoteRepository
}

func NewPollService(pollRepo ports.PollRepository, voteRepo ports.VoteRepository) ports.PollService {
	return &pollService{
		pollRepo: pollRepo,
		voteRepo: voteRepo,
	}
}

func (s *pollService) Create(ctx context.Context, ownerID uuid.UUID, input ports.CreatePollInput) (*domain.Poll, error) {
	if len(input.Question) < 5 {
		return nil, errors.New("question must be at least 5 characters")
	}
	if !input.Reward.IsPositive() {
		return nil, errors.New("reward must be positive")
	}
	if !input.Budget.IsPositive() {
		return nil, errors.New("budget must be positive")
	}

	now := time.Now()
	if !input.EndsAt.After(now) {
		return nil, errors.New("ends_at must be in the future")
	}

	pollID := uuid.New()
	poll := &domain.Poll{
		ID:          pollID,
		Question:    input.Question,
		Description: input.Description,
		Budget:      input.Budget,
		Reward:      input.Reward,
		IsActive:    true,
		EndsAt:      input.EndsAt,
		UserID:      ownerID,
		CreatedAt:   now,
	}

	for _, optText := range input.Options {
		if optText == "" {
			continue
		}
		poll.Options = append(poll.Options, domain.PollOption{
			ID:            uuid.New(),
			PollID:        pollID,
			Text:          optText,
			RewardPerVote: legacyRewardPerVote,
			CreatedAt:     now,
		})
	}

	if len(poll.Options) < 2 {
		return nil, errors.New("at least two options are required")
	}

	if err := s.pollRepo.Save(ctx, poll); err != nil {
		return nil, err
	}

	return poll, nil
}

func (s *pollService) GetPoll(ctx context.Context, id string) (*domain.Poll, error) {
	pollID, err := uuid.Parse(id)
	if err != nil {
		return nil, domain.ErrInvalidPollID
	}

	return s.pollRepo.GetByID(ctx, pollID)
}

func (s *pollService) ListVotable(ctx context.Context, callerID uuid.UUID, input ports.ListPollsInput) ([]*ports.PollWithVoteStatus, error) {
	limit, offset := pagination(input)

	polls, err := s.pollRepo.ListVotable(ctx, time.Now(), limit, offset)
	if err != nil {
		return nil, err
	}

	votedIDs, err := s.voteRepo.ListVotedPollIDs(ctx, callerID)
	if err != nil {
		return nil, err
	}
	voted := make(map[uuid.UUID]bool, len(votedIDs))
	for _, id := range votedIDs {
		voted[id] = true
	}

	result := make([]*ports.PollWithVoteStatus, 0, len(polls))
	for _, poll := range polls {
		result = append(result, &ports.PollWithVoteStatus{
			Poll:     poll,
			HasVoted: voted[poll.ID],
		})
	}
	return result, nil
}

func (s *pollService) ListCreated(ctx context.Context, ownerID uuid.UUID, input ports.ListPollsInput) ([]*domain.Poll, error) {
	limit, offset := pagination(input)
	return s.pollRepo.ListByOwner(ctx, ownerID, limit, offset)
}

func (s *pollService) Update(ctx context.Context, callerID uuid.UUID, callerRole domain.Role, id string, input ports.UpdatePollInput) (*domain.Poll, error) {
	poll, err := s.authorizedPoll(ctx, callerID, callerRole, id)
	if err != nil {
		return nil, err
	}

	if input.Question != nil {
		if len(*input.Question) < 5 {
			return nil, errors.New("question must be at least 5 characters")
		}
		poll.Question = *input.Question
	}
	if input.Description != nil {
		poll.Description = *input.Description
	}
	if input.Budget != nil {
		if !input.Budget.IsPositive() {
			return nil, errors.New("budget must be positive")
		}
		poll.Budget = *input.Budget
	}
	if input.Reward != nil {
		if !input.Reward.IsPositive() {
			return nil, errors.New("reward must be positive")
		}
		poll.Reward = *input.Reward
	}
	if input.IsActive != nil {
		poll.IsActive = *input.IsActive
	}
	if input.EndsAt != nil {
		if !input.EndsAt.After(time.Now()) {
			return nil, errors.New("ends_at must be in the future")
		}
		poll.EndsAt = *input.EndsAt
	}

	if err := s.pollRepo.Update(ctx, poll); err != nil {
		return nil, err
	}
	return poll, nil
}

func (s *pollService) Delete(ctx context.Context, callerID uuid.UUID, callerRole domain.Role, id string) error {
	poll, err := s.authorizedPoll(ctx, callerID, callerRole, id)
	if err != nil {
		return err
	}
	return s.pollRepo.Delete(ctx, poll.ID)
}

// authorizedPoll loads a poll and checks the caller owns it or is an admin.
func (s *pollService) authorizedPoll(ctx context.Context, callerID uuid.UUID, callerRole domain.Role, id string) (*domain.Poll, error) {
	pollID, err := uuid.Parse(id)
	if err != nil {
		return nil, domain.ErrInvalidPollID
	}

	poll, err := s.pollRepo.GetByID(ctx, pollID)
	if err != nil {
		return nil, err
	}
	if poll.UserID != callerID && callerRole != domain.RoleAdmin {
		return nil, domain.ErrForbidden
	}
	return poll, nil
}

func pagination(input ports.ListPollsInput) (limit, offset int) {
	limit = input.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	offset = input.Offset
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
