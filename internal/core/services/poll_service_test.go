package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vote2earn/api/internal/core/domain"
	"github.com/vote2earn/api/internal/core/ports"
)

type fakePollRepo struct {
	polls map[uuid.UUID]*domain.Poll
	saved *domain.Poll
}

func newFakePollRepo() *fakePollRepo {
	return &fakePollRepo{polls: make(map[uuid.UUID]*domain.Poll)}
}

func (f *fakePollRepo) Save(ctx context.Context, poll *domain.Poll) error {
	f.saved = poll
	f.polls[poll.ID] = poll
	return nil
}

func (f *fakePollRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Poll, error) {
	poll, ok := f.polls[id]
	if !ok {
		return nil, domain.ErrPollNotFound
	}
	return poll, nil
}

func (f *fakePollRepo) ListVotable(ctx context.Context, now time.Time, limit, offset int) ([]*domain.Poll, error) {
	var out []*domain.Poll
	for _, p := range f.polls {
		if p.IsVotable(now) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakePollRepo) ListByOwner(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Poll, error) {
	var out []*domain.Poll
	for _, p := range f.polls {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakePollRepo) Update(ctx context.Context, poll *domain.Poll) error {
	f.polls[poll.ID] = poll
	return nil
}

func (f *fakePollRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := f.polls[id]; !ok {
		return domain.ErrPollNotFound
	}
	delete(f.polls, id)
	return nil
}

func validCreateInput() ports.CreatePollInput {
	return ports.CreatePollInput{
		Question: "Which feature should we ship next?",
		Budget:   decimal.RequireFromString("100.00"),
		Reward:   decimal.RequireFromString("2.50"),
		EndsAt:   time.Now().Add(7 * 24 * time.Hour),
		Options:  []string{"Dark mode", "Offline sync"},
	}
}

func newPollServiceWithRepos(t *testing.T) (ports.PollService, *fakePollRepo, *fakeVoteStore) {
	t.Helper()
	pollRepo := newFakePollRepo()
	voteStore := newFakeVoteStore()
	return NewPollService(pollRepo, voteStore), pollRepo, voteStore
}

func TestCreatePoll(t *testing.T) {
	svc, repo, _ := newPollServiceWithRepos(t)
	ownerID := uuid.New()

	poll, err := svc.Create(context.Background(), ownerID, validCreateInput())
	require.NoError(t, err)

	assert.Equal(t, ownerID, poll.UserID)
	assert.True(t, poll.IsActive)
	assert.Len(t, poll.Options, 2)
	for _, opt := range poll.Options {
		assert.Equal(t, poll.ID, opt.PollID)
		assert.Equal(t, int64(0), opt.VoteCount)
	}
	require.NotNil(t, repo.saved, "poll and options must be persisted together")
	assert.Len(t, repo.saved.Options, 2)
}

func TestCreatePollValidation(t *testing.T) {
	svc, _, _ := newPollServiceWithRepos(t)
	ownerID := uuid.New()

	tests := []struct {
		name   string
		mutate func(*ports.CreatePollInput)
	}{
		{"short question", func(in *ports.CreatePollInput) { in.Question = "Hm?" }},
		{"single option", func(in *ports.CreatePollInput) { in.Options = []string{"Only one"} }},
		{"blank options ignored", func(in *ports.CreatePollInput) { in.Options = []string{"Real", "", ""} }},
		{"zero reward", func(in *ports.CreatePollInput) { in.Reward = decimal.Zero }},
		{"negative reward", func(in *ports.CreatePollInput) { in.Reward = decimal.RequireFromString("-1") }},
		{"zero budget", func(in *ports.CreatePollInput) { in.Budget = decimal.Zero }},
		{"ends in the past", func(in *ports.CreatePollInput) { in.EndsAt = time.Now().Add(-time.Hour) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validCreateInput()
			tt.mutate(&input)
			_, err := svc.Create(context.Background(), ownerID, input)
			assert.Error(t, err)
		})
	}
}

func TestUpdatePoll(t *testing.T) {
	svc, _, _ := newPollServiceWithRepos(t)
	ownerID := uuid.New()

	poll, err := svc.Create(context.Background(), ownerID, validCreateInput())
	require.NoError(t, err)

	newReward := decimal.RequireFromString("3.00")
	updated, err := svc.Update(context.Background(), ownerID, domain.RoleVendor, poll.ID.String(), ports.UpdatePollInput{
		Reward: &newReward,
	})
	require.NoError(t, err)
	assert.True(t, updated.Reward.Equal(newReward))

	t.Run("past ends_at rejected", func(t *testing.T) {
		past := time.Now().Add(-time.Hour)
		_, err := svc.Update(context.Background(), ownerID, domain.RoleVendor, poll.ID.String(), ports.UpdatePollInput{
			EndsAt: &past,
		})
		assert.Error(t, err)
	})

	t.Run("stranger forbidden", func(t *testing.T) {
		q := "A completely different question"
		_, err := svc.Update(context.Background(), uuid.New(), domain.RoleVendor, poll.ID.String(), ports.UpdatePollInput{
			Question: &q,
		})
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("admin may edit any poll", func(t *testing.T) {
		q := "Question rewritten by an admin"
		updated, err := svc.Update(context.Background(), uuid.New(), domain.RoleAdmin, poll.ID.String(), ports.UpdatePollInput{
			Question: &q,
		})
		require.NoError(t, err)
		assert.Equal(t, q, updated.Question)
	})
}

func TestDeletePoll(t *testing.T) {
	svc, repo, _ := newPollServiceWithRepos(t)
	ownerID := uuid.New()

	poll, err := svc.Create(context.Background(), ownerID, validCreateInput())
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(context.Background(), uuid.New(), domain.RoleUser, poll.ID.String()), domain.ErrForbidden)

	require.NoError(t, svc.Delete(context.Background(), ownerID, domain.RoleVendor, poll.ID.String()))
	_, ok := repo.polls[poll.ID]
	assert.False(t, ok)
}

func TestListVotableFlagsVotedPolls(t *testing.T) {
	svc, repo, voteStore := newPollServiceWithRepos(t)
	callerID := uuid.New()

	votedPoll := &domain.Poll{ID: uuid.New(), IsActive: true, EndsAt: time.Now().Add(time.Hour)}
	freshPoll := &domain.Poll{ID: uuid.New(), IsActive: true, EndsAt: time.Now().Add(time.Hour)}
	closedPoll := &domain.Poll{ID: uuid.New(), IsActive: false, EndsAt: time.Now().Add(time.Hour)}
	repo.polls[votedPoll.ID] = votedPoll
	repo.polls[freshPoll.ID] = freshPoll
	repo.polls[closedPoll.ID] = closedPoll

	voteStore.votes[voteKey(callerID, votedPoll.ID)] = &domain.Vote{UserID: callerID, PollID: votedPoll.ID}

	polls, err := svc.ListVotable(context.Background(), callerID, ports.ListPollsInput{})
	require.NoError(t, err)
	require.Len(t, polls, 2)

	byID := make(map[uuid.UUID]bool, len(polls))
	for _, p := range polls {
		byID[p.ID] = p.HasVoted
	}
	assert.True(t, byID[votedPoll.ID])
	assert.False(t, byID[freshPoll.ID])
}
