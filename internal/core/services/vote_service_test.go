package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vote2earn/api/internal/core/domain"
	"github.com/vote2earn/api/internal/core/ports"
)

// fakeVoteStore is an in-memory ports.VoteRepository. InTx serializes
// callers and rolls every change back when fn fails, mirroring the
// database's all-or-nothing commit.
type fakeVoteStore struct {
	mu      sync.Mutex
	polls   map[uuid.UUID]*domain.Poll
	options map[uuid.UUID]*domain.PollOption
	votes   map[string]*domain.Vote
	users   map[uuid.UUID]*domain.User

	// conflictsLeft makes the next N transactions fail with a conflict.
	conflictsLeft int
}

func newFakeVoteStore() *fakeVoteStore {
	return &fakeVoteStore{
		polls:   make(map[uuid.UUID]*domain.Poll),
		options: make(map[uuid.UUID]*domain.PollOption),
		votes:   make(map[string]*domain.Vote),
		users:   make(map[uuid.UUID]*domain.User),
	}
}

func voteKey(userID, pollID uuid.UUID) string {
	return userID.String() + "|" + pollID.String()
}

func (f *fakeVoteStore) InTx(ctx context.Context, fn func(tx ports.VoteTx) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.conflictsLeft > 0 {
		f.conflictsLeft--
		return fmt.Errorf("%w: deadlock detected", domain.ErrTxConflict)
	}

	snapVotes := make(map[string]*domain.Vote, len(f.votes))
	for k, v := range f.votes {
		snapVotes[k] = v
	}
	snapCounts := make(map[uuid.UUID]int64, len(f.options))
	for id, opt := range f.options {
		snapCounts[id] = opt.VoteCount
	}
	snapBalances := make(map[uuid.UUID]decimal.Decimal, len(f.users))
	for id, u := range f.users {
		snapBalances[id] = u.Balance
	}

	if err := fn(&fakeVoteTx{store: f}); err != nil {
		f.votes = snapVotes
		for id, count := range snapCounts {
			f.options[id].VoteCount = count
		}
		for id, balance := range snapBalances {
			f.users[id].Balance = balance
		}
		return err
	}
	return nil
}

func (f *fakeVoteStore) HasVoted(ctx context.Context, userID, pollID uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.votes[voteKey(userID, pollID)]
	return ok, nil
}

func (f *fakeVoteStore) ListVotedPollIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []uuid.UUID
	for _, v := range f.votes {
		if v.UserID == userID {
			ids = append(ids, v.PollID)
		}
	}
	return ids, nil
}

func (f *fakeVoteStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.VoteSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.VoteSummary
	for _, v := range f.votes {
		if v.UserID != userID {
			continue
		}
		out = append(out, &domain.VoteSummary{
			ID:           v.ID,
			PollID:       v.PollID,
			Question:     f.polls[v.PollID].Question,
			OptionText:   f.options[v.PollOptionID].Text,
			RewardAmount: v.RewardAmount,
			VotedAt:      v.CreatedAt,
		})
	}
	return out, nil
}

type fakeVoteTx struct {
	store *fakeVoteStore
}

func (t *fakeVoteTx) FindVotablePoll(ctx context.Context, pollID uuid.UUID, now time.Time) (*domain.Poll, error) {
	poll, ok := t.store.polls[pollID]
	if !ok || !poll.IsVotable(now) {
		return nil, nil
	}
	return poll, nil
}

func (t *fakeVoteTx) FindOption(ctx context.Context, optionID, pollID uuid.UUID) (*domain.PollOption, error) {
	opt, ok := t.store.options[optionID]
	if !ok || opt.PollID != pollID {
		return nil, nil
	}
	return opt, nil
}

func (t *fakeVoteTx) FindVote(ctx context.Context, userID, pollID uuid.UUID) (*domain.Vote, error) {
	vote, ok := t.store.votes[voteKey(userID, pollID)]
	if !ok {
		return nil, nil
	}
	return vote, nil
}

func (t *fakeVoteTx) InsertVote(ctx context.Context, vote *domain.Vote) error {
	key := voteKey(vote.UserID, vote.PollID)
	if _, ok := t.store.votes[key]; ok {
		return domain.ErrAlreadyVoted
	}
	if _, ok := t.store.users[vote.UserID]; !ok {
		return domain.ErrUserNotFound
	}
	t.store.votes[key] = vote
	return nil
}

func (t *fakeVoteTx) IncrementOptionVoteCount(ctx context.Context, optionID uuid.UUID, by int64) error {
	t.store.options[optionID].VoteCount += by
	return nil
}

func (t *fakeVoteTx) IncrementUserBalance(ctx context.Context, userID uuid.UUID, by decimal.Decimal) error {
	user, ok := t.store.users[userID]
	if !ok {
		return domain.ErrUserNotFound
	}
	user.Balance = user.Balance.Add(by)
	return nil
}

type voteFixture struct {
	store *fakeVoteStore
	svc   ports.VoteService
	user  *domain.User
	poll  *domain.Poll
	opt1  *domain.PollOption
	opt2  *domain.PollOption
}

func newVoteFixture(t *testing.T) *voteFixture {
	t.Helper()
	store := newFakeVoteStore()

	user := &domain.User{ID: uuid.New(), Balance: decimal.RequireFromString("10.00")}
	store.users[user.ID] = user

	poll := &domain.Poll{
		ID:       uuid.New(),
		Question: "Which feature should we ship next?",
		Reward:   decimal.RequireFromString("2.50"),
		IsActive: true,
		EndsAt:   time.Now().Add(24 * time.Hour),
	}
	store.polls[poll.ID] = poll

	opt1 := &domain.PollOption{ID: uuid.New(), PollID: poll.ID, Text: "Dark mode", VoteCount: 3}
	opt2 := &domain.PollOption{ID: uuid.New(), PollID: poll.ID, Text: "Offline sync", VoteCount: 5}
	store.options[opt1.ID] = opt1
	store.options[opt2.ID] = opt2

	return &voteFixture{
		store: store,
		svc:   NewVoteService(store, zap.NewNop()),
		user:  user,
		poll:  poll,
		opt1:  opt1,
		opt2:  opt2,
	}
}

func (f *voteFixture) cast(optionID uuid.UUID) error {
	return f.svc.CastVote(context.Background(), ports.CastVoteInput{
		UserID:   f.user.ID,
		PollID:   f.poll.ID,
		OptionID: optionID,
	})
}

func TestCastVote(t *testing.T) {
	f := newVoteFixture(t)

	require.NoError(t, f.cast(f.opt1.ID))

	assert.Equal(t, int64(4), f.opt1.VoteCount)
	assert.Equal(t, int64(5), f.opt2.VoteCount)
	assert.True(t, f.user.Balance.Equal(decimal.RequireFromString("12.50")),
		"balance is %s", f.user.Balance)

	vote := f.store.votes[voteKey(f.user.ID, f.poll.ID)]
	require.NotNil(t, vote)
	assert.Equal(t, f.opt1.ID, vote.PollOptionID)
	assert.True(t, vote.RewardAmount.Equal(decimal.RequireFromString("2.50")))
}

func TestCastVoteRejectsSecondVote(t *testing.T) {
	f := newVoteFixture(t)

	require.NoError(t, f.cast(f.opt1.ID))

	// Repeated attempts never change state, on either option.
	assert.ErrorIs(t, f.cast(f.opt1.ID), domain.ErrAlreadyVoted)
	assert.ErrorIs(t, f.cast(f.opt2.ID), domain.ErrAlreadyVoted)

	assert.Equal(t, int64(4), f.opt1.VoteCount)
	assert.Equal(t, int64(5), f.opt2.VoteCount)
	assert.True(t, f.user.Balance.Equal(decimal.RequireFromString("12.50")))
}

func TestCastVotePollNotVotable(t *testing.T) {
	t.Run("inactive", func(t *testing.T) {
		f := newVoteFixture(t)
		f.poll.IsActive = false

		assert.ErrorIs(t, f.cast(f.opt1.ID), domain.ErrPollNotVotable)
		assert.Equal(t, int64(3), f.opt1.VoteCount)
		assert.True(t, f.user.Balance.Equal(decimal.RequireFromString("10.00")))
	})

	t.Run("expired", func(t *testing.T) {
		f := newVoteFixture(t)
		f.poll.EndsAt = time.Now().Add(-time.Minute)

		assert.ErrorIs(t, f.cast(f.opt1.ID), domain.ErrPollNotVotable)
		assert.Empty(t, f.store.votes)
	})

	t.Run("unknown poll", func(t *testing.T) {
		f := newVoteFixture(t)
		err := f.svc.CastVote(context.Background(), ports.CastVoteInput{
			UserID:   f.user.ID,
			PollID:   uuid.New(),
			OptionID: f.opt1.ID,
		})
		assert.ErrorIs(t, err, domain.ErrPollNotVotable)
	})
}

func TestCastVoteInvalidOption(t *testing.T) {
	f := newVoteFixture(t)

	// Option belonging to another poll is rejected even though it exists.
	otherPoll := &domain.Poll{ID: uuid.New(), IsActive: true, EndsAt: time.Now().Add(time.Hour)}
	f.store.polls[otherPoll.ID] = otherPoll
	foreignOpt := &domain.PollOption{ID: uuid.New(), PollID: otherPoll.ID, Text: "Elsewhere"}
	f.store.options[foreignOpt.ID] = foreignOpt

	assert.ErrorIs(t, f.cast(foreignOpt.ID), domain.ErrInvalidOption)
	assert.ErrorIs(t, f.cast(uuid.New()), domain.ErrInvalidOption)
	assert.Empty(t, f.store.votes)
}

func TestCastVoteUserNotFound(t *testing.T) {
	f := newVoteFixture(t)

	err := f.svc.CastVote(context.Background(), ports.CastVoteInput{
		UserID:   uuid.New(),
		PollID:   f.poll.ID,
		OptionID: f.opt1.ID,
	})
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
	assert.Equal(t, int64(3), f.opt1.VoteCount)
	assert.Empty(t, f.store.votes)
}

func TestCastVoteRetriesConflicts(t *testing.T) {
	f := newVoteFixture(t)
	f.store.conflictsLeft = 2

	require.NoError(t, f.cast(f.opt1.ID))
	assert.Equal(t, int64(4), f.opt1.VoteCount)
	assert.True(t, f.user.Balance.Equal(decimal.RequireFromString("12.50")))
}

func TestCastVoteGivesUpAfterBoundedRetries(t *testing.T) {
	f := newVoteFixture(t)
	f.store.conflictsLeft = maxCastAttempts

	err := f.cast(f.opt1.ID)
	assert.ErrorIs(t, err, domain.ErrTransactionFailed)
	assert.Equal(t, int64(3), f.opt1.VoteCount)
	assert.True(t, f.user.Balance.Equal(decimal.RequireFromString("10.00")))
	assert.Empty(t, f.store.votes)
}

func TestCastVoteConcurrentDuplicates(t *testing.T) {
	f := newVoteFixture(t)

	const attempts = 10
	results := make(chan error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- f.cast(f.opt1.ID)
		}()
	}
	wg.Wait()
	close(results)

	var successes, rejections int
	for err := range results {
		switch {
		case err == nil:
			successes++
		default:
			assert.ErrorIs(t, err, domain.ErrAlreadyVoted)
			rejections++
		}
	}

	assert.Equal(t, 1, successes)
	assert.Equal(t, attempts-1, rejections)
	assert.Equal(t, int64(4), f.opt1.VoteCount)
	assert.True(t, f.user.Balance.Equal(decimal.RequireFromString("12.50")))
}

func TestCastVoteCrossPollIndependence(t *testing.T) {
	f := newVoteFixture(t)

	second := &domain.Poll{
		ID:       uuid.New(),
		Question: "Best release day?",
		Reward:   decimal.RequireFromString("1.25"),
		IsActive: true,
		EndsAt:   time.Now().Add(time.Hour),
	}
	f.store.polls[second.ID] = second
	secondOpt := &domain.PollOption{ID: uuid.New(), PollID: second.ID, Text: "Tuesday"}
	f.store.options[secondOpt.ID] = secondOpt

	require.NoError(t, f.cast(f.opt1.ID))
	require.NoError(t, f.svc.CastVote(context.Background(), ports.CastVoteInput{
		UserID:   f.user.ID,
		PollID:   second.ID,
		OptionID: secondOpt.ID,
	}))

	// 10.00 + 2.50 + 1.25
	assert.True(t, f.user.Balance.Equal(decimal.RequireFromString("13.75")),
		"balance is %s", f.user.Balance)
}

func TestListMyVotes(t *testing.T) {
	f := newVoteFixture(t)
	require.NoError(t, f.cast(f.opt1.ID))

	votes, err := f.svc.ListMyVotes(context.Background(), f.user.ID)
	require.NoError(t, err)
	require.Len(t, votes, 1)
	assert.Equal(t, "Which feature should we ship next?", votes[0].Question)
	assert.Equal(t, "Dark mode", votes[0].OptionText)
	assert.True(t, votes[0].RewardAmount.Equal(decimal.RequireFromString("2.50")))
}
