package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vote2earn/api/internal/core/domain"
	"github.com/vote2earn/api/internal/core/ports"
)

const voteUniqueConstraint = "votes_user_id_poll_id_key"

type voteRepository struct {
	db *sql.DB
}

func NewVoteRepository(db *sql.DB) ports.VoteRepository {
	return &voteRepository{
		db: db,
	}
}

// InTx runs fn inside one transaction. Storage-level conflicts are
// wrapped in domain.ErrTxConflict so the caller can tell a retryable
// failure from a business rejection.
func (r *voteRepository) InTx(ctx context.Context, fn func(tx ports.VoteTx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&voteTx{tx: tx}); err != nil {
		if isTxConflict(err) {
			return fmt.Errorf("%w: %v", domain.ErrTxConflict, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		if isTxConflict(err) {
			return fmt.Errorf("%w: %v", domain.ErrTxConflict, err)
		}
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (r *voteRepository) HasVoted(ctx context.Context, userID, pollID uuid.UUID) (bool, error) {
	query := `SELECT 1 FROM votes WHERE user_id = $1 AND poll_id = $2 LIMIT 1`
	var exists int
	err := r.db.QueryRowContext(ctx, query, userID, pollID).Scan(&exists)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check existing vote: %w", err)
	}
	return true, nil
}

func (r *voteRepository) ListVotedPollIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	query := `SELECT poll_id FROM votes WHERE user_id = $1`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list voted polls: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan poll id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating voted polls: %w", err)
	}
	return ids, nil
}

func (r *voteRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.VoteSummary, error) {
	query := `
		SELECT v.id, v.poll_id, p.question, o.text, v.reward_amount, v.created_at
		FROM votes v
		JOIN polls p ON p.id = v.poll_id
		JOIN poll_options o ON o.id = v.poll_option_id
		WHERE v.user_id = $1
		ORDER BY v.created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list votes: %w", err)
	}
	defer rows.Close()

	var votes []*domain.VoteSummary
	for rows.Next() {
		var v domain.VoteSummary
		if err := rows.Scan(&v.ID, &v.PollID, &v.Question, &v.OptionText, &v.RewardAmount, &v.VotedAt); err != nil {
			return nil, fmt.Errorf("failed to scan vote: %w", err)
		}
		votes = append(votes, &v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating votes: %w", err)
	}
	return votes, nil
}

// voteTx implements ports.VoteTx on a live transaction.
type voteTx struct {
	tx *sql.Tx
}

func (t *voteTx) FindVotablePoll(ctx context.Context, pollID uuid.UUID, now time.Time) (*domain.Poll, error) {
	query := `
		SELECT id, question, description, budget, reward, is_active, ends_at, user_id, created_at, updated_at
		FROM polls
		WHERE id = $1 AND is_active AND ends_at > $2
	`
	var poll domain.Poll
	err := t.tx.QueryRowContext(ctx, query, pollID, now).Scan(
		&poll.ID, &poll.Question, &poll.Description, &poll.Budget, &poll.Reward,
		&poll.IsActive, &poll.EndsAt, &poll.UserID, &poll.CreatedAt, &poll.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get votable poll: %w", err)
	}
	return &poll, nil
}

func (t *voteTx) FindOption(ctx context.Context, optionID, pollID uuid.UUID) (*domain.PollOption, error) {
	query := `
		SELECT id, poll_id, text, vote_count, reward_per_vote, created_at
		FROM poll_options
		WHERE id = $1 AND poll_id = $2
	`
	var opt domain.PollOption
	err := t.tx.QueryRowContext(ctx, query, optionID, pollID).Scan(
		&opt.ID, &opt.PollID, &opt.Text, &opt.VoteCount, &opt.RewardPerVote, &opt.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get option: %w", err)
	}
	return &opt, nil
}

func (t *voteTx) FindVote(ctx context.Context, userID, pollID uuid.UUID) (*domain.Vote, error) {
	query := `
		SELECT id, user_id, poll_id, poll_option_id, reward_amount, created_at
		FROM votes
		WHERE user_id = $1 AND poll_id = $2
	`
	var vote domain.Vote
	err := t.tx.QueryRowContext(ctx, query, userID, pollID).Scan(
		&vote.ID, &vote.UserID, &vote.PollID, &vote.PollOptionID, &vote.RewardAmount, &vote.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get vote: %w", err)
	}
	return &vote, nil
}

func (t *voteTx) InsertVote(ctx context.Context, vote *domain.Vote) error {
	query := `
		INSERT INTO votes (id, user_id, poll_id, poll_option_id, reward_amount, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := t.tx.ExecContext(ctx, query,
		vote.ID, vote.UserID, vote.PollID, vote.PollOptionID, vote.RewardAmount, vote.CreatedAt,
	)
	if err != nil {
		// The unique index is the authoritative one-vote-per-poll guard;
		// a concurrent duplicate surfaces here.
		if isUniqueViolation(err, voteUniqueConstraint) {
			return domain.ErrAlreadyVoted
		}
		if isForeignKeyViolation(err, "votes_user_id_fkey") {
			return domain.ErrUserNotFound
		}
		return fmt.Errorf("failed to insert vote: %w", err)
	}
	return nil
}

func (t *voteTx) IncrementOptionVoteCount(ctx context.Context, optionID uuid.UUID, by int64) error {
	query := `UPDATE poll_options SET vote_count = vote_count + $1, updated_at = NOW() WHERE id = $2`
	_, err := t.tx.ExecContext(ctx, query, by, optionID)
	if err != nil {
		return fmt.Errorf("failed to increment vote count: %w", err)
	}
	return nil
}

func (t *voteTx) IncrementUserBalance(ctx context.Context, userID uuid.UUID, by decimal.Decimal) error {
	query := `UPDATE users SET balance = balance + $1, updated_at = NOW() WHERE id = $2`
	res, err := t.tx.ExecContext(ctx, query, by, userID)
	if err != nil {
		return fmt.Errorf("failed to credit balance: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}
