package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vote2earn/api/internal/core/domain"
	"github.com/vote2earn/api/internal/core/ports"
)

type userService struct {
	repo ports.UserRepository
}

func NewUserService(repo ports.UserRepository) ports.UserService {
	return &userService{
		repo: repo,
	}
}

func (s *userService) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	return user, nil
}

// GrantCredit uses the same atomic-increment primitive as the vote
// credit, so concurrent grants never lose updates.
func (s *userService) GrantCredit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, errors.New("amount must be positive")
	}

	if err := s.repo.CreditBalance(ctx, userID, amount); err != nil {
		return decimal.Zero, err
	}

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to reload user: %w", err)
	}
	if user == nil {
		return decimal.Zero, domain.ErrUserNotFound
	}
	return user.Balance, nil
}

func (s *userService) Delete(ctx context.Context, id uuid.UUID) error {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return domain.ErrUserNotFound
	}
	return s.repo.Delete(ctx, id)
}
