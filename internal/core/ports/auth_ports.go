package ports

import (
	"context"

	"github.com/vote2earn/api/internal/core/domain"
)

type RegisterInput struct {
	Username string
	Email    string
	Password string
}

type AuthService interface {
	// Register creates a user with the default role and a zero balance,
	// returning the user and a signed access token.
	Register(ctx context.Context, input RegisterInput) (*domain.User, string, error)
	Login(ctx context.Context, email, password string) (*domain.User, string, error)
}
