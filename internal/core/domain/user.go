package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Role string

const (
	RoleUser   Role = "user"
	RoleAdmin  Role = "admin"
	RoleVendor Role = "vendor"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin || r == RoleVendor
}

// CanCreatePolls reports whether users with this role may create and fund polls.
func (r Role) CanCreatePolls() bool {
	return r == RoleAdmin || r == RoleVendor
}

type User struct {
	ID        uuid.UUID       `json:"id"`
	Username  string          `json:"username"`
	Email     string          `json:"email"`
	Password  string          `json:"-"`
	Role      Role            `json:"role"`
	Balance   decimal.Decimal `json:"balance"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
