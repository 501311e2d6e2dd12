package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// UserProfile is the owner side of the income/ownership lookup. The engine
// treats it as a read-mostly collaborator: cards reference profiles by ID.
type UserProfile struct {
	ID           uuid.UUID       `json:"id" db:"id"`
	Email        string          `json:"email" db:"email"`
	FullName     string          `json:"full_name" db:"full_name"`
	AnnualIncome decimal.Decimal `json:"annual_income" db:"annual_income"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
}

// DTOs

type CreateUserRequest struct {
	Email        string          `json:"email" validate:"required,email"`
	FullName     string          `json:"full_name" validate:"required"`
	AnnualIncome decimal.Decimal `json:"annual_income" validate:"required"`
}
