package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Application decision statuses.
const (
	ApplicationStatusApproved = "APPROVED"
	ApplicationStatusPending  = "PENDING"
	ApplicationStatusRejected = "REJECTED"
)

// CardApplication is a request for a new credit card. The annual income is
// snapshotted from the applicant's profile at application time.
type CardApplication struct {
	ID              uuid.UUID       `json:"id" db:"id"`
	UserID          uuid.UUID       `json:"user_id" db:"user_id"`
	CardType        CardNetwork     `json:"card_type" db:"card_type"`
	RequestedLimit  decimal.Decimal `json:"requested_limit" db:"requested_limit"`
	AnnualIncome    decimal.Decimal `json:"annual_income" db:"annual_income"`
	Status          string          `json:"status" db:"status"`
	ApplicationDate time.Time       `json:"application_date" db:"application_date"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
}

// DTOs

type CreateApplicationRequest struct {
	CardType       string          `json:"card_type" validate:"required"`
	RequestedLimit decimal.Decimal `json:"requested_limit" validate:"required"`
}

type UpdateApplicationRequest struct {
	CardType       string          `json:"card_type" validate:"required"`
	RequestedLimit decimal.Decimal `json:"requested_limit" validate:"required"`
}

type ApplicationResponse struct {
	Application *CardApplication `json:"application"`
	Card        *Card            `json:"card,omitempty"`
}
