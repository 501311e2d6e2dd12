package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	CardStatusActive  = "ACTIVE"
	CardStatusBlocked = "BLOCKED"
)

// Card represents an issued credit card. The invariant
// 0 <= AvailableLimit <= CreditLimit holds after every committed operation.
type Card struct {
	ID             uuid.UUID       `json:"id" db:"id"`
	CardNumber     string          `json:"card_number" db:"card_number"`
	CardType       CardNetwork     `json:"card_type" db:"card_type"`
	Status         string          `json:"status" db:"status"`
	CreditLimit    decimal.Decimal `json:"credit_limit" db:"credit_limit"`
	AvailableLimit decimal.Decimal `json:"available_limit" db:"available_limit"`
	ExpiryDate     time.Time       `json:"expiry_date" db:"expiry_date"`
	ExpiryMonth    string          `json:"expiry_month" db:"expiry_month"`
	ExpiryYear     string          `json:"expiry_year" db:"expiry_year"`
	CVV            string          `json:"-" db:"cvv"`
	ApplicationID  uuid.UUID       `json:"application_id" db:"application_id"`
	UserID         uuid.UUID       `json:"user_id" db:"user_id"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at" db:"updated_at"`
}

// IsActive reports whether the card can authorize new spend.
func (c *Card) IsActive() bool {
	return c.Status == CardStatusActive
}

// SpentAmount is the committed spend currently held against the limit.
func (c *Card) SpentAmount() decimal.Decimal {
	return c.CreditLimit.Sub(c.AvailableLimit)
}

// DTOs

type UpdateCardStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=ACTIVE BLOCKED active blocked"`
}

type UpdateCardLimitRequest struct {
	NewLimit decimal.Decimal `json:"new_limit" validate:"required"`
}

type ValidateCardRequest struct {
	CardNumber  string           `json:"card_number" validate:"required"`
	CVV         string           `json:"cvv" validate:"required"`
	ExpiryMonth string           `json:"expiry_month" validate:"required,len=2"`
	ExpiryYear  string           `json:"expiry_year" validate:"required,len=2"`
	Amount      *decimal.Decimal `json:"amount,omitempty"`
}

type ValidateCardResponse struct {
	Valid bool `json:"valid"`
}
