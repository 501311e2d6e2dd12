package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	TransactionStatusCompleted = "Completed"
	TransactionStatusPending   = "Pending"
)

// Supported BNPL tenors in months. TWELVE exists as a plan but the engine
// rejects it: a deliberate product rule, not an oversight.
const (
	PlanThreeMonths  = 3
	PlanSixMonths    = 6
	PlanNineMonths   = 9
	PlanTwelveMonths = 12
)

// IsSupportedPlan reports whether the engine accepts a tenor for new
// BNPL transactions.
func IsSupportedPlan(months int) bool {
	switch months {
	case PlanThreeMonths, PlanSixMonths, PlanNineMonths:
		return true
	default:
		return false
	}
}

// Transaction is a single authorized purchase against a card. Created
// atomically with the availableLimit debit.
type Transaction struct {
	ID              uuid.UUID       `json:"id" db:"id"`
	CardID          uuid.UUID       `json:"card_id" db:"card_id"`
	Amount          decimal.Decimal `json:"amount" db:"amount"`
	Category        string          `json:"category" db:"category"`
	MerchantName    string          `json:"merchant_name" db:"merchant_name"`
	TransactionDate time.Time       `json:"transaction_date" db:"transaction_date"`
	IsBNPL          bool            `json:"is_bnpl" db:"is_bnpl"`
	Status          string          `json:"status" db:"status"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
}

// DTOs

type CreateTransactionRequest struct {
	CardNumber   string          `json:"card_number" validate:"required"`
	CVV          string          `json:"cvv" validate:"required"`
	ExpiryMonth  string          `json:"expiry_month" validate:"required,len=2"`
	ExpiryYear   string          `json:"expiry_year" validate:"required,len=2"`
	Amount       decimal.Decimal `json:"amount" validate:"required"`
	Category     string          `json:"category"`
	MerchantName string          `json:"merchant_name"`
}

type UpdateTransactionRequest struct {
	Amount          decimal.Decimal `json:"amount" validate:"required"`
	Category        string          `json:"category"`
	MerchantName    string          `json:"merchant_name"`
	TransactionDate *time.Time      `json:"transaction_date,omitempty"`
	Status          string          `json:"status"`
	IsBNPL          bool            `json:"is_bnpl"`
}

type TransactionResponse struct {
	Transaction  *Transaction   `json:"transaction"`
	Installments []*Installment `json:"installments,omitempty"`
}
