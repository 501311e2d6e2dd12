package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Installment is one row of a BNPL schedule. TransactionID and
// InstallmentNumber never change after creation; the only normal-flow
// mutation is the one-way unpaid -> paid transition.
type Installment struct {
	ID                uuid.UUID       `json:"id" db:"id"`
	TransactionID     uuid.UUID       `json:"transaction_id" db:"transaction_id"`
	InstallmentNumber int             `json:"installment_number" db:"installment_number"`
	Amount            decimal.Decimal `json:"amount" db:"amount"`
	DueDate           *time.Time      `json:"due_date" db:"due_date"`
	IsPaid            bool            `json:"is_paid" db:"is_paid"`
	CreatedAt         time.Time       `json:"created_at" db:"created_at"`
}

// IsOverdue reports whether the installment is unpaid and past due as of the
// given date.
func (i *Installment) IsOverdue(asOf time.Time) bool {
	if i.IsPaid || i.DueDate == nil {
		return false
	}
	return i.DueDate.Before(asOf)
}

// DTOs

type PayInstallmentRequest struct {
	Amount decimal.Decimal `json:"amount" validate:"required"`
}

type CreateInstallmentRequest struct {
	TransactionID     uuid.UUID       `json:"transaction_id" validate:"required"`
	InstallmentNumber int             `json:"installment_number" validate:"required,gt=0"`
	Amount            decimal.Decimal `json:"amount" validate:"required"`
	DueDate           *time.Time      `json:"due_date" validate:"required"`
	IsPaid            bool            `json:"is_paid"`
}

type UpdateInstallmentRequest struct {
	Amount  *decimal.Decimal `json:"amount,omitempty"`
	DueDate *time.Time       `json:"due_date,omitempty"`
	IsPaid  *bool            `json:"is_paid,omitempty"`
}

type InstallmentResponse struct {
	Installment *Installment    `json:"installment"`
	LateFee     decimal.Decimal `json:"late_fee"`
}

type CardLateFeeResponse struct {
	CardID   uuid.UUID       `json:"card_id"`
	AsOf     time.Time       `json:"as_of"`
	TotalFee decimal.Decimal `json:"total_late_fee"`
	Overdue  int             `json:"overdue_installments"`
}
