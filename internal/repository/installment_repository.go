package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/zetacard/bnpl-engine/internal/domain"
)

type installmentRepository struct {
	db *sqlx.DB
}

func NewInstallmentRepository(db *sqlx.DB) InstallmentRepository {
	return &installmentRepository{db: db}
}

const installmentColumns = `id, transaction_id, installment_number, amount, due_date, is_paid, created_at`

func (r *installmentRepository) CreateBatchTx(ctx context.Context, tx *sqlx.Tx, installments []*domain.Installment) error {
	query := `
		INSERT INTO bnpl_installments (id, transaction_id, installment_number, amount, due_date, is_paid, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	for _, installment := range installments {
		_, err := tx.ExecContext(ctx, query,
			installment.ID,
			installment.TransactionID,
			installment.InstallmentNumber,
			installment.Amount,
			installment.DueDate,
			installment.IsPaid,
			installment.CreatedAt,
		)
		if err != nil {
			return err
		}
	}

	return nil
}

func (r *installmentRepository) Create(ctx context.Context, installment *domain.Installment) error {
	query := `
		INSERT INTO bnpl_installments (id, transaction_id, installment_number, amount, due_date, is_paid, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.ExecContext(ctx, query,
		installment.ID,
		installment.TransactionID,
		installment.InstallmentNumber,
		installment.Amount,
		installment.DueDate,
		installment.IsPaid,
		installment.CreatedAt,
	)

	return err
}

func (r *installmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Installment, error) {
	query := `SELECT ` + installmentColumns + ` FROM bnpl_installments WHERE id = $1`

	var installment domain.Installment
	err := r.db.GetContext(ctx, &installment, query, id)
	if err != nil {
		return nil, err
	}

	return &installment, nil
}

func (r *installmentRepository) GetByTransactionID(ctx context.Context, transactionID uuid.UUID) ([]*domain.Installment, error) {
	query := `
		SELECT ` + installmentColumns + `
		FROM bnpl_installments
		WHERE transaction_id = $1
		ORDER BY installment_number
	`

	var installments []*domain.Installment
	err := r.db.SelectContext(ctx, &installments, query, transactionID)
	if err != nil {
		return nil, err
	}

	return installments, nil
}

func (r *installmentRepository) GetPendingByTransactionID(ctx context.Context, transactionID uuid.UUID) ([]*domain.Installment, error) {
	query := `
		SELECT ` + installmentColumns + `
		FROM bnpl_installments
		WHERE transaction_id = $1 AND is_paid = false
		ORDER BY installment_number
	`

	var installments []*domain.Installment
	err := r.db.SelectContext(ctx, &installments, query, transactionID)
	if err != nil {
		return nil, err
	}

	return installments, nil
}

func (r *installmentRepository) GetOverdueByCardID(ctx context.Context, cardID uuid.UUID, asOf time.Time) ([]*domain.Installment, error) {
	query := `
		SELECT i.id, i.transaction_id, i.installment_number, i.amount, i.due_date, i.is_paid, i.created_at
		FROM bnpl_installments i
		JOIN transactions t ON t.id = i.transaction_id
		WHERE t.card_id = $1 AND i.is_paid = false AND i.due_date < $2
		ORDER BY i.due_date, i.installment_number
	`

	var installments []*domain.Installment
	err := r.db.SelectContext(ctx, &installments, query, cardID, asOf)
	if err != nil {
		return nil, err
	}

	return installments, nil
}

func (r *installmentRepository) ListOverdue(ctx context.Context, asOf time.Time) ([]*domain.Installment, error) {
	query := `
		SELECT ` + installmentColumns + `
		FROM bnpl_installments
		WHERE is_paid = false AND due_date < $1
		ORDER BY due_date
	`

	var installments []*domain.Installment
	err := r.db.SelectContext(ctx, &installments, query, asOf)
	if err != nil {
		return nil, err
	}

	return installments, nil
}

func (r *installmentRepository) MarkPaid(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE bnpl_installments SET is_paid = true WHERE id = $1`

	_, err := r.db.ExecContext(ctx, query, id)
	return err
}

func (r *installmentRepository) Update(ctx context.Context, installment *domain.Installment) error {
	// transaction_id and installment_number are immutable after creation.
	query := `
		UPDATE bnpl_installments
		SET amount = $2, due_date = $3, is_paid = $4
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query,
		installment.ID,
		installment.Amount,
		installment.DueDate,
		installment.IsPaid,
	)

	return err
}

func (r *installmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM bnpl_installments WHERE id = $1`

	_, err := r.db.ExecContext(ctx, query, id)
	return err
}
