package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/zetacard/bnpl-engine/internal/domain"
)

type transactionRepository struct {
	db *sqlx.DB
}

func NewTransactionRepository(db *sqlx.DB) TransactionRepository {
	return &transactionRepository{db: db}
}

func (r *transactionRepository) CreateTx(ctx context.Context, tx *sqlx.Tx, transaction *domain.Transaction) error {
	query := `
		INSERT INTO transactions (id, card_id, amount, category, merchant_name, transaction_date, is_bnpl, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := tx.ExecContext(ctx, query,
		transaction.ID,
		transaction.CardID,
		transaction.Amount,
		transaction.Category,
		transaction.MerchantName,
		transaction.TransactionDate,
		transaction.IsBNPL,
		transaction.Status,
		transaction.CreatedAt,
	)

	return err
}

func (r *transactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	query := `
		SELECT id, card_id, amount, category, merchant_name, transaction_date, is_bnpl, status, created_at
		FROM transactions
		WHERE id = $1
	`

	var transaction domain.Transaction
	err := r.db.GetContext(ctx, &transaction, query, id)
	if err != nil {
		return nil, err
	}

	return &transaction, nil
}

func (r *transactionRepository) GetByCardID(ctx context.Context, cardID uuid.UUID) ([]*domain.Transaction, error) {
	query := `
		SELECT id, card_id, amount, category, merchant_name, transaction_date, is_bnpl, status, created_at
		FROM transactions
		WHERE card_id = $1
		ORDER BY transaction_date, created_at
	`

	var transactions []*domain.Transaction
	err := r.db.SelectContext(ctx, &transactions, query, cardID)
	if err != nil {
		return nil, err
	}

	return transactions, nil
}

func (r *transactionRepository) CountByCardID(ctx context.Context, cardID uuid.UUID) (int64, error) {
	query := `SELECT COUNT(*) FROM transactions WHERE card_id = $1`

	var count int64
	err := r.db.GetContext(ctx, &count, query, cardID)
	if err != nil {
		return 0, err
	}

	return count, nil
}

func (r *transactionRepository) Update(ctx context.Context, transaction *domain.Transaction) error {
	query := `
		UPDATE transactions
		SET amount = $2, category = $3, merchant_name = $4, transaction_date = $5, is_bnpl = $6, status = $7
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query,
		transaction.ID,
		transaction.Amount,
		transaction.Category,
		transaction.MerchantName,
		transaction.TransactionDate,
		transaction.IsBNPL,
		transaction.Status,
	)

	return err
}

func (r *transactionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	// Installments are children of the transaction and go with it.
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err = tx.ExecContext(ctx, `DELETE FROM bnpl_installments WHERE transaction_id = $1`, id); err != nil {
		return err
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM transactions WHERE id = $1`, id); err != nil {
		return err
	}

	return tx.Commit()
}
