package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/zetacard/bnpl-engine/internal/domain"
)

type cardRepository struct {
	db *sqlx.DB
}

func NewCardRepository(db *sqlx.DB) CardRepository {
	return &cardRepository{db: db}
}

func (r *cardRepository) WithTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *cardRepository) Create(ctx context.Context, card *domain.Card) error {
	query := `
		INSERT INTO cards (id, card_number, card_type, status, credit_limit, available_limit,
			expiry_date, expiry_month, expiry_year, cvv, application_id, user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := r.db.ExecContext(ctx, query,
		card.ID,
		card.CardNumber,
		card.CardType,
		card.Status,
		card.CreditLimit,
		card.AvailableLimit,
		card.ExpiryDate,
		card.ExpiryMonth,
		card.ExpiryYear,
		card.CVV,
		card.ApplicationID,
		card.UserID,
		card.CreatedAt,
		card.UpdatedAt,
	)

	return err
}

func (r *cardRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Card, error) {
	query := `
		SELECT id, card_number, card_type, status, credit_limit, available_limit,
			expiry_date, expiry_month, expiry_year, cvv, application_id, user_id, created_at, updated_at
		FROM cards
		WHERE id = $1
	`

	var card domain.Card
	err := r.db.GetContext(ctx, &card, query, id)
	if err != nil {
		return nil, err
	}

	return &card, nil
}

func (r *cardRepository) GetByIDForUpdate(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*domain.Card, error) {
	query := `
		SELECT id, card_number, card_type, status, credit_limit, available_limit,
			expiry_date, expiry_month, expiry_year, cvv, application_id, user_id, created_at, updated_at
		FROM cards
		WHERE id = $1
		FOR UPDATE
	`

	var card domain.Card
	err := tx.GetContext(ctx, &card, query, id)
	if err != nil {
		return nil, err
	}

	return &card, nil
}

func (r *cardRepository) GetByUserID(ctx context.Context, userID uuid.UUID) ([]*domain.Card, error) {
	query := `
		SELECT id, card_number, card_type, status, credit_limit, available_limit,
			expiry_date, expiry_month, expiry_year, cvv, application_id, user_id, created_at, updated_at
		FROM cards
		WHERE user_id = $1
		ORDER BY created_at
	`

	var cards []*domain.Card
	err := r.db.SelectContext(ctx, &cards, query, userID)
	if err != nil {
		return nil, err
	}

	return cards, nil
}

func (r *cardRepository) GetByDetails(ctx context.Context, number, cvv, expiryMonth, expiryYear, ownerEmail string) (*domain.Card, error) {
	query := `
		SELECT c.id, c.card_number, c.card_type, c.status, c.credit_limit, c.available_limit,
			c.expiry_date, c.expiry_month, c.expiry_year, c.cvv, c.application_id, c.user_id, c.created_at, c.updated_at
		FROM cards c
		JOIN user_profiles u ON u.id = c.user_id
		WHERE c.card_number = $1 AND c.cvv = $2 AND c.expiry_month = $3 AND c.expiry_year = $4 AND u.email = $5
	`

	var card domain.Card
	err := r.db.GetContext(ctx, &card, query, number, cvv, expiryMonth, expiryYear, ownerEmail)
	if err != nil {
		return nil, err
	}

	return &card, nil
}

func (r *cardRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	query := `
		UPDATE cards
		SET status = $2, updated_at = $3
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query, id, status, time.Now())
	return err
}

func (r *cardRepository) UpdateLimitsTx(ctx context.Context, tx *sqlx.Tx, card *domain.Card) error {
	query := `
		UPDATE cards
		SET credit_limit = $2, available_limit = $3, updated_at = $4
		WHERE id = $1
	`

	_, err := tx.ExecContext(ctx, query, card.ID, card.CreditLimit, card.AvailableLimit, time.Now())
	return err
}

func (r *cardRepository) DebitAvailableLimitTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, amount decimal.Decimal) error {
	query := `
		UPDATE cards
		SET available_limit = available_limit - $2, updated_at = $3
		WHERE id = $1
	`

	_, err := tx.ExecContext(ctx, query, id, amount, time.Now())
	return err
}
