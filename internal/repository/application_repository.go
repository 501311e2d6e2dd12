package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/zetacard/bnpl-engine/internal/domain"
)

type applicationRepository struct {
	db *sqlx.DB
}

func NewApplicationRepository(db *sqlx.DB) ApplicationRepository {
	return &applicationRepository{db: db}
}

func (r *applicationRepository) Create(ctx context.Context, application *domain.CardApplication) error {
	query := `
		INSERT INTO card_applications (id, user_id, card_type, requested_limit, annual_income, status, application_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.ExecContext(ctx, query,
		application.ID,
		application.UserID,
		application.CardType,
		application.RequestedLimit,
		application.AnnualIncome,
		application.Status,
		application.ApplicationDate,
		application.CreatedAt,
	)

	return err
}

func (r *applicationRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.CardApplication, error) {
	query := `
		SELECT id, user_id, card_type, requested_limit, annual_income, status, application_date, created_at
		FROM card_applications
		WHERE id = $1
	`

	var application domain.CardApplication
	err := r.db.GetContext(ctx, &application, query, id)
	if err != nil {
		return nil, err
	}

	return &application, nil
}

func (r *applicationRepository) GetByUserID(ctx context.Context, userID uuid.UUID) ([]*domain.CardApplication, error) {
	query := `
		SELECT id, user_id, card_type, requested_limit, annual_income, status, application_date, created_at
		FROM card_applications
		WHERE user_id = $1
		ORDER BY application_date
	`

	var applications []*domain.CardApplication
	err := r.db.SelectContext(ctx, &applications, query, userID)
	if err != nil {
		return nil, err
	}

	return applications, nil
}

func (r *applicationRepository) Update(ctx context.Context, application *domain.CardApplication) error {
	query := `
		UPDATE card_applications
		SET card_type = $2, requested_limit = $3, status = $4
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query,
		application.ID,
		application.CardType,
		application.RequestedLimit,
		application.Status,
	)

	return err
}

func (r *applicationRepository) Exists(ctx context.Context, userID uuid.UUID, cardType domain.CardNetwork, requestedLimit decimal.Decimal) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM card_applications
			WHERE user_id = $1 AND card_type = $2 AND requested_limit = $3
		)
	`

	var exists bool
	err := r.db.GetContext(ctx, &exists, query, userID, cardType, requestedLimit)
	if err != nil {
		return false, err
	}

	return exists, nil
}
