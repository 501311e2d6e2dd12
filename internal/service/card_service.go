package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/zetacard/bnpl-engine/internal/domain"
	"github.com/zetacard/bnpl-engine/internal/repository"
	customError "github.com/zetacard/bnpl-engine/pkg/errors"
	"github.com/zetacard/bnpl-engine/pkg/utils"
)

type CardService struct {
	cardRepo        repository.CardRepository
	transactionRepo repository.TransactionRepository
	userRepo        repository.UserRepository
}

func NewCardService(
	cardRepo repository.CardRepository,
	transactionRepo repository.TransactionRepository,
	userRepo repository.UserRepository,
) *CardService {
	return &CardService{
		cardRepo:        cardRepo,
		transactionRepo: transactionRepo,
		userRepo:        userRepo,
	}
}

// GetCards lists the caller's cards.
func (s *CardService) GetCards(ctx context.Context, email string) ([]*domain.Card, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, customError.WrapNotFound("User")
		}
		return nil, customError.WrapDatabaseError(err)
	}

	cards, err := s.cardRepo.GetByUserID(ctx, user.ID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	return cards, nil
}

// GetCard fetches a card, enforcing ownership.
func (s *CardService) GetCard(ctx context.Context, email string, cardID uuid.UUID) (*domain.Card, error) {
	card, err := s.cardRepo.GetByID(ctx, cardID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, customError.WrapNotFound("Card")
		}
		return nil, customError.WrapDatabaseError(err)
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, customError.WrapNotFound("User")
		}
		return nil, customError.WrapDatabaseError(err)
	}

	if card.UserID != user.ID {
		return nil, customError.WrapUnauthorized("card")
	}

	return card, nil
}

// UpdateStatus sets a card's status (ACTIVE/BLOCKED).
func (s *CardService) UpdateStatus(ctx context.Context, email string, cardID uuid.UUID, status string) (*domain.Card, error) {
	card, err := s.GetCard(ctx, email, cardID)
	if err != nil {
		return nil, err
	}

	newStatus := domain.CardStatusBlocked
	if status == domain.CardStatusActive || status == "active" {
		newStatus = domain.CardStatusActive
	}

	if err = s.cardRepo.UpdateStatus(ctx, cardID, newStatus); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	card.Status = newStatus
	return card, nil
}

// ChangeLimit resizes a card's credit limit.
//
// Increases must pass the approval policy at the new limit and the card must
// have been used at least once. Decreases may not go below the network's
// income floor, nor below the amount already spent (that would leave the
// available limit negative). On success the spent amount is preserved:
// availableLimit moves by the same delta as creditLimit.
//
// The resize runs against the locked card row so a purchase authorized
// between read and write cannot have its debit overwritten.
func (s *CardService) ChangeLimit(ctx context.Context, email string, cardID uuid.UUID, newLimit decimal.Decimal) (*domain.Card, error) {
	if !newLimit.IsPositive() {
		return nil, customError.WrapInvalidLimitChange("New limit must be greater than 0")
	}

	// Ownership and income are stable; check them before taking the lock.
	card, err := s.GetCard(ctx, email, cardID)
	if err != nil {
		return nil, err
	}

	owner, err := s.userRepo.GetByID(ctx, card.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, customError.WrapNotFound("User")
		}
		return nil, customError.WrapDatabaseError(err)
	}

	var updated *domain.Card
	err = s.cardRepo.WithTx(ctx, func(tx *sqlx.Tx) error {
		locked, err := s.cardRepo.GetByIDForUpdate(ctx, tx, cardID)
		if err != nil {
			return err
		}

		currentLimit := locked.CreditLimit

		if newLimit.Equal(currentLimit) {
			updated = locked
			return nil
		}

		if newLimit.GreaterThan(currentLimit) {
			status := utils.DetermineApplicationStatus(owner.AnnualIncome, locked.CardType, newLimit)
			if status != domain.ApplicationStatusApproved {
				return customError.WrapInvalidLimitChange("Requested credit limit is not eligible: " + status)
			}

			// Usage gate: zero-usage accounts may not raise their limit.
			count, err := s.transactionRepo.CountByCardID(ctx, cardID)
			if err != nil {
				return err
			}
			if count < 1 {
				return customError.WrapInvalidLimitChange(fmt.Sprintf("Card usage is too low: only %d transactions found", count))
			}
		} else {
			minAllowed := utils.MinAllowedLimit(owner.AnnualIncome, locked.CardType)
			if newLimit.LessThan(minAllowed) {
				return customError.WrapInvalidLimitChange("Requested limit is below minimum allowed: " + minAllowed.StringFixed(2))
			}

			if newLimit.LessThan(locked.SpentAmount()) {
				return customError.WrapInvalidLimitChange("Requested limit is below the amount already spent: " + locked.SpentAmount().StringFixed(2))
			}
		}

		locked.AvailableLimit = locked.AvailableLimit.Add(newLimit.Sub(currentLimit))
		locked.CreditLimit = newLimit

		if err := s.cardRepo.UpdateLimitsTx(ctx, tx, locked); err != nil {
			return err
		}

		updated = locked
		return nil
	})
	if err != nil {
		var bizErr *customError.BusinessError
		if errors.As(err, &bizErr) {
			return nil, err
		}
		return nil, customError.WrapDatabaseError(err)
	}

	return updated, nil
}

// ValidateOwnership checks that the caller owns the card.
func (s *CardService) ValidateOwnership(ctx context.Context, email string, cardID uuid.UUID) error {
	_, err := s.GetCard(ctx, email, cardID)
	return err
}
