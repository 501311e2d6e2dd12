package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/zetacard/bnpl-engine/internal/domain"
	"github.com/zetacard/bnpl-engine/internal/repository"
	customError "github.com/zetacard/bnpl-engine/pkg/errors"
	"github.com/zetacard/bnpl-engine/pkg/utils"
)

// TransactionService is the authorize-and-record engine: it validates a
// card, reserves credit and records the transaction, delegating BNPL
// schedules to the installment split.
type TransactionService struct {
	cardRepo        repository.CardRepository
	transactionRepo repository.TransactionRepository
	installmentRepo repository.InstallmentRepository
	userRepo        repository.UserRepository
	now             func() time.Time
}

func NewTransactionService(
	cardRepo repository.CardRepository,
	transactionRepo repository.TransactionRepository,
	installmentRepo repository.InstallmentRepository,
	userRepo repository.UserRepository,
) *TransactionService {
	return &TransactionService{
		cardRepo:        cardRepo,
		transactionRepo: transactionRepo,
		installmentRepo: installmentRepo,
		userRepo:        userRepo,
		now:             time.Now,
	}
}

// ValidateCard checks card details, status and (optionally) amount headroom
// without recording anything.
func (s *TransactionService) ValidateCard(ctx context.Context, email string, request *domain.ValidateCardRequest) bool {
	card, err := s.cardRepo.GetByDetails(ctx, request.CardNumber, request.CVV, request.ExpiryMonth, request.ExpiryYear, email)
	if err != nil {
		return false
	}

	if !card.IsActive() {
		return false
	}

	if request.Amount != nil && request.Amount.GreaterThan(card.AvailableLimit) {
		return false
	}

	return true
}

// AuthorizeRegular records a regular (non-BNPL) purchase.
func (s *TransactionService) AuthorizeRegular(ctx context.Context, email string, request *domain.CreateTransactionRequest) (*domain.TransactionResponse, error) {
	return s.authorize(ctx, email, request, false, 0)
}

// AuthorizeBNPL records a BNPL purchase with the given tenor in months and
// creates its installment schedule.
func (s *TransactionService) AuthorizeBNPL(ctx context.Context, email string, request *domain.CreateTransactionRequest, months int) (*domain.TransactionResponse, error) {
	return s.authorize(ctx, email, request, true, months)
}

// authorize runs the precondition chain in a fixed order (amount, card
// status, available limit, plan), then performs the debit and the
// transaction/installment writes as one database transaction. The limit
// check that counts is the one done under the row lock; the earlier check
// only produces the fail-fast error before any lock is taken.
func (s *TransactionService) authorize(ctx context.Context, email string, request *domain.CreateTransactionRequest, isBNPL bool, months int) (*domain.TransactionResponse, error) {
	if !request.Amount.IsPositive() {
		return nil, customError.WrapInvalidAmount(request.Amount)
	}

	card, err := s.cardRepo.GetByDetails(ctx, request.CardNumber, request.CVV, request.ExpiryMonth, request.ExpiryYear, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, customError.WrapNotFound("Card")
		}
		return nil, customError.WrapDatabaseError(err)
	}

	if !card.IsActive() {
		return nil, customError.WrapCardInactive(card.Status)
	}

	if request.Amount.GreaterThan(card.AvailableLimit) {
		return nil, customError.WrapInsufficientLimit(request.Amount, card.AvailableLimit)
	}

	if isBNPL && !domain.IsSupportedPlan(months) {
		return nil, customError.WrapInvalidInstallmentPlan(months)
	}

	status := domain.TransactionStatusCompleted
	if isBNPL {
		status = domain.TransactionStatusPending
	}

	transaction := &domain.Transaction{
		ID:              uuid.New(),
		CardID:          card.ID,
		Amount:          request.Amount,
		Category:        request.Category,
		MerchantName:    request.MerchantName,
		TransactionDate: s.now(),
		IsBNPL:          isBNPL,
		Status:          status,
		CreatedAt:       s.now(),
	}

	var installments []*domain.Installment
	if isBNPL {
		installments = s.buildSchedule(transaction, months)
	}

	// The debit and the transaction/installment writes are one unit: any
	// failure rolls everything back, including the limit debit.
	err = s.cardRepo.WithTx(ctx, func(tx *sqlx.Tx) error {
		// Authoritative re-check under the row lock: two concurrent
		// purchases serialize here, and the loser sees the already-debited
		// limit.
		locked, err := s.cardRepo.GetByIDForUpdate(ctx, tx, card.ID)
		if err != nil {
			return err
		}

		if !locked.IsActive() {
			return customError.WrapCardInactive(locked.Status)
		}

		if request.Amount.GreaterThan(locked.AvailableLimit) {
			return customError.WrapInsufficientLimit(request.Amount, locked.AvailableLimit)
		}

		if err = s.cardRepo.DebitAvailableLimitTx(ctx, tx, card.ID, request.Amount); err != nil {
			return err
		}

		if err = s.transactionRepo.CreateTx(ctx, tx, transaction); err != nil {
			return err
		}

		if installments != nil {
			if err = s.installmentRepo.CreateBatchTx(ctx, tx, installments); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		var bizErr *customError.BusinessError
		if errors.As(err, &bizErr) {
			return nil, err
		}
		return nil, customError.WrapDatabaseError(err)
	}

	return &domain.TransactionResponse{Transaction: transaction, Installments: installments}, nil
}

// buildSchedule splits the transaction into its installment rows: equal
// rounded amounts with the remainder absorbed by the last row, due one
// calendar month apart starting one month after the purchase.
func (s *TransactionService) buildSchedule(transaction *domain.Transaction, months int) []*domain.Installment {
	amounts := utils.SplitInstallmentAmounts(transaction.Amount, months)

	installments := make([]*domain.Installment, 0, months)
	for i, amount := range amounts {
		dueDate := utils.InstallmentDueDate(transaction.TransactionDate, i+1)
		installments = append(installments, &domain.Installment{
			ID:                uuid.New(),
			TransactionID:     transaction.ID,
			InstallmentNumber: i + 1,
			Amount:            amount,
			DueDate:           &dueDate,
			IsPaid:            false,
			CreatedAt:         s.now(),
		})
	}

	return installments
}

// GetHistory lists all transactions on a card, enforcing ownership.
func (s *TransactionService) GetHistory(ctx context.Context, email string, cardID uuid.UUID) ([]*domain.Transaction, error) {
	if err := s.checkCardOwnership(ctx, email, cardID); err != nil {
		return nil, err
	}

	transactions, err := s.transactionRepo.GetByCardID(ctx, cardID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	return transactions, nil
}

// GetTransaction fetches a single transaction, enforcing ownership.
func (s *TransactionService) GetTransaction(ctx context.Context, email string, transactionID uuid.UUID) (*domain.Transaction, error) {
	transaction, err := s.transactionRepo.GetByID(ctx, transactionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, customError.WrapNotFound("Transaction")
		}
		return nil, customError.WrapDatabaseError(err)
	}

	if err = s.checkCardOwnership(ctx, email, transaction.CardID); err != nil {
		return nil, err
	}

	return transaction, nil
}

// UpdateTransaction applies an administrative correction.
func (s *TransactionService) UpdateTransaction(ctx context.Context, email string, transactionID uuid.UUID, request *domain.UpdateTransactionRequest) (*domain.Transaction, error) {
	transaction, err := s.GetTransaction(ctx, email, transactionID)
	if err != nil {
		return nil, err
	}

	transaction.Amount = request.Amount
	transaction.Category = request.Category
	transaction.MerchantName = request.MerchantName
	transaction.IsBNPL = request.IsBNPL
	if request.TransactionDate != nil {
		transaction.TransactionDate = *request.TransactionDate
	}
	if request.Status != "" {
		transaction.Status = request.Status
	}

	if err = s.transactionRepo.Update(ctx, transaction); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	return transaction, nil
}

// DeleteTransaction removes a transaction and its installments.
func (s *TransactionService) DeleteTransaction(ctx context.Context, email string, transactionID uuid.UUID) error {
	if _, err := s.GetTransaction(ctx, email, transactionID); err != nil {
		return err
	}

	if err := s.transactionRepo.Delete(ctx, transactionID); err != nil {
		return customError.WrapDatabaseError(err)
	}

	return nil
}

func (s *TransactionService) checkCardOwnership(ctx context.Context, email string, cardID uuid.UUID) error {
	card, err := s.cardRepo.GetByID(ctx, cardID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return customError.WrapNotFound("Card")
		}
		return customError.WrapDatabaseError(err)
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return customError.WrapNotFound("User")
		}
		return customError.WrapDatabaseError(err)
	}

	if card.UserID != user.ID {
		return customError.WrapUnauthorized("card")
	}

	return nil
}
