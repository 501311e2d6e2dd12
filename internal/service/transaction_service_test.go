package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/zetacard/bnpl-engine/internal/domain"
	customError "github.com/zetacard/bnpl-engine/pkg/errors"
	"github.com/zetacard/bnpl-engine/tests/mocks"
)

func newTestTransactionService(
	cardRepo *mocks.MockCardRepository,
	transactionRepo *mocks.MockTransactionRepository,
	installmentRepo *mocks.MockInstallmentRepository,
	userRepo *mocks.MockUserRepository,
	now time.Time,
) *TransactionService {
	svc := NewTransactionService(cardRepo, transactionRepo, installmentRepo, userRepo)
	svc.now = func() time.Time { return now }
	return svc
}

func activeTestCard() *domain.Card {
	return &domain.Card{
		ID:             uuid.New(),
		CardNumber:     "4111111111111111",
		CardType:       domain.NetworkVisa,
		Status:         domain.CardStatusActive,
		CreditLimit:    decimal.NewFromInt(50000),
		AvailableLimit: decimal.NewFromInt(30000),
		CVV:            "123",
		ExpiryMonth:    "08",
		ExpiryYear:     "29",
		UserID:         uuid.New(),
	}
}

func purchaseRequest(card *domain.Card, amount decimal.Decimal) *domain.CreateTransactionRequest {
	return &domain.CreateTransactionRequest{
		CardNumber:   card.CardNumber,
		CVV:          card.CVV,
		ExpiryMonth:  card.ExpiryMonth,
		ExpiryYear:   card.ExpiryYear,
		Amount:       amount,
		Category:     "electronics",
		MerchantName: "Gadget Store",
	}
}

func TestAuthorizeRegular(t *testing.T) {
	email := "holder@example.com"
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	t.Run("success debits limit and records transaction", func(t *testing.T) {
		cardRepo := new(mocks.MockCardRepository)
		transactionRepo := new(mocks.MockTransactionRepository)
		installmentRepo := new(mocks.MockInstallmentRepository)
		userRepo := new(mocks.MockUserRepository)

		card := activeTestCard()
		amount := decimal.NewFromInt(5000)

		cardRepo.On("GetByDetails", mock.Anything, card.CardNumber, card.CVV, card.ExpiryMonth, card.ExpiryYear, email).Return(card, nil)
		cardRepo.On("WithTx", mock.Anything, mock.Anything).Return(nil)
		cardRepo.On("GetByIDForUpdate", mock.Anything, mock.Anything, card.ID).Return(card, nil)
		cardRepo.On("DebitAvailableLimitTx", mock.Anything, mock.Anything, card.ID, amount).Return(nil)
		transactionRepo.On("CreateTx", mock.Anything, mock.Anything, mock.MatchedBy(func(txn *domain.Transaction) bool {
			return txn.CardID == card.ID && txn.Amount.Equal(amount) && !txn.IsBNPL
		})).Return(nil)

		svc := newTestTransactionService(cardRepo, transactionRepo, installmentRepo, userRepo, now)

		response, err := svc.AuthorizeRegular(context.Background(), email, purchaseRequest(card, amount))

		assert.NoError(t, err)
		assert.NotNil(t, response)
		assert.Equal(t, domain.TransactionStatusCompleted, response.Transaction.Status)
		assert.Empty(t, response.Installments)
		cardRepo.AssertExpectations(t)
		transactionRepo.AssertExpectations(t)
		installmentRepo.AssertNotCalled(t, "CreateBatchTx", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("non-positive amount is rejected before any lookup", func(t *testing.T) {
		cardRepo := new(mocks.MockCardRepository)
		svc := newTestTransactionService(cardRepo, new(mocks.MockTransactionRepository), new(mocks.MockInstallmentRepository), new(mocks.MockUserRepository), now)

		card := activeTestCard()
		_, err := svc.AuthorizeRegular(context.Background(), email, purchaseRequest(card, decimal.Zero))

		var bizErr *customError.BusinessError
		assert.ErrorAs(t, err, &bizErr)
		assert.Equal(t, customError.ErrCodeInvalidAmount, bizErr.Code)
		cardRepo.AssertNotCalled(t, "GetByDetails", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unknown card details map to not found", func(t *testing.T) {
		cardRepo := new(mocks.MockCardRepository)
		card := activeTestCard()
		cardRepo.On("GetByDetails", mock.Anything, card.CardNumber, card.CVV, card.ExpiryMonth, card.ExpiryYear, email).Return(nil, sql.ErrNoRows)

		svc := newTestTransactionService(cardRepo, new(mocks.MockTransactionRepository), new(mocks.MockInstallmentRepository), new(mocks.MockUserRepository), now)

		_, err := svc.AuthorizeRegular(context.Background(), email, purchaseRequest(card, decimal.NewFromInt(100)))

		var bizErr *customError.BusinessError
		assert.ErrorAs(t, err, &bizErr)
		assert.Equal(t, customError.ErrCodeNotFound, bizErr.Code)
	})

	t.Run("blocked card is rejected", func(t *testing.T) {
		cardRepo := new(mocks.MockCardRepository)
		card := activeTestCard()
		card.Status = domain.CardStatusBlocked
		cardRepo.On("GetByDetails", mock.Anything, card.CardNumber, card.CVV, card.ExpiryMonth, card.ExpiryYear, email).Return(card, nil)

		svc := newTestTransactionService(cardRepo, new(mocks.MockTransactionRepository), new(mocks.MockInstallmentRepository), new(mocks.MockUserRepository), now)

		_, err := svc.AuthorizeRegular(context.Background(), email, purchaseRequest(card, decimal.NewFromInt(100)))

		var bizErr *customError.BusinessError
		assert.ErrorAs(t, err, &bizErr)
		assert.Equal(t, customError.ErrCodeCardInactive, bizErr.Code)
		assert.ErrorIs(t, err, customError.ErrCardInactive)
	})

	t.Run("amount over available limit reports both values", func(t *testing.T) {
		cardRepo := new(mocks.MockCardRepository)
		card := activeTestCard()
		cardRepo.On("GetByDetails", mock.Anything, card.CardNumber, card.CVV, card.ExpiryMonth, card.ExpiryYear, email).Return(card, nil)

		svc := newTestTransactionService(cardRepo, new(mocks.MockTransactionRepository), new(mocks.MockInstallmentRepository), new(mocks.MockUserRepository), now)

		_, err := svc.AuthorizeRegular(context.Background(), email, purchaseRequest(card, decimal.NewFromInt(30001)))

		var bizErr *customError.BusinessError
		assert.ErrorAs(t, err, &bizErr)
		assert.Equal(t, customError.ErrCodeInsufficientLimit, bizErr.Code)
		assert.Contains(t, bizErr.Message, "30001.00")
		assert.Contains(t, bizErr.Message, "30000.00")
	})

	t.Run("limit re-check under lock loses the race", func(t *testing.T) {
		cardRepo := new(mocks.MockCardRepository)
		card := activeTestCard()
		amount := decimal.NewFromInt(25000)

		// A concurrent purchase committed between the fast check and the
		// row lock, leaving less headroom than the first read showed.
		drained := *card
		drained.AvailableLimit = decimal.NewFromInt(10000)

		cardRepo.On("GetByDetails", mock.Anything, card.CardNumber, card.CVV, card.ExpiryMonth, card.ExpiryYear, email).Return(card, nil)
		cardRepo.On("WithTx", mock.Anything, mock.Anything).Return(nil)
		cardRepo.On("GetByIDForUpdate", mock.Anything, mock.Anything, card.ID).Return(&drained, nil)

		svc := newTestTransactionService(cardRepo, new(mocks.MockTransactionRepository), new(mocks.MockInstallmentRepository), new(mocks.MockUserRepository), now)

		_, err := svc.AuthorizeRegular(context.Background(), email, purchaseRequest(card, amount))

		var bizErr *customError.BusinessError
		assert.ErrorAs(t, err, &bizErr)
		assert.Equal(t, customError.ErrCodeInsufficientLimit, bizErr.Code)
		cardRepo.AssertNotCalled(t, "DebitAvailableLimitTx", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestAuthorizeBNPL(t *testing.T) {
	email := "holder@example.com"
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	t.Run("three month plan builds schedule with remainder on last", func(t *testing.T) {
		cardRepo := new(mocks.MockCardRepository)
		transactionRepo := new(mocks.MockTransactionRepository)
		installmentRepo := new(mocks.MockInstallmentRepository)

		card := activeTestCard()
		amount := decimal.NewFromInt(10000)

		cardRepo.On("GetByDetails", mock.Anything, card.CardNumber, card.CVV, card.ExpiryMonth, card.ExpiryYear, email).Return(card, nil)
		cardRepo.On("WithTx", mock.Anything, mock.Anything).Return(nil)
		cardRepo.On("GetByIDForUpdate", mock.Anything, mock.Anything, card.ID).Return(card, nil)
		cardRepo.On("DebitAvailableLimitTx", mock.Anything, mock.Anything, card.ID, amount).Return(nil)
		transactionRepo.On("CreateTx", mock.Anything, mock.Anything, mock.MatchedBy(func(txn *domain.Transaction) bool {
			return txn.IsBNPL && txn.Status == domain.TransactionStatusPending
		})).Return(nil)
		installmentRepo.On("CreateBatchTx", mock.Anything, mock.Anything, mock.MatchedBy(func(installments []*domain.Installment) bool {
			return len(installments) == 3
		})).Return(nil)

		svc := newTestTransactionService(cardRepo, transactionRepo, installmentRepo, new(mocks.MockUserRepository), now)

		response, err := svc.AuthorizeBNPL(context.Background(), email, purchaseRequest(card, amount), 3)

		assert.NoError(t, err)
		assert.Len(t, response.Installments, 3)

		assert.Equal(t, "3333.33", response.Installments[0].Amount.StringFixed(2))
		assert.Equal(t, "3333.33", response.Installments[1].Amount.StringFixed(2))
		assert.Equal(t, "3333.34", response.Installments[2].Amount.StringFixed(2))

		for i, installment := range response.Installments {
			assert.Equal(t, i+1, installment.InstallmentNumber)
			assert.False(t, installment.IsPaid)
			expectedDue := now.AddDate(0, i+1, 0)
			assert.NotNil(t, installment.DueDate)
			assert.Equal(t, expectedDue, *installment.DueDate)
		}

		cardRepo.AssertExpectations(t)
		transactionRepo.AssertExpectations(t)
		installmentRepo.AssertExpectations(t)
	})

	t.Run("twelve month plan is rejected", func(t *testing.T) {
		cardRepo := new(mocks.MockCardRepository)
		card := activeTestCard()
		cardRepo.On("GetByDetails", mock.Anything, card.CardNumber, card.CVV, card.ExpiryMonth, card.ExpiryYear, email).Return(card, nil)

		svc := newTestTransactionService(cardRepo, new(mocks.MockTransactionRepository), new(mocks.MockInstallmentRepository), new(mocks.MockUserRepository), now)

		_, err := svc.AuthorizeBNPL(context.Background(), email, purchaseRequest(card, decimal.NewFromInt(9000)), domain.PlanTwelveMonths)

		var bizErr *customError.BusinessError
		assert.ErrorAs(t, err, &bizErr)
		assert.Equal(t, customError.ErrCodeInvalidInstallmentPlan, bizErr.Code)
		cardRepo.AssertNotCalled(t, "WithTx", mock.Anything, mock.Anything)
	})

	t.Run("unsupported tenor is rejected", func(t *testing.T) {
		cardRepo := new(mocks.MockCardRepository)
		card := activeTestCard()
		cardRepo.On("GetByDetails", mock.Anything, card.CardNumber, card.CVV, card.ExpiryMonth, card.ExpiryYear, email).Return(card, nil)

		svc := newTestTransactionService(cardRepo, new(mocks.MockTransactionRepository), new(mocks.MockInstallmentRepository), new(mocks.MockUserRepository), now)

		_, err := svc.AuthorizeBNPL(context.Background(), email, purchaseRequest(card, decimal.NewFromInt(9000)), 5)

		var bizErr *customError.BusinessError
		assert.ErrorAs(t, err, &bizErr)
		assert.Equal(t, customError.ErrCodeInvalidInstallmentPlan, bizErr.Code)
	})
}

func TestValidateCard(t *testing.T) {
	email := "holder@example.com"
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	card := activeTestCard()
	request := &domain.ValidateCardRequest{
		CardNumber:  card.CardNumber,
		CVV:         card.CVV,
		ExpiryMonth: card.ExpiryMonth,
		ExpiryYear:  card.ExpiryYear,
	}

	t.Run("matching active card is valid", func(t *testing.T) {
		cardRepo := new(mocks.MockCardRepository)
		cardRepo.On("GetByDetails", mock.Anything, card.CardNumber, card.CVV, card.ExpiryMonth, card.ExpiryYear, email).Return(card, nil)

		svc := newTestTransactionService(cardRepo, new(mocks.MockTransactionRepository), new(mocks.MockInstallmentRepository), new(mocks.MockUserRepository), now)

		assert.True(t, svc.ValidateCard(context.Background(), email, request))
	})

	t.Run("unknown card is invalid", func(t *testing.T) {
		cardRepo := new(mocks.MockCardRepository)
		cardRepo.On("GetByDetails", mock.Anything, card.CardNumber, card.CVV, card.ExpiryMonth, card.ExpiryYear, email).Return(nil, sql.ErrNoRows)

		svc := newTestTransactionService(cardRepo, new(mocks.MockTransactionRepository), new(mocks.MockInstallmentRepository), new(mocks.MockUserRepository), now)

		assert.False(t, svc.ValidateCard(context.Background(), email, request))
	})

	t.Run("amount above limit is invalid", func(t *testing.T) {
		cardRepo := new(mocks.MockCardRepository)
		cardRepo.On("GetByDetails", mock.Anything, card.CardNumber, card.CVV, card.ExpiryMonth, card.ExpiryYear, email).Return(card, nil)

		svc := newTestTransactionService(cardRepo, new(mocks.MockTransactionRepository), new(mocks.MockInstallmentRepository), new(mocks.MockUserRepository), now)

		tooMuch := decimal.NewFromInt(30001)
		withAmount := *request
		withAmount.Amount = &tooMuch
		assert.False(t, svc.ValidateCard(context.Background(), email, &withAmount))
	})
}
