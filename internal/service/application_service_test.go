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

	"github.com/zetacard/bnpl-engine/internal/config"
	"github.com/zetacard/bnpl-engine/internal/domain"
	customError "github.com/zetacard/bnpl-engine/pkg/errors"
	"github.com/zetacard/bnpl-engine/tests/mocks"
)

func newTestApplicationService(
	applicationRepo *mocks.MockApplicationRepository,
	cardRepo *mocks.MockCardRepository,
	userRepo *mocks.MockUserRepository,
	now time.Time,
) *ApplicationService {
	cfg := &config.Config{
		Business: config.BusinessConfig{CardValidityYears: 5},
	}
	svc := NewApplicationService(applicationRepo, cardRepo, userRepo, cfg)
	svc.now = func() time.Time { return now }
	return svc
}

func isLuhnValid(number string) bool {
	sum := 0
	double := false
	for i := len(number) - 1; i >= 0; i-- {
		d := int(number[i] - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}

func TestApply(t *testing.T) {
	email := "applicant@example.com"
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

	applicant := &domain.UserProfile{
		ID:           uuid.New(),
		Email:        email,
		FullName:     "New Applicant",
		AnnualIncome: decimal.NewFromInt(600000),
	}

	t.Run("approved application issues a card immediately", func(t *testing.T) {
		applicationRepo := new(mocks.MockApplicationRepository)
		cardRepo := new(mocks.MockCardRepository)
		userRepo := new(mocks.MockUserRepository)

		userRepo.On("GetByEmail", mock.Anything, email).Return(applicant, nil)
		applicationRepo.On("Exists", mock.Anything, applicant.ID, domain.NetworkVisa, mock.Anything).Return(false, nil)
		applicationRepo.On("Create", mock.Anything, mock.MatchedBy(func(app *domain.CardApplication) bool {
			return app.UserID == applicant.ID && app.Status == domain.ApplicationStatusApproved
		})).Return(nil)
		cardRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

		svc := newTestApplicationService(applicationRepo, cardRepo, userRepo, now)

		response, err := svc.Apply(context.Background(), email, &domain.CreateApplicationRequest{
			CardType:       "VISA",
			RequestedLimit: decimal.NewFromInt(150000),
		})

		assert.NoError(t, err)
		assert.Equal(t, domain.ApplicationStatusApproved, response.Application.Status)
		assert.NotNil(t, response.Card)

		card := response.Card
		assert.Equal(t, domain.CardStatusActive, card.Status)
		assert.True(t, card.CreditLimit.Equal(decimal.NewFromInt(150000)))
		assert.True(t, card.AvailableLimit.Equal(card.CreditLimit))
		assert.Len(t, card.CardNumber, 16)
		assert.Equal(t, byte('4'), card.CardNumber[0])
		assert.True(t, isLuhnValid(card.CardNumber), "card number %s must pass the Luhn check", card.CardNumber)
		assert.Len(t, card.CVV, 3)
		assert.Equal(t, now.AddDate(5, 0, 0), card.ExpiryDate)
		assert.Equal(t, "05", card.ExpiryMonth)
		assert.Equal(t, "29", card.ExpiryYear)
	})

	t.Run("amex issues a fifteen digit number and four digit cvv", func(t *testing.T) {
		applicationRepo := new(mocks.MockApplicationRepository)
		cardRepo := new(mocks.MockCardRepository)
		userRepo := new(mocks.MockUserRepository)

		userRepo.On("GetByEmail", mock.Anything, email).Return(applicant, nil)
		applicationRepo.On("Exists", mock.Anything, applicant.ID, domain.NetworkAmex, mock.Anything).Return(false, nil)
		applicationRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
		cardRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

		svc := newTestApplicationService(applicationRepo, cardRepo, userRepo, now)

		response, err := svc.Apply(context.Background(), email, &domain.CreateApplicationRequest{
			CardType:       "AMEX",
			RequestedLimit: decimal.NewFromInt(400000), // ceiling 420,000
		})

		assert.NoError(t, err)
		assert.NotNil(t, response.Card)
		assert.Len(t, response.Card.CardNumber, 15)
		assert.Contains(t, []string{"34", "37"}, response.Card.CardNumber[:2])
		assert.True(t, isLuhnValid(response.Card.CardNumber))
		assert.Len(t, response.Card.CVV, 4)
	})

	t.Run("borderline application goes to review without a card", func(t *testing.T) {
		applicationRepo := new(mocks.MockApplicationRepository)
		cardRepo := new(mocks.MockCardRepository)
		userRepo := new(mocks.MockUserRepository)

		userRepo.On("GetByEmail", mock.Anything, email).Return(applicant, nil)
		applicationRepo.On("Exists", mock.Anything, applicant.ID, domain.NetworkVisa, mock.Anything).Return(false, nil)
		applicationRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

		svc := newTestApplicationService(applicationRepo, cardRepo, userRepo, now)

		response, err := svc.Apply(context.Background(), email, &domain.CreateApplicationRequest{
			CardType:       "VISA",
			RequestedLimit: decimal.NewFromInt(200000), // ratio 1.11 of the 180,000 ceiling
		})

		assert.NoError(t, err)
		assert.Equal(t, domain.ApplicationStatusPending, response.Application.Status)
		assert.Nil(t, response.Card)
		cardRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("excessive application is rejected without a card", func(t *testing.T) {
		applicationRepo := new(mocks.MockApplicationRepository)
		cardRepo := new(mocks.MockCardRepository)
		userRepo := new(mocks.MockUserRepository)

		userRepo.On("GetByEmail", mock.Anything, email).Return(applicant, nil)
		applicationRepo.On("Exists", mock.Anything, applicant.ID, domain.NetworkVisa, mock.Anything).Return(false, nil)
		applicationRepo.On("Create", mock.Anything, mock.MatchedBy(func(app *domain.CardApplication) bool {
			return app.Status == domain.ApplicationStatusRejected
		})).Return(nil)

		svc := newTestApplicationService(applicationRepo, cardRepo, userRepo, now)

		response, err := svc.Apply(context.Background(), email, &domain.CreateApplicationRequest{
			CardType:       "VISA",
			RequestedLimit: decimal.NewFromInt(500000),
		})

		assert.NoError(t, err)
		assert.Equal(t, domain.ApplicationStatusRejected, response.Application.Status)
		assert.Nil(t, response.Card)
	})

	t.Run("duplicate application is rejected", func(t *testing.T) {
		applicationRepo := new(mocks.MockApplicationRepository)
		cardRepo := new(mocks.MockCardRepository)
		userRepo := new(mocks.MockUserRepository)

		userRepo.On("GetByEmail", mock.Anything, email).Return(applicant, nil)
		applicationRepo.On("Exists", mock.Anything, applicant.ID, domain.NetworkVisa, mock.Anything).Return(true, nil)

		svc := newTestApplicationService(applicationRepo, cardRepo, userRepo, now)

		_, err := svc.Apply(context.Background(), email, &domain.CreateApplicationRequest{
			CardType:       "VISA",
			RequestedLimit: decimal.NewFromInt(150000),
		})

		var bizErr *customError.BusinessError
		assert.ErrorAs(t, err, &bizErr)
		assert.Equal(t, customError.ErrCodeDuplicateApplication, bizErr.Code)
		applicationRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("unknown user cannot apply", func(t *testing.T) {
		applicationRepo := new(mocks.MockApplicationRepository)
		userRepo := new(mocks.MockUserRepository)

		userRepo.On("GetByEmail", mock.Anything, email).Return(nil, sql.ErrNoRows)

		svc := newTestApplicationService(applicationRepo, new(mocks.MockCardRepository), userRepo, now)

		_, err := svc.Apply(context.Background(), email, &domain.CreateApplicationRequest{
			CardType:       "VISA",
			RequestedLimit: decimal.NewFromInt(150000),
		})

		var bizErr *customError.BusinessError
		assert.ErrorAs(t, err, &bizErr)
		assert.Equal(t, customError.ErrCodeNotFound, bizErr.Code)
	})
}

func TestUpdateApplication(t *testing.T) {
	email := "applicant@example.com"
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

	applicant := &domain.UserProfile{
		ID:           uuid.New(),
		Email:        email,
		AnnualIncome: decimal.NewFromInt(600000),
	}

	t.Run("lowering a pending request can approve it and issue the card", func(t *testing.T) {
		applicationRepo := new(mocks.MockApplicationRepository)
		cardRepo := new(mocks.MockCardRepository)
		userRepo := new(mocks.MockUserRepository)

		application := &domain.CardApplication{
			ID:             uuid.New(),
			UserID:         applicant.ID,
			CardType:       domain.NetworkVisa,
			RequestedLimit: decimal.NewFromInt(200000),
			AnnualIncome:   applicant.AnnualIncome,
			Status:         domain.ApplicationStatusPending,
		}

		userRepo.On("GetByEmail", mock.Anything, email).Return(applicant, nil)
		applicationRepo.On("GetByID", mock.Anything, application.ID).Return(application, nil)
		applicationRepo.On("Update", mock.Anything, application).Return(nil)
		cardRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

		svc := newTestApplicationService(applicationRepo, cardRepo, userRepo, now)

		response, err := svc.UpdateApplication(context.Background(), email, application.ID, &domain.UpdateApplicationRequest{
			CardType:       "VISA",
			RequestedLimit: decimal.NewFromInt(150000),
		})

		assert.NoError(t, err)
		assert.Equal(t, domain.ApplicationStatusApproved, response.Application.Status)
		assert.NotNil(t, response.Card)
	})

	t.Run("decided application is immutable", func(t *testing.T) {
		applicationRepo := new(mocks.MockApplicationRepository)
		userRepo := new(mocks.MockUserRepository)

		application := &domain.CardApplication{
			ID:     uuid.New(),
			UserID: applicant.ID,
			Status: domain.ApplicationStatusApproved,
		}

		userRepo.On("GetByEmail", mock.Anything, email).Return(applicant, nil)
		applicationRepo.On("GetByID", mock.Anything, application.ID).Return(application, nil)

		svc := newTestApplicationService(applicationRepo, new(mocks.MockCardRepository), userRepo, now)

		_, err := svc.UpdateApplication(context.Background(), email, application.ID, &domain.UpdateApplicationRequest{
			CardType:       "VISA",
			RequestedLimit: decimal.NewFromInt(150000),
		})

		var bizErr *customError.BusinessError
		assert.ErrorAs(t, err, &bizErr)
		assert.Equal(t, customError.ErrCodeApplicationDecided, bizErr.Code)
		applicationRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("someone else's application is unauthorized", func(t *testing.T) {
		applicationRepo := new(mocks.MockApplicationRepository)
		userRepo := new(mocks.MockUserRepository)

		application := &domain.CardApplication{
			ID:     uuid.New(),
			UserID: uuid.New(),
			Status: domain.ApplicationStatusPending,
		}

		userRepo.On("GetByEmail", mock.Anything, email).Return(applicant, nil)
		applicationRepo.On("GetByID", mock.Anything, application.ID).Return(application, nil)

		svc := newTestApplicationService(applicationRepo, new(mocks.MockCardRepository), userRepo, now)

		_, err := svc.UpdateApplication(context.Background(), email, application.ID, &domain.UpdateApplicationRequest{
			CardType:       "VISA",
			RequestedLimit: decimal.NewFromInt(150000),
		})

		var bizErr *customError.BusinessError
		assert.ErrorAs(t, err, &bizErr)
		assert.Equal(t, customError.ErrCodeUnauthorized, bizErr.Code)
	})
}
