package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/zetacard/bnpl-engine/internal/config"
	"github.com/zetacard/bnpl-engine/internal/domain"
	"github.com/zetacard/bnpl-engine/internal/repository"
	customError "github.com/zetacard/bnpl-engine/pkg/errors"
	"github.com/zetacard/bnpl-engine/pkg/utils"
)

type ApplicationService struct {
	applicationRepo repository.ApplicationRepository
	cardRepo        repository.CardRepository
	userRepo        repository.UserRepository
	config          *config.Config
	now             func() time.Time
	rand            *rand.Rand
}

func NewApplicationService(
	applicationRepo repository.ApplicationRepository,
	cardRepo repository.CardRepository,
	userRepo repository.UserRepository,
	cfg *config.Config,
) *ApplicationService {
	return &ApplicationService{
		applicationRepo: applicationRepo,
		cardRepo:        cardRepo,
		userRepo:        userRepo,
		config:          cfg,
		now:             time.Now,
		rand:            rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Apply files a credit card application for the given user, decides it and,
// when approved, issues exactly one card with creditLimit = availableLimit =
// requestedLimit.
func (s *ApplicationService) Apply(ctx context.Context, email string, request *domain.CreateApplicationRequest) (*domain.ApplicationResponse, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, customError.WrapNotFound("User")
		}
		return nil, customError.WrapDatabaseError(err)
	}

	network := domain.ParseCardNetwork(request.CardType)

	exists, err := s.applicationRepo.Exists(ctx, user.ID, network, request.RequestedLimit)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	if exists {
		return nil, customError.WrapDuplicateApplication()
	}

	status := utils.DetermineApplicationStatus(user.AnnualIncome, network, request.RequestedLimit)

	application := &domain.CardApplication{
		ID:              uuid.New(),
		UserID:          user.ID,
		CardType:        network,
		RequestedLimit:  request.RequestedLimit,
		AnnualIncome:    user.AnnualIncome,
		Status:          status,
		ApplicationDate: s.now(),
		CreatedAt:       s.now(),
	}

	if err = s.applicationRepo.Create(ctx, application); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	response := &domain.ApplicationResponse{Application: application}

	if status == domain.ApplicationStatusApproved {
		card, err := s.issueCard(ctx, application)
		if err != nil {
			return nil, err
		}
		response.Card = card
	}

	return response, nil
}

func (s *ApplicationService) issueCard(ctx context.Context, application *domain.CardApplication) (*domain.Card, error) {
	expiry := s.now().AddDate(s.config.Business.CardValidityYears, 0, 0)

	card := &domain.Card{
		ID:             uuid.New(),
		CardNumber:     s.generateCardNumber(application.CardType),
		CardType:       application.CardType,
		Status:         domain.CardStatusActive,
		CreditLimit:    application.RequestedLimit,
		AvailableLimit: application.RequestedLimit,
		ExpiryDate:     expiry,
		ExpiryMonth:    fmt.Sprintf("%02d", int(expiry.Month())),
		ExpiryYear:     fmt.Sprintf("%02d", expiry.Year()%100),
		CVV:            s.generateCVV(application.CardType),
		ApplicationID:  application.ID,
		UserID:         application.UserID,
		CreatedAt:      s.now(),
		UpdatedAt:      s.now(),
	}

	if err := s.cardRepo.Create(ctx, card); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	return card, nil
}

// GetApplications lists all applications filed by the caller.
func (s *ApplicationService) GetApplications(ctx context.Context, email string) ([]*domain.CardApplication, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, customError.WrapNotFound("User")
		}
		return nil, customError.WrapDatabaseError(err)
	}

	applications, err := s.applicationRepo.GetByUserID(ctx, user.ID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	return applications, nil
}

// GetApplication fetches one application, enforcing ownership.
func (s *ApplicationService) GetApplication(ctx context.Context, email string, applicationID uuid.UUID) (*domain.CardApplication, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, customError.WrapNotFound("User")
		}
		return nil, customError.WrapDatabaseError(err)
	}

	application, err := s.applicationRepo.GetByID(ctx, applicationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, customError.WrapNotFound("Application")
		}
		return nil, customError.WrapDatabaseError(err)
	}

	if application.UserID != user.ID {
		return nil, customError.WrapUnauthorized("application")
	}

	return application, nil
}

// UpdateApplication edits a still-pending application. Edits re-run the
// approval decision; an edit that turns the decision into APPROVED issues the
// card right away. Decided applications are immutable.
func (s *ApplicationService) UpdateApplication(ctx context.Context, email string, applicationID uuid.UUID, request *domain.UpdateApplicationRequest) (*domain.ApplicationResponse, error) {
	application, err := s.GetApplication(ctx, email, applicationID)
	if err != nil {
		return nil, err
	}

	if application.Status != domain.ApplicationStatusPending {
		return nil, customError.WrapApplicationDecided(application.Status)
	}

	application.CardType = domain.ParseCardNetwork(request.CardType)
	application.RequestedLimit = request.RequestedLimit
	application.Status = utils.DetermineApplicationStatus(application.AnnualIncome, application.CardType, application.RequestedLimit)

	if err = s.applicationRepo.Update(ctx, application); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	response := &domain.ApplicationResponse{Application: application}

	if application.Status == domain.ApplicationStatusApproved {
		card, err := s.issueCard(ctx, application)
		if err != nil {
			return nil, err
		}
		response.Card = card
	}

	return response, nil
}

// generateCardNumber builds a Luhn-valid number with the network's prefix.
func (s *ApplicationService) generateCardNumber(network domain.CardNetwork) string {
	var prefix string
	var length int

	switch network {
	case domain.NetworkVisa:
		prefix, length = "4", 16
	case domain.NetworkMastercard:
		prefix, length = "5", 16
	case domain.NetworkAmex:
		if s.rand.Intn(2) == 0 {
			prefix = "34"
		} else {
			prefix = "37"
		}
		length = 15
	default:
		prefix, length = "4", 16
	}

	digits := []byte(prefix)
	for len(digits) < length-1 {
		digits = append(digits, byte('0'+s.rand.Intn(10)))
	}

	return string(append(digits, luhnCheckDigit(digits)))
}

func luhnCheckDigit(digits []byte) byte {
	sum := 0
	double := true
	for i := len(digits) - 1; i >= 0; i-- {
		d := int(digits[i] - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return byte('0' + (10-sum%10)%10)
}

func (s *ApplicationService) generateCVV(network domain.CardNetwork) string {
	if network == domain.NetworkAmex {
		return fmt.Sprintf("%04d", s.rand.Intn(10000))
	}
	return fmt.Sprintf("%03d", s.rand.Intn(1000))
}
