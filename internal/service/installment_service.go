package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/zetacard/bnpl-engine/internal/config"
	"github.com/zetacard/bnpl-engine/internal/domain"
	"github.com/zetacard/bnpl-engine/internal/repository"
	customError "github.com/zetacard/bnpl-engine/pkg/errors"
	"github.com/zetacard/bnpl-engine/pkg/utils"
)

// FeeCache is the slice of the redis API the late-fee report cache uses.
// *redis.Client satisfies it.
type FeeCache interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// InstallmentService is the installment ledger: payment processing, pending
// and overdue queries, and late fee accrual on top of them.
type InstallmentService struct {
	installmentRepo repository.InstallmentRepository
	transactionRepo repository.TransactionRepository
	cardRepo        repository.CardRepository
	userRepo        repository.UserRepository
	cache           FeeCache
	tolerance       decimal.Decimal
	flatDailyFee    decimal.Decimal
	dailyPercentFee decimal.Decimal
	now             func() time.Time
}

func NewInstallmentService(
	installmentRepo repository.InstallmentRepository,
	transactionRepo repository.TransactionRepository,
	cardRepo repository.CardRepository,
	userRepo repository.UserRepository,
	cache FeeCache,
	cfg *config.Config,
) *InstallmentService {
	return &InstallmentService{
		installmentRepo: installmentRepo,
		transactionRepo: transactionRepo,
		cardRepo:        cardRepo,
		userRepo:        userRepo,
		cache:           cache,
		tolerance:       cfg.GetPaymentTolerance(),
		flatDailyFee:    cfg.GetFlatDailyFee(),
		dailyPercentFee: cfg.GetDailyPercentFee(),
		now:             time.Now,
	}
}

// fee computes the accrued late fee for one installment at the configured
// daily rates.
func (s *InstallmentService) fee(installment *domain.Installment, asOf time.Time) decimal.Decimal {
	return utils.CalculateLateFee(installment.Amount, installment.DueDate, installment.IsPaid, asOf, s.flatDailyFee, s.dailyPercentFee)
}

// Pay marks an installment as paid. The paid amount must match the
// installment amount within the configured tolerance; partial payments are
// not supported. Paying does not restore any available limit on the card:
// BNPL debits the limit once at purchase time.
func (s *InstallmentService) Pay(ctx context.Context, email string, installmentID uuid.UUID, amount decimal.Decimal) (*domain.Installment, error) {
	installment, err := s.getOwned(ctx, email, installmentID)
	if err != nil {
		return nil, err
	}

	if installment.IsPaid {
		return nil, customError.WrapAlreadyPaid(installment.ID.String())
	}

	if amount.Sub(installment.Amount).Abs().GreaterThan(s.tolerance) {
		return nil, customError.WrapAmountMismatch(installment.Amount, amount)
	}

	if err = s.installmentRepo.MarkPaid(ctx, installmentID); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	installment.IsPaid = true
	return installment, nil
}

// GetPendingByTransaction lists unpaid installments of a transaction.
func (s *InstallmentService) GetPendingByTransaction(ctx context.Context, email string, transactionID uuid.UUID) ([]*domain.InstallmentResponse, error) {
	if err := s.checkTransactionOwnership(ctx, email, transactionID); err != nil {
		return nil, err
	}

	installments, err := s.installmentRepo.GetPendingByTransactionID(ctx, transactionID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	return s.withFees(installments), nil
}

// GetByTransaction lists all installments of a transaction.
func (s *InstallmentService) GetByTransaction(ctx context.Context, email string, transactionID uuid.UUID) ([]*domain.InstallmentResponse, error) {
	if err := s.checkTransactionOwnership(ctx, email, transactionID); err != nil {
		return nil, err
	}

	installments, err := s.installmentRepo.GetByTransactionID(ctx, transactionID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	return s.withFees(installments), nil
}

// GetOverdueByCard lists unpaid installments past due on a card as of now.
func (s *InstallmentService) GetOverdueByCard(ctx context.Context, email string, cardID uuid.UUID) ([]*domain.InstallmentResponse, error) {
	if err := s.checkCardOwnership(ctx, email, cardID); err != nil {
		return nil, err
	}

	installments, err := s.installmentRepo.GetOverdueByCardID(ctx, cardID, s.now())
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	return s.withFees(installments), nil
}

// GetInstallment fetches a single installment with its accrued fee.
func (s *InstallmentService) GetInstallment(ctx context.Context, email string, installmentID uuid.UUID) (*domain.InstallmentResponse, error) {
	installment, err := s.getOwned(ctx, email, installmentID)
	if err != nil {
		return nil, err
	}

	return &domain.InstallmentResponse{
		Installment: installment,
		LateFee:     s.fee(installment, s.now()),
	}, nil
}

// TotalLateFeeByCard sums the accrued fees over all overdue unpaid
// installments on a card as of the given date. The fee formula is
// deterministic for a fixed as-of date, so the total is served from cache
// when the daily sweep (or a previous call) already computed it.
func (s *InstallmentService) TotalLateFeeByCard(ctx context.Context, email string, cardID uuid.UUID, asOf time.Time) (*domain.CardLateFeeResponse, error) {
	if err := s.checkCardOwnership(ctx, email, cardID); err != nil {
		return nil, err
	}

	if cached := s.cachedLateFee(ctx, cardID, asOf); cached != nil {
		return cached, nil
	}

	installments, err := s.installmentRepo.GetOverdueByCardID(ctx, cardID, asOf)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	total := decimal.Zero
	for _, installment := range installments {
		total = total.Add(s.fee(installment, asOf))
	}

	response := &domain.CardLateFeeResponse{
		CardID:   cardID,
		AsOf:     asOf,
		TotalFee: total,
		Overdue:  len(installments),
	}

	s.storeLateFee(ctx, response)

	return response, nil
}

func lateFeeCacheKey(cardID uuid.UUID, asOf time.Time) string {
	return "latefee:" + cardID.String() + ":" + asOf.Format("2006-01-02")
}

// cachedLateFee returns the cached per-card total for the as-of date, or nil
// on a miss. Cache failures degrade to a recompute, never to an error.
func (s *InstallmentService) cachedLateFee(ctx context.Context, cardID uuid.UUID, asOf time.Time) *domain.CardLateFeeResponse {
	if s.cache == nil {
		return nil
	}

	payload, err := s.cache.Get(ctx, lateFeeCacheKey(cardID, asOf)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("late fee cache read failed for card %s: %v", cardID, err)
		}
		return nil
	}

	var response domain.CardLateFeeResponse
	if err := json.Unmarshal([]byte(payload), &response); err != nil {
		log.Printf("late fee cache entry for card %s is malformed: %v", cardID, err)
		return nil
	}

	return &response
}

func (s *InstallmentService) storeLateFee(ctx context.Context, response *domain.CardLateFeeResponse) {
	if s.cache == nil {
		return
	}

	payload, err := json.Marshal(response)
	if err != nil {
		log.Printf("late fee cache encode failed for card %s: %v", response.CardID, err)
		return
	}

	if err := s.cache.Set(ctx, lateFeeCacheKey(response.CardID, response.AsOf), payload, 24*time.Hour).Err(); err != nil {
		log.Printf("late fee cache write failed for card %s: %v", response.CardID, err)
	}
}

// CreateInstallment adds a manual installment row (administrative path).
func (s *InstallmentService) CreateInstallment(ctx context.Context, email string, request *domain.CreateInstallmentRequest) (*domain.Installment, error) {
	if err := s.checkTransactionOwnership(ctx, email, request.TransactionID); err != nil {
		return nil, err
	}

	installment := &domain.Installment{
		ID:                uuid.New(),
		TransactionID:     request.TransactionID,
		InstallmentNumber: request.InstallmentNumber,
		Amount:            request.Amount,
		DueDate:           request.DueDate,
		IsPaid:            request.IsPaid,
		CreatedAt:         s.now(),
	}

	if err := s.installmentRepo.Create(ctx, installment); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	return installment, nil
}

// UpdateInstallment edits amount, due date or paid flag (administrative
// path). The owning transaction and sequence number cannot change.
func (s *InstallmentService) UpdateInstallment(ctx context.Context, email string, installmentID uuid.UUID, request *domain.UpdateInstallmentRequest) (*domain.Installment, error) {
	installment, err := s.getOwned(ctx, email, installmentID)
	if err != nil {
		return nil, err
	}

	// Paid is terminal: a settled installment cannot be reopened, the
	// correction path for a mistaken payment is delete-and-recreate.
	if installment.IsPaid && request.IsPaid != nil && !*request.IsPaid {
		return nil, customError.WrapAlreadyPaid(installment.ID.String())
	}

	if request.Amount != nil {
		installment.Amount = *request.Amount
	}
	if request.DueDate != nil {
		installment.DueDate = request.DueDate
	}
	if request.IsPaid != nil {
		installment.IsPaid = *request.IsPaid
	}

	if err = s.installmentRepo.Update(ctx, installment); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	return installment, nil
}

// DeleteInstallment removes an installment row (administrative path).
func (s *InstallmentService) DeleteInstallment(ctx context.Context, email string, installmentID uuid.UUID) error {
	if _, err := s.getOwned(ctx, email, installmentID); err != nil {
		return err
	}

	if err := s.installmentRepo.Delete(ctx, installmentID); err != nil {
		return customError.WrapDatabaseError(err)
	}

	return nil
}

// RunOverdueSweep loads every overdue installment, computes the accrued fee
// per card and caches the totals. Called by the daily scheduler job.
func (s *InstallmentService) RunOverdueSweep(ctx context.Context, asOf time.Time) (map[uuid.UUID]decimal.Decimal, error) {
	installments, err := s.installmentRepo.ListOverdue(ctx, asOf)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	totals := make(map[uuid.UUID]decimal.Decimal)
	counts := make(map[uuid.UUID]int)
	for _, installment := range installments {
		transaction, err := s.transactionRepo.GetByID(ctx, installment.TransactionID)
		if err != nil {
			return nil, customError.WrapDatabaseError(err)
		}

		totals[transaction.CardID] = totals[transaction.CardID].Add(s.fee(installment, asOf))
		counts[transaction.CardID]++
	}

	for cardID, total := range totals {
		s.storeLateFee(ctx, &domain.CardLateFeeResponse{
			CardID:   cardID,
			AsOf:     asOf,
			TotalFee: total,
			Overdue:  counts[cardID],
		})
	}

	return totals, nil
}

func (s *InstallmentService) withFees(installments []*domain.Installment) []*domain.InstallmentResponse {
	asOf := s.now()
	responses := make([]*domain.InstallmentResponse, 0, len(installments))
	for _, installment := range installments {
		responses = append(responses, &domain.InstallmentResponse{
			Installment: installment,
			LateFee:     s.fee(installment, asOf),
		})
	}
	return responses
}

func (s *InstallmentService) getOwned(ctx context.Context, email string, installmentID uuid.UUID) (*domain.Installment, error) {
	installment, err := s.installmentRepo.GetByID(ctx, installmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, customError.WrapNotFound("Installment")
		}
		return nil, customError.WrapDatabaseError(err)
	}

	if err = s.checkTransactionOwnership(ctx, email, installment.TransactionID); err != nil {
		return nil, err
	}

	return installment, nil
}

func (s *InstallmentService) checkTransactionOwnership(ctx context.Context, email string, transactionID uuid.UUID) error {
	transaction, err := s.transactionRepo.GetByID(ctx, transactionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return customError.WrapNotFound("Transaction")
		}
		return customError.WrapDatabaseError(err)
	}

	return s.checkCardOwnership(ctx, email, transaction.CardID)
}

func (s *InstallmentService) checkCardOwnership(ctx context.Context, email string, cardID uuid.UUID) error {
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
		return customError.WrapUnauthorized("installment")
	}

	return nil
}
