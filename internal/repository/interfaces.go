package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/zetacard/bnpl-engine/internal/domain"
)

// CardRepository defines the interface for card data operations
type CardRepository interface {
	// WithTx runs fn inside a database transaction, committing on nil error
	// and rolling back otherwise
	WithTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error

	// Create creates a new card
	Create(ctx context.Context, card *domain.Card) error

	// GetByID retrieves a card by its ID
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Card, error)

	// GetByIDForUpdate retrieves a card inside a transaction, locking its row
	GetByIDForUpdate(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*domain.Card, error)

	// GetByUserID retrieves all cards owned by a user
	GetByUserID(ctx context.Context, userID uuid.UUID) ([]*domain.Card, error)

	// GetByDetails retrieves a card matching number, cvv, expiry and owner email
	GetByDetails(ctx context.Context, number, cvv, expiryMonth, expiryYear, ownerEmail string) (*domain.Card, error)

	// UpdateStatus updates a card's status
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error

	// UpdateLimitsTx persists new credit and available limits inside a
	// transaction, against the row GetByIDForUpdate locked
	UpdateLimitsTx(ctx context.Context, tx *sqlx.Tx, card *domain.Card) error

	// DebitAvailableLimitTx debits the available limit inside a transaction
	DebitAvailableLimitTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, amount decimal.Decimal) error
}

// ApplicationRepository defines the interface for card application data operations
type ApplicationRepository interface {
	// Create creates a new application
	Create(ctx context.Context, application *domain.CardApplication) error

	// GetByID retrieves an application by ID
	GetByID(ctx context.Context, id uuid.UUID) (*domain.CardApplication, error)

	// GetByUserID retrieves all applications filed by a user
	GetByUserID(ctx context.Context, userID uuid.UUID) ([]*domain.CardApplication, error)

	// Update updates an application
	Update(ctx context.Context, application *domain.CardApplication) error

	// Exists reports whether the user already applied for the same card type and limit
	Exists(ctx context.Context, userID uuid.UUID, cardType domain.CardNetwork, requestedLimit decimal.Decimal) (bool, error)
}

// TransactionRepository defines the interface for transaction data operations
type TransactionRepository interface {
	// CreateTx creates a transaction record inside a database transaction
	CreateTx(ctx context.Context, tx *sqlx.Tx, transaction *domain.Transaction) error

	// GetByID retrieves a transaction by ID
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error)

	// GetByCardID retrieves all transactions for a card
	GetByCardID(ctx context.Context, cardID uuid.UUID) ([]*domain.Transaction, error)

	// CountByCardID counts historical transactions for a card
	CountByCardID(ctx context.Context, cardID uuid.UUID) (int64, error)

	// Update updates a transaction (administrative correction)
	Update(ctx context.Context, transaction *domain.Transaction) error

	// Delete removes a transaction and its installments
	Delete(ctx context.Context, id uuid.UUID) error
}

// InstallmentRepository defines the interface for BNPL installment data operations
type InstallmentRepository interface {
	// CreateBatchTx inserts a full schedule inside a database transaction
	CreateBatchTx(ctx context.Context, tx *sqlx.Tx, installments []*domain.Installment) error

	// Create creates a single installment (administrative path)
	Create(ctx context.Context, installment *domain.Installment) error

	// GetByID retrieves an installment by ID
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Installment, error)

	// GetByTransactionID retrieves all installments of a transaction, ordered by number
	GetByTransactionID(ctx context.Context, transactionID uuid.UUID) ([]*domain.Installment, error)

	// GetPendingByTransactionID retrieves unpaid installments of a transaction
	GetPendingByTransactionID(ctx context.Context, transactionID uuid.UUID) ([]*domain.Installment, error)

	// GetOverdueByCardID retrieves unpaid installments past due for a card
	GetOverdueByCardID(ctx context.Context, cardID uuid.UUID, asOf time.Time) ([]*domain.Installment, error)

	// ListOverdue retrieves all unpaid installments past due, for the daily sweep
	ListOverdue(ctx context.Context, asOf time.Time) ([]*domain.Installment, error)

	// MarkPaid flips an installment to paid
	MarkPaid(ctx context.Context, id uuid.UUID) error

	// Update updates an installment (administrative correction)
	Update(ctx context.Context, installment *domain.Installment) error

	// Delete removes an installment
	Delete(ctx context.Context, id uuid.UUID) error
}

// UserRepository defines the interface for user profile lookups
type UserRepository interface {
	// Create creates a new user profile
	Create(ctx context.Context, user *domain.UserProfile) error

	// GetByID retrieves a profile by ID
	GetByID(ctx context.Context, id uuid.UUID) (*domain.UserProfile, error)

	// GetByEmail retrieves a profile by email
	GetByEmail(ctx context.Context, email string) (*domain.UserProfile, error)
}
