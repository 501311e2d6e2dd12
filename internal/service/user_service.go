package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/zetacard/bnpl-engine/internal/domain"
	"github.com/zetacard/bnpl-engine/internal/repository"
	customError "github.com/zetacard/bnpl-engine/pkg/errors"
)

type UserService struct {
	userRepo repository.UserRepository
	now      func() time.Time
}

func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{
		userRepo: userRepo,
		now:      time.Now,
	}
}

// Register creates a user profile. The email is the caller identity used by
// every ownership check, so it must be unique.
func (s *UserService) Register(ctx context.Context, request *domain.CreateUserRequest) (*domain.UserProfile, error) {
	_, err := s.userRepo.GetByEmail(ctx, request.Email)
	if err == nil {
		return nil, customError.WrapDuplicateProfile(request.Email)
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, customError.WrapDatabaseError(err)
	}

	user := &domain.UserProfile{
		ID:           uuid.New(),
		Email:        request.Email,
		FullName:     request.FullName,
		AnnualIncome: request.AnnualIncome,
		CreatedAt:    s.now(),
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	return user, nil
}

// GetProfile fetches the caller's own profile.
func (s *UserService) GetProfile(ctx context.Context, email string) (*domain.UserProfile, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, customError.WrapNotFound("User")
		}
		return nil, customError.WrapDatabaseError(err)
	}

	return user, nil
}
