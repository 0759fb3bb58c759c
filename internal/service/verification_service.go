package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"sellit/internal/auth"
	apperrors "sellit/internal/errors"
	"sellit/internal/model"
	"sellit/internal/repository"
)

// VerificationService manages the email verification token lifecycle.
type VerificationService interface {
	// Issue draws a fresh token. The caller persists Hash and ExpiresAt.
	Issue() (auth.VerificationToken, error)
	// Redeem verifies the user holding rawToken. alreadyVerified reports an idempotent re-click.
	Redeem(ctx context.Context, rawToken string) (user *model.User, alreadyVerified bool, err error)
	// Reissue replaces the token of an unverified user and returns the new raw token.
	Reissue(ctx context.Context, userID uuid.UUID) (user *model.User, rawToken string, err error)
}

type verificationService struct {
	userRepo repository.UserRepository
	ttl      time.Duration
	now      func() time.Time
}

// NewVerificationService creates a verification service issuing tokens valid for ttl.
func NewVerificationService(userRepo repository.UserRepository, ttl time.Duration) VerificationService {
	return &verificationService{
		userRepo: userRepo,
		ttl:      ttl,
		now:      time.Now,
	}
}

func (s *verificationService) Issue() (auth.VerificationToken, error) {
	return auth.NewVerificationToken(s.now().UTC(), s.ttl)
}

func (s *verificationService) Redeem(ctx context.Context, rawToken string) (*model.User, bool, error) {
	user, err := s.userRepo.FindByVerificationTokenHash(ctx, auth.HashVerificationToken(rawToken))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, apperrors.ErrInvalidToken
	}
	if err != nil {
		return nil, false, fmt.Errorf("find user by token: %w", err)
	}

	if user.IsEmailVerified {
		return user, true, nil
	}

	expiresAt := user.EmailVerificationTokenExpiresAt
	if expiresAt == nil || !expiresAt.After(s.now()) {
		return nil, false, apperrors.ErrExpiredToken
	}

	if err := s.userRepo.MarkEmailVerified(ctx, user.ID); err != nil {
		return nil, false, fmt.Errorf("mark email verified: %w", err)
	}
	user.IsEmailVerified = true
	return user, false, nil
}

func (s *verificationService) Reissue(ctx context.Context, userID uuid.UUID) (*model.User, string, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", apperrors.ErrUnauthorized
	}
	if err != nil {
		return nil, "", fmt.Errorf("find user: %w", err)
	}
	if user.IsEmailVerified {
		return user, "", apperrors.ErrAlreadyVerified
	}

	token, err := s.Issue()
	if err != nil {
		return nil, "", fmt.Errorf("issue verification token: %w", err)
	}
	if err := s.userRepo.SetVerificationToken(ctx, user.ID, token.Hash, token.ExpiresAt); err != nil {
		return nil, "", fmt.Errorf("store verification token: %w", err)
	}
	user.EmailVerificationTokenHash = &token.Hash
	user.EmailVerificationTokenExpiresAt = &token.ExpiresAt
	return user, token.Raw, nil
}
