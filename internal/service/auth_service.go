package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"sellit/internal/auth"
	apperrors "sellit/internal/errors"
	"sellit/internal/mailer"
	"sellit/internal/model"
	"sellit/internal/repository"
)

const (
	bcryptCost        = 12
	minUsernameLength = 3
	maxUsernameLength = 32
)

// RegisterInput carries the fields accepted at registration.
type RegisterInput struct {
	Email           string
	Password        string
	Username        string
	ProfileImageURL string
}

// AuthResult is a session token together with the user it was issued for.
type AuthResult struct {
	Token string
	User  *model.User
}

// AuthService handles authentication operations.
type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	Me(ctx context.Context, userID uuid.UUID) (*model.User, error)
	VerifyEmail(ctx context.Context, rawToken string) (user *model.User, alreadyVerified bool, err error)
	ResendVerification(ctx context.Context, userID uuid.UUID) (alreadyVerified bool, err error)
	IssueSession(ctx context.Context, user *model.User) (*AuthResult, error)
}

type authService struct {
	userRepo     repository.UserRepository
	jwtService   *auth.JWTService
	verification VerificationService
	mailer       mailer.Sender
	logger       *zap.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(
	userRepo repository.UserRepository,
	jwtService *auth.JWTService,
	verification VerificationService,
	sender mailer.Sender,
	logger *zap.Logger,
) AuthService {
	return &authService{
		userRepo:     userRepo,
		jwtService:   jwtService,
		verification: verification,
		mailer:       sender,
		logger:       logger,
	}
}

// NormalizeEmail trims and lowercases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an unverified user, sends the verification email best-effort, and signs a session.
func (s *authService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	email := NormalizeEmail(in.Email)

	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err == nil && existing != nil {
		return nil, apperrors.ErrEmailAlreadyRegistered
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("check user existence: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	token, err := s.verification.Issue()
	if err != nil {
		return nil, fmt.Errorf("issue verification token: %w", err)
	}

	user := &model.User{
		Email:                           email,
		Username:                        usernameFor(in.Username, email),
		PasswordHash:                    string(hashedPassword),
		IsEmailVerified:                 false,
		EmailVerificationTokenHash:      &token.Hash,
		EmailVerificationTokenExpiresAt: &token.ExpiresAt,
	}
	if url := strings.TrimSpace(in.ProfileImageURL); url != "" {
		user.ProfileImageURL = &url
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.ErrEmailAlreadyRegistered
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	if err := s.mailer.SendVerification(ctx, user.Email, token.Raw); err != nil {
		s.logger.Warn("verification email not sent",
			zap.String("user_id", user.ID.String()),
			zap.Error(err),
		)
	}

	return s.IssueSession(ctx, user)
}

// Login authenticates a user. Unknown email and wrong password fail identically.
func (s *authService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.userRepo.FindByEmail(ctx, NormalizeEmail(email))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, apperrors.ErrInvalidCredentials
	}

	return s.IssueSession(ctx, user)
}

// Me resolves the user behind a validated session.
func (s *authService) Me(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrUnauthorized
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}

func (s *authService) VerifyEmail(ctx context.Context, rawToken string) (*model.User, bool, error) {
	return s.verification.Redeem(ctx, rawToken)
}

// ResendVerification reissues the token and emails it. Delivery failure is returned to the caller.
func (s *authService) ResendVerification(ctx context.Context, userID uuid.UUID) (bool, error) {
	user, rawToken, err := s.verification.Reissue(ctx, userID)
	if errors.Is(err, apperrors.ErrAlreadyVerified) {
		return true, nil
	}
	if err != nil {
		return false, err
	}

	if err := s.mailer.SendVerification(ctx, user.Email, rawToken); err != nil {
		s.logger.Error("verification email not sent",
			zap.String("user_id", user.ID.String()),
			zap.Error(err),
		)
		return false, fmt.Errorf("%w: %v", apperrors.ErrEmailDelivery, err)
	}
	return false, nil
}

// IssueSession signs a bearer token for user.
func (s *authService) IssueSession(_ context.Context, user *model.User) (*AuthResult, error) {
	token, err := s.jwtService.GenerateAccessToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}
	return &AuthResult{Token: token, User: user}, nil
}

// usernameFor keeps an explicit username, or derives one from the email local part.
func usernameFor(username, email string) string {
	if u := strings.TrimSpace(username); u != "" {
		return u
	}
	local, _, _ := strings.Cut(email, "@")
	runes := []rune(local)
	if len(runes) > maxUsernameLength {
		runes = runes[:maxUsernameLength]
	}
	derived := string(runes)
	if len(runes) < minUsernameLength {
		derived = "user_" + derived
	}
	return derived
}
