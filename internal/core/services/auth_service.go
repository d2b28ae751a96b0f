package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/harborlend/loancrm/internal/apperrors"
	"github.com/harborlend/loancrm/internal/core/domain"
	portsrepo "github.com/harborlend/loancrm/internal/core/ports/repositories"
	portssvc "github.com/harborlend/loancrm/internal/core/ports/services"
	"github.com/harborlend/loancrm/internal/platform/config"
	"github.com/harborlend/loancrm/internal/utils"
)

type authService struct {
	BaseService
	cfg      *config.Config
	userRepo portsrepo.UserRepository
}

// NewAuthService creates the registration/login/token service.
func NewAuthService(cfg *config.Config, userRepo portsrepo.UserRepository) portssvc.AuthService {
	return &authService{cfg: cfg, userRepo: userRepo}
}

var _ portssvc.AuthService = (*authService)(nil)

func (s *authService) Register(ctx context.Context, email, password, name string, role domain.Role) (*domain.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if !role.IsValid() {
		role = domain.RoleLO
	}

	if _, err := s.userRepo.FindUserByEmail(ctx, email); err == nil {
		return nil, apperrors.ErrDuplicate
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		s.LogError(ctx, err, "failed to check existing email")
		return nil, fmt.Errorf("failed to check existing email: %w", err)
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		s.LogError(ctx, err, "failed to hash password")
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	user := domain.User{
		UserID:       uuid.NewString(),
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		PrimaryRole:  role,
		Permissions:  []domain.Role{role},
		IsActive:     true,
		AuditFields: domain.AuditFields{
			CreatedAt: now,
			UpdatedAt: now,
		},
	}
	user.NormalizePermissions()

	if err := s.userRepo.SaveUser(ctx, user); err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			return nil, apperrors.ErrDuplicate
		}
		s.LogError(ctx, err, "failed to register user")
		return nil, fmt.Errorf("failed to register user: %w", err)
	}

	s.LogInfo(ctx, "user registered", "user_id", user.UserID, "role", string(role))
	return &user, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	user, err := s.userRepo.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return "", nil, apperrors.ErrUnauthorized
		}
		s.LogError(ctx, err, "failed to look up user for login")
		return "", nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if !utils.CheckPasswordHash(password, user.PasswordHash) {
		return "", nil, apperrors.ErrUnauthorized
	}
	if !user.IsActive {
		return "", nil, apperrors.ErrForbidden
	}

	token, err := utils.GenerateJWT(user.UserID, s.cfg.JWTSecret, s.cfg.JWTExpiryDuration, s.cfg.JWTIssuer)
	if err != nil {
		s.LogError(ctx, err, "failed to sign token", "user_id", user.UserID)
		return "", nil, fmt.Errorf("failed to sign token: %w", err)
	}
	return token, user, nil
}

func (s *authService) VerifyToken(ctx context.Context, token string) (*domain.User, error) {
	claims, err := utils.ParseAndValidateJWT(token, s.cfg.JWTSecret)
	if err != nil {
		return nil, apperrors.ErrUnauthorized
	}
	user, err := s.userRepo.FindUserByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrUnauthorized
		}
		return nil, fmt.Errorf("failed to load user for token: %w", err)
	}
	if !user.IsActive {
		return nil, apperrors.ErrForbidden
	}
	return user, nil
}
