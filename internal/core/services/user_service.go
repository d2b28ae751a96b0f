package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/harborlend/loancrm/internal/apperrors"
	"github.com/harborlend/loancrm/internal/core/access"
	"github.com/harborlend/loancrm/internal/core/domain"
	portsrepo "github.com/harborlend/loancrm/internal/core/ports/repositories"
	portssvc "github.com/harborlend/loancrm/internal/core/ports/services"
)

type userService struct {
	BaseService
	userRepo portsrepo.UserRepository
}

// NewUserService creates the user account service.
func NewUserService(userRepo portsrepo.UserRepository) portssvc.UserService {
	return &userService{userRepo: userRepo}
}

var _ portssvc.UserService = (*userService)(nil)

func (s *userService) GetUserByID(ctx context.Context, actor *domain.User, userID string) (*domain.User, error) {
	if actor == nil {
		return nil, apperrors.ErrForbidden
	}
	// Non-admins may only read their own profile.
	if userID != actor.UserID && !actor.HasRole(domain.RoleAdmin) {
		return nil, apperrors.ErrNotFound
	}
	return s.userRepo.FindUserByID(ctx, userID)
}

func (s *userService) ListUsers(ctx context.Context, actor *domain.User, filter portsrepo.UserFilter) ([]domain.User, int, error) {
	if !actor.HasRole(domain.RoleAdmin) {
		return nil, 0, apperrors.ErrForbidden
	}
	return s.userRepo.FindUsers(ctx, filter)
}

func (s *userService) UpdateUser(ctx context.Context, actor *domain.User, userID string, patch portssvc.UserPatch) (*domain.User, error) {
	if !access.CanMutateOwned(actor, userID) {
		return nil, apperrors.ErrForbidden
	}
	user, err := s.userRepo.FindUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		user.Name = *patch.Name
	}
	if patch.Email != nil {
		user.Email = strings.TrimSpace(strings.ToLower(*patch.Email))
	}
	// Role changes are an admin operation even on one's own account.
	if patch.PrimaryRole != nil {
		if !actor.HasRole(domain.RoleAdmin) {
			return nil, apperrors.ErrForbidden
		}
		if !patch.PrimaryRole.IsValid() {
			return nil, apperrors.ErrValidation
		}
		user.PrimaryRole = *patch.PrimaryRole
		user.NormalizePermissions()
	}
	user.UpdatedAt = time.Now()

	if err := s.userRepo.UpdateUser(ctx, *user); err != nil {
		s.LogError(ctx, err, "failed to update user", "user_id", userID)
		return nil, err
	}
	return user, nil
}

func (s *userService) SetUserStatus(ctx context.Context, actor *domain.User, userID string, active bool) (*domain.User, error) {
	if !actor.HasRole(domain.RoleAdmin) {
		return nil, apperrors.ErrForbidden
	}
	// Admins cannot lock themselves out.
	if userID == actor.UserID && !active {
		return nil, apperrors.ErrValidation
	}
	if err := s.userRepo.SetUserStatus(ctx, userID, active); err != nil {
		return nil, err
	}
	s.LogInfo(ctx, "user status changed", "target_user_id", userID, "active", active)
	return s.userRepo.FindUserByID(ctx, userID)
}

func (s *userService) SetUserPermissions(ctx context.Context, actor *domain.User, userID string, permissions []domain.Role) (*domain.User, error) {
	if !actor.HasRole(domain.RoleAdmin) {
		return nil, apperrors.ErrForbidden
	}
	user, err := s.userRepo.FindUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	user.Permissions = permissions
	user.NormalizePermissions()
	if err := s.userRepo.SetUserPermissions(ctx, userID, user.PrimaryRole, user.Permissions); err != nil {
		return nil, fmt.Errorf("failed to set permissions: %w", err)
	}
	s.LogInfo(ctx, "user permissions changed", "target_user_id", userID)
	return s.userRepo.FindUserByID(ctx, userID)
}

// DeleteUser removes the account and everything hanging off it. Loans are
// deliberately not cascaded: they carry the book of business and must be
// reassigned first.
func (s *userService) DeleteUser(ctx context.Context, actor *domain.User, userID string) error {
	if !actor.HasRole(domain.RoleAdmin) {
		return apperrors.ErrForbidden
	}
	if userID == actor.UserID {
		return apperrors.ErrValidation
	}
	owned, err := s.userRepo.CountLoansOwnedBy(ctx, userID)
	if err != nil {
		return err
	}
	if owned > 0 {
		return apperrors.ErrConflict
	}
	if err := s.userRepo.DeleteUserCascade(ctx, userID); err != nil {
		s.LogError(ctx, err, "failed to delete user", "target_user_id", userID)
		return err
	}
	s.LogInfo(ctx, "user deleted", "target_user_id", userID)
	return nil
}
