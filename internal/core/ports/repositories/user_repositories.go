package repositories

import (
	"context"

	"github.com/harborlend/loancrm/internal/core/domain"
)

// UserRepository persists users and performs the account-removal cascade.
type UserRepository interface {
	SaveUser(ctx context.Context, user domain.User) error
	FindUserByID(ctx context.Context, userID string) (*domain.User, error)
	FindUserByEmail(ctx context.Context, email string) (*domain.User, error)
	FindUsers(ctx context.Context, filter UserFilter) ([]domain.User, int, error)
	// FindActiveUserIDs resolves a broadcast target set: explicit ids, role
	// membership (primary role or permissions), or all active users when both
	// arguments are empty. Inactive users are always excluded.
	FindActiveUserIDs(ctx context.Context, userIDs []string, roles []domain.Role) ([]string, error)
	UpdateUser(ctx context.Context, user domain.User) error
	SetUserStatus(ctx context.Context, userID string, isActive bool) error
	SetUserPermissions(ctx context.Context, userID string, primaryRole domain.Role, permissions []domain.Role) error
	// CountLoansOwnedBy supports the delete guard: a user owning loans
	// cannot be removed.
	CountLoansOwnedBy(ctx context.Context, userID string) (int, error)
	// DeleteUserCascade removes the user and their tasks, communications,
	// notifications and appointments in one transaction.
	DeleteUserCascade(ctx context.Context, userID string) error
}
