package dto

import (
	"time"

	"github.com/harborlend/loancrm/internal/core/domain"
)

// UserResponse mirrors domain.User without the password hash.
type UserResponse struct {
	UserID      string        `json:"userID"`
	Email       string        `json:"email"`
	Name        string        `json:"name"`
	PrimaryRole domain.Role   `json:"primaryRole"`
	Permissions []domain.Role `json:"permissions"`
	IsActive    bool          `json:"isActive"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

// ToUserResponse converts a domain.User to its wire representation.
func ToUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		UserID:      u.UserID,
		Email:       u.Email,
		Name:        u.Name,
		PrimaryRole: u.PrimaryRole,
		Permissions: u.Permissions,
		IsActive:    u.IsActive,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

// ToListUserResponse converts a slice of users.
func ToListUserResponse(users []domain.User) []UserResponse {
	res := make([]UserResponse, len(users))
	for i := range users {
		res[i] = ToUserResponse(&users[i])
	}
	return res
}

// UpdateUserRequest defines the profile fields a user may change. Pointers
// distinguish "not provided" from zero values.
type UpdateUserRequest struct {
	Name        *string      `json:"name"`
	Email       *string      `json:"email" binding:"omitempty,email"`
	PrimaryRole *domain.Role `json:"primaryRole" binding:"omitempty,oneof=LO LOA PRODUCTION_PARTNER ADMIN"`
}

// SetPermissionsRequest replaces a user's dashboard permission set.
type SetPermissionsRequest struct {
	Permissions []domain.Role `json:"permissions" binding:"required,min=1,dive,oneof=LO LOA PRODUCTION_PARTNER ADMIN"`
}

// SetStatusRequest activates or deactivates an account.
type SetStatusRequest struct {
	IsActive *bool `json:"isActive" binding:"required"`
}

// ListUsersParams defines query parameters for the admin user list.
type ListUsersParams struct {
	ListParams
	Role domain.Role `form:"role" binding:"omitempty,oneof=LO LOA PRODUCTION_PARTNER ADMIN"`
}
