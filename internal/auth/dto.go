package auth

import (
	"time"

	"github.com/streetcart/groupbuy-backend/internal/users"
	"github.com/streetcart/groupbuy-backend/pkg/enums"
)

// LoginRequest captures the credentials and the role the user signs in as.
type LoginRequest struct {
	Email    string         `json:"email" validate:"required,email"`
	Password string         `json:"password" validate:"required"`
	Role     enums.UserRole `json:"role" validate:"required,oneof=vendor supplier"`
}

// LoginResponse contains the access token and the signed-in user.
type LoginResponse struct {
	AccessToken string         `json:"access_token"`
	ExpiresAt   time.Time      `json:"expires_at"`
	User        *users.UserDTO `json:"user"`
}
