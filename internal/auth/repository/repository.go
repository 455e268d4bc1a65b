package repository

import authdomain "healthsync-backend/internal/auth/domain"

// UserRepository defines the interface for user and refresh token storage
type UserRepository interface {
	Create(user *authdomain.User) error
	FindByEmail(email string) (*authdomain.User, error)
	FindByID(id string) (*authdomain.User, error)
	// FindFirst returns the single known user profile, used as the implicit
	// sync target for privileged scheduled triggers. Nil when no user exists.
	FindFirst() (*authdomain.User, error)

	SaveRefreshToken(token *authdomain.RefreshToken) error
	FindRefreshToken(token string) (*authdomain.RefreshToken, error)
	DeleteRefreshToken(token string) error
}
