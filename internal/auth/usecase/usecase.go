package usecase

import (
	authdomain "healthsync-backend/internal/auth/domain"
	authdto "healthsync-backend/internal/auth/dto"
)

// AuthUsecase defines the application auth operations. The access tokens it
// issues are the user tokens the sync pipeline later decodes.
type AuthUsecase interface {
	Register(req *authdto.RegisterRequest) (*authdto.TokenResponse, error)
	Login(req *authdto.LoginRequest) (*authdto.TokenResponse, error)
	RefreshToken(req *authdto.RefreshTokenRequest) (*authdto.TokenResponse, error)
	Logout(refreshToken string) error
	ValidateToken(token string) (*authdomain.User, error)
}
