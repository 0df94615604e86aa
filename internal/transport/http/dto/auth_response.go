package dto

import (
	"time"

	"github.com/bookme/auth-service/internal/application/auth"
	"github.com/bookme/auth-service/internal/domain"
)

type MessageResponse struct {
	Message string `json:"message"`
}

type UserResponse struct {
	ID            int64     `json:"id"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	Role          string    `json:"role"`
	CreatedAt     time.Time `json:"createdAt"`
	EmailVerified bool      `json:"emailVerified"`
}

type AuthResponse struct {
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
	TokenType    string       `json:"tokenType"`
	User         UserResponse `json:"user"`
}

func ToUserResponse(u domain.User) UserResponse {
	return UserResponse{
		ID:            u.ID,
		Username:      u.Username,
		Email:         u.Email,
		Role:          u.Role,
		CreatedAt:     u.CreatedAt,
		EmailVerified: u.EmailVerified,
	}
}

func ToAuthResponse(res auth.AuthResult) AuthResponse {
	return AuthResponse{
		AccessToken:  res.Tokens.AccessToken,
		RefreshToken: res.Tokens.RefreshToken,
		TokenType:    res.Tokens.TokenType,
		User:         ToUserResponse(res.User),
	}
}
