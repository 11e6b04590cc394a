package model

import (
	"time"

	"github.com/google/uuid"
)

// Profile is a free-form attribute bag persisted as JSONB.
type Profile map[string]any

type Account struct {
	ID          uuid.UUID
	GoogleSub   string
	Email       string
	FullName    *string
	Picture     *string
	Locale      *string
	IsActive    bool
	IsSuperuser bool
	Profile     Profile
	CreatedAt   time.Time
	UpdatedAt   time.Time
	LastLoginAt *time.Time
}

// IdentityClaims is the verified claim set of a Google ID token.
type IdentityClaims struct {
	Subject       string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	GivenName     string `json:"given_name"`
	FamilyName    string `json:"family_name"`
	Picture       string `json:"picture"`
	Locale        string `json:"locale"`
	HostedDomain  string `json:"hd"`
}

type GoogleTokenRequest struct {
	IDToken string `json:"id_token" binding:"required"`
}

type GoogleCodeRequest struct {
	Code        string `json:"code" binding:"required"`
	RedirectURI string `json:"redirect_uri" binding:"required"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type TokenResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	TokenType    string       `json:"token_type"`
	ExpiresIn    int64        `json:"expires_in"`
	User         UserResponse `json:"user"`
}
