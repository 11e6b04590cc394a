package model

import (
	"time"

	"github.com/google/uuid"
)

// UserResponse is the account projection returned to its owner.
type UserResponse struct {
	ID          uuid.UUID  `json:"id"`
	Email       string     `json:"email"`
	FullName    *string    `json:"full_name"`
	Picture     *string    `json:"picture"`
	Locale      *string    `json:"locale"`
	IsActive    bool       `json:"is_active"`
	Profile     Profile    `json:"profile"`
	LastLoginAt *time.Time `json:"last_login_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// UserProfile is the public projection visible to anyone.
type UserProfile struct {
	ID       uuid.UUID `json:"id"`
	FullName *string   `json:"full_name"`
	Picture  *string   `json:"picture"`
	Profile  Profile   `json:"profile"`
}

// AdminUserResponse adds the admin-only flags to UserResponse.
type AdminUserResponse struct {
	UserResponse
	IsSuperuser bool `json:"is_superuser"`
}

type UpdateProfileRequest struct {
	FullName *string `json:"full_name"`
	Picture  *string `json:"picture"`
	Locale   *string `json:"locale"`
	Profile  Profile `json:"profile"`
}

type AdminUpdateUserRequest struct {
	IsActive    *bool `json:"is_active"`
	IsSuperuser *bool `json:"is_superuser"`
}

func NewUserResponse(a *Account) UserResponse {
	profile := a.Profile
	if profile == nil {
		profile = Profile{}
	}
	return UserResponse{
		ID:          a.ID,
		Email:       a.Email,
		FullName:    a.FullName,
		Picture:     a.Picture,
		Locale:      a.Locale,
		IsActive:    a.IsActive,
		Profile:     profile,
		LastLoginAt: a.LastLoginAt,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}

func NewUserProfile(a *Account) UserProfile {
	profile := a.Profile
	if profile == nil {
		profile = Profile{}
	}
	return UserProfile{
		ID:       a.ID,
		FullName: a.FullName,
		Picture:  a.Picture,
		Profile:  profile,
	}
}
