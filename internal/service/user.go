package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/thala/backend/internal/db"
	"github.com/thala/backend/internal/model"
)

// Column limits, counted in characters.
const (
	maxFullNameLength = 255
	maxLocaleLength   = 16
)

type ProfileRepo interface {
	GetAccountByID(ctx context.Context, id uuid.UUID) (*model.Account, error)
	UpdateAccountProfile(ctx context.Context, id uuid.UUID, req model.UpdateProfileRequest) (*model.Account, error)
}

type UserService struct {
	repo ProfileRepo
}

func NewUserService(repo ProfileRepo) *UserService {
	return &UserService{repo: repo}
}

// GetPublicProfile hides inactive accounts behind ErrNotFound.
func (s *UserService) GetPublicProfile(ctx context.Context, id uuid.UUID) (*model.Account, error) {
	account, err := s.repo.GetAccountByID(ctx, id)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, detailed(ErrNotFound, "User not found")
		}
		return nil, fmt.Errorf("load profile: %w", err)
	}
	if !account.IsActive {
		return nil, detailed(ErrNotFound, "User not found")
	}
	return account, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, account *model.Account, req model.UpdateProfileRequest) (*model.Account, error) {
	if account == nil {
		return nil, detailed(ErrUnauthenticated, "Not authenticated")
	}
	if req.FullName != nil {
		trimmed := strings.TrimSpace(*req.FullName)
		if trimmed == "" || utf8.RuneCountInString(trimmed) > maxFullNameLength {
			return nil, detailed(ErrInvalidInput, "full_name must be 1-255 characters")
		}
		req.FullName = &trimmed
	}
	if req.Locale != nil && utf8.RuneCountInString(*req.Locale) > maxLocaleLength {
		return nil, detailed(ErrInvalidInput, "locale is too long")
	}

	updated, err := s.repo.UpdateAccountProfile(ctx, account.ID, req)
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return updated, nil
}
