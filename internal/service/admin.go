package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/thala/backend/internal/db"
	"github.com/thala/backend/internal/model"
)

const adminOnly = "Admin privileges required"

type AdminRepo interface {
	ListAccounts(ctx context.Context, limit, offset int32) ([]model.Account, error)
	SetAccountFlags(ctx context.Context, id uuid.UUID, isActive, isSuperuser *bool) (*model.Account, error)
	PromoteSuperuserByEmail(ctx context.Context, email string) (bool, error)
}

type AdminService struct {
	repo AdminRepo
}

func NewAdminService(repo AdminRepo) *AdminService {
	return &AdminService{repo: repo}
}

func (s *AdminService) ListUsers(ctx context.Context, actor *model.Account, limit, offset int32) ([]model.Account, error) {
	if err := RequireAdmin(actor, adminOnly); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	accounts, err := s.repo.ListAccounts(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return accounts, nil
}

// UpdateUser toggles is_active / is_superuser. Admins cannot lock themselves out.
func (s *AdminService) UpdateUser(ctx context.Context, actor *model.Account, id uuid.UUID, req model.AdminUpdateUserRequest) (*model.Account, error) {
	if err := RequireAdmin(actor, adminOnly); err != nil {
		return nil, err
	}
	if req.IsActive == nil && req.IsSuperuser == nil {
		return nil, detailed(ErrInvalidInput, "is_active or is_superuser is required")
	}
	if actor.ID == id && ((req.IsActive != nil && !*req.IsActive) || (req.IsSuperuser != nil && !*req.IsSuperuser)) {
		return nil, detailed(ErrInvalidInput, "Admins cannot deactivate or demote themselves")
	}

	updated, err := s.repo.SetAccountFlags(ctx, id, req.IsActive, req.IsSuperuser)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, detailed(ErrNotFound, "User not found")
		}
		return nil, fmt.Errorf("update account flags: %w", err)
	}
	log.Printf("[Admin] account=%s updated by=%s", id, actor.ID)
	return updated, nil
}

// PromoteBootstrapAdmin marks the account with email as superuser if it exists.
func (s *AdminService) PromoteBootstrapAdmin(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil
	}
	promoted, err := s.repo.PromoteSuperuserByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("promote bootstrap admin: %w", err)
	}
	if promoted {
		log.Printf("[Admin] bootstrap admin promoted")
	}
	return nil
}
