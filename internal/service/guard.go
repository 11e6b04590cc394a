package service

import (
	"github.com/google/uuid"
	"github.com/thala/backend/internal/model"
)

func isOwner(account *model.Account, ownerID *uuid.UUID) bool {
	return account != nil && ownerID != nil && *ownerID == account.ID
}

func isAdmin(account *model.Account) bool {
	return account != nil && account.IsSuperuser
}

func RequireAdmin(account *model.Account, detail string) error {
	if !isAdmin(account) {
		return detailed(ErrForbidden, detail)
	}
	return nil
}

func RequireOwner(account *model.Account, ownerID *uuid.UUID, detail string) error {
	if !isOwner(account, ownerID) {
		return detailed(ErrForbidden, detail)
	}
	return nil
}

func RequireOwnerOrAdmin(account *model.Account, ownerID *uuid.UUID, detail string) error {
	if isAdmin(account) || isOwner(account, ownerID) {
		return nil
	}
	return detailed(ErrForbidden, detail)
}

// CanView applies the public/owner/admin visibility rule. A nil account is
// anonymous and only sees public resources.
func CanView(account *model.Account, ownerID *uuid.UUID, isPublic bool) bool {
	return isPublic || isOwner(account, ownerID) || isAdmin(account)
}

func RequireVisible(account *model.Account, ownerID *uuid.UUID, isPublic bool) error {
	if CanView(account, ownerID, isPublic) {
		return nil
	}
	if account == nil {
		return detailed(ErrForbidden, "This feedback is not public")
	}
	return detailed(ErrForbidden, "You do not have permission to view this feedback")
}
