package service

import (
	"context"
	"fmt"
	"log"
	"reflect"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/thala/backend/internal/db"
	"github.com/thala/backend/internal/model"
)

type AccountRepo interface {
	CreateAccount(ctx context.Context, a *model.Account) (*model.Account, error)
	GetAccountBySubject(ctx context.Context, googleSub string) (*model.Account, error)
	GetAccountByID(ctx context.Context, id uuid.UUID) (*model.Account, error)
	UpdateAccountIdentity(ctx context.Context, a *model.Account) (*model.Account, error)
	MergeAccountProfile(ctx context.Context, id uuid.UUID, values model.Profile) (*model.Account, error)
	TouchLogin(ctx context.Context, id uuid.UUID, at time.Time) (*model.Account, error)
}

// Identity is the subset of an identity assertion that lives on the account row.
type Identity struct {
	Subject string
	Email   string
	Name    string
	Picture string
	Locale  string
}

// UserDirectory maps external identities onto accounts.
type UserDirectory struct {
	repo AccountRepo
	now  func() time.Time
}

func NewUserDirectory(repo AccountRepo) *UserDirectory {
	return &UserDirectory{repo: repo, now: time.Now}
}

// GetOrCreate returns the account for id.Subject, creating it on first sight.
// created reports whether this call inserted the row. A concurrent insert for
// the same subject loses on the unique constraint and falls back to the update path.
func (d *UserDirectory) GetOrCreate(ctx context.Context, id Identity) (*model.Account, bool, error) {
	id.Subject = strings.TrimSpace(id.Subject)
	id.Email = strings.TrimSpace(id.Email)
	id.Name = clip(strings.TrimSpace(id.Name), maxFullNameLength)
	id.Locale = clip(strings.TrimSpace(id.Locale), maxLocaleLength)
	if id.Subject == "" {
		return nil, false, detailed(ErrMissingClaim, "Google token missing subject.")
	}

	account, err := d.repo.GetAccountBySubject(ctx, id.Subject)
	if err == nil {
		account, err = d.syncIdentity(ctx, account, id)
		return account, false, err
	}
	if !db.IsNoRows(err) {
		return nil, false, fmt.Errorf("lookup account by subject: %w", err)
	}

	if id.Email == "" {
		return nil, false, detailed(ErrMissingClaim, "Google account missing email scope.")
	}

	account, err = d.repo.CreateAccount(ctx, &model.Account{
		ID:        uuid.New(),
		GoogleSub: id.Subject,
		Email:     id.Email,
		FullName:  optional(id.Name),
		Picture:   optional(id.Picture),
		Locale:    optional(id.Locale),
		IsActive:  true,
		Profile:   model.Profile{},
	})
	if err == nil {
		log.Printf("[Directory] created account id=%s", account.ID)
		return account, true, nil
	}
	if !db.IsUniqueViolation(err) {
		return nil, false, fmt.Errorf("create account: %w", err)
	}

	account, err = d.repo.GetAccountBySubject(ctx, id.Subject)
	if err != nil {
		if db.IsNoRows(err) {
			// the collision was on email, held by a different subject
			return nil, false, detailed(ErrConflict, "Email already registered to another account.")
		}
		return nil, false, fmt.Errorf("lookup account after conflict: %w", err)
	}
	log.Printf("[Directory] concurrent create resolved as update id=%s", account.ID)
	account, err = d.syncIdentity(ctx, account, id)
	return account, false, err
}

// syncIdentity writes the changed, non-empty identity fields in a single update.
func (d *UserDirectory) syncIdentity(ctx context.Context, account *model.Account, id Identity) (*model.Account, error) {
	next := *account
	changed := false

	if id.Email != "" && id.Email != account.Email {
		next.Email = id.Email
		changed = true
	}
	if v, ok := changedValue(account.FullName, id.Name); ok {
		next.FullName = v
		changed = true
	}
	if v, ok := changedValue(account.Picture, id.Picture); ok {
		next.Picture = v
		changed = true
	}
	if v, ok := changedValue(account.Locale, id.Locale); ok {
		next.Locale = v
		changed = true
	}
	if !changed {
		return account, nil
	}

	updated, err := d.repo.UpdateAccountIdentity(ctx, &next)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, detailed(ErrConflict, "Email already registered to another account.")
		}
		return nil, fmt.Errorf("update account identity: %w", err)
	}
	return updated, nil
}

// SyncVerifiedClaims merges the verified claim bundle into the profile map.
// Nothing is written when the profile already holds these values.
func (d *UserDirectory) SyncVerifiedClaims(ctx context.Context, account *model.Account, claims model.IdentityClaims) (*model.Account, error) {
	values := model.Profile{
		"email_verified": claims.EmailVerified,
		"given_name":     nullable(claims.GivenName),
		"family_name":    nullable(claims.FamilyName),
		"hd":             nullable(claims.HostedDomain),
	}
	if profileHolds(account.Profile, values) {
		return account, nil
	}

	updated, err := d.repo.MergeAccountProfile(ctx, account.ID, values)
	if err != nil {
		return nil, fmt.Errorf("merge verified claims: %w", err)
	}
	return updated, nil
}

func (d *UserDirectory) TouchLogin(ctx context.Context, account *model.Account) (*model.Account, error) {
	updated, err := d.repo.TouchLogin(ctx, account.ID, d.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("touch login: %w", err)
	}
	return updated, nil
}

// FindByID returns ErrNotFound when no account has the id.
func (d *UserDirectory) FindByID(ctx context.Context, id uuid.UUID) (*model.Account, error) {
	account, err := d.repo.GetAccountByID(ctx, id)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("lookup account by id: %w", err)
	}
	return account, nil
}

func changedValue(current *string, incoming string) (*string, bool) {
	incoming = strings.TrimSpace(incoming)
	if incoming == "" {
		return nil, false
	}
	if current != nil && *current == incoming {
		return nil, false
	}
	return &incoming, true
}

func optional(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}

func profileHolds(profile, values model.Profile) bool {
	for key, want := range values {
		got, ok := profile[key]
		if !ok || !reflect.DeepEqual(got, want) {
			return false
		}
	}
	return true
}

// clip cuts v to at most n characters.
func clip(v string, n int) string {
	if utf8.RuneCountInString(v) <= n {
		return v
	}
	return string([]rune(v)[:n])
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}
