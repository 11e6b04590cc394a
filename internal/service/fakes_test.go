package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/thala/backend/internal/model"
)

type fakeAccountRepo struct {
	mu       sync.Mutex
	accounts map[uuid.UUID]*model.Account
	creates  int
	updates  int
	merges   int
	// beforeCreate runs inside CreateAccount before the uniqueness check,
	// letting a test plant a concurrent winner.
	beforeCreate func(r *fakeAccountRepo)
	failLookup   error
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{accounts: map[uuid.UUID]*model.Account{}}
}

func uniqueViolation() error {
	return &pgconn.PgError{Code: "23505", ConstraintName: "uq_users_google_sub"}
}

func (r *fakeAccountRepo) insertLocked(a *model.Account) {
	stored := *a
	stored.CreatedAt = time.Now()
	stored.UpdatedAt = stored.CreatedAt
	if stored.Profile == nil {
		stored.Profile = model.Profile{}
	}
	r.accounts[stored.ID] = &stored
}

func (r *fakeAccountRepo) CreateAccount(ctx context.Context, a *model.Account) (*model.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.beforeCreate != nil {
		hook := r.beforeCreate
		r.beforeCreate = nil
		hook(r)
	}
	for _, existing := range r.accounts {
		if existing.GoogleSub == a.GoogleSub || existing.Email == a.Email {
			return nil, uniqueViolation()
		}
	}
	r.creates++
	r.insertLocked(a)
	out := *r.accounts[a.ID]
	return &out, nil
}

func (r *fakeAccountRepo) GetAccountBySubject(ctx context.Context, googleSub string) (*model.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failLookup != nil {
		return nil, r.failLookup
	}
	for _, a := range r.accounts {
		if a.GoogleSub == googleSub {
			out := *a
			return &out, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeAccountRepo) GetAccountByID(ctx context.Context, id uuid.UUID) (*model.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failLookup != nil {
		return nil, r.failLookup
	}
	a, ok := r.accounts[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	out := *a
	return &out, nil
}

func (r *fakeAccountRepo) UpdateAccountIdentity(ctx context.Context, a *model.Account) (*model.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.accounts[a.ID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	for _, other := range r.accounts {
		if other.ID != a.ID && other.Email == a.Email {
			return nil, &pgconn.PgError{Code: "23505", ConstraintName: "uq_users_email"}
		}
	}
	r.updates++
	stored.Email = a.Email
	stored.FullName = a.FullName
	stored.Picture = a.Picture
	stored.Locale = a.Locale
	stored.UpdatedAt = time.Now()
	out := *stored
	return &out, nil
}

func (r *fakeAccountRepo) MergeAccountProfile(ctx context.Context, id uuid.UUID, values model.Profile) (*model.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.accounts[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	r.merges++
	merged := model.Profile{}
	for k, v := range stored.Profile {
		merged[k] = v
	}
	for k, v := range values {
		merged[k] = v
	}
	stored.Profile = merged
	out := *stored
	return &out, nil
}

func (r *fakeAccountRepo) TouchLogin(ctx context.Context, id uuid.UUID, at time.Time) (*model.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.accounts[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	stamp := at
	stored.LastLoginAt = &stamp
	out := *stored
	return &out, nil
}

func (r *fakeAccountRepo) setActive(id uuid.UUID, active bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.accounts[id].IsActive = active
}

func (r *fakeAccountRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.accounts)
}

type fakeIdentity struct {
	claims     map[string]*model.IdentityClaims
	codes      map[string]string
	unset      bool
	infraError error
}

func (f *fakeIdentity) Verify(ctx context.Context, rawIDToken string) (*model.IdentityClaims, error) {
	if f.unset {
		return nil, ErrMisconfigured
	}
	if f.infraError != nil {
		return nil, f.infraError
	}
	claims, ok := f.claims[rawIDToken]
	if !ok {
		return nil, ErrInvalidIdentity
	}
	out := *claims
	return &out, nil
}

func (f *fakeIdentity) ExchangeCode(ctx context.Context, code, redirectURI string) (string, error) {
	if f.unset {
		return "", ErrMisconfigured
	}
	raw, ok := f.codes[code]
	if !ok {
		return "", ErrInvalidIdentity
	}
	return raw, nil
}

type fakeDenylist struct {
	mu      sync.Mutex
	revoked map[string]time.Duration
	err     error
}

func newFakeDenylist() *fakeDenylist {
	return &fakeDenylist{revoked: map[string]time.Duration{}}
}

func (d *fakeDenylist) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.revoked[tokenID] = ttl
	return nil
}

func (d *fakeDenylist) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return false, d.err
	}
	_, ok := d.revoked[tokenID]
	return ok, nil
}

var errStoreDown = errors.New("connection refused")
