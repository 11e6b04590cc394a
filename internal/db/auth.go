package db

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/thala/backend/internal/model"
)

const accountColumns = `id, google_sub, email, full_name, picture, locale, is_active, is_superuser,
		profile, created_at, updated_at, last_login_at`

func (db *Postgres) EnsureAccountSchema(ctx context.Context) error {
	return db.execAll(ctx, []string{
		`
		CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY,
			google_sub VARCHAR(255) NOT NULL,
			email VARCHAR(320) NOT NULL,
			full_name VARCHAR(255),
			picture TEXT,
			locale VARCHAR(16),
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			is_superuser BOOLEAN NOT NULL DEFAULT FALSE,
			profile JSONB NOT NULL DEFAULT '{}'::jsonb,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			last_login_at TIMESTAMPTZ,
			CONSTRAINT uq_users_google_sub UNIQUE (google_sub),
			CONSTRAINT uq_users_email UNIQUE (email)
		)
		`,
	})
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*model.Account, error) {
	var a model.Account
	err := row.Scan(
		&a.ID,
		&a.GoogleSub,
		&a.Email,
		&a.FullName,
		&a.Picture,
		&a.Locale,
		&a.IsActive,
		&a.IsSuperuser,
		&a.Profile,
		&a.CreatedAt,
		&a.UpdatedAt,
		&a.LastLoginAt,
	)
	if err != nil {
		return nil, err
	}
	if a.Profile == nil {
		a.Profile = model.Profile{}
	}
	return &a, nil
}

// CreateAccount inserts a new account. A concurrent insert for the same
// google_sub or email fails with a unique violation.
func (db *Postgres) CreateAccount(ctx context.Context, a *model.Account) (*model.Account, error) {
	query := `
		INSERT INTO users (id, google_sub, email, full_name, picture, locale, is_active, profile, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		RETURNING ` + accountColumns
	profile := a.Profile
	if profile == nil {
		profile = model.Profile{}
	}
	return scanAccount(db.Pool.QueryRow(ctx, query,
		a.ID, a.GoogleSub, a.Email, a.FullName, a.Picture, a.Locale, a.IsActive, profile,
	))
}

func (db *Postgres) GetAccountBySubject(ctx context.Context, googleSub string) (*model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM users WHERE google_sub = $1`
	return scanAccount(db.Pool.QueryRow(ctx, query, googleSub))
}

func (db *Postgres) GetAccountByID(ctx context.Context, id uuid.UUID) (*model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM users WHERE id = $1`
	return scanAccount(db.Pool.QueryRow(ctx, query, id))
}

// UpdateAccountIdentity overwrites the identity-provider sourced fields.
func (db *Postgres) UpdateAccountIdentity(ctx context.Context, a *model.Account) (*model.Account, error) {
	query := `
		UPDATE users
		SET email = $2, full_name = $3, picture = $4, locale = $5, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + accountColumns
	return scanAccount(db.Pool.QueryRow(ctx, query, a.ID, a.Email, a.FullName, a.Picture, a.Locale))
}

// MergeAccountProfile sets the given keys in profile, leaving other keys as they are.
// updated_at only moves when the merge changes something.
func (db *Postgres) MergeAccountProfile(ctx context.Context, id uuid.UUID, values model.Profile) (*model.Account, error) {
	query := `
		UPDATE users
		SET profile = profile || $2::jsonb,
			updated_at = CASE WHEN profile @> $2::jsonb THEN updated_at ELSE NOW() END
		WHERE id = $1
		RETURNING ` + accountColumns
	return scanAccount(db.Pool.QueryRow(ctx, query, id, values))
}

func (db *Postgres) TouchLogin(ctx context.Context, id uuid.UUID, at time.Time) (*model.Account, error) {
	query := `
		UPDATE users
		SET last_login_at = $2
		WHERE id = $1
		RETURNING ` + accountColumns
	return scanAccount(db.Pool.QueryRow(ctx, query, id, at))
}

// UpdateAccountProfile applies a self-service profile edit. Nil fields are left unchanged.
func (db *Postgres) UpdateAccountProfile(ctx context.Context, id uuid.UUID, req model.UpdateProfileRequest) (*model.Account, error) {
	query := `
		UPDATE users
		SET full_name = COALESCE($2, full_name),
			picture = COALESCE($3, picture),
			locale = COALESCE($4, locale),
			profile = COALESCE($5::jsonb, profile),
			updated_at = NOW()
		WHERE id = $1
		RETURNING ` + accountColumns
	var profile any
	if req.Profile != nil {
		profile = req.Profile
	}
	return scanAccount(db.Pool.QueryRow(ctx, query, id, req.FullName, req.Picture, req.Locale, profile))
}

func (db *Postgres) SetAccountFlags(ctx context.Context, id uuid.UUID, isActive, isSuperuser *bool) (*model.Account, error) {
	query := `
		UPDATE users
		SET is_active = COALESCE($2, is_active),
			is_superuser = COALESCE($3, is_superuser),
			updated_at = NOW()
		WHERE id = $1
		RETURNING ` + accountColumns
	return scanAccount(db.Pool.QueryRow(ctx, query, id, isActive, isSuperuser))
}

// PromoteSuperuserByEmail marks an existing account as admin. It reports whether a row matched.
func (db *Postgres) PromoteSuperuserByEmail(ctx context.Context, email string) (bool, error) {
	tag, err := db.Pool.Exec(ctx, `
		UPDATE users SET is_superuser = TRUE, updated_at = NOW()
		WHERE email = $1 AND is_superuser = FALSE
	`, email)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (db *Postgres) ListAccounts(ctx context.Context, limit, offset int32) ([]model.Account, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.Pool.Query(ctx, `
		SELECT `+accountColumns+`
		FROM users
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	accounts := make([]model.Account, 0)
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, *a)
	}
	return accounts, rows.Err()
}
