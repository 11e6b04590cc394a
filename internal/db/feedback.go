package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/thala/backend/internal/model"
)

const feedbackColumns = `id, user_id, user_email, user_name, feedback_type, title, description,
		platform, app_version, device_info, status, priority, admin_notes,
		is_public, has_screenshot, screenshot_url, created_at, updated_at, resolved_at`

func NormalizeFeedbackType(feedbackType string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(feedbackType))
	switch normalized {
	case model.FeedbackTypeBug, model.FeedbackTypeFeature, model.FeedbackTypeGeneral:
		return normalized, nil
	}
	return "", fmt.Errorf("invalid feedback_type: %s", feedbackType)
}

func NormalizeFeedbackStatus(status string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(status))
	switch normalized {
	case model.FeedbackStatusNew, model.FeedbackStatusReviewing, model.FeedbackStatusPlanned,
		model.FeedbackStatusInProgress, model.FeedbackStatusCompleted, model.FeedbackStatusWontFix,
		model.FeedbackStatusDuplicate:
		return normalized, nil
	}
	return "", fmt.Errorf("invalid status: %s", status)
}

func (db *Postgres) EnsureFeedbackSchema(ctx context.Context) error {
	return db.execAll(ctx, []string{
		`
		CREATE TABLE IF NOT EXISTS feedback (
			id UUID PRIMARY KEY,
			user_id UUID,
			user_email VARCHAR(255),
			user_name VARCHAR(255),
			feedback_type VARCHAR(50) NOT NULL DEFAULT 'general'
				CHECK (feedback_type IN ('bug', 'feature', 'general')),
			title VARCHAR(500) NOT NULL,
			description TEXT NOT NULL,
			platform VARCHAR(50),
			app_version VARCHAR(50),
			device_info TEXT,
			status VARCHAR(50) NOT NULL DEFAULT 'new',
			priority VARCHAR(20),
			admin_notes TEXT,
			is_public BOOLEAN NOT NULL DEFAULT FALSE,
			has_screenshot BOOLEAN NOT NULL DEFAULT FALSE,
			screenshot_url VARCHAR(500),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			resolved_at TIMESTAMPTZ
		)
		`,
		`CREATE INDEX IF NOT EXISTS feedback_user_idx ON feedback(user_id)`,
		`CREATE INDEX IF NOT EXISTS feedback_created_idx ON feedback(created_at DESC)`,
	})
}

func scanFeedback(row rowScanner) (*model.Feedback, error) {
	var f model.Feedback
	err := row.Scan(
		&f.ID,
		&f.UserID,
		&f.UserEmail,
		&f.UserName,
		&f.FeedbackType,
		&f.Title,
		&f.Description,
		&f.Platform,
		&f.AppVersion,
		&f.DeviceInfo,
		&f.Status,
		&f.Priority,
		&f.AdminNotes,
		&f.IsPublic,
		&f.HasScreenshot,
		&f.ScreenshotURL,
		&f.CreatedAt,
		&f.UpdatedAt,
		&f.ResolvedAt,
	)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (db *Postgres) CreateFeedback(ctx context.Context, f *model.Feedback) (*model.Feedback, error) {
	query := `
		INSERT INTO feedback (id, user_id, user_email, user_name, feedback_type, title, description,
			platform, app_version, device_info, status, has_screenshot, screenshot_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING ` + feedbackColumns
	return scanFeedback(db.Pool.QueryRow(ctx, query,
		f.ID, f.UserID, f.UserEmail, f.UserName, f.FeedbackType, f.Title, f.Description,
		f.Platform, f.AppVersion, f.DeviceInfo, f.Status, f.HasScreenshot, f.ScreenshotURL,
	))
}

func (db *Postgres) GetFeedback(ctx context.Context, id uuid.UUID) (*model.Feedback, error) {
	query := `SELECT ` + feedbackColumns + ` FROM feedback WHERE id = $1`
	return scanFeedback(db.Pool.QueryRow(ctx, query, id))
}

// ListFeedback returns the newest entries first, restricted to what viewer may see.
func (db *Postgres) ListFeedback(ctx context.Context, viewer model.FeedbackViewer, filter model.FeedbackFilter) ([]model.Feedback, error) {
	query, args := buildFeedbackListQuery(viewer, filter)

	rows, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := make([]model.Feedback, 0)
	for rows.Next() {
		f, err := scanFeedback(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *f)
	}
	return list, rows.Err()
}

func buildFeedbackListQuery(viewer model.FeedbackViewer, filter model.FeedbackFilter) (string, []any) {
	conds := make([]string, 0, 5)
	args := make([]any, 0, 7)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if filter.FeedbackType != "" {
		add("feedback_type = $%d", filter.FeedbackType)
	}
	if filter.Status != "" {
		add("status = $%d", filter.Status)
	}
	if filter.Platform != "" {
		add("platform = $%d", filter.Platform)
	}

	switch {
	case viewer.SeeAll:
	case viewer.AccountID == nil:
		conds = append(conds, "is_public = TRUE")
	default:
		add("(user_id = $%d OR is_public = TRUE)", *viewer.AccountID)
	}

	if filter.IsPublic != nil {
		add("is_public = $%d", *filter.IsPublic)
	}

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	var b strings.Builder
	b.WriteString(`SELECT ` + feedbackColumns + ` FROM feedback`)
	if len(conds) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(conds, " AND "))
	}
	args = append(args, limit, offset)
	fmt.Fprintf(&b, " ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	return b.String(), args
}

// UpdateFeedback applies an admin edit. resolvedNow stamps resolved_at.
func (db *Postgres) UpdateFeedback(ctx context.Context, id uuid.UUID, req model.UpdateFeedbackRequest, resolvedNow bool) (*model.Feedback, error) {
	query := `
		UPDATE feedback
		SET status = COALESCE($2, status),
			priority = COALESCE($3, priority),
			admin_notes = COALESCE($4, admin_notes),
			is_public = COALESCE($5, is_public),
			resolved_at = CASE WHEN $6 THEN NOW() ELSE resolved_at END,
			updated_at = NOW()
		WHERE id = $1
		RETURNING ` + feedbackColumns
	return scanFeedback(db.Pool.QueryRow(ctx, query, id, req.Status, req.Priority, req.AdminNotes, req.IsPublic, resolvedNow))
}

func (db *Postgres) DeleteFeedback(ctx context.Context, id uuid.UUID) error {
	_, err := db.Pool.Exec(ctx, `DELETE FROM feedback WHERE id = $1`, id)
	return err
}
