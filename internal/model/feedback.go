package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	FeedbackTypeBug     = "bug"
	FeedbackTypeFeature = "feature"
	FeedbackTypeGeneral = "general"
)

const (
	FeedbackStatusNew        = "new"
	FeedbackStatusReviewing  = "reviewing"
	FeedbackStatusPlanned    = "planned"
	FeedbackStatusInProgress = "in_progress"
	FeedbackStatusCompleted  = "completed"
	FeedbackStatusWontFix    = "wont_fix"
	FeedbackStatusDuplicate  = "duplicate"
)

type Feedback struct {
	ID            uuid.UUID  `json:"id"`
	UserID        *uuid.UUID `json:"user_id"`
	UserEmail     *string    `json:"user_email"`
	UserName      *string    `json:"user_name"`
	FeedbackType  string     `json:"feedback_type"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	Platform      *string    `json:"platform"`
	AppVersion    *string    `json:"app_version"`
	DeviceInfo    *string    `json:"device_info"`
	Status        string     `json:"status"`
	Priority      *string    `json:"priority"`
	AdminNotes    *string    `json:"admin_notes"`
	IsPublic      bool       `json:"is_public"`
	HasScreenshot bool       `json:"has_screenshot"`
	ScreenshotURL *string    `json:"screenshot_url"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	ResolvedAt    *time.Time `json:"resolved_at"`
}

type CreateFeedbackRequest struct {
	FeedbackType  string  `json:"feedback_type" binding:"required"`
	Title         string  `json:"title" binding:"required,max=500"`
	Description   string  `json:"description" binding:"required"`
	UserEmail     *string `json:"user_email" binding:"omitempty,max=255"`
	UserName      *string `json:"user_name" binding:"omitempty,max=255"`
	Platform      *string `json:"platform" binding:"omitempty,max=50"`
	AppVersion    *string `json:"app_version" binding:"omitempty,max=50"`
	DeviceInfo    *string `json:"device_info"`
	ScreenshotURL *string `json:"screenshot_url" binding:"omitempty,max=500"`
}

type UpdateFeedbackRequest struct {
	Status     *string `json:"status"`
	Priority   *string `json:"priority" binding:"omitempty,max=20"`
	AdminNotes *string `json:"admin_notes"`
	IsPublic   *bool   `json:"is_public"`
}

// FeedbackFilter narrows a feedback listing. Visibility is applied separately.
type FeedbackFilter struct {
	FeedbackType string
	Status       string
	Platform     string
	IsPublic     *bool
	Limit        int32
	Offset       int32
}

// FeedbackViewer describes who is listing feedback. A nil AccountID means anonymous.
type FeedbackViewer struct {
	AccountID *uuid.UUID
	SeeAll    bool
}
