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

type FeedbackRepo interface {
	CreateFeedback(ctx context.Context, f *model.Feedback) (*model.Feedback, error)
	GetFeedback(ctx context.Context, id uuid.UUID) (*model.Feedback, error)
	ListFeedback(ctx context.Context, viewer model.FeedbackViewer, filter model.FeedbackFilter) ([]model.Feedback, error)
	UpdateFeedback(ctx context.Context, id uuid.UUID, req model.UpdateFeedbackRequest, resolvedNow bool) (*model.Feedback, error)
	DeleteFeedback(ctx context.Context, id uuid.UUID) error
}

type FeedbackService struct {
	repo FeedbackRepo
}

func NewFeedbackService(repo FeedbackRepo) *FeedbackService {
	return &FeedbackService{repo: repo}
}

// Create stores a submission. account may be nil for anonymous feedback.
func (s *FeedbackService) Create(ctx context.Context, account *model.Account, req model.CreateFeedbackRequest) (*model.Feedback, error) {
	feedbackType, err := db.NormalizeFeedbackType(req.FeedbackType)
	if err != nil {
		return nil, detailed(ErrInvalidInput, err.Error())
	}
	title := strings.TrimSpace(req.Title)
	description := strings.TrimSpace(req.Description)
	if title == "" || description == "" {
		return nil, detailed(ErrInvalidInput, "title and description are required")
	}

	f := &model.Feedback{
		ID:            uuid.New(),
		UserEmail:     req.UserEmail,
		UserName:      req.UserName,
		FeedbackType:  feedbackType,
		Title:         title,
		Description:   description,
		Platform:      req.Platform,
		AppVersion:    req.AppVersion,
		DeviceInfo:    req.DeviceInfo,
		Status:        model.FeedbackStatusNew,
		ScreenshotURL: req.ScreenshotURL,
		HasScreenshot: req.ScreenshotURL != nil && strings.TrimSpace(*req.ScreenshotURL) != "",
	}
	if account != nil {
		f.UserID = &account.ID
		if f.UserEmail == nil {
			email := account.Email
			f.UserEmail = &email
		}
		if f.UserName == nil {
			f.UserName = account.FullName
		}
	}

	created, err := s.repo.CreateFeedback(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("create feedback: %w", err)
	}
	log.Printf("[Feedback] created id=%s type=%s anonymous=%t", created.ID, created.FeedbackType, account == nil)
	return created, nil
}

// List returns public items to anonymous callers, own or public items to
// members and everything to admins.
func (s *FeedbackService) List(ctx context.Context, account *model.Account, filter model.FeedbackFilter) ([]model.Feedback, error) {
	if filter.FeedbackType != "" {
		normalized, err := db.NormalizeFeedbackType(filter.FeedbackType)
		if err != nil {
			return nil, detailed(ErrInvalidInput, err.Error())
		}
		filter.FeedbackType = normalized
	}
	if filter.Status != "" {
		normalized, err := db.NormalizeFeedbackStatus(filter.Status)
		if err != nil {
			return nil, detailed(ErrInvalidInput, err.Error())
		}
		filter.Status = normalized
	}

	viewer := model.FeedbackViewer{SeeAll: isAdmin(account)}
	if account != nil {
		viewer.AccountID = &account.ID
	}

	list, err := s.repo.ListFeedback(ctx, viewer, filter)
	if err != nil {
		return nil, fmt.Errorf("list feedback: %w", err)
	}
	return list, nil
}

func (s *FeedbackService) Get(ctx context.Context, account *model.Account, id uuid.UUID) (*model.Feedback, error) {
	f, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := RequireVisible(account, f.UserID, f.IsPublic); err != nil {
		return nil, err
	}
	return f, nil
}

// Update is admin-only. Moving to completed or wont_fix stamps resolved_at.
func (s *FeedbackService) Update(ctx context.Context, account *model.Account, id uuid.UUID, req model.UpdateFeedbackRequest) (*model.Feedback, error) {
	if err := RequireAdmin(account, "Only admins can update feedback"); err != nil {
		return nil, err
	}

	resolvedNow := false
	if req.Status != nil {
		status, err := db.NormalizeFeedbackStatus(*req.Status)
		if err != nil {
			return nil, detailed(ErrInvalidInput, err.Error())
		}
		req.Status = &status
		resolvedNow = status == model.FeedbackStatusCompleted || status == model.FeedbackStatusWontFix
	}

	updated, err := s.repo.UpdateFeedback(ctx, id, req, resolvedNow)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, feedbackNotFound(id)
		}
		return nil, fmt.Errorf("update feedback: %w", err)
	}
	return updated, nil
}

func (s *FeedbackService) Delete(ctx context.Context, account *model.Account, id uuid.UUID) error {
	f, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := RequireOwnerOrAdmin(account, f.UserID, "You do not have permission to delete this feedback"); err != nil {
		return err
	}
	if err := s.repo.DeleteFeedback(ctx, id); err != nil {
		return fmt.Errorf("delete feedback: %w", err)
	}
	return nil
}

func (s *FeedbackService) load(ctx context.Context, id uuid.UUID) (*model.Feedback, error) {
	f, err := s.repo.GetFeedback(ctx, id)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, feedbackNotFound(id)
		}
		return nil, fmt.Errorf("load feedback: %w", err)
	}
	return f, nil
}

func feedbackNotFound(id uuid.UUID) error {
	return detailed(ErrNotFound, fmt.Sprintf("Feedback with id '%s' not found", id))
}
