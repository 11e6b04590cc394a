package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/thala/backend/internal/db"
	"github.com/thala/backend/internal/model"
)

type VideoRepo interface {
	CreateVideo(ctx context.Context, v *model.Video) (*model.Video, error)
	GetVideo(ctx context.Context, id string) (*model.Video, error)
	ListVideos(ctx context.Context, limit, offset int32) ([]model.Video, error)
	UpdateVideo(ctx context.Context, id string, req model.UpdateVideoRequest) (*model.Video, error)
	DeleteVideo(ctx context.Context, id string) error
}

type VideoService struct {
	repo VideoRepo
}

func NewVideoService(repo VideoRepo) *VideoService {
	return &VideoService{repo: repo}
}

func (s *VideoService) List(ctx context.Context, limit, offset int32) ([]model.Video, error) {
	if offset < 0 {
		offset = 0
	}
	videos, err := s.repo.ListVideos(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}
	return videos, nil
}

func (s *VideoService) Get(ctx context.Context, id string) (*model.Video, error) {
	v, err := s.repo.GetVideo(ctx, id)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, videoNotFound(id)
		}
		return nil, fmt.Errorf("load video: %w", err)
	}
	return v, nil
}

// Create records the caller as the video's creator.
func (s *VideoService) Create(ctx context.Context, account *model.Account, req model.CreateVideoRequest) (*model.Video, error) {
	if account == nil {
		return nil, detailed(ErrUnauthenticated, "Not authenticated")
	}
	id := strings.TrimSpace(req.ID)
	if id == "" {
		return nil, detailed(ErrInvalidInput, "id is required")
	}

	created, err := s.repo.CreateVideo(ctx, &model.Video{
		ID:            id,
		CreatorID:     &account.ID,
		CreatorHandle: req.CreatorHandle,
		VideoURL:      req.VideoURL,
		ThumbnailURL:  req.ThumbnailURL,
		TitleEn:       req.TitleEn,
		TitleFr:       req.TitleFr,
		DescriptionEn: req.DescriptionEn,
		DescriptionFr: req.DescriptionFr,
		Tags:          req.Tags,
	})
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, detailed(ErrConflict, fmt.Sprintf("Video with id '%s' already exists", id))
		}
		return nil, fmt.Errorf("create video: %w", err)
	}
	return created, nil
}

func (s *VideoService) Update(ctx context.Context, account *model.Account, id string, req model.UpdateVideoRequest) (*model.Video, error) {
	v, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := RequireOwner(account, v.CreatorID, "You do not have permission to update this video"); err != nil {
		return nil, err
	}

	updated, err := s.repo.UpdateVideo(ctx, id, req)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, videoNotFound(id)
		}
		return nil, fmt.Errorf("update video: %w", err)
	}
	return updated, nil
}

func (s *VideoService) Delete(ctx context.Context, account *model.Account, id string) error {
	v, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := RequireOwner(account, v.CreatorID, "You do not have permission to delete this video"); err != nil {
		return err
	}
	if err := s.repo.DeleteVideo(ctx, id); err != nil {
		return fmt.Errorf("delete video: %w", err)
	}
	return nil
}

func videoNotFound(id string) error {
	return detailed(ErrNotFound, fmt.Sprintf("Video with id '%s' not found", id))
}
