package model

import (
	"time"

	"github.com/google/uuid"
)

type Video struct {
	ID            string     `json:"id"`
	CreatorID     *uuid.UUID `json:"creator_id"`
	CreatorHandle string     `json:"creator_handle"`
	VideoURL      string     `json:"video_url"`
	ThumbnailURL  *string    `json:"thumbnail_url"`
	TitleEn       string     `json:"title_en"`
	TitleFr       string     `json:"title_fr"`
	DescriptionEn string     `json:"description_en"`
	DescriptionFr string     `json:"description_fr"`
	Tags          []string   `json:"tags"`
	Likes         int64      `json:"likes"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

type CreateVideoRequest struct {
	ID            string   `json:"id" binding:"required"`
	CreatorHandle string   `json:"creator_handle" binding:"required"`
	VideoURL      string   `json:"video_url" binding:"required"`
	ThumbnailURL  *string  `json:"thumbnail_url"`
	TitleEn       string   `json:"title_en" binding:"required"`
	TitleFr       string   `json:"title_fr" binding:"required"`
	DescriptionEn string   `json:"description_en"`
	DescriptionFr string   `json:"description_fr"`
	Tags          []string `json:"tags"`
}

type UpdateVideoRequest struct {
	VideoURL      *string  `json:"video_url"`
	ThumbnailURL  *string  `json:"thumbnail_url"`
	TitleEn       *string  `json:"title_en"`
	TitleFr       *string  `json:"title_fr"`
	DescriptionEn *string  `json:"description_en"`
	DescriptionFr *string  `json:"description_fr"`
	Tags          []string `json:"tags"`
}
