package db

import (
	"context"

	"github.com/thala/backend/internal/model"
)

const videoColumns = `id, creator_id, creator_handle, video_url, thumbnail_url, title_en, title_fr,
		description_en, description_fr, tags, likes, created_at, updated_at`

func (db *Postgres) EnsureVideoSchema(ctx context.Context) error {
	return db.execAll(ctx, []string{
		`
		CREATE TABLE IF NOT EXISTS videos (
			id TEXT PRIMARY KEY,
			creator_id UUID,
			creator_handle TEXT NOT NULL,
			video_url TEXT NOT NULL,
			thumbnail_url TEXT,
			title_en TEXT NOT NULL,
			title_fr TEXT NOT NULL,
			description_en TEXT NOT NULL DEFAULT '',
			description_fr TEXT NOT NULL DEFAULT '',
			tags TEXT[] NOT NULL DEFAULT '{}',
			likes BIGINT NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
		`,
		`CREATE INDEX IF NOT EXISTS videos_creator_idx ON videos(creator_id)`,
	})
}

func scanVideo(row rowScanner) (*model.Video, error) {
	var v model.Video
	err := row.Scan(
		&v.ID,
		&v.CreatorID,
		&v.CreatorHandle,
		&v.VideoURL,
		&v.ThumbnailURL,
		&v.TitleEn,
		&v.TitleFr,
		&v.DescriptionEn,
		&v.DescriptionFr,
		&v.Tags,
		&v.Likes,
		&v.CreatedAt,
		&v.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if v.Tags == nil {
		v.Tags = []string{}
	}
	return &v, nil
}

func (db *Postgres) CreateVideo(ctx context.Context, v *model.Video) (*model.Video, error) {
	tags := v.Tags
	if tags == nil {
		tags = []string{}
	}
	query := `
		INSERT INTO videos (id, creator_id, creator_handle, video_url, thumbnail_url, title_en, title_fr,
			description_en, description_fr, tags)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING ` + videoColumns
	return scanVideo(db.Pool.QueryRow(ctx, query,
		v.ID, v.CreatorID, v.CreatorHandle, v.VideoURL, v.ThumbnailURL, v.TitleEn, v.TitleFr,
		v.DescriptionEn, v.DescriptionFr, tags,
	))
}

func (db *Postgres) GetVideo(ctx context.Context, id string) (*model.Video, error) {
	query := `SELECT ` + videoColumns + ` FROM videos WHERE id = $1`
	return scanVideo(db.Pool.QueryRow(ctx, query, id))
}

func (db *Postgres) ListVideos(ctx context.Context, limit, offset int32) ([]model.Video, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	rows, err := db.Pool.Query(ctx, `
		SELECT `+videoColumns+`
		FROM videos
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := make([]model.Video, 0)
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *v)
	}
	return list, rows.Err()
}

func (db *Postgres) UpdateVideo(ctx context.Context, id string, req model.UpdateVideoRequest) (*model.Video, error) {
	query := `
		UPDATE videos
		SET video_url = COALESCE($2, video_url),
			thumbnail_url = COALESCE($3, thumbnail_url),
			title_en = COALESCE($4, title_en),
			title_fr = COALESCE($5, title_fr),
			description_en = COALESCE($6, description_en),
			description_fr = COALESCE($7, description_fr),
			tags = COALESCE($8, tags),
			updated_at = NOW()
		WHERE id = $1
		RETURNING ` + videoColumns
	return scanVideo(db.Pool.QueryRow(ctx, query, id,
		req.VideoURL, req.ThumbnailURL, req.TitleEn, req.TitleFr, req.DescriptionEn, req.DescriptionFr, req.Tags,
	))
}

func (db *Postgres) DeleteVideo(ctx context.Context, id string) error {
	_, err := db.Pool.Exec(ctx, `DELETE FROM videos WHERE id = $1`, id)
	return err
}
