package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/sunapee-sound/community-backend/internal/model"
)

// VideoRepo stores the curated YouTube list.
type VideoRepo struct {
	db *sql.DB
}

func NewVideoRepo(db *sql.DB) *VideoRepo { return &VideoRepo{db: db} }

const videoColumns = `id, title, youtube_url, video_id, description, category, display_order, created_by, created_at, updated_at`

// ListActive returns active videos by display order, newest first within
// the same order.
func (r *VideoRepo) ListActive(ctx context.Context) ([]model.Video, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+videoColumns+` FROM youtube_videos
        WHERE active = 1 ORDER BY display_order ASC, created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Video, 0)
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	return out, rows.Err()
}

// GetActive returns one active video or ErrNotFound.
func (r *VideoRepo) GetActive(ctx context.Context, id uint64) (*model.Video, error) {
	return r.get(ctx, `SELECT `+videoColumns+` FROM youtube_videos WHERE id = ? AND active = 1`, id)
}

// Get returns a video whatever its active flag.
func (r *VideoRepo) Get(ctx context.Context, id uint64) (*model.Video, error) {
	return r.get(ctx, `SELECT `+videoColumns+` FROM youtube_videos WHERE id = ?`, id)
}

// Create inserts a video and populates its ID.
func (r *VideoRepo) Create(ctx context.Context, v *model.Video) error {
	var createdBy interface{}
	if v.CreatedBy != nil {
		createdBy = *v.CreatedBy
	}
	res, err := r.db.ExecContext(ctx, `INSERT INTO youtube_videos
        (title, youtube_url, video_id, description, category, display_order, created_by)
        VALUES (?, ?, ?, ?, ?, ?, ?)`,
		v.Title, v.YouTubeURL, v.VideoID, v.Description, v.Category, v.DisplayOrder, createdBy)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	v.ID = uint64(id)
	return nil
}

// Update overwrites the editable fields of a video.
func (r *VideoRepo) Update(ctx context.Context, v *model.Video) error {
	res, err := r.db.ExecContext(ctx, `UPDATE youtube_videos
        SET title = ?, youtube_url = ?, video_id = ?, description = ?, category = ?, display_order = ?, updated_at = ?
        WHERE id = ?`,
		v.Title, v.YouTubeURL, v.VideoID, v.Description, v.Category, v.DisplayOrder, time.Now().UTC(), v.ID)
	if err != nil {
		return err
	}
	return expectRow(res)
}

// Deactivate soft-deletes a video.
func (r *VideoRepo) Deactivate(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE youtube_videos SET active = 0, updated_at = ? WHERE id = ? AND active = 1`, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	return expectRow(res)
}

func (r *VideoRepo) get(ctx context.Context, q string, id uint64) (*model.Video, error) {
	v, err := scanVideo(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return v, err
}

func scanVideo(row rowScanner) (*model.Video, error) {
	var (
		v         model.Video
		createdBy sql.NullInt64
	)
	if err := row.Scan(&v.ID, &v.Title, &v.YouTubeURL, &v.VideoID, &v.Description, &v.Category,
		&v.DisplayOrder, &createdBy, &v.CreatedAt, &v.UpdatedAt); err != nil {
		return nil, err
	}
	if createdBy.Valid {
		id := uint64(createdBy.Int64)
		v.CreatedBy = &id
	}
	return &v, nil
}
