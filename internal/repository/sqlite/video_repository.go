package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"objectsrecognition/internal/apperr"
	"objectsrecognition/internal/models"
)

// VideoRepository implements repository.VideoRepository for SQLite.
type VideoRepository struct {
	db *DB
}

// NewVideoRepository creates a new SQLite video repository.
func NewVideoRepository(db *DB) *VideoRepository {
	return &VideoRepository{db: db}
}

// InsertVideo adds a processed video record.
func (r *VideoRepository) InsertVideo(ctx context.Context, video *models.Video) error {
	r.db.Lock()
	defer r.db.Unlock()

	conn, err := r.db.acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	if video.CreatedAt.IsZero() {
		video.CreatedAt = time.Now().UTC()
	}

	if _, err := conn.ExecContext(ctx, `
		INSERT INTO videos (id, name, frame_rate, created_at) VALUES (?, ?, ?, ?)
	`, video.ID, video.Name, video.FrameRate, video.CreatedAt); err != nil {
		return fmt.Errorf("%w: failed to insert video: %v", apperr.ErrPersistence, err)
	}
	return nil
}

// DeleteVideo removes a video record; its frames go with it.
func (r *VideoRepository) DeleteVideo(ctx context.Context, id string) error {
	r.db.Lock()
	defer r.db.Unlock()

	conn, err := r.db.acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, `DELETE FROM videos WHERE id = ?`, id); err != nil {
		return fmt.Errorf("%w: failed to delete video: %v", apperr.ErrPersistence, err)
	}
	return nil
}

// InsertFrame adds an archived frame record.
func (r *VideoRepository) InsertFrame(ctx context.Context, frame *models.Frame) error {
	r.db.Lock()
	defer r.db.Unlock()

	conn, err := r.db.acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, `
		INSERT INTO frames (id, video_id, number, filepath, width, height) VALUES (?, ?, ?, ?, ?, ?)
	`, frame.ID, frame.VideoID, frame.Number, frame.FilePath, frame.Width, frame.Height); err != nil {
		return fmt.Errorf("%w: failed to insert frame: %v", apperr.ErrPersistence, err)
	}
	return nil
}

// ListVideos returns every processed video, oldest first.
func (r *VideoRepository) ListVideos(ctx context.Context) ([]models.Video, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	conn, err := r.db.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	rows, err := conn.QueryContext(ctx, `SELECT id, name, frame_rate, created_at FROM videos ORDER BY created_at, name`)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query videos: %v", apperr.ErrPersistence, err)
	}
	defer rows.Close()

	var videos []models.Video
	for rows.Next() {
		var v models.Video
		if err := rows.Scan(&v.ID, &v.Name, &v.FrameRate, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: failed to scan video: %v", apperr.ErrPersistence, err)
		}
		videos = append(videos, v)
	}
	return videos, rows.Err()
}

// GetFrame retrieves a frame by ID, nil when it does not exist.
func (r *VideoRepository) GetFrame(ctx context.Context, id string) (*models.Frame, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	conn, err := r.db.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	var f models.Frame
	err = conn.QueryRowContext(ctx, `
		SELECT id, video_id, number, filepath, width, height FROM frames WHERE id = ?
	`, id).Scan(&f.ID, &f.VideoID, &f.Number, &f.FilePath, &f.Width, &f.Height)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get frame: %v", apperr.ErrPersistence, err)
	}
	return &f, nil
}

// ListFrames returns the frames of a video ordered by frame number.
func (r *VideoRepository) ListFrames(ctx context.Context, videoID string) ([]models.Frame, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	conn, err := r.db.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	rows, err := conn.QueryContext(ctx, `
		SELECT id, video_id, number, filepath, width, height FROM frames WHERE video_id = ? ORDER BY number
	`, videoID)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query frames: %v", apperr.ErrPersistence, err)
	}
	defer rows.Close()

	var frames []models.Frame
	for rows.Next() {
		var f models.Frame
		if err := rows.Scan(&f.ID, &f.VideoID, &f.Number, &f.FilePath, &f.Width, &f.Height); err != nil {
			return nil, fmt.Errorf("%w: failed to scan frame: %v", apperr.ErrPersistence, err)
		}
		frames = append(frames, f)
	}
	return frames, rows.Err()
}
