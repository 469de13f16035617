package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"objectsrecognition/internal/apperr"
	"objectsrecognition/internal/models"
)

// DetectionRepository implements repository.DetectionRepository for SQLite.
type DetectionRepository struct {
	db *DB
}

// NewDetectionRepository creates a new SQLite detection repository.
func NewDetectionRepository(db *DB) *DetectionRepository {
	return &DetectionRepository{db: db}
}

// Insert adds a single detection record.
func (r *DetectionRepository) Insert(ctx context.Context, det *models.Detection) (int64, error) {
	r.db.Lock()
	defer r.db.Unlock()

	conn, err := r.db.acquire(ctx)
	if err != nil {
		return 0, err
	}
	defer conn.Close()

	if det.CreatedAt.IsZero() {
		det.CreatedAt = time.Now().UTC()
	}

	result, err := conn.ExecContext(ctx, `
		INSERT INTO detections (source, frame_id, class_name, x, y, width, height, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, det.Source, det.FrameID, det.ClassName, det.X, det.Y, det.Width, det.Height, det.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("%w: failed to insert detection: %v", apperr.ErrPersistence, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("%w: failed to read detection id: %v", apperr.ErrPersistence, err)
	}
	det.ID = id
	return id, nil
}

// ListStill returns detections of still images in insertion order.
func (r *DetectionRepository) ListStill(ctx context.Context) ([]models.Detection, error) {
	return r.query(ctx, `
		SELECT id, source, frame_id, class_name, x, y, width, height, created_at
		FROM detections WHERE frame_id = '' ORDER BY id
	`)
}

// ListByVideo returns detections of every frame of a video, ordered by frame
// number and then insertion order.
func (r *DetectionRepository) ListByVideo(ctx context.Context, videoID string) ([]models.Detection, error) {
	return r.query(ctx, `
		SELECT d.id, d.source, d.frame_id, d.class_name, d.x, d.y, d.width, d.height, d.created_at
		FROM detections d JOIN frames f ON f.id = d.frame_id
		WHERE f.video_id = ? ORDER BY f.number, d.id
	`, videoID)
}

// GetAllClassNames returns a list of all unique detected class names.
func (r *DetectionRepository) GetAllClassNames(ctx context.Context) ([]string, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	conn, err := r.db.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	rows, err := conn.QueryContext(ctx, `SELECT DISTINCT class_name FROM detections ORDER BY class_name`)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query class names: %v", apperr.ErrPersistence, err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("%w: failed to scan class name: %v", apperr.ErrPersistence, err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (r *DetectionRepository) query(ctx context.Context, query string, args ...any) ([]models.Detection, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	conn, err := r.db.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	rows, err := conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query detections: %v", apperr.ErrPersistence, err)
	}
	defer rows.Close()

	var detections []models.Detection
	for rows.Next() {
		det, err := scanDetection(rows)
		if err != nil {
			return nil, err
		}
		detections = append(detections, det)
	}
	return detections, rows.Err()
}

func scanDetection(rows *sql.Rows) (models.Detection, error) {
	var det models.Detection
	if err := rows.Scan(&det.ID, &det.Source, &det.FrameID, &det.ClassName, &det.X, &det.Y, &det.Width, &det.Height, &det.CreatedAt); err != nil {
		return det, fmt.Errorf("%w: failed to scan detection: %v", apperr.ErrPersistence, err)
	}
	return det, nil
}
