package repository

import (
	"context"

	"objectsrecognition/internal/models"
)

// DetectionRepository defines the interface for detection data operations.
type DetectionRepository interface {
	// Create operations
	Insert(ctx context.Context, det *models.Detection) (int64, error)

	// Read operations
	ListStill(ctx context.Context) ([]models.Detection, error)
	ListByVideo(ctx context.Context, videoID string) ([]models.Detection, error)
	GetAllClassNames(ctx context.Context) ([]string, error)
}

// VideoRepository defines the interface for processed videos and their frames.
type VideoRepository interface {
	// Create operations
	InsertVideo(ctx context.Context, video *models.Video) error
	InsertFrame(ctx context.Context, frame *models.Frame) error

	// Delete operations
	DeleteVideo(ctx context.Context, id string) error

	// Read operations
	ListVideos(ctx context.Context) ([]models.Video, error)
	GetFrame(ctx context.Context, id string) (*models.Frame, error)
	ListFrames(ctx context.Context, videoID string) ([]models.Frame, error)
}
