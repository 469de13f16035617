package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"objectsrecognition/internal/apperr"
	"objectsrecognition/internal/config"
	"objectsrecognition/internal/logger"
	"objectsrecognition/internal/models"
	"objectsrecognition/internal/repository"
)

// Archive stores sampled video frames on disk and records them so that
// detections can reference the frame they were found on.
type Archive struct {
	framesDir string
	videoRepo repository.VideoRepository
	logger    *logger.Logger
}

// NewArchive creates an Archive rooted at the configured frame directory.
func NewArchive(config *config.Config, logger *logger.Logger, videoRepo repository.VideoRepository) *Archive {
	return &Archive{
		framesDir: config.FrameDirectory,
		videoRepo: videoRepo,
		logger:    logger,
	}
}

// StartVideo registers a new processing pass over a video file.
func (a *Archive) StartVideo(ctx context.Context, name string, frameRate int) (*models.Video, error) {
	video := &models.Video{
		ID:        uuid.NewString(),
		Name:      name,
		FrameRate: frameRate,
		CreatedAt: time.Now().UTC(),
	}

	if err := os.MkdirAll(a.videoDir(video.ID), 0755); err != nil {
		return nil, fmt.Errorf("%w: failed to create frame directory: %v", apperr.ErrPersistence, err)
	}
	if err := a.videoRepo.InsertVideo(ctx, video); err != nil {
		return nil, err
	}

	a.logger.Info("Archiving frames of %s as video %s", name, video.ID)
	return video, nil
}

// SaveFrame writes the item's JPEG next to the other frames of the video,
// records it and stamps the item with the video and frame identifiers.
func (a *Archive) SaveFrame(ctx context.Context, video *models.Video, item *models.MediaItem) error {
	filename := fmt.Sprintf("%06d.jpg", item.Frame)
	fullpath := filepath.Join(a.videoDir(video.ID), filename)

	if err := os.WriteFile(fullpath, item.Data, 0644); err != nil {
		a.logger.Error("Error saving frame %s: %v", filename, err)
		return fmt.Errorf("%w: failed to write frame %s: %v", apperr.ErrPersistence, filename, err)
	}

	frame := &models.Frame{
		ID:       uuid.NewString(),
		VideoID:  video.ID,
		Number:   item.Frame,
		FilePath: fullpath,
		Width:    item.Width,
		Height:   item.Height,
	}
	if err := a.videoRepo.InsertFrame(ctx, frame); err != nil {
		os.Remove(fullpath)
		return err
	}

	item.VideoID = video.ID
	item.FrameID = frame.ID
	return nil
}

// Discard removes a video whose frames will not be used: its record, the
// frame records and the frame files.
func (a *Archive) Discard(ctx context.Context, video *models.Video) error {
	dbErr := a.videoRepo.DeleteVideo(ctx, video.ID)
	if err := os.RemoveAll(a.videoDir(video.ID)); err != nil {
		a.logger.Error("Error removing frames of video %s: %v", video.ID, err)
		if dbErr == nil {
			return fmt.Errorf("%w: failed to remove frame directory: %v", apperr.ErrPersistence, err)
		}
	}
	if dbErr != nil {
		return dbErr
	}

	a.logger.Info("Discarded video %s", video.ID)
	return nil
}

func (a *Archive) videoDir(videoID string) string {
	return filepath.Join(a.framesDir, videoID)
}
