// Package journal formats and reads the event journal, the human readable
// record of every persisted detection.
package journal

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"objectsrecognition/internal/apperr"
	"objectsrecognition/internal/models"
	"objectsrecognition/internal/repository"
)

// Entry is one journal line.
type Entry struct {
	Name      string `json:"name"`
	ClassName string `json:"class_name"`
	X         int    `json:"x"`
	Y         int    `json:"y"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	FrameID   string `json:"frame_id,omitempty"`
}

// EntryFromDetection converts a persisted detection.
func EntryFromDetection(d models.Detection) Entry {
	return Entry{
		Name:      d.Source,
		ClassName: d.ClassName,
		X:         d.X,
		Y:         d.Y,
		Width:     d.Width,
		Height:    d.Height,
		FrameID:   d.FrameID,
	}
}

// Format renders an entry as
// "Name: <n>; ClassName: <c>; x: <x>; y: <y>; width: <w>; height: <h>".
func Format(e Entry) string {
	return fmt.Sprintf("Name: %s; ClassName: %s; x: %d; y: %d; width: %d; height: %d",
		e.Name, e.ClassName, e.X, e.Y, e.Width, e.Height)
}

var fieldOrder = []string{"Name", "ClassName", "x", "y", "width", "height"}

// Parse reads a line produced by Format.
func Parse(line string) (Entry, error) {
	parts := strings.Split(line, "; ")
	if len(parts) != len(fieldOrder) {
		return Entry{}, fmt.Errorf("%w: journal line has %d fields, expected %d", apperr.ErrInvalidInput, len(parts), len(fieldOrder))
	}

	values := make([]string, len(parts))
	for i, part := range parts {
		key, value, ok := strings.Cut(part, ": ")
		if !ok || key != fieldOrder[i] {
			return Entry{}, fmt.Errorf("%w: expected field %q, got %q", apperr.ErrInvalidInput, fieldOrder[i], part)
		}
		values[i] = value
	}

	var nums [4]int
	for i := range nums {
		n, err := strconv.Atoi(values[i+2])
		if err != nil {
			return Entry{}, fmt.Errorf("%w: field %s: %v", apperr.ErrInvalidInput, fieldOrder[i+2], err)
		}
		nums[i] = n
	}

	return Entry{
		Name:      values[0],
		ClassName: values[1],
		X:         nums[0],
		Y:         nums[1],
		Width:     nums[2],
		Height:    nums[3],
	}, nil
}

// VideoJournal groups the entries of one processed video.
type VideoJournal struct {
	Video   models.Video   `json:"video"`
	Frames  []models.Frame `json:"frames"`
	Entries []Entry        `json:"entries"`
}

// Service reads the journal back from storage.
type Service struct {
	detections repository.DetectionRepository
	videos     repository.VideoRepository
}

func NewService(detections repository.DetectionRepository, videos repository.VideoRepository) *Service {
	return &Service{detections: detections, videos: videos}
}

// Still returns entries for detections made on single images and folders.
func (s *Service) Still(ctx context.Context) ([]Entry, error) {
	detections, err := s.detections.ListStill(ctx)
	if err != nil {
		return nil, err
	}
	return toEntries(detections), nil
}

// Videos lists every processed video.
func (s *Service) Videos(ctx context.Context) ([]models.Video, error) {
	return s.videos.ListVideos(ctx)
}

// Video returns the entries of one video in frame order.
func (s *Service) Video(ctx context.Context, videoID string) (VideoJournal, error) {
	videos, err := s.videos.ListVideos(ctx)
	if err != nil {
		return VideoJournal{}, err
	}

	for _, v := range videos {
		if v.ID != videoID {
			continue
		}
		return s.load(ctx, v)
	}
	return VideoJournal{}, fmt.Errorf("%w: unknown video %q", apperr.ErrInvalidInput, videoID)
}

// AllVideos returns every video with its entries, oldest video first.
func (s *Service) AllVideos(ctx context.Context) ([]VideoJournal, error) {
	videos, err := s.videos.ListVideos(ctx)
	if err != nil {
		return nil, err
	}

	journals := make([]VideoJournal, 0, len(videos))
	for _, v := range videos {
		vj, err := s.load(ctx, v)
		if err != nil {
			return nil, err
		}
		journals = append(journals, vj)
	}
	return journals, nil
}

func (s *Service) load(ctx context.Context, v models.Video) (VideoJournal, error) {
	frames, err := s.videos.ListFrames(ctx, v.ID)
	if err != nil {
		return VideoJournal{}, err
	}
	detections, err := s.detections.ListByVideo(ctx, v.ID)
	if err != nil {
		return VideoJournal{}, err
	}
	return VideoJournal{Video: v, Frames: frames, Entries: toEntries(detections)}, nil
}

// Frame returns one archived frame.
func (s *Service) Frame(ctx context.Context, frameID string) (*models.Frame, error) {
	frame, err := s.videos.GetFrame(ctx, frameID)
	if err != nil {
		return nil, err
	}
	if frame == nil {
		return nil, fmt.Errorf("%w: unknown frame %q", apperr.ErrInvalidInput, frameID)
	}
	return frame, nil
}

// Classes lists the distinct class names ever persisted.
func (s *Service) Classes(ctx context.Context) ([]string, error) {
	return s.detections.GetAllClassNames(ctx)
}

func toEntries(detections []models.Detection) []Entry {
	entries := make([]Entry, 0, len(detections))
	for _, d := range detections {
		entries = append(entries, EntryFromDetection(d))
	}
	return entries
}
