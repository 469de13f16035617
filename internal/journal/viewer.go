package journal

import (
	"context"
	"fmt"
	"os"
	"strings"

	"objectsrecognition/internal/apperr"
	"objectsrecognition/internal/geometry"
	"objectsrecognition/internal/models"
)

// ImageLookup finds a still image loaded during the current session.
type ImageLookup func(name string) (models.MediaItem, bool)

// Selection is a journal entry placed back onto the image it was found on.
type Selection struct {
	Entry Entry
	Item  models.MediaItem
	Rect  geometry.DisplayRect
}

// Viewer resolves journal lines for display. Video entries are read from the
// frame archive; still entries are only available while their image is loaded.
type Viewer struct {
	service *Service
	stills  ImageLookup
	legend  *geometry.Legend
	width   int
	height  int
}

func NewViewer(service *Service, stills ImageLookup, legend *geometry.Legend, width, height int) *Viewer {
	return &Viewer{
		service: service,
		stills:  stills,
		legend:  legend,
		width:   width,
		height:  height,
	}
}

// Select parses line and maps its box onto the canvas. frameID names the
// archived frame of a video entry and is empty for still images.
func (v *Viewer) Select(ctx context.Context, line, frameID string) (Selection, error) {
	entry, err := Parse(line)
	if err != nil {
		return Selection{}, err
	}

	var item models.MediaItem
	if frameID != "" {
		item, err = v.loadFrame(ctx, entry, frameID)
		if err != nil {
			return Selection{}, err
		}
	} else {
		var ok bool
		if item, ok = v.stills(entry.Name); !ok {
			return Selection{}, fmt.Errorf("%w: image %s is not loaded", apperr.ErrInvalidInput, entry.Name)
		}
	}

	box := geometry.Box{ClassName: entry.ClassName, X: entry.X, Y: entry.Y, Width: entry.Width, Height: entry.Height}
	rect, err := geometry.Map(box, item.Width, item.Height, v.width, v.height, v.legend)
	if err != nil {
		return Selection{}, err
	}

	entry.FrameID = frameID
	return Selection{Entry: entry, Item: item, Rect: rect}, nil
}

func (v *Viewer) loadFrame(ctx context.Context, entry Entry, frameID string) (models.MediaItem, error) {
	frame, err := v.service.Frame(ctx, frameID)
	if err != nil {
		return models.MediaItem{}, err
	}
	if !strings.HasSuffix(entry.Name, fmt.Sprintf("#%d", frame.Number)) {
		return models.MediaItem{}, fmt.Errorf("%w: %s was not found on frame %d", apperr.ErrInvalidInput, entry.Name, frame.Number)
	}

	data, err := os.ReadFile(frame.FilePath)
	if err != nil {
		return models.MediaItem{}, fmt.Errorf("%w: failed to read frame %s: %v", apperr.ErrPersistence, frameID, err)
	}

	return models.MediaItem{
		Name:    entry.Name,
		Data:    data,
		Width:   frame.Width,
		Height:  frame.Height,
		VideoID: frame.VideoID,
		FrameID: frame.ID,
		Frame:   frame.Number,
	}, nil
}
