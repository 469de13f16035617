// Package inference sends media items to the recognition service and turns
// the answer into display rectangles, persisted detections and journal lines.
package inference

import (
	"context"
	"fmt"

	"objectsrecognition/internal/apperr"
	"objectsrecognition/internal/dto"
	"objectsrecognition/internal/geometry"
	"objectsrecognition/internal/journal"
	"objectsrecognition/internal/logger"
	"objectsrecognition/internal/metrics"
	"objectsrecognition/internal/models"
)

// Detector is the remote recognition endpoint.
type Detector interface {
	Detect(ctx context.Context, name string, jpeg []byte) ([]dto.ObjectBBox, error)
}

// DetectionSaver persists one detection at a time.
type DetectionSaver interface {
	Insert(ctx context.Context, det *models.Detection) (int64, error)
}

// Canvas is the fixed display size rectangles are mapped onto.
type Canvas struct {
	Width  int
	Height int
}

// Result is what one processed item yields.
type Result struct {
	Rects []geometry.DisplayRect
	Log   []string
}

type Orchestrator struct {
	detector Detector
	saver    DetectionSaver
	legend   *geometry.Legend
	canvas   Canvas
	metrics  *metrics.Metrics
	logger   *logger.Logger
}

func NewOrchestrator(detector Detector, saver DetectionSaver, legend *geometry.Legend, canvas Canvas, m *metrics.Metrics, logger *logger.Logger) *Orchestrator {
	return &Orchestrator{
		detector: detector,
		saver:    saver,
		legend:   legend,
		canvas:   canvas,
		metrics:  m,
		logger:   logger,
	}
}

// Process runs inference for one item. A failed request yields an empty
// result with a single log line and the request error; per-detection
// validation or persistence failures are logged and skipped without
// affecting their siblings. Nothing is retried.
func (o *Orchestrator) Process(ctx context.Context, item models.MediaItem) (Result, error) {
	var result Result

	boxes, err := o.detector.Detect(ctx, item.Name, item.Data)
	if err != nil {
		o.metrics.IncInference(metrics.OutcomeOf(err))
		o.logger.Error("Inference for %s failed: %v", item.Name, err)
		result.Log = append(result.Log, fmt.Sprintf("Name: %s; recognition failed", item.Name))
		return result, err
	}
	o.metrics.IncInference(metrics.OutcomeSuccess)

	for i, bbox := range boxes {
		if bbox.Err != nil {
			o.metrics.IncSkipped("invalid")
			o.logger.Warning("Skipping detection %d of %s: malformed entry: %v", i, item.Name, bbox.Err)
			result.Log = append(result.Log, fmt.Sprintf("Name: %s; skipped detection %d: malformed entry", item.Name, i))
			continue
		}

		box := geometry.Box{ClassName: bbox.ClassName, X: bbox.X, Y: bbox.Y, Width: bbox.Width, Height: bbox.Height}

		rect, err := geometry.Map(box, item.Width, item.Height, o.canvas.Width, o.canvas.Height, o.legend)
		if err != nil {
			o.metrics.IncSkipped("invalid")
			o.logger.Warning("Skipping detection %d of %s: %v", i, item.Name, err)
			result.Log = append(result.Log, fmt.Sprintf("Name: %s; skipped detection %d: invalid %s", item.Name, i, describe(bbox)))
			continue
		}

		det := &models.Detection{
			Source:    item.Name,
			FrameID:   item.FrameID,
			ClassName: bbox.ClassName,
			X:         bbox.X,
			Y:         bbox.Y,
			Width:     bbox.Width,
			Height:    bbox.Height,
		}
		if err := o.save(ctx, det); err != nil {
			o.metrics.IncSkipped("persistence")
			o.logger.Error("Failed to save detection %d of %s: %v", i, item.Name, err)
			result.Log = append(result.Log, fmt.Sprintf("Name: %s; skipped detection %d: not saved %s", item.Name, i, describe(bbox)))
			continue
		}
		o.metrics.IncPersisted()

		result.Rects = append(result.Rects, rect)
		result.Log = append(result.Log, journal.Format(journal.EntryFromDetection(*det)))
	}

	return result, nil
}

func (o *Orchestrator) save(ctx context.Context, det *models.Detection) error {
	if _, err := o.saver.Insert(ctx, det); err != nil {
		if apperr.Kind(err) == nil {
			return fmt.Errorf("%w: %v", apperr.ErrPersistence, err)
		}
		return err
	}
	return nil
}

func describe(b dto.ObjectBBox) string {
	return fmt.Sprintf("%s at %d,%d size %dx%d", b.ClassName, b.X, b.Y, b.Width, b.Height)
}
