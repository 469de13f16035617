// Package service holds the Manager, the single control layer behind every
// user action.
package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"objectsrecognition/internal/apperr"
	"objectsrecognition/internal/config"
	"objectsrecognition/internal/dto"
	"objectsrecognition/internal/geometry"
	"objectsrecognition/internal/logger"
	"objectsrecognition/internal/metrics"
	"objectsrecognition/internal/models"
	"objectsrecognition/internal/service/inference"
	"objectsrecognition/internal/service/media"
	"objectsrecognition/internal/service/watchdog"
	"objectsrecognition/internal/timeline"
)

// Notice captions.
const (
	CaptionConnection  = "Connection"
	CaptionOpenImage   = "Open image"
	CaptionOpenFolder  = "Open folder"
	CaptionOpenVideo   = "Open video"
	CaptionRecognition = "Recognition"
)

// Publisher delivers events to viewers.
type Publisher interface {
	Publish(event dto.Event)
}

// Connectivity is the watchdog as seen by the Manager.
type Connectivity interface {
	Connect(ctx context.Context) error
	State() watchdog.State
	Changes() <-chan watchdog.Change
	Stop()
}

// FrameArchive stores sampled video frames.
type FrameArchive interface {
	StartVideo(ctx context.Context, name string, frameRate int) (*models.Video, error)
	SaveFrame(ctx context.Context, video *models.Video, item *models.MediaItem) error
	Discard(ctx context.Context, video *models.Video) error
}

type Manager struct {
	watchdog     Connectivity
	orchestrator *inference.Orchestrator
	videos       *media.VideoSource
	archive      FrameArchive
	picker       media.Picker
	publisher    Publisher
	canvas       inference.Canvas
	frameRate    int
	logger       *logger.Logger
	metrics      *metrics.Metrics

	mu          sync.Mutex // guards timeline, batchCancel and sessionLog
	timeline    *timeline.Timeline
	batchCancel context.CancelFunc
	sessionLog  []string

	wg sync.WaitGroup
}

func NewManager(
	wd Connectivity,
	orchestrator *inference.Orchestrator,
	videos *media.VideoSource,
	archive FrameArchive,
	picker media.Picker,
	publisher Publisher,
	config *config.Config,
	logger *logger.Logger,
	m *metrics.Metrics,
) *Manager {
	return &Manager{
		watchdog:     wd,
		orchestrator: orchestrator,
		videos:       videos,
		archive:      archive,
		picker:       picker,
		publisher:    publisher,
		canvas:       inference.Canvas{Width: config.CanvasWidth, Height: config.CanvasHeight},
		frameRate:    config.FrameRate,
		logger:       logger,
		metrics:      m,
		timeline:     timeline.New(),
	}
}

// Connect performs the initial health probe. Failures are reported as a
// notice and returned.
func (m *Manager) Connect(ctx context.Context) error {
	if err := m.watchdog.Connect(ctx); err != nil {
		m.notify(CaptionConnection, err)
		return err
	}
	m.logger.Info("Connected to recognition service")
	return nil
}

// State returns the connectivity state.
func (m *Manager) State() watchdog.State {
	return m.watchdog.State()
}

// OpenImage loads the selected image and starts recognition on it.
func (m *Manager) OpenImage(ctx context.Context) error {
	return m.open(ctx, CaptionOpenImage, m.picker.PickImage, func(path string) ([]models.MediaItem, error) {
		item, err := media.LoadImage(path)
		if err != nil {
			return nil, err
		}
		return []models.MediaItem{item}, nil
	})
}

// OpenFolder loads every image of the selected folder and starts recognition
// on them in name order.
func (m *Manager) OpenFolder(ctx context.Context) error {
	return m.open(ctx, CaptionOpenFolder, m.picker.PickFolder, media.LoadFolder)
}

// OpenVideo samples the selected video, archives the kept frames and starts
// recognition on them in frame order.
func (m *Manager) OpenVideo(ctx context.Context) error {
	return m.open(ctx, CaptionOpenVideo, m.picker.PickVideo, func(path string) ([]models.MediaItem, error) {
		return m.loadVideo(ctx, path)
	})
}

func (m *Manager) open(ctx context.Context, caption string, pick func(context.Context) (string, error), load func(string) ([]models.MediaItem, error)) error {
	if state := m.watchdog.State(); state != watchdog.Connected {
		err := fmt.Errorf("%w: recognition service is %s", apperr.ErrUnavailable, state)
		m.notify(caption, err)
		return err
	}

	path, err := pick(ctx)
	if errors.Is(err, media.ErrNoSelection) {
		return nil
	}
	if err != nil {
		m.notify(caption, err)
		return err
	}

	items, err := load(path)
	if err != nil {
		m.logger.Error("%s %s failed: %v", caption, path, err)
		m.notify(caption, err)
		return err
	}

	m.startBatch(items)
	return nil
}

// loadVideo samples and archives the frames of path. On failure nothing of
// the video is left in the archive.
func (m *Manager) loadVideo(ctx context.Context, path string) (_ []models.MediaItem, err error) {
	seq, err := m.videos.Open(path)
	if err != nil {
		return nil, err
	}
	defer seq.Close()

	video, err := m.archive.StartVideo(ctx, filepath.Base(path), m.frameRate)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err == nil {
			return
		}
		if discardErr := m.archive.Discard(context.WithoutCancel(ctx), video); discardErr != nil {
			m.logger.Error("Failed to discard video %s: %v", video.ID, discardErr)
		}
	}()

	var items []models.MediaItem
	for {
		item, ok, err := seq.Next(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		if err := m.archive.SaveFrame(ctx, video, &item); err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	if len(items) == 0 {
		return nil, fmt.Errorf("%w: %s has fewer than %d frames", apperr.ErrInvalidInput, seq.Name(), m.frameRate)
	}
	m.logger.Info("Sampled %d frames from %s", len(items), seq.Name())
	return items, nil
}

// startBatch replaces the timeline and processes the new items in the
// background. Any batch still running is cancelled; its late results are
// rejected by the generation check.
func (m *Manager) startBatch(items []models.MediaItem) {
	ctx, cancel := context.WithCancel(context.Background())

	m.mu.Lock()
	if m.batchCancel != nil {
		m.batchCancel()
	}
	m.batchCancel = cancel
	generation := m.timeline.Load(items)
	loaded := m.timeline.Items()
	overlay := m.overlayLocked()
	m.mu.Unlock()

	m.metrics.SetTimelineItems(len(loaded))
	m.logger.Info("Loaded %d items (generation %d)", len(loaded), generation)
	m.publisher.Publish(dto.Event{Type: dto.EventOverlay, Overlay: &overlay})

	m.wg.Add(1)
	go m.processBatch(ctx, generation, loaded)
}

func (m *Manager) processBatch(ctx context.Context, generation uint64, items []models.MediaItem) {
	defer m.wg.Done()

	for i, item := range items {
		if ctx.Err() != nil {
			m.discard(generation, item.Name)
			return
		}

		result, err := m.orchestrator.Process(ctx, item)
		if ctx.Err() != nil {
			m.discard(generation, item.Name)
			return
		}
		if err != nil {
			m.notify(CaptionRecognition, err)
		}

		m.mu.Lock()
		err = m.timeline.SetRectsFor(generation, i, result.Rects)
		if err == nil {
			m.sessionLog = append(m.sessionLog, result.Log...)
		}
		current := m.timeline.Index()
		overlay := m.overlayLocked()
		m.mu.Unlock()

		if errors.Is(err, timeline.ErrStaleGeneration) {
			m.discard(generation, item.Name)
			return
		}
		if err != nil {
			m.logger.Error("Failed to store rectangles for %s: %v", item.Name, err)
			continue
		}

		m.publisher.Publish(dto.Event{Type: dto.EventProgress, Progress: &dto.Progress{Processed: i + 1, Total: len(items)}})
		if current == i {
			m.publisher.Publish(dto.Event{Type: dto.EventOverlay, Overlay: &overlay})
		}
	}
	m.logger.Info("Finished batch generation %d", generation)
}

func (m *Manager) discard(generation uint64, name string) {
	m.metrics.IncStale()
	m.logger.Info("Discarding result for %s from superseded batch %d", name, generation)
}

// Next moves to the following item and returns its overlay.
func (m *Manager) Next() dto.Overlay {
	return m.move((*timeline.Timeline).Next)
}

// Previous moves to the preceding item and returns its overlay.
func (m *Manager) Previous() dto.Overlay {
	return m.move((*timeline.Timeline).Previous)
}

func (m *Manager) move(step func(*timeline.Timeline)) dto.Overlay {
	m.mu.Lock()
	step(m.timeline)
	overlay := m.overlayLocked()
	m.mu.Unlock()

	m.publisher.Publish(dto.Event{Type: dto.EventOverlay, Overlay: &overlay})
	return overlay
}

// Current returns the overlay of the current item.
func (m *Manager) Current() dto.Overlay {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.overlayLocked()
}

// CurrentItem returns the current item with its rectangles.
func (m *Manager) CurrentItem() (models.MediaItem, []geometry.DisplayRect, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.timeline.Current()
}

// Item finds a loaded item by name.
func (m *Manager) Item(name string) (models.MediaItem, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, item := range m.timeline.Items() {
		if item.Name == name {
			return item, true
		}
	}
	return models.MediaItem{}, false
}

// Canvas returns the display canvas size.
func (m *Manager) Canvas() inference.Canvas {
	return m.canvas
}

// SessionLog returns every journal line produced since start.
func (m *Manager) SessionLog() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.sessionLog...)
}

func (m *Manager) overlayLocked() dto.Overlay {
	overlay := dto.Overlay{
		Index:  m.timeline.Index(),
		Total:  m.timeline.Len(),
		Width:  m.canvas.Width,
		Height: m.canvas.Height,
		Rects:  []dto.Rect{},
	}
	item, rects, ok := m.timeline.Current()
	if !ok {
		return overlay
	}
	overlay.Name = item.Name
	for _, r := range rects {
		overlay.Rects = append(overlay.Rects, dto.Rect{X: r.X, Y: r.Y, Width: r.Width, Height: r.Height, Color: string(r.Color)})
	}
	return overlay
}

// Wait blocks until every started batch has finished or been discarded.
func (m *Manager) Wait() {
	m.wg.Wait()
}

// Run forwards connectivity changes to viewers until ctx is done. Losing the
// service cancels the running batch.
func (m *Manager) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case change := <-m.watchdog.Changes():
			m.publisher.Publish(dto.Event{Type: dto.EventConnectivity, State: change.To.String()})
			if change.To != watchdog.Lost {
				continue
			}

			m.mu.Lock()
			if m.batchCancel != nil {
				m.batchCancel()
				m.batchCancel = nil
			}
			m.mu.Unlock()

			m.logger.Warning("Recognition service lost: %v", change.Err)
			m.notify(CaptionConnection, fmt.Errorf("%w: connection lost: %v", apperr.ErrUnavailable, change.Err))
		}
	}
}

// Close cancels the running batch, waits for it and stops the watchdog.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.batchCancel != nil {
		m.batchCancel()
		m.batchCancel = nil
	}
	m.mu.Unlock()

	m.wg.Wait()
	m.watchdog.Stop()
}

func (m *Manager) notify(caption string, err error) {
	notice := apperr.Notice(caption, err)
	m.publisher.Publish(dto.Event{Type: dto.EventNotice, Notice: &notice})
}
