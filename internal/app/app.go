package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/multierr"

	"objectsrecognition/internal/config"
	"objectsrecognition/internal/geometry"
	"objectsrecognition/internal/handler"
	"objectsrecognition/internal/journal"
	"objectsrecognition/internal/logger"
	"objectsrecognition/internal/metrics"
	"objectsrecognition/internal/repository/sqlite"
	"objectsrecognition/internal/route"
	"objectsrecognition/internal/screens"
	"objectsrecognition/internal/service"
	"objectsrecognition/internal/service/ai"
	"objectsrecognition/internal/service/inference"
	"objectsrecognition/internal/service/media"
	"objectsrecognition/internal/service/storage"
	"objectsrecognition/internal/service/watchdog"
	"objectsrecognition/internal/service/websocket"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	config     *config.Config
	logger     *logger.Logger
	metrics    *metrics.Metrics
	db         *sqlite.DB
	hubService *websocket.HubService
	manager    *service.Manager
	router     http.Handler
}

// Options tune how the App is assembled. Zero values select the production
// implementations.
type Options struct {
	EnvPath string        // .env file the configuration screen writes to
	Clock   clock.Clock   // watchdog clock
	Decoder media.Decoder // video decoder
}

// NewApp wires every service from cfg.
func NewApp(cfg *config.Config, logger *logger.Logger, opts Options) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if opts.EnvPath == "" {
		opts.EnvPath = ".env"
	}
	if opts.Decoder == nil {
		opts.Decoder = media.GocvDecoder{}
	}

	legend := geometry.DefaultLegend()
	if cfg.LegendPath != "" {
		loaded, err := geometry.LoadLegend(cfg.LegendPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load legend: %w", err)
		}
		legend = loaded
	}

	db, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return nil, err
	}
	detectionRepo := sqlite.NewDetectionRepository(db)
	videoRepo := sqlite.NewVideoRepository(db)

	met := metrics.New()
	client := ai.NewClient(cfg, logger)
	wd := watchdog.New(client, cfg.HealthInterval(), opts.Clock, logger, met)
	orchestrator := inference.NewOrchestrator(client, detectionRepo, legend,
		inference.Canvas{Width: cfg.CanvasWidth, Height: cfg.CanvasHeight}, met, logger)
	videos := media.NewVideoSource(opts.Decoder, cfg.FrameRate)
	archive := storage.NewArchive(cfg, logger, videoRepo)
	hub := websocket.NewHubService(logger)

	mng := service.NewManager(wd, orchestrator, videos, archive, media.ContextPicker{}, hub, cfg, logger, met)

	journalService := journal.NewService(detectionRepo, videoRepo)
	if classes, err := journalService.Classes(context.Background()); err != nil {
		logger.Warning("Failed to read stored class names: %v", err)
	} else if unknown := legend.Unknown(classes); len(unknown) > 0 {
		logger.Warning("Stored detections use classes missing from the legend: %v", unknown)
	}

	registry := screens.NewRegistry().
		Register(screens.Main, func(context.Context) (any, error) { return mng.Current(), nil }).
		Register(screens.Configuration, func(context.Context) (any, error) {
			return configurationView{Settings: cfg.Editable(), Legend: legend.Entries()}, nil
		}).
		Register(screens.EventJournal, func(ctx context.Context) (any, error) { return journalService.Still(ctx) }).
		Register(screens.VideoEventJournal, func(ctx context.Context) (any, error) { return journalService.AllVideos(ctx) })

	viewer := journal.NewViewer(journalService, mng.Item, legend, cfg.CanvasWidth, cfg.CanvasHeight)
	h := handler.NewHandler(mng, screens.NewNavigator(registry), viewer, cfg, opts.EnvPath, logger)

	return &App{
		config:     cfg,
		logger:     logger,
		metrics:    met,
		db:         db,
		hubService: hub,
		manager:    mng,
		router:     route.SetupRoutes(h, hub, met, logger),
	}, nil
}

type configurationView struct {
	Settings config.Editable        `json:"settings"`
	Legend   []geometry.LegendEntry `json:"legend"`
}

// Handler returns the HTTP handler of the control surface.
func (a *App) Handler() http.Handler {
	return a.router
}

// Start runs the background services until ctx is done.
func (a *App) Start(ctx context.Context) {
	go a.hubService.Run(ctx)
	go a.manager.Run(ctx)
}

// Run serves HTTP until ctx is done, then shuts the server down.
func (a *App) Run(ctx context.Context) error {
	a.Start(ctx)

	srv := &http.Server{Addr: fmt.Sprintf(":%d", a.config.Port), Handler: a.router}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	a.logger.Info("Recognition client listening on http://localhost:%d", a.config.Port)
	a.logger.Info("Recognition service: %s", a.config.ServiceURL)
	a.logger.Info("Database: %s", a.config.DatabasePath)

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	a.logger.Info("Shutdown signal received, draining connections")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// Close stops background work and releases the database.
func (a *App) Close() error {
	a.manager.Close()
	return multierr.Combine(
		a.db.Close(),
		a.logger.Close(),
	)
}
