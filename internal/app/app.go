// Package app wires configuration, the event cache, the upstream
// client, and all HTTP handlers into one application object.
package app

import (
	"time"

	"github.com/kurator-news/kurator/internal/cache"
	"github.com/kurator-news/kurator/internal/client"
	"github.com/kurator-news/kurator/internal/common"
	"github.com/kurator-news/kurator/internal/config"
	"github.com/kurator-news/kurator/internal/feed"
	"github.com/kurator-news/kurator/internal/handlers"
	"github.com/kurator-news/kurator/internal/status"
	"github.com/kurator-news/kurator/internal/stream"
)

// App holds all application components and dependencies.
type App struct {
	Config *config.Config
	Logger *common.Logger

	Cache    *cache.EventCache
	Engine   *client.EngineClient
	Feed     *feed.Service
	Merger   *stream.Merger
	Notifier *stream.Notifier
	Monitor  *status.Monitor

	// HTTP handlers
	HealthHandler       *handlers.HealthHandler
	VersionHandler      *handlers.VersionHandler
	EventsHandler       *handlers.EventsHandler
	GraphHandler        *handlers.GraphHandler
	HighlightsHandler   *handlers.HighlightsHandler
	StreamHandler       *handlers.StreamHandler
	EngineStatusHandler *handlers.EngineStatusHandler
}

// New initializes the application with all dependencies.
func New(cfg *config.Config, logger *common.Logger) (*App, error) {
	a := &App{
		Config: cfg,
		Logger: logger,
	}

	a.Engine = client.NewEngineClient(cfg.Upstream.URL, cfg.Upstream.ArchiveURL, cfg.Upstream.GetTimeout())
	a.Cache = cache.New(cfg.Cache.GetTTL(), logger)
	a.Feed = feed.NewService(a.Cache, a.Engine, cfg.Upstream.DefaultLang, cfg.Cache.ArchiveLimit, logger)

	a.Notifier = stream.NewNotifier(0)
	a.Merger = stream.NewMerger(
		a.Cache,
		a.Engine.Stream,
		a.Notifier,
		time.Duration(cfg.Stream.InitialBackoffMs)*time.Millisecond,
		time.Duration(cfg.Stream.MaxBackoffMs)*time.Millisecond,
		logger,
	)

	a.Monitor = status.NewMonitor(a.Engine.Status, cfg.Upstream.GetStatusInterval(), logger)

	a.initHandlers()

	logger.Info().Msg("application initialization complete")

	return a, nil
}

// Start brings up the background components: the live stream connection
// and the engine status poller.
func (a *App) Start() {
	a.Monitor.Start()
	a.Merger.Connect()
}

// initHandlers initializes all HTTP handlers.
func (a *App) initHandlers() {
	a.HealthHandler = handlers.NewHealthHandler(a.Logger)
	a.VersionHandler = handlers.NewVersionHandler(a.Logger)
	a.EventsHandler = handlers.NewEventsHandler(a.Logger, a.Feed, a.Config)
	a.GraphHandler = handlers.NewGraphHandler(a.Logger, a.Feed, a.Config)
	a.HighlightsHandler = handlers.NewHighlightsHandler(a.Logger, a.Cache)
	a.StreamHandler = handlers.NewStreamHandler(a.Logger, a.Merger, a.Notifier)
	a.EngineStatusHandler = handlers.NewEngineStatusHandler(a.Logger, a.Monitor)

	a.Logger.Debug().Msg("HTTP handlers initialized")
}

// Close shuts down background components.
func (a *App) Close() error {
	a.Merger.Disconnect()
	a.Monitor.Stop()
	return nil
}
