// Package wire provides dependency injection for llmtxt.
// It creates singleton services with lazy initialization.
package wire

import (
	"database/sql"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	cliadapter "github.com/example/llmtxt/internal/adapters/cli"
	"github.com/example/llmtxt/internal/adapters/filesystem"
	"github.com/example/llmtxt/internal/adapters/httpapi"
	"github.com/example/llmtxt/internal/adapters/pipeline"
	"github.com/example/llmtxt/internal/adapters/sqlite"
	"github.com/example/llmtxt/internal/app"
	"github.com/example/llmtxt/internal/config"
	"github.com/example/llmtxt/internal/db"
	"github.com/example/llmtxt/internal/logging"
	"github.com/example/llmtxt/internal/metrics"
)

// Container holds every long-lived component built from one configuration.
type Container struct {
	Config   *config.Config
	Logger   *zap.Logger
	Registry *prometheus.Registry
	Metrics  *metrics.Collector
	DB       *sql.DB
	Touched  *filesystem.TouchLog
	Root     *filesystem.DocumentRoot

	Artifacts  *app.ArtifactServiceImpl
	History    *app.HistoryServiceImpl
	Generation *app.GenerationServiceImpl
}

// Build creates the components for cfg. The caller owns the result and must Close it.
func Build(cfg *config.Config) (*Container, error) {
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(registry)

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	touched := filesystem.NewTouchLog()
	root, err := filesystem.NewDocumentRoot(cfg.DocRoot, touched, logger)
	if err != nil {
		database.Close()
		return nil, err
	}

	// Create repository adapters (secondary ports)
	historyRepo := sqlite.NewHistoryRepository(database)
	lock := filesystem.NewRequestLock(root.Root(), filesystem.LockOptions{
		Timeout:      cfg.Lock.Timeout,
		StaleAfter:   cfg.Lock.StaleAfter,
		PollInterval: cfg.Lock.PollInterval,
	}, collector, logger)
	backups := filesystem.NewBackupManager(collector, logger,
		filesystem.WithRecencyWindow(cfg.Backup.RecencyWindow),
		filesystem.WithBackupTouchLog(touched))

	// Create services (primary ports implementation)
	artifacts := app.NewArtifactService(app.ArtifactServiceDeps{
		Locker:        lock,
		Root:          root,
		Backups:       backups,
		Store:         app.NewHistoryStore(historyRepo, nil, collector, logger),
		Reconciler:    app.NewHistoryReconciler(historyRepo, nil, collector, logger),
		PublicBaseURL: cfg.PublicBaseURL,
		Metrics:       collector,
		Logger:        logger,
	})
	history := app.NewHistoryService(historyRepo,
		app.NewDeletionCoordinator(historyRepo, root, collector, logger),
		cfg.History.ListLimit)

	var limiter *rate.Limiter
	if cfg.Pipeline.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.Pipeline.RequestsPerSecond), 1)
	}
	client := pipeline.NewClient(cfg.Pipeline.BaseURL, cfg.Pipeline.Timeout, collector, logger)
	generation := app.NewGenerationService(client, artifacts, limiter, cfg.Pipeline.BatchSize, logger)

	return &Container{
		Config:     cfg,
		Logger:     logger,
		Registry:   registry,
		Metrics:    collector,
		DB:         database,
		Touched:    touched,
		Root:       root,
		Artifacts:  artifacts,
		History:    history,
		Generation: generation,
	}, nil
}

// Close releases the database and flushes the logger.
func (c *Container) Close() error {
	c.Logger.Sync()
	return c.DB.Close()
}

// Watcher returns a document root watcher sharing the container's touch log.
func (c *Container) Watcher() *filesystem.Watcher {
	return filesystem.NewWatcher(c.Root.Root(), c.Touched, c.Metrics, c.Logger)
}

// HTTPServer returns the HTTP API over the container's services.
func (c *Container) HTTPServer() *httpapi.Server {
	return httpapi.NewServer(httpapi.Services{
		Artifacts:  c.Artifacts,
		History:    c.History,
		Generation: c.Generation,
	}, c.Config.Owner, c.Registry, c.Logger)
}

var (
	mu        sync.Mutex
	active    *config.Config
	container *Container
	initErr   error
	once      sync.Once
)

// Configure sets the configuration used by the singletons. It has no effect
// once a singleton has been built.
func Configure(cfg *config.Config) {
	mu.Lock()
	defer mu.Unlock()
	active = cfg
}

// Default returns the singleton container.
func Default() (*Container, error) {
	once.Do(initServices)
	return container, initErr
}

// initServices builds the singleton container.
// This is called once via sync.Once.
func initServices() {
	mu.Lock()
	cfg := active
	mu.Unlock()
	if cfg == nil {
		cfg = config.Default()
	}
	container, initErr = Build(cfg)
}

// Shutdown closes the singleton container if it was built.
func Shutdown() error {
	if container == nil {
		return nil
	}
	return container.Close()
}

// ArtifactAdapter returns a new ArtifactAdapter writing to stdout.
// Each call creates a new adapter (adapters are stateless translators).
func ArtifactAdapter() (*cliadapter.ArtifactAdapter, error) {
	return ArtifactAdapterWithOutput(os.Stdout)
}

// ArtifactAdapterWithOutput returns a new ArtifactAdapter writing to the given output.
func ArtifactAdapterWithOutput(out io.Writer) (*cliadapter.ArtifactAdapter, error) {
	c, err := Default()
	if err != nil {
		return nil, err
	}
	return cliadapter.NewArtifactAdapter(c.Artifacts, out), nil
}

// HistoryAdapterWithOutput returns a new HistoryAdapter writing to the given output.
func HistoryAdapterWithOutput(out io.Writer) (*cliadapter.HistoryAdapter, error) {
	c, err := Default()
	if err != nil {
		return nil, err
	}
	return cliadapter.NewHistoryAdapter(c.History, out), nil
}

// GenerationAdapterWithOutput returns a new GenerationAdapter writing to the given output.
func GenerationAdapterWithOutput(out io.Writer) (*cliadapter.GenerationAdapter, error) {
	c, err := Default()
	if err != nil {
		return nil, err
	}
	return cliadapter.NewGenerationAdapter(c.Generation, out), nil
}
