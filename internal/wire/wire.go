// Package wire provides dependency injection for the PostForge application.
// It creates singleton services with lazy initialization.
package wire

import (
	"io"
	"log"
	"os"
	"sync"

	cliadapter "github.com/example/postforge/internal/adapters/cli"
	"github.com/example/postforge/internal/adapters/gemini"
	"github.com/example/postforge/internal/adapters/instagram"
	"github.com/example/postforge/internal/adapters/pexels"
	"github.com/example/postforge/internal/adapters/render"
	"github.com/example/postforge/internal/adapters/sqlite"
	"github.com/example/postforge/internal/app"
	"github.com/example/postforge/internal/clients"
	"github.com/example/postforge/internal/config"
	"github.com/example/postforge/internal/db"
	"github.com/example/postforge/internal/logging"
	"github.com/example/postforge/internal/ports/primary"
	"github.com/example/postforge/internal/scheduler"
)

var (
	cfg            *config.Config
	contentService primary.ContentService
	publisher      *instagram.Publisher
	once           sync.Once
)

// Config returns the singleton configuration.
func Config() *config.Config {
	once.Do(initServices)
	return cfg
}

// ContentService returns the singleton ContentService instance.
func ContentService() primary.ContentService {
	once.Do(initServices)
	return contentService
}

// Scheduler returns a new scheduler driving the singleton service.
func Scheduler() *scheduler.Scheduler {
	once.Do(initServices)
	return scheduler.New(contentService, scheduler.Config{
		Topics:      cfg.Topics,
		Interval:    cfg.PostInterval,
		MaxAttempts: cfg.TickMaxAttempts,
		Logger:      logging.NewLoggerWithService("scheduler"),
	})
}

// initServices initializes all services and their dependencies.
// This is called once via sync.Once.
func initServices() {
	logger := logging.NewLogger()
	cfg = config.Load(logger)

	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("failed to prepare asset directories: %v", err)
	}

	database, err := db.GetDB()
	if err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}

	repo := sqlite.NewContentRepository(database)

	generator := gemini.NewClient(gemini.Config{
		APIKey: cfg.GeminiAPIKey,
		Model:  cfg.GeminiModel,
		Logger: logging.NewLoggerWithService("gemini"),
	})
	images := pexels.NewClient(pexels.Config{
		APIKey:         cfg.PexelsAPIKey,
		BackgroundsDir: cfg.BackgroundsDir,
		Logger:         logging.NewLoggerWithService("pexels"),
	})
	renderer := render.NewRenderer(render.Config{
		ProcessedDir: cfg.ProcessedDir,
		FontPath:     cfg.FontPath,
		LogoPath:     cfg.LogoPath,
		Logger:       logging.NewLoggerWithService("render"),
	})
	publisher = instagram.NewPublisher(instagram.Config{
		Username:    cfg.InstagramUsername,
		Password:    cfg.InstagramPassword,
		SessionPath: cfg.InstagramSessionPath,
		BaseURL:     cfg.InstagramBaseURL,
		Logger:      logging.NewLoggerWithService("instagram"),
	})

	contentService = app.NewContentService(repo, generator, images, renderer, publisher, app.Options{
		Retry: clients.RetryConfig{
			MaxAttempts: cfg.RetryMaxAttempts,
			BaseDelay:   cfg.RetryBaseDelay,
			MaxDelay:    cfg.RetryMaxDelay,
		},
		MaxGenerationAttempts: cfg.MaxGenerationAttempts,
		Logger:                logging.NewLoggerWithService("content"),
	})
}

// Teardown releases process-wide resources. Called on exit.
func Teardown() {
	if publisher != nil {
		if err := publisher.Close(); err != nil {
			log.Printf("failed to close publisher: %v", err)
		}
	}
	if err := db.Close(); err != nil {
		log.Printf("failed to close database: %v", err)
	}
}

// ContentAdapter returns a new ContentAdapter writing to stdout.
// Each call creates a new adapter (adapters are stateless translators).
func ContentAdapter() *cliadapter.ContentAdapter {
	return ContentAdapterWithOutput(os.Stdout)
}

// ContentAdapterWithOutput returns a new ContentAdapter writing to the given
// output. This variant allows testing or alternate output destinations.
func ContentAdapterWithOutput(out io.Writer) *cliadapter.ContentAdapter {
	once.Do(initServices)
	return cliadapter.NewContentAdapter(contentService, out)
}
