package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/favicon"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/template/html/v2"

	"github.com/JonasWeigert/PostPilot/app/controllers"
	"github.com/JonasWeigert/PostPilot/app/models"
	"github.com/JonasWeigert/PostPilot/app/repository"
	"github.com/JonasWeigert/PostPilot/internal/pkg/authflow"
	"github.com/JonasWeigert/PostPilot/internal/pkg/broker"
	"github.com/JonasWeigert/PostPilot/internal/pkg/cache"
	"github.com/JonasWeigert/PostPilot/internal/pkg/config"
	"github.com/JonasWeigert/PostPilot/internal/pkg/credentials"
	"github.com/JonasWeigert/PostPilot/internal/pkg/database"
	"github.com/JonasWeigert/PostPilot/internal/pkg/env"
	"github.com/JonasWeigert/PostPilot/internal/pkg/mediastore"
	"github.com/JonasWeigert/PostPilot/internal/pkg/metrics/counter"
	"github.com/JonasWeigert/PostPilot/internal/pkg/router"
	"github.com/JonasWeigert/PostPilot/internal/pkg/socialpub"
)

func main() {
	app, cfg := NewApplication()
	err := app.Listen(fmt.Sprintf("%s:%s", cfg.AppHost, cfg.AppPort))
	log.Fatal(err)
}

func NewApplication() (*fiber.App, *config.Config) {
	env.SetupEnvFile()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	database.SetupDatabase()
	cache.SetupCache()
	repository.SetGlobalFactory(repository.NewFactory(database.GetDB()))

	// Define possible base paths
	basePaths := []string{
		"./",        // Current directory
		"../../",    // From cmd/postpilot to project root
		"../../../", // Fallback
	}

	basePath := ""
	for _, path := range basePaths {
		if _, err := os.Stat(path + "views"); !os.IsNotExist(err) {
			basePath = path
			break
		}
	}
	if basePath == "" {
		panic("Could not find project root directory")
	}

	// init fiber app
	app := fiber.New(fiber.Config{
		Views:     html.New(basePath+"views", ".html"),
		BodyLimit: 25 * 1024 * 1024,
	})

	// ignore and cache favicon
	app.Use(favicon.New(favicon.Config{
		File:         basePath + "public/assets/favicon.ico",
		URL:          "/favicon.ico",
		CacheControl: "public, max-age=604800",
	}))

	// recovery and logging
	app.Use(recover.New(), logger.New())

	// fiber metrics
	app.Get("/metrics", basicauth.New(basicauth.Config{
		Users: map[string]string{
			"admin": cfg.AdminSecret,
		},
	}), monitor.New())

	// static files
	app.Static("/", basePath+"public/assets", fiber.Static{
		CacheDuration: 15 * time.Second,
		Compress:      true,
	})

	// wiring: credential stores, linking, publishing
	stores := credentials.NewProvider(cfg, repository.GetGlobalFactory().GetCredentialRepository())

	var exchanger authflow.TokenExchanger
	if cfg.BrokerBaseURL != "" {
		if client := stores.BrokerClient(); client != nil {
			exchanger = client
		} else {
			exchanger = broker.NewClient(cfg.BrokerBaseURL, cfg.BrokerTimeout)
		}
	} else {
		exchanger = unconfiguredExchanger{}
	}

	bus := authflow.NewRedirectBus()
	coordinator := authflow.NewCoordinator(cfg, bus, authflow.BrowserSurface{})
	linker := authflow.NewLinker(coordinator, exchanger, stores)

	var media socialpub.MediaResolver
	if mediaCfg, err := mediastore.LoadConfig(); err == nil && mediaCfg.IsEnabled() {
		client, err := mediastore.NewClient(mediaCfg)
		if err != nil {
			log.Printf("media store unavailable, publishing without media: %v", err)
		} else {
			media = client
		}
	}

	publisher := socialpub.NewPublisher(cfg, stores, media)

	// drain per-post publish counters to the database in the background
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			if err := counter.FlushPostCounts(); err != nil {
				log.Printf("flushing publish counters: %v", err)
			}
		}
	}()

	// ROUTER
	router.InstallRouter(app, router.Deps{
		Cfg:     cfg,
		Connect: controllers.NewConnectController(cfg, linker, bus, stores),
		Publish: controllers.NewPublishController(publisher),
	})

	return app, cfg
}

// unconfiguredExchanger rejects linking when no broker is configured. The
// token exchange always runs broker-side so client secrets never reach this
// app.
type unconfiguredExchanger struct{}

func (unconfiguredExchanger) ExchangeToken(ctx context.Context, userID string, platform models.Platform, code, redirectURI string) (*broker.Profile, error) {
	return nil, fmt.Errorf("no broker configured for token exchange, set BROKER_BASE_URL")
}
