package main

import (
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/JonasWeigert/PostPilot/app/controllers"
	"github.com/JonasWeigert/PostPilot/app/repository"
	"github.com/JonasWeigert/PostPilot/internal/pkg/config"
	"github.com/JonasWeigert/PostPilot/internal/pkg/database"
	"github.com/JonasWeigert/PostPilot/internal/pkg/env"
	"github.com/JonasWeigert/PostPilot/internal/pkg/router"
	"github.com/JonasWeigert/PostPilot/internal/pkg/secretvault"
	"github.com/JonasWeigert/PostPilot/internal/pkg/upstream"
)

func main() {
	app, addr := NewBroker()
	log.Fatal(app.Listen(addr))
}

func NewBroker() (*fiber.App, string) {
	env.SetupEnvFile()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	database.SetupBrokerDatabase()
	repository.SetGlobalFactory(repository.NewFactory(database.GetDB()))

	vault, err := secretvault.NewVault(repository.GetGlobalFactory().GetSecretRepository(), cfg.VaultKey)
	if err != nil {
		log.Fatal(err)
	}

	app := fiber.New(fiber.Config{
		BodyLimit: 1024 * 1024,
	})
	app.Use(recover.New(), logger.New())

	app.Get("/metrics", basicauth.New(basicauth.Config{
		Users: map[string]string{
			"admin": cfg.AdminSecret,
		},
	}), monitor.New())

	bc := controllers.NewBrokerController(cfg, vault, upstream.NewClient(cfg))
	router.InstallBrokerRouter(app, cfg, bc)

	addr := fmt.Sprintf("%s:%s", env.GetEnv("BROKER_HOST", "localhost"), env.GetEnv("BROKER_PORT", "4100"))
	return app, addr
}
