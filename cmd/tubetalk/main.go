package main

import (
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/RohanKhanna/TubeTalk/app/repository"
	"github.com/RohanKhanna/TubeTalk/internal/pkg/billing"
	"github.com/RohanKhanna/TubeTalk/internal/pkg/cache"
	"github.com/RohanKhanna/TubeTalk/internal/pkg/database"
	"github.com/RohanKhanna/TubeTalk/internal/pkg/env"
	"github.com/RohanKhanna/TubeTalk/internal/pkg/router"
)

func main() {
	app := NewApplication()
	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000")))
	log.Fatal(err)
}

func NewApplication() *fiber.App {
	env.SetupEnvFile()
	database.SetupDatabase()
	cache.SetupCache()
	repository.InitializeFactory(database.GetDB())
	billing.SetupStripe()

	app := fiber.New(fiber.Config{
		AppName:   "TubeTalk",
		BodyLimit: 1 << 20, // 1 MiB, JSON API only
	})

	// recovery and logging
	app.Use(recover.New(), logger.New())

	// operational endpoints behind basic auth
	ops := basicauth.New(basicauth.Config{
		Users: map[string]string{
			env.GetEnv("METRICS_USER", "admin"): env.GetEnv("METRICS_PASSWORD", "test"),
		},
	})
	app.Get("/monitor", ops, monitor.New())
	app.Get("/metrics", ops, adaptor.HTTPHandler(promhttp.Handler()))

	// ROUTER
	router.InstallRouter(app)

	return app
}
