package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/RohanKhanna/TubeTalk/internal/pkg/middleware"
	"github.com/RohanKhanna/TubeTalk/internal/pkg/session"
)

// Router installs a group of routes on the app.
type Router interface {
	InstallRouter(app *fiber.App)
}

// InstallRouter initializes the session store and the global user context
// middleware, then registers all route groups.
func InstallRouter(app *fiber.App) {
	session.NewSessionStore()
	app.Use(middleware.UserContextMiddleware)

	setup(app, NewApiRouter())
}

func setup(app *fiber.App, router ...Router) {
	for _, r := range router {
		r.InstallRouter(app)
	}
}
