package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/RohanKhanna/TubeTalk/app/controllers"
	"github.com/RohanKhanna/TubeTalk/internal/pkg/middleware"
)

type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New(limiter.Config{
		Max: 120,
	}))

	// Auth
	auth := api.Group("/auth")
	auth.Post("/register", controllers.HandleAuthRegister)
	auth.Post("/login", controllers.HandleAuthLogin)
	auth.Post("/logout", controllers.HandleAuthLogout)
	api.Get("/me", middleware.RequireAPISessionAuth, controllers.HandleGetMe)

	// Transcripts and chat
	api.Post("/transcript", middleware.RequireAPISessionAuth, controllers.HandleCreateCollection)
	api.Get("/collections", middleware.RequireAPISessionAuth, controllers.HandleListCollections)
	api.Get("/collections/:uuid", middleware.RequireAPISessionAuth, controllers.HandleGetCollection)
	api.Post("/collections/:uuid/chat", middleware.RequireAPISessionAuth, controllers.HandleChat)

	// Billing. The webhook endpoint authenticates by signature, not session,
	// so it stays outside the session guard.
	api.Post("/checkout", middleware.RequireAPISessionAuth, controllers.HandleCreateCheckoutSession)
	api.Post("/verify-payment", middleware.RequireAPISessionAuth, controllers.HandleVerifyPayment)
	api.Post("/webhooks/stripe", controllers.HandleStripeWebhook)

	// Admin
	admin := api.Group("/admin", middleware.RequireAPIAdmin)
	admin.Get("/stats", controllers.HandleAdminStats)
	admin.Get("/users", controllers.HandleAdminListUsers)
	admin.Get("/payments", controllers.HandleAdminListPayments)
	admin.Get("/collections", controllers.HandleAdminListCollections)
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}
