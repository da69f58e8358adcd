package routes

import (
	"github.com/go-redis/redis/v8"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"finflow/config"
	controller "finflow/controllers"
	"finflow/middleware"
	"finflow/queue"
	"finflow/services"
	"finflow/storage"
	"finflow/utils"
)

// Deps carries the shared components the route tree wires together. Every
// controller gets its collaborators from here instead of reaching for
// globals.
type Deps struct {
	Config   *config.Config
	DB       *gorm.DB
	Redis    *redis.Client
	JWT      *utils.JWTManager
	Queue    *queue.Queue
	Store    storage.ExportStore
	Services *Services
}

type Services struct {
	Subscriptions *services.SubscriptionService
	GDPR          *services.GDPRService
	Portfolio     *services.PortfolioAnalyzer
	LLM           *services.LLMService
}

func setupAuthRoutes(app *fiber.App, deps *Deps) {
	authController := controller.NewAuthController(deps.DB, deps.JWT, deps.Services.Subscriptions)

	auth := app.Group("/auth", logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	// Public auth endpoints (no authentication required)
	auth.Post("/register", authController.Register)
	auth.Post("/login", authController.Login)
	auth.Post("/refresh", authController.RefreshToken)

	// Protected auth endpoints (require valid JWT)
	protectedAuth := auth.Group("", middleware.Protected(deps.DB, deps.JWT))
	protectedAuth.Get("/me", authController.GetCurrentUser)
}

func setupAPIRoutes(app *fiber.App, deps *Deps) {
	userController := controller.NewUserController(deps.DB)
	subscriptionController := controller.NewSubscriptionController(deps.Services.Subscriptions)
	portfolioController := controller.NewPortfolioController(deps.Services.Portfolio)
	chatController := controller.NewChatController(deps.Services.LLM)
	privacyController := controller.NewPrivacyController(deps.Services.GDPR, deps.Queue, deps.Store)

	// API group with versioning, protection and a redis-backed rate limit
	api := app.Group("/api/v1",
		middleware.Protected(deps.DB, deps.JWT),
		middleware.APIRateLimiter(deps.Redis, deps.Config.RateLimitPerMinute),
		logger.New(logger.Config{
			Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
		}))

	// User routes
	user := api.Group("/users")
	user.Get("/:id", userController.GetUser)
	user.Put("/:id", userController.UpdateUser)
	user.Delete("/:id", userController.DeleteUser)

	// Subscription routes
	subscription := api.Group("/subscription")
	subscription.Get("/", subscriptionController.GetSubscription)
	subscription.Get("/usage", subscriptionController.GetUsage)

	// Metered feature routes
	api.Post("/portfolio/analyze", portfolioController.Analyze)
	api.Post("/chat", chatController.Chat)

	// GDPR routes
	privacy := api.Group("/privacy")
	privacy.Post("/consent", privacyController.RecordConsent)
	privacy.Post("/export", privacyController.RequestExport)
	privacy.Get("/export/:id", privacyController.GetExport)
	privacy.Post("/anonymize", privacyController.Anonymize)
}

func SetupRoutes(app *fiber.App, deps *Deps) {
	healthController := controller.NewHealthController(deps.DB, deps.Redis, deps.Config.Version)
	app.Get("/health", healthController.Health)
	app.Get("/health/ready", healthController.Ready)
	app.Get("/health/live", healthController.Live)

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Stripe calls this endpoint directly; authentication is the signature
	// check inside the controller.
	webhookController := controller.NewWebhookController(deps.Queue, deps.Config.StripeWebhookSecret)
	app.Post("/webhooks/stripe", webhookController.HandleStripeWebhook)

	setupAuthRoutes(app, deps)
	setupAPIRoutes(app, deps)

	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   "Not Found",
			"message": "The requested resource was not found",
		})
	})
}
