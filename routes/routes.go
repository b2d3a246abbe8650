package routes

import (
	controller "dripmail/controllers"
	"dripmail/middleware"
	"dripmail/store"
	"dripmail/worker"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/websocket/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Deps carries what the HTTP surface needs from main.
type Deps struct {
	DB              *gorm.DB
	Scheduler       *worker.DripScheduler
	JWTSecret       string
	RateLimitPublic int
	// RateLimitStorage nil keeps limiter counters in memory.
	RateLimitStorage fiber.Storage
}

var requestLogFormat = "[${time}] ${status} - ${latency} ${method} ${path}\n"

// SetupPublicRoutes registers the unauthenticated opt-in and unsubscribe
// endpoints.
func SetupPublicRoutes(app *fiber.App, deps Deps) {
	formController := controller.NewFormController(deps.DB, logrus.WithField("component", "form"))
	unsubscribeController := controller.NewUnsubscribeController(deps.DB,
		store.NewGormSettingsStore(deps.DB), logrus.WithField("component", "unsubscribe"))

	forms := app.Group("/forms",
		logger.New(logger.Config{Format: requestLogFormat}),
		middleware.PublicRateLimiter(deps.RateLimitPublic, deps.RateLimitStorage),
	)
	forms.Post("/:listId/subscribe", formController.Subscribe)

	unsubscribe := app.Group("/unsubscribe", logger.New(logger.Config{Format: requestLogFormat}))
	unsubscribe.Get("/", unsubscribeController.Unsubscribe)
	// one-click unsubscribe posts to the same URL
	unsubscribe.Post("/", unsubscribeController.Unsubscribe)

	logrus.Info("Public routes initialized successfully")
}

func SetupAPIRoutes(app *fiber.App, deps Deps) {
	storage := store.NewGormStorage(deps.DB)

	campaignController := controller.NewCampaignController(deps.DB, logrus.WithField("component", "campaign"))
	contactController := controller.NewContactController(deps.DB, logrus.WithField("component", "contact"))
	dashboardController := controller.NewDashboardController(deps.DB, logrus.WithField("component", "dashboard"))
	settingsController := controller.NewSettingsController(storage.Settings)
	dripController := controller.NewDripController(deps.Scheduler, logrus.WithField("component", "drip"))

	// WebSocket route for live drip runs, registered before the JSON logger
	app.Use("/api/v1/drip/ws", middleware.Protected(deps.JWTSecret), func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/api/v1/drip/ws", websocket.New(dripController.HandleRunWS))

	api := app.Group("/api/v1", middleware.Protected(deps.JWTSecret), logger.New(logger.Config{
		Format: requestLogFormat,
	}))

	// Dashboard routes
	dashboard := api.Group("/dashboard")
	dashboard.Get("/stats", dashboardController.GetDashboardStats)
	dashboard.Get("/sends", dashboardController.GetSendsOverTime)
	dashboard.Get("/steps", dashboardController.GetStepSends)

	// Drip campaign routes
	campaign := api.Group("/campaigns")
	campaign.Post("/", campaignController.CreateCampaign)
	campaign.Get("/", campaignController.GetCampaigns)
	campaign.Get("/:id", campaignController.GetCampaign)
	campaign.Put("/:id", campaignController.UpdateCampaign)
	campaign.Delete("/:id", campaignController.DeleteCampaign)
	campaign.Post("/:id/activate", campaignController.ActivateCampaign)
	campaign.Post("/:id/pause", campaignController.PauseCampaign)

	// Contact routes
	contact := api.Group("/contacts")
	contact.Post("/import", contactController.ImportContacts)
	contact.Get("/export", contactController.ExportContacts)
	contact.Post("/", contactController.CreateContact)
	contact.Get("/", contactController.GetContacts)
	contact.Get("/:id", contactController.GetContact)
	contact.Put("/:id", contactController.UpdateContact)
	contact.Delete("/:id", contactController.DeleteContact)

	// Contact list routes
	list := api.Group("/lists")
	list.Post("/", contactController.CreateList)
	list.Get("/", contactController.GetLists)
	list.Get("/:id", contactController.GetList)
	list.Put("/:id", contactController.UpdateList)
	list.Delete("/:id", contactController.DeleteList)
	list.Post("/:id/add-contacts", contactController.AddContactsToList)
	list.Post("/:id/remove-contacts", contactController.RemoveContactsFromList)

	// Settings routes
	api.Get("/settings", settingsController.GetSettings)
	api.Put("/settings", settingsController.UpdateSettings)

	// Drip run routes
	api.Post("/drip/run", dripController.RunNow)

	logrus.Info("API routes initialized successfully")
}

func SetupRoutes(app *fiber.App, deps Deps) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	SetupPublicRoutes(app, deps)
	SetupAPIRoutes(app, deps)

	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   "Not Found",
			"message": "The requested resource was not found",
		})
	})
}
