package api

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	config "github.com/maheshrc27/postr/configs"
	"github.com/maheshrc27/postr/internal/api/handlers"
	"github.com/maheshrc27/postr/internal/api/middleware"
	"github.com/maheshrc27/postr/internal/metrics"
	"github.com/maheshrc27/postr/internal/service"
)

type Services struct {
	Auth         service.AuthService
	User         service.UserService
	Account      service.AccountService
	Collaborator service.CollaboratorService
	Post         service.PostService
	Queue        service.QueueService
	Schedule     service.ScheduleService
	Subscription service.SubscriptionService
	Media        service.MediaService
	Audit        service.AuditService
}

func NewApp(cfg config.Config, s Services, m metrics.Metrics) *fiber.App {
	app := fiber.New(fiber.Config{
		ReadTimeout:  10 * time.Minute,
		WriteTimeout: 10 * time.Minute,
		BodyLimit:    100 * 1024 * 1024, // 100 MB
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if e, ok := err.(*fiber.Error); ok {
				return c.Status(e.Code).JSON(fiber.Map{"error": e.Message})
			}
			slog.Error(err.Error())
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		},
	})

	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOriginsFunc: func(origin string) bool {
			return cfg.FrontendURL == "" || origin == cfg.FrontendURL
		},
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           3600,
	}))

	app.Get("/metrics", adaptor.HTTPHandler(m.Handler()))

	auth := handlers.NewAuthHandler(cfg, s.Auth)
	app.Post("/login", auth.Login)
	app.Post("/logout", auth.Logout)

	billing := handlers.NewBillingHandler(s.Subscription)
	app.Post("/webhooks/stripe", billing.StripeWebhook)

	authMiddleware := middleware.NewAuthMiddleware(cfg)
	api := app.Group("/api")
	api.Use(authMiddleware.AuthMiddleware())

	user := handlers.NewUserHandler(s.User)
	api.Get("/user/info", user.GetUserInfo)
	api.Put("/user/profile", user.UpdateProfile)

	accounts := handlers.NewAccountHandler(s.Account)
	api.Get("/accounts", accounts.ListAccounts)
	api.Post("/accounts", accounts.CreateAccount)

	account := api.Group("/accounts/:account")
	account.Get("/", accounts.GetAccount)

	settings := handlers.NewSettingsHandler(s.Account)
	account.Get("/settings", settings.GetSettingsInfo)
	account.Put("/settings", settings.UpdateSettings)

	collaborators := handlers.NewCollaboratorHandler(s.Collaborator)
	account.Get("/collaborators", collaborators.List)
	account.Post("/collaborators", collaborators.Invite)
	account.Put("/collaborators/:user", collaborators.UpdatePermissions)
	account.Delete("/collaborators/:user", collaborators.Remove)
	api.Post("/invitations/:account/respond", collaborators.Respond)

	posts := handlers.NewPostHandler(s.Post)
	account.Get("/posts", posts.ListPosts)
	account.Post("/posts", posts.CreateDraft)
	account.Post("/posts/import", posts.Import)
	account.Get("/posts/:id", posts.GetPost)
	account.Delete("/posts/:id", posts.RemovePost)
	account.Get("/stats", posts.Stats)

	queues := handlers.NewQueueHandler(s.Queue)
	account.Get("/queues", queues.List)
	account.Post("/queues", queues.Create)
	account.Put("/queues/:id", queues.Rename)
	account.Delete("/queues/:id", queues.Delete)

	schedules := handlers.NewScheduleHandler(s.Schedule)
	account.Get("/schedules", schedules.List)
	account.Post("/schedules", schedules.Schedule)
	account.Post("/schedules/:id/cancel", schedules.Cancel)

	media := handlers.NewMediaHandler(s.Media)
	account.Post("/media", media.Upload)

	audit := handlers.NewAuditHandler(s.Audit)
	account.Get("/audit", audit.List)

	account.Get("/billing", billing.Status)
	account.Get("/revenue", billing.Revenue)

	return app
}
