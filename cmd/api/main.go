package main

import (
	"log"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/session"

	"casaviva_backend/internal/controller"
	"casaviva_backend/internal/middleware"
	"casaviva_backend/internal/model"
	"casaviva_backend/pkg/config"
	"casaviva_backend/pkg/cron"
	"casaviva_backend/pkg/database"
	"casaviva_backend/pkg/email"
	"casaviva_backend/pkg/seed"
	"casaviva_backend/pkg/utils/storage"
)

func setupRoutes(app *fiber.App, cfg *config.Config, sessions *session.Store, limiter *middleware.RateLimiter, formLimiter *middleware.RateLimiter) {
	api := app.Group("/api")

	// Auth Routes
	auth := api.Group("/auth")
	auth.Post("/login", controller.Login)
	auth.Post("/logout", controller.Logout)
	auth.Get("/status", controller.AuthStatus)

	// Newsletter subscription lifecycle
	subscribe := api.Group("/subscribe")
	subscribe.Post("/", middleware.RateLimit(limiter, middleware.KeyByEmailIP), controller.Subscribe)
	subscribe.Put("/", middleware.RateLimit(limiter, middleware.KeyByEmailIP), controller.UpdatePreferences)
	subscribe.Get("/confirm/:token", controller.ConfirmSubscription)
	subscribe.Get("/:email", middleware.RateLimit(limiter, middleware.KeyByEmailIP), controller.GetSubscription)

	// Provider webhook, always answers 200
	api.Post("/webhooks/brevo", controller.EmailProviderWebhook)

	// Public listing/post surface
	api.Get("/properties", controller.ListProperties)
	api.Get("/properties/:slug", controller.GetPropertyBySlug)
	api.Get("/posts", controller.ListPosts)
	api.Get("/posts/:id/images", controller.GetPostImages)
	api.Get("/posts/:slug", controller.GetPostBySlug)
	api.Get("/feed.xml", controller.GetFeed)

	// Lead capture
	api.Post("/leads", middleware.RateLimit(formLimiter, middleware.KeyByIP), controller.CreateLead)

	// Notify endpoints accept the admin session or the cron token, so
	// the detached self-call on publication can reach them too. They are
	// registered before the admin group: its gate is mounted on the
	// /api/admin prefix and would otherwise shadow the cron token.
	cronOK := middleware.AdminOrCron(sessions, cfg.Auth.CronToken)
	api.Post("/admin/notify-listing", cronOK, controller.NotifyListing)
	api.Post("/admin/notify-post", cronOK, controller.NotifyPost)

	// Back-office
	admin := api.Group("/admin", middleware.AdminRequired(sessions))

	properties := admin.Group("/properties")
	properties.Post("/", controller.CreateProperty)
	properties.Put("/:id", controller.UpdateProperty)
	properties.Delete("/:id", controller.DeleteProperty)
	properties.Post("/:id/images", controller.UploadPropertyImage)
	properties.Put("/:id/images/reorder", controller.ReorderPropertyImages)
	properties.Post("/:id/images/restore", controller.RestorePropertyImages)
	properties.Delete("/images/:image_id", controller.DeletePropertyImage)

	posts := admin.Group("/posts")
	posts.Post("/", controller.CreatePost)
	posts.Put("/:id", controller.UpdatePost)
	posts.Delete("/:id", controller.DeletePost)
	posts.Post("/:id/images", controller.UploadPostImage)
	posts.Put("/:id/images/reorder", controller.ReorderPostImages)
	posts.Post("/:id/images/restore", controller.RestorePostImages)
	posts.Delete("/images/:image_id", controller.DeletePostImage)

	admin.Get("/leads", controller.GetLeads)
	admin.Delete("/leads/:id", controller.DeleteLead)
}

func main() {
	cfg := config.Load()

	if err := email.InitEmailService(
		cfg.Email.APIKey,
		cfg.Email.ListID,
		cfg.Email.ConfirmTplID,
		cfg.Email.SenderName,
		cfg.Email.SenderEmail,
	); err != nil {
		log.Fatal("Could not initialize email service:", err)
	}

	if cfg.Server.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set in .env")
	}

	database.InitDB(cfg.Server.DatabaseURL)
	err := database.MigrateDatabase(
		database.GetDB(),
		&model.User{},
		&model.Property{},
		&model.PropertyImage{},
		&model.Post{},
		&model.PostImage{},
		&model.Lead{},
		&model.Subscription{},
	)
	if err != nil {
		log.Printf("Migration warning: %v", err)
	}

	seed.SeedAdminUser(database.GetDB(), os.Getenv("ADMIN_USERNAME"), os.Getenv("ADMIN_PASSWORD"))

	var storageClient *storage.Client
	if cfg.Storage.AccountID != "" {
		storageClient, err = storage.NewClient(
			cfg.Storage.AccountID,
			cfg.Storage.AccessKey,
			cfg.Storage.SecretKey,
			cfg.Storage.Bucket,
			cfg.Storage.CDNBase,
		)
		if err != nil {
			log.Fatal("Could not initialize storage client:", err)
		}
	} else {
		log.Printf("R2 credentials missing, image uploads disabled")
	}

	sessions := session.New(session.Config{
		Expiration:     12 * time.Hour,
		CookieHTTPOnly: true,
		CookieSameSite: "Lax",
	})

	controller.Init(cfg, sessions, storageClient)

	// 5 requests per 15 minutes per (email, IP) on the subscribe family;
	// the looser one covers lead forms keyed by IP only.
	subscribeLimiter := middleware.NewRateLimiter(5, 15*time.Minute)
	formLimiter := middleware.NewRateLimiter(10, 15*time.Minute)

	sweeper := cron.InitLimiterSweep(subscribeLimiter)
	defer sweeper.Stop()
	formSweeper := cron.InitLimiterSweep(formLimiter)
	defer formSweeper.Stop()
	digest := cron.InitLeadDigestCron(cfg.Email.AgencyInbox)
	defer digest.Stop()

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Unhandled error on %s: %v", c.Path(), err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Errore interno del server",
			})
		},
	})

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New())

	setupRoutes(app, cfg, sessions, subscribeLimiter, formLimiter)

	log.Printf("Server is running on port %s", cfg.Server.Port)
	log.Fatal(app.Listen(":" + cfg.Server.Port))
}
