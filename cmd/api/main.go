package main

import (
	"context"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"
	"github.com/joho/godotenv"

	"github.com/ThalesYuji/tcc-2025-sub000/internal/config"
	"github.com/ThalesYuji/tcc-2025-sub000/internal/db"
	"github.com/ThalesYuji/tcc-2025-sub000/internal/handlers"
	"github.com/ThalesYuji/tcc-2025-sub000/internal/middleware"
	"github.com/ThalesYuji/tcc-2025-sub000/internal/models"
	"github.com/ThalesYuji/tcc-2025-sub000/internal/realtime"
	"github.com/ThalesYuji/tcc-2025-sub000/internal/services/mercadopago"
	"github.com/ThalesYuji/tcc-2025-sub000/internal/services/notify"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	gdb, err := db.Connect(cfg.DBDSN)
	if err != nil {
		log.Fatal(err)
	}

	if err := gdb.AutoMigrate(
		&models.User{},
		&models.Job{},
		&models.Proposal{},
		&models.Contract{},
		&models.Payment{},
		&models.Notification{},
		&models.Message{},
		&models.Rating{},
		&models.Report{},
	); err != nil {
		log.Fatal(err)
	}

	hub := realtime.NewHub()
	go hub.Run()

	rdb := realtime.NewRedis()
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Println("Redis unavailable, notifications stay single-instance:", err)
		rdb = nil
	} else {
		go realtime.Bridge(context.Background(), rdb, hub)
	}

	notifier := notify.NewService(gdb, hub, rdb)

	mp, err := mercadopago.NewService(cfg.MPAccessToken, cfg.AppBaseURL, cfg.FrontendBaseURL)
	if err != nil {
		log.Fatal(err)
	}

	authH := &handlers.AuthHandler{DB: gdb, JWTSecret: cfg.JWTSecret, Expires: cfg.JWTExpiresMin}
	googleH := &handlers.GoogleOAuthHandler{
		DB:              gdb,
		JWTSecret:       cfg.JWTSecret,
		Expires:         cfg.JWTExpiresMin,
		GoogleClientID:  cfg.GoogleClientID,
		GoogleSecret:    cfg.GoogleSecret,
		GoogleRedirect:  cfg.GoogleRedirect,
		FrontendBaseURL: cfg.FrontendBaseURL,
	}
	jobH := handlers.NewJobHandler(gdb)
	proposalH := handlers.NewProposalHandler(gdb, notifier)
	contractH := handlers.NewContractHandler(gdb, notifier)
	paymentH := handlers.NewPaymentHandler(gdb, mp, notifier)
	notificationH := handlers.NewNotificationHandler(gdb)
	messageH := handlers.NewMessageHandler(gdb, notifier)
	ratingH := handlers.NewRatingHandler(gdb, notifier)
	reportH := handlers.NewReportHandler(gdb, notifier)
	wsH := handlers.NewWSHandler(hub, cfg.JWTSecret)

	paymentH.StartReconciliationWorker(5 * time.Minute)

	app := fiber.New()

	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.FrontendBaseURL,
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		ExposeHeaders:    "Content-Length",
		AllowCredentials: true,
	}))

	api := app.Group("/api")

	// public
	api.Post("/auth/register", authH.Register)
	api.Post("/auth/login", authH.Login)
	api.Post("/auth/logout", authH.Logout)
	api.Get("/auth/google/start", googleH.GoogleStart)
	api.Get("/auth/google/callback", googleH.GoogleCallback)
	api.Post("/payments/webhook", paymentH.Webhook)
	api.Get("/users/:id/ratings", ratingH.ListForUser)

	// protected (JWT cookie)
	protected := api.Group("/",
		middleware.JWTFromCookie(cfg.JWTSecret),
		middleware.AttachJWTLocals(),
	)

	protected.Get("/me", func(c *fiber.Ctx) error {
		uid := c.Locals("userId")
		var user models.User
		if err := gdb.First(&user, "id = ?", uid).Error; err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"message": "Usuário não encontrado",
			})
		}
		return c.JSON(fiber.Map{
			"success": true,
			"data": fiber.Map{
				"id":    user.ID,
				"name":  user.Name,
				"email": user.Email,
				"role":  user.Role,
			},
		})
	})

	// jobs
	protected.Post("/jobs", middleware.RequireRoles("client", "admin"), jobH.Create)
	protected.Get("/jobs", jobH.List)
	protected.Get("/jobs/:id", jobH.Get)
	protected.Put("/jobs/:id", jobH.Update)
	protected.Delete("/jobs/:id", jobH.Delete)

	// proposals
	protected.Post("/proposals", middleware.RequireRoles("freelancer"), proposalH.Submit)
	protected.Get("/proposals/mine", middleware.RequireRoles("freelancer"), proposalH.ListMine)
	protected.Get("/jobs/:id/proposals", proposalH.ListForJob)
	protected.Get("/proposals/:id", proposalH.Get)
	protected.Post("/proposals/:id/accept", proposalH.Accept)
	protected.Post("/proposals/:id/reject", proposalH.Reject)
	protected.Delete("/proposals/:id", proposalH.Delete)

	// contracts
	protected.Get("/contracts", contractH.List)
	protected.Get("/contracts/:id", contractH.Get)
	protected.Patch("/contracts/:id/status", contractH.UpdateStatus)
	protected.Post("/contracts/direct", middleware.RequireRoles("admin"), contractH.DirectHire)

	// payments
	protected.Post("/payments/checkout", middleware.RequireRoles("client"), paymentH.CreateCheckout)
	protected.Get("/payments", paymentH.List)
	protected.Get("/payments/:id", paymentH.Get)
	protected.Post("/payments/:id/approve", middleware.RequireRoles("admin"), paymentH.ManualApprove)

	// notifications
	protected.Get("/notifications", notificationH.List)
	protected.Patch("/notifications/:id/read", notificationH.MarkRead)
	protected.Patch("/notifications/read-all", notificationH.MarkAllRead)

	// messages
	protected.Post("/messages", messageH.Send)
	protected.Get("/messages", messageH.Inbox)
	protected.Get("/messages/:userId", messageH.Conversation)

	// ratings
	protected.Post("/ratings", ratingH.Create)

	// reports
	protected.Post("/reports", reportH.Create)
	protected.Get("/reports", reportH.List)
	protected.Patch("/reports/:id/resolve", middleware.RequireRoles("admin"), reportH.Resolve)

	// WebSocket endpoint (auth via token query param)
	app.Get("/ws/notifications", websocket.New(wsH.Notifications))

	log.Fatal(app.Listen(":" + cfg.AppPort))
}
