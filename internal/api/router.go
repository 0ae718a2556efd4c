package api

import (
	"time"

	"retire-rag/internal/api/handlers"
	"retire-rag/pkg/auth"
	"retire-rag/pkg/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
)

type RouterConfig struct {
	AllowOrigins string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// AccessLog enables the per-request access log middleware.
	AccessLog bool
}

func SetupRouter(
	retirementHandler *handlers.RetirementHandler,
	adminHandler *handlers.AdminHandler,
	jwtManager *auth.JWTManager,
	cfg RouterConfig,
	appLogger *zap.Logger,
) *fiber.App {
	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"status": "error",
				"error":  err.Error(),
			})
		},
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.AllowOrigins,
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))
	if cfg.AccessLog {
		app.Use(logger.New())
	}

	app.Get("/health", adminHandler.Health)

	api := app.Group("/api/retirement")
	api.Post("/plan", retirementHandler.CreatePlan)
	api.Post("/feedback", retirementHandler.SubmitFeedback)
	api.Post("/query", retirementHandler.Query)
	api.Get("/intermediate_calculations/:plan_id", retirementHandler.IntermediateCalculations)

	api.Post("/admin/login", adminHandler.Login)

	adminOnly := middleware.AdminMiddleware(jwtManager, appLogger)
	api.Get("/user_profiles", adminOnly, adminHandler.ListProfiles)
	api.Get("/admin/index/status", adminOnly, adminHandler.IndexStatus)
	api.Post("/admin/index/rebuild", adminOnly, adminHandler.RebuildIndex)

	return app
}
