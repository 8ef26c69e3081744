package main

import (
	"errors"
	"time"

	"katalog/internal/config"
	"katalog/internal/handlers"
	"katalog/internal/middleware"
	"katalog/internal/models"
	"katalog/internal/repositories"
	"katalog/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Dependencies are the external collaborators of the app. Events, Google and
// Images may be nil.
type Dependencies struct {
	DB     *gorm.DB
	Events services.EventPublisher
	Google handlers.FederatedProvider
	Images handlers.ImageStore
}

// Migrate creates or updates the tables of every stored model.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&models.User{}, &models.Category{}, &models.Product{})
}

// NewApp wires repositories, services and handlers into a Fiber app.
func NewApp(cfg *config.Config, deps Dependencies) (*fiber.App, *services.AuthService) {
	// --- Repositories ---
	userRepo := repositories.NewGORMUserRepository(deps.DB)
	categoryRepo := repositories.NewGORMCategoryRepository(deps.DB)
	productRepo := repositories.NewGORMProductRepository(deps.DB)

	// --- Services ---
	tokenService := services.NewTokenService(cfg.JWTSecretUser, cfg.JWTSecretAdmin)
	authService := services.NewAuthService(userRepo, tokenService, &services.AuthConfig{
		AdminSecret:       cfg.AdminSecret,
		AllowedAdminPhone: cfg.AllowedAdminPhone,
	}, deps.Events)
	categoryService := services.NewCategoryService(categoryRepo, deps.Events)
	productService := services.NewProductService(productRepo, deps.Events)

	// --- Handlers ---
	authHandler := handlers.NewAuthHandler(authService, deps.Google)
	categoryHandler := handlers.NewCategoryHandler(categoryService, deps.Images)
	productHandler := handlers.NewProductHandler(productService, deps.Images)

	app := fiber.New(fiber.Config{
		BodyLimit:    20 * 1024 * 1024,
		ErrorHandler: errorHandler,
	})
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New())

	if cfg.UploadDir != "" {
		app.Static("/uploads", cfg.UploadDir)
	}

	protect := middleware.AuthRequired(tokenService, userRepo)
	adminOnly := middleware.AdminOnly()

	api := app.Group("/api")
	authHandler.RegisterRoutes(api, protect)
	categoryHandler.RegisterRoutes(api, protect, adminOnly)
	productHandler.RegisterRoutes(api, protect, adminOnly)

	app.Get("/health", func(c *fiber.Ctx) error {
		status := "healthy"
		if sqlDB, err := deps.DB.DB(); err != nil || sqlDB.Ping() != nil {
			status = "degraded"
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": status,
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	return app, authService
}

// errorHandler renders errors that escape the handlers as {"message": ...}.
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Server error"
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		message = fe.Message
	} else {
		zap.S().Errorw("unhandled error", "method", c.Method(), "path", c.Path(), "error", err)
	}
	return c.Status(code).JSON(fiber.Map{"message": message})
}
