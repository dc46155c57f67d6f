package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	config "github.com/contentflow/contentflow-api/configs"
	"github.com/contentflow/contentflow-api/internal/api/handlers"
	"github.com/contentflow/contentflow-api/internal/api/middleware"
	"github.com/contentflow/contentflow-api/internal/repository"
	"github.com/contentflow/contentflow-api/internal/service"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Failed to load environment variables", err)
	}

	cfg := config.LoadConfig()

	db, err := sql.Open("postgres", cfg.PostgresURI)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := db.Ping(); err != nil {
		log.Fatalf("Database is unreachable: %v", err)
	}

	store, err := service.NewR2Service(context.Background(), *cfg)
	if err != nil {
		log.Fatalf("Failed to configure object storage: %v", err)
	}

	textGenerator, err := service.NewTextGenerator(*cfg)
	if err != nil {
		log.Fatalf("Failed to configure text generation: %v", err)
	}

	app := fiber.New(fiber.Config{
		ReadTimeout:  2 * time.Minute,
		WriteTimeout: 2 * time.Minute,
		BodyLimit:    int(cfg.MaxUploadBytes) + 1024*1024,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			slog.Error("unhandled error", "path", c.Path(), "error", err)
			return c.Status(code).JSON(fiber.Map{"error": err.Error()})
		},
	})

	app.Use(requestid.New(requestid.Config{
		Generator: func() string {
			return gonanoid.Must()
		},
	}))
	app.Use(logger.New(logger.Config{
		Format: "${time} ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.FrontendURL,
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           3600,
	}))

	postRepo := repository.NewPostRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)
	profileRepo := repository.NewProfileRepository(db)

	wipService := service.NewWIPImageService(store, *cfg)
	postService := service.NewPostService(*cfg, postRepo, wipService, store, service.NewImageGenerator(*cfg))
	settingsService := service.NewSettingsService(settingsRepo)
	contentService := service.NewContentService(settingsRepo, textGenerator)
	profileService := service.NewProfileService(profileRepo)

	authMiddleware := middleware.NewAuthMiddleware(cfg.JWTSecret)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api/v1")
	api.Use(authMiddleware.AuthMiddleware())

	post := handlers.NewPostHandler(postService)
	api.Post("/posts", post.CreatePost)
	api.Get("/posts", post.ListPosts)
	api.Get("/posts/:id", post.GetPost)
	api.Patch("/posts/:id", post.UpdatePost)
	api.Delete("/posts/:id", post.DeletePost)
	api.Post("/posts/:id/generate-preview-image", post.GeneratePreviewImage)
	api.Post("/posts/:id/upload-wip-preview", post.UploadWIPPreview)

	settings := handlers.NewSettingsHandler(settingsService)
	api.Get("/organization-settings/ai", settings.GetAISettings)
	api.Put("/organization-settings/ai", settings.UpdateAISettings)
	api.Get("/organization-settings/content-preferences", settings.GetContentPreferences)
	api.Put("/organization-settings/content-preferences", settings.UpdateContentPreferences)

	profile := handlers.NewProfileHandler(profileService)
	api.Get("/profiles/me", profile.GetProfile)
	api.Put("/profiles/me", profile.UpdateProfile)

	ai := handlers.NewAIHandler(contentService)
	api.Post("/ai/content-ideas", ai.GenerateContentIdeas)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()
	log.Printf("Server is running on http://localhost:%s", cfg.Port)

	gracefulShutdown(app, db)
}

func closeDB(db *sql.DB) {
	fmt.Fprint(os.Stdout, "Closing database connection... ")
	if err := db.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to close database: %v", err)
		return
	}
	fmt.Fprintln(os.Stdout, "Done")
}

func gracefulShutdown(app *fiber.App, db *sql.DB) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	log.Println("Shutting down server...")

	if err := app.ShutdownWithTimeout(30 * time.Second); err != nil {
		log.Fatalf("Failed to shut down server: %v", err)
	}

	closeDB(db)
	log.Println("Server shutdown complete.")
}
