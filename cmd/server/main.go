package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	config "github.com/cmisapp/publishflow/configs"
	"github.com/cmisapp/publishflow/internal/api/handlers"
	"github.com/cmisapp/publishflow/internal/api/middleware"
	job "github.com/cmisapp/publishflow/internal/jobs"
	"github.com/cmisapp/publishflow/internal/queue"
	"github.com/cmisapp/publishflow/internal/repository"
	"github.com/cmisapp/publishflow/internal/service"
	"github.com/robfig/cron"
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
	defer closeDB(db)

	if err := db.Ping(); err != nil {
		log.Fatalf("Database is unreachable: %v", err)
	}

	redisConn := asynq.RedisClientOpt{Addr: cfg.RedisURI}
	client := asynq.NewClient(redisConn)
	defer client.Close()

	app := fiber.New(fiber.Config{
		ReadTimeout:  10 * time.Minute,
		WriteTimeout: 10 * time.Minute,
		BodyLimit:    100 * 1024 * 1024, // 100 MB
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		},
	})

	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOriginsFunc: func(origin string) bool {
			return true
		},
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           3600,
	}))

	userRepo := repository.NewUserRepository(db)
	queueRepo := repository.NewQueueRepository(db)
	scheduledPostRepo := repository.NewScheduledPostRepository(db)
	socialAccountRepo := repository.NewSocialAccountRepository(db)
	postMediaRepo := repository.NewPostMediaRepository(db)
	mediaAssetRepo := repository.NewMediaAssetRepository(db)
	postingHistoryRepo := repository.NewPostingHistoryRepository(db)
	apiKeyRepo := repository.NewApiKeyRepository(db)

	authService := service.NewAuthService(*cfg, userRepo)
	storageService := service.NewStorageService(*cfg)
	queueService := service.NewQueueService(queueRepo, socialAccountRepo, scheduledPostRepo)
	postService := service.NewPostService(db, scheduledPostRepo, socialAccountRepo, mediaAssetRepo, postMediaRepo, storageService)
	platformService := service.NewPlatformService(*cfg, socialAccountRepo)
	instagramService := service.NewInstagramService(*cfg, socialAccountRepo, postMediaRepo, mediaAssetRepo)
	tiktokService := service.NewTiktokService(*cfg, socialAccountRepo, postMediaRepo, mediaAssetRepo)
	youtubeService := service.NewYoutubeService(*cfg, socialAccountRepo, postMediaRepo, mediaAssetRepo)
	apiKeyService := service.NewApiKeyService(apiKeyRepo)

	authMiddleware := middleware.NewAuthMiddleware(*cfg, apiKeyService)

	auth := handlers.NewAuthHandler(*cfg, authService)
	app.Get("/login", auth.Login)
	app.Get("/login/callback", auth.LoginCallbackHandler)

	platform := handlers.NewPlatformHandler(platformService, instagramService, tiktokService, youtubeService, *cfg)
	app.Get("/auth/:platform", platform.AddSocialAccount)
	app.Get("/auth/:platform/callback", platform.CallbackHandler)

	api := app.Group("/api")
	api.Use(authMiddleware.AuthMiddleware())

	apiKeys := handlers.NewApiKeyHandler(apiKeyService)
	api.Post("/api_key/new", apiKeys.CreateApiKey)
	api.Get("/api_key/list", apiKeys.ListKeys)
	api.Post("/api_key/remove", apiKeys.RemoveApiKey)

	queueH := handlers.NewQueueHandler(queueService)
	api.Get("/queues", queueH.ListQueues)
	api.Get("/queues/optimal_times", queueH.OptimalTimes)
	api.Get("/queues/account/:account_id", queueH.GetAccountQueue)
	api.Post("/queues/create", queueH.CreateQueue)
	api.Post("/queues/:id/update", queueH.UpdateQueue)
	api.Post("/queues/:id/remove", queueH.DeleteQueue)
	api.Post("/queues/:id/toggle", queueH.ToggleQueue)
	api.Get("/queues/:id/next_slot", queueH.NextSlot)
	api.Get("/queues/:id/stats", queueH.QueueStats)

	post := handlers.NewPostHandler(postService)
	api.Post("/posts/create", post.QueuePost)
	api.Get("/posts", post.ListPosts)
	api.Post("/posts/reschedule", post.ReschedulePost)
	api.Post("/posts/remove", post.RemovePost)

	// social accounts api routes
	api.Get("/accounts", platform.ListSocialAccounts)
	api.Post("/accounts/remove", platform.DeleteSocialAccount)

	// cron jobs
	refreshTokenJob := job.NewTokenRefreshJob(socialAccountRepo, instagramService, tiktokService, youtubeService)
	queueFillJob := job.NewQueueFillJob(queueRepo, scheduledPostRepo, client)

	worker := queue.NewWorker(scheduledPostRepo, socialAccountRepo, postingHistoryRepo, instagramService, tiktokService, youtubeService)

	c := cron.New()
	c.AddFunc(cfg.QueueFillSpec, queueFillJob.Fill)
	c.AddFunc("@every 00h10m00s", refreshTokenJob.RefreshTokens)
	c.Start()

	go func() {
		server := asynq.NewServer(redisConn, asynq.Config{
			Concurrency: cfg.WorkerConcurrency,
		})

		mux := asynq.NewServeMux()
		mux.HandleFunc(queue.TaskTypePublishPost, worker.HandlePublishPostTask)

		log.Println("Starting the Asynq server...")
		if err := server.Run(mux); err != nil {
			log.Fatalf("Could not start Asynq server: %v", err)
		}
	}()

	go func() {
		if err := app.Listen(":3000"); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()
	log.Println("Server is running on http://localhost:3000")

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

	if err := app.Shutdown(); err != nil {
		log.Fatalf("Failed to shut down server: %v", err)
	}

	closeDB(db)
	log.Println("Server shutdown complete.")
}
