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
	"github.com/robfig/cron"
	config "github.com/socialhub-app/socialhub/configs"
	"github.com/socialhub-app/socialhub/internal/api/handlers"
	"github.com/socialhub-app/socialhub/internal/api/middleware"
	job "github.com/socialhub-app/socialhub/internal/jobs"
	"github.com/socialhub-app/socialhub/internal/providers"
	"github.com/socialhub-app/socialhub/internal/queue"
	"github.com/socialhub-app/socialhub/internal/repository"
	"github.com/socialhub-app/socialhub/internal/service"
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

	registry := providers.NewRegistry(cfg.MastodonBaseURL)

	userRepo := repository.NewUserRepository(db)
	postRepo := repository.NewPostRepository(db)
	postAccountRepo := repository.NewPostAccountRepository(db)
	socialAccountRepo := repository.NewSocialAccountRepository(db)
	socialConfigRepo := repository.NewSocialConfigRepository(db)
	apiKeyRepo := repository.NewApiKeyRepository(db)

	userService := service.NewUserService(userRepo)
	mediaService := service.NewMediaService(*cfg)
	accountService := service.NewAccountService(*cfg, socialAccountRepo, registry)
	authService := service.NewAuthService(*cfg, userRepo, accountService)
	credentialService := service.NewCredentialService(*cfg, socialConfigRepo, socialAccountRepo, registry)
	tokenService := service.NewTokenService(*cfg, socialAccountRepo, credentialService, registry)
	publishService := service.NewPublishService(*cfg, postRepo, postAccountRepo, socialAccountRepo, credentialService, tokenService, registry)
	postService := service.NewPostService(db, postRepo, postAccountRepo, socialAccountRepo, mediaService)
	apiKeyService := service.NewApiKeyService(apiKeyRepo)

	authMiddleware := middleware.NewAuthMiddleware(*cfg, apiKeyService)

	auth := handlers.NewAuthHandler(*cfg, authService)
	app.Post("/register", auth.Register)
	app.Post("/login", auth.Login)
	app.Get("/login/google", auth.GoogleLogin)
	app.Get("/login/callback", auth.GoogleCallback)
	app.Post("/logout", auth.Logout)

	api := app.Group("/api")
	api.Use(authMiddleware.AuthMiddleware())

	user := handlers.NewUserHandler(userService)
	api.Get("/user/info", user.GetUserInfo)

	credentials := handlers.NewCredentialsHandler(credentialService)
	api.Post("/credentials", credentials.SaveConfig)
	api.Get("/credentials", credentials.ListConfigs)
	api.Post("/credentials/:provider/verify", credentials.VerifyCredentials)
	api.Delete("/credentials/:provider", credentials.DeleteConfig)

	accounts := handlers.NewAccountHandler(accountService)
	api.Post("/accounts/:provider/link", accounts.LinkAccount)
	api.Get("/accounts", accounts.ListAccounts)
	api.Post("/accounts/remove", accounts.DisconnectAccount)

	apiKeys := handlers.NewApiKeyHandler(apiKeyService)
	api.Post("/api_key/new", apiKeys.CreateApiKey)
	api.Get("/api_key/list", apiKeys.ListKeys)
	api.Post("/api_key/remove", apiKeys.RemoveAPIKey)

	post := handlers.NewPostHandler(postService, publishService, client)
	api.Post("/posts/create", post.CreatePost)
	api.Get("/posts", post.ListPosts)
	api.Post("/posts/remove", post.RemovePost)

	// cron jobs
	refreshTokenJob := job.NewTokenRefreshJob(socialAccountRepo, tokenService)

	// queue
	queueW := queue.NewQueue(publishService)

	c := cron.New()
	c.AddFunc("@every 00h10m00s", refreshTokenJob.RefreshTokens)
	c.Start()

	go func() {
		server := asynq.NewServer(redisConn, asynq.Config{
			Concurrency: 10,
		})

		mux := asynq.NewServeMux()
		mux.HandleFunc(queue.TaskTypeDispatchPost, queueW.HandleDispatchPostTask)

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
