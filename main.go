package main

import (
	"context"
	"log"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v76"

	"finflow/config"
	"finflow/middleware"
	"finflow/models"
	"finflow/queue"
	"finflow/routes"
	"finflow/services"
	"finflow/storage"
	"finflow/utils"
	"finflow/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.SentryDSN,
			Environment: cfg.Environment,
			Release:     cfg.Version,
		}); err != nil {
			log.Fatalf("Failed to initialize Sentry: %v", err)
		}
		defer sentry.Flush(2 * time.Second)
	}

	stripe.Key = cfg.StripeSecretKey

	db, err := config.ConnectDB(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := models.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	redisClient := config.ConnectRedis(cfg)

	encryptor, err := utils.NewEncryptor(cfg.EncryptionKey)
	if err != nil {
		log.Fatalf("Failed to initialize audit encryptor: %v", err)
	}
	jwtManager := utils.NewJWTManager(cfg.JWTSecret)
	mailer := utils.NewMailer(cfg.SMTP)

	var store storage.ExportStore
	if cfg.Storage.Backend == "s3" {
		store, err = storage.NewS3ExportStore(context.Background(), cfg.Storage)
	} else {
		store, err = storage.NewLocalExportStore(cfg.Storage.ExportDir)
	}
	if err != nil {
		log.Fatalf("Failed to initialize export storage: %v", err)
	}

	subscriptions := services.NewSubscriptionService(db)
	gateway := services.NewFeatureGateway(subscriptions)
	gdpr := services.NewGDPRService(db, encryptor)
	portfolio := services.NewPortfolioAnalyzer(gateway)

	llmClient := services.NewOpenRouterClient(cfg.OpenRouterAPIKey, cfg.OpenRouterBaseURL, cfg.LLMModel)
	conversations := services.NewRedisConversationStore(redisClient)
	llm := services.NewLLMService(db, llmClient, conversations, gateway)

	taskQueue := queue.New(redisClient, "tasks")
	taskQueue.MaxAttempts = cfg.TaskMaxAttempts
	taskQueue.BackoffBase = cfg.TaskBackoffBase

	workerLogger := logrus.New()
	bgWorker := worker.New(taskQueue, workerLogger)
	bgWorker.Register(worker.TaskKindStripeEvent, worker.NewBillingHandler(subscriptions, workerLogger).Handle)
	bgWorker.Register(worker.TaskKindDataExport, worker.NewExportHandler(db, gdpr, store, mailer, workerLogger).Handle)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go bgWorker.Start(ctx)

	app := fiber.New()
	app.Use(middleware.CORS())

	routes.SetupRoutes(app, &routes.Deps{
		Config: cfg,
		DB:     db,
		Redis:  redisClient,
		JWT:    jwtManager,
		Queue:  taskQueue,
		Store:  store,
		Services: &routes.Services{
			Subscriptions: subscriptions,
			GDPR:          gdpr,
			Portfolio:     portfolio,
			LLM:           llm,
		},
	})

	log.Printf("🚀 Server starting on port %s", cfg.ServerPort)
	if err := app.Listen(":" + cfg.ServerPort); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
