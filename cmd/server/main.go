// @title           Influencer Hub Backend API
// @version         1.0.0
// @description     Backend API for the brand and influencer marketplace: orders with deadlines, submissions and revisions, direct messaging with blocking, profiles and influencer search, and live updates over Server-Sent Events.

// @contact.name   API Support
// @contact.email  support@example.com

// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"net/url"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"influencer-hub-backend/docs"
	"influencer-hub-backend/internal/assistant"
	"influencer-hub-backend/internal/chat"
	"influencer-hub-backend/internal/config"
	"influencer-hub-backend/internal/database"
	"influencer-hub-backend/internal/handlers"
	"influencer-hub-backend/internal/kafka"
	"influencer-hub-backend/internal/logger"
	"influencer-hub-backend/internal/memstore"
	"influencer-hub-backend/internal/middleware"
	"influencer-hub-backend/internal/orders"
	"influencer-hub-backend/internal/profiles"
	"influencer-hub-backend/internal/services"
	"influencer-hub-backend/internal/supabase"
)

const shutdownTimeout = 10 * time.Second

// store is everything the services need from persistence.
type store interface {
	orders.Store
	chat.Store
	profiles.Store
	profiles.Directory
	handlers.Pinger
	Close() error
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logg := logger.New(cfg.Environment, cfg.LogLevel)
	defer logg.Sync()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Update Swagger docs with dynamic base URL
	if cfg.BaseURL != "" {
		if baseURL, err := url.Parse(cfg.BaseURL); err == nil {
			docs.SwaggerInfo.Host = baseURL.Host
			if baseURL.Scheme == "https" {
				docs.SwaggerInfo.Schemes = []string{"https", "http"}
			} else {
				docs.SwaggerInfo.Schemes = []string{"http", "https"}
			}
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, directory := openStore(ctx, cfg, logg)
	defer db.Close()

	storageClient, err := supabase.NewStorageClient(cfg.SupabaseURL, cfg.SupabasePublishableKey)
	if err != nil {
		logg.Fatal("failed to initialize storage client", zap.Error(err))
	}

	var producer kafka.Producer
	if len(cfg.KafkaBrokers) > 0 {
		producer, err = kafka.NewKafkaProducer(cfg.KafkaBrokers, logg)
		if err != nil {
			logg.Fatal("failed to initialize kafka producer", zap.Error(err))
		}
	} else {
		producer = kafka.NewConsoleProducer(logg)
	}
	defer producer.Close()

	realtimeClient := supabase.NewRealtimeClient(producer, cfg.KafkaTopic, logg)
	defer realtimeClient.Close()

	assets := services.NewAssetService(storageClient, services.Buckets{
		OrderImages:   cfg.OrderImagesBucket,
		Submissions:   cfg.SubmissionsBucket,
		ProfileImages: cfg.ProfileImagesBucket,
	}, cfg.MaxUploadBytes, logg)

	orderService := orders.NewService(db, assets, realtimeClient, logg.Named("orders"))
	chatService := chat.NewService(db, realtimeClient, logg.Named("chat"))
	profileService := profiles.NewService(db, directory, assets, logg.Named("profiles"))

	assistantService := newAssistantService(cfg, logg.Named("assistant"))

	api := &handlers.Handlers{
		Orders:    handlers.NewOrdersHandler(orderService, cfg.CountdownInterval, cfg.MaxUploadBytes, logg),
		Chat:      handlers.NewChatHandler(chatService, logg),
		Profiles:  handlers.NewProfilesHandler(profileService, cfg.MaxUploadBytes),
		Events:    handlers.NewEventsHandler(realtimeClient),
		Assistant: handlers.NewAssistantHandler(assistantService, cfg.MaxUploadBytes),
	}

	// Setup router
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.MaxMultipartMemory = cfg.MaxUploadBytes

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Health check (no auth)
	router.GET("/health", handlers.HealthHandler)
	router.GET("/health/ready", handlers.ReadinessHandler(db))

	v1 := router.Group("/api/v1")
	v1.Use(middleware.AuthMiddleware(cfg))
	api.Register(v1)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logg.Info("server starting", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logg.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logg.Error("server stopped with error", zap.Error(err))
	}
}

// newAssistantService enables the language model when ASSISTANT_API_KEY is
// set and image classification when CLASSIFIER_URL is set.
func newAssistantService(cfg *config.Config, logg *zap.Logger) *assistant.Service {
	faqs, err := assistant.DefaultFAQs()
	if err != nil {
		logg.Fatal("failed to load assistant faqs", zap.Error(err))
	}

	var llm assistant.Completer
	if cfg.AssistantAPIKey != "" {
		llm = assistant.NewClient(cfg.AssistantAPIURL, cfg.AssistantAPIKey, cfg.AssistantModel).
			WithAttribution(cfg.AssistantTitle, cfg.BaseURL)
	} else {
		logg.Warn("ASSISTANT_API_KEY not set, assistant answers FAQs only")
	}

	var classifier assistant.ImageClassifier
	if cfg.ClassifierURL != "" {
		classifier = assistant.NewClassifier(cfg.ClassifierURL)
	} else {
		logg.Warn("CLASSIFIER_URL not set, image classification disabled")
	}

	return assistant.NewService(faqs, llm, classifier, logg)
}

// openStore connects to Postgres and runs migrations when DATABASE_URL is
// set. Without it, or when the database cannot be reached, records live in
// memory for the lifetime of the process.
func openStore(ctx context.Context, cfg *config.Config, logg *zap.Logger) (store, profiles.Directory) {
	if cfg.DatabaseURL == "" {
		logg.Warn("DATABASE_URL not set, using in-memory store")
		mem := memstore.New(cfg.OrderNumberStart)
		return mem, mem
	}

	migrator, err := database.NewMigrator(cfg.DatabaseURL, logg.Named("migrator"))
	if err != nil {
		logg.Warn("failed to initialize migrator", zap.Error(err))
	} else {
		if err := migrator.Run(ctx); err != nil {
			logg.Warn("migration failed", zap.Error(err))
		} else {
			logg.Info("migrations completed successfully")
		}
		migrator.Close()
	}

	dbClient, err := supabase.NewDatabaseClient(cfg.DatabaseURL)
	if err != nil {
		logg.Warn("failed to initialize database client, using in-memory store", zap.Error(err))
		mem := memstore.New(cfg.OrderNumberStart)
		return mem, mem
	}

	directory, err := supabase.NewDirectoryClient(cfg.SupabaseURL, cfg.SupabasePublishableKey)
	if err != nil {
		logg.Warn("failed to initialize directory client, searching through the database", zap.Error(err))
		return dbClient, dbClient
	}
	return dbClient, directory
}
