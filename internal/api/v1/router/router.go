package router

import (
	"context"
	"net/http"
	"strings"

	"app/internal/api/v1/handler"
	"app/internal/config"
	"app/internal/middleware"
	"app/internal/pgmq"
	"app/internal/repository"
	"app/internal/service"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	awsmiddleware "github.com/aws/smithy-go/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
)

func New(cfg *config.Config, logger zerolog.Logger) (http.Handler, *pgxpool.Pool, error) {
	logger.Info().Str("environment", cfg.Environment).Msg("Router initializing")

	// 1. Open DB connection pool
	pool, err := pgxpool.New(context.Background(), normalizeDSN(cfg))
	if err != nil {
		logger.Error().Err(err).Msg("Failed to create DB pool")
		return nil, nil, err
	}
	if err := pool.Ping(context.Background()); err != nil {
		logger.Error().Err(err).Msg("Failed to ping DB")
		return nil, nil, err
	}
	logger.Info().Msg("Database connection successful")

	// 2. Initialize S3 client for photo storage
	s3Config, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(cfg.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.S3AccessKey, cfg.S3SecretKey, "")),
		awsconfig.WithAPIOptions([]func(*awsmiddleware.Stack) error{removeDisableGzip()}),
	)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load S3 config")
		return nil, nil, err
	}
	s3Client := s3.NewFromConfig(s3Config, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.S3URL)
		o.UsePathStyle = true
	})

	// 3. Initialize validator
	validate := validator.New(validator.WithRequiredStructEnabled())

	// 4. Resolve the assistant API key (env first, then Secret Manager)
	apiKey, err := service.ResolveAssistantAPIKey(context.Background(), cfg)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to resolve assistant API key")
		return nil, nil, err
	}
	assistant := service.NewAssistantClient(cfg.AssistantBaseURL, apiKey, service.AssistantModels{
		Chat:          cfg.ChatModel,
		Vision:        cfg.VisionModel,
		Transcription: cfg.TranscriptionModel,
	}, logger)

	// 5. Initialize repositories & services & handlers
	userRepo := repository.NewUserRepo(pool)
	usageRepo := repository.NewUsageRepo(pool)
	photoRepo := repository.NewPhotoRepo(pool)
	chatRepo := repository.NewChatRepo(pool)
	childRepo := repository.NewChildRepo(pool)
	milestoneRepo := repository.NewMilestoneRepo(pool)
	dlqRepo := repository.NewDLQRepository(pool)

	queue := pgmq.New(pool)

	usageSvc := service.NewUsageService(userRepo, usageRepo, photoRepo, logger)
	userSvc := service.NewUserService(userRepo, logger)
	subscriptionSvc := service.NewSubscriptionService(userRepo, logger)
	chatSvc := service.NewChatService(chatRepo, childRepo, usageSvc, assistant, logger)
	voiceSvc := service.NewVoiceService(usageSvc, assistant, logger)
	photoSvc := service.NewPhotoService(photoRepo, usageSvc, assistant, s3Client, cfg.S3Bucket, queue, cfg.AnalysisQueueName, logger)
	childSvc := service.NewChildService(childRepo, logger)
	milestoneSvc := service.NewMilestoneService(milestoneRepo, childRepo, logger)
	dlqSvc := service.NewDLQService(dlqRepo)

	userHandler := handler.NewUserHandler(userSvc, subscriptionSvc, validate)
	usageHandler := handler.NewUsageHandler(usageSvc, logger)
	chatHandler := handler.NewChatHandler(chatSvc, validate, logger)
	voiceHandler := handler.NewVoiceHandler(voiceSvc, logger)
	photoHandler := handler.NewPhotoHandler(photoSvc, validate, logger)
	milestoneHandler := handler.NewMilestoneHandler(milestoneSvc, validate, logger)
	childHandler := handler.NewChildHandler(childSvc, milestoneHandler, validate, logger)
	dlqHandler := handler.NewDLQHandler(dlqSvc, logger)

	// 6. Initialize middleware
	authMiddleware := middleware.AuthMiddleware(cfg.JWTSecret, logger)
	isLocalDev := cfg.PubSubEmulatorHost != ""
	pubsubAuthMiddleware := middleware.PubSubAuthMiddleware(isLocalDev, cfg.DLQEndpointURL, cfg.PubSubPushServiceAccountEmail, logger)

	// 7. Create ServeMux router
	mux := http.NewServeMux()

	apiV1Mux := http.NewServeMux()
	userHandler.RegisterRoutes(apiV1Mux, authMiddleware)
	usageHandler.RegisterRoutes(apiV1Mux, authMiddleware)
	chatHandler.RegisterRoutes(apiV1Mux, authMiddleware)
	voiceHandler.RegisterRoutes(apiV1Mux, authMiddleware)
	photoHandler.RegisterRoutes(apiV1Mux, authMiddleware)
	childHandler.RegisterRoutes(apiV1Mux, authMiddleware)
	milestoneHandler.RegisterRoutes(apiV1Mux, authMiddleware)
	dlqHandler.RegisterRoutes(apiV1Mux, pubsubAuthMiddleware)

	// Mount the API v1 routes under /v1
	mux.Handle("/v1/", http.StripPrefix("/v1", apiV1Mux))

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := pool.Ping(r.Context()); err != nil {
			http.Error(w, "database unreachable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	// 8. Apply CORS middleware
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	return middleware.LoggerMiddleware(c.Handler(mux)), pool, nil
}

// normalizeDSN adjusts the connection string for the target environment:
// local development disables SSL, and pooled production connections use the
// simple query protocol to stay compatible with pgbouncer.
func normalizeDSN(cfg *config.Config) string {
	dsn := cfg.DBConnectionString
	if cfg.Environment == "development" && !strings.Contains(dsn, "sslmode") {
		dsn += dsnSeparator(dsn) + "sslmode=disable"
	}
	if cfg.Environment != "development" && !strings.Contains(dsn, "prefer_simple_protocol") {
		dsn += dsnSeparator(dsn) + "prefer_simple_protocol=true"
	}
	return dsn
}

func dsnSeparator(dsn string) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		if strings.Contains(dsn, "?") {
			return "&"
		}
		return "?"
	}
	return " "
}

// removeDisableGzip is a workaround for S3 signature errors with some
// S3-compatible services. See: https://github.com/supabase/storage/issues/577
func removeDisableGzip() func(*awsmiddleware.Stack) error {
	return func(stack *awsmiddleware.Stack) error {
		if _, ok := stack.Finalize.Get("DisableAcceptEncodingGzip"); ok {
			_, err := stack.Finalize.Remove("DisableAcceptEncodingGzip")
			return err
		}
		return nil
	}
}
