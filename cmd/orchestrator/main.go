package main

import (
	"context"
	"os/signal"
	"syscall"

	"app/internal/config"
	"app/internal/logger"
	"app/internal/orchestrator/analysis"
	"app/internal/pgmq"
	"app/internal/pubsub"
	"app/internal/repository"
	"app/internal/service"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

func main() {
	logger := logger.New()

	// Load environment variables
	if err := godotenv.Load(); err != nil {
		logger.Warn().Msg("Warning: no .env file found")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Msgf("Error loading config: %v", err)
	}

	// Set up context with graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize DB pool
	pool, err := pgxpool.New(ctx, cfg.DBConnectionString)
	if err != nil {
		logger.Fatal().Msgf("Failed to create DB pool: %v", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		logger.Fatal().Msgf("Failed to ping DB: %v", err)
	}
	logger.Info().Msg("Database connection established")

	pgmqClient := pgmq.New(pool)

	// Initialize S3 client for photo access
	s3Config, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.S3AccessKey, cfg.S3SecretKey, "")),
	)
	if err != nil {
		logger.Fatal().Msgf("Failed to load S3 config: %v", err)
	}
	s3Client := s3.NewFromConfig(s3Config, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.S3URL)
		o.UsePathStyle = true
	})

	// Resolve the assistant API key and build the vision client
	apiKey, err := service.ResolveAssistantAPIKey(ctx, cfg)
	if err != nil {
		logger.Fatal().Msgf("Failed to resolve assistant API key: %v", err)
	}
	assistant := service.NewAssistantClient(cfg.AssistantBaseURL, apiKey, service.AssistantModels{
		Chat:          cfg.ChatModel,
		Vision:        cfg.VisionModel,
		Transcription: cfg.TranscriptionModel,
	}, logger)

	// Wire up the photo pipeline
	userRepo := repository.NewUserRepo(pool)
	usageRepo := repository.NewUsageRepo(pool)
	photoRepo := repository.NewPhotoRepo(pool)
	usageSvc := service.NewUsageService(userRepo, usageRepo, photoRepo, logger)
	photoSvc := service.NewPhotoService(photoRepo, usageSvc, assistant, s3Client, cfg.S3Bucket, pgmqClient, cfg.AnalysisQueueName, logger)

	// The dead-letter publisher is optional; without a GCP project, exhausted
	// jobs are only marked failed in the database.
	var publisher pubsub.Publisher
	if cfg.GCPProjectID != "" {
		p, err := pubsub.NewPublisher(ctx, cfg.GCPProjectID)
		if err != nil {
			logger.Fatal().Msgf("Failed to create Pub/Sub publisher: %v", err)
		}
		publisher = p
	} else {
		logger.Warn().Msg("GCP project ID not set; dead-letter publishing disabled")
	}

	if err := analysis.Run(ctx, cfg, logger, pgmqClient, photoRepo, photoSvc, publisher); err != nil {
		logger.Fatal().Msgf("Analysis orchestrator failed: %v", err)
	}

	logger.Info().Msg("Analysis orchestrator stopped gracefully")
}
