package config

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port        string `envconfig:"PORT" default:"8080"`
	Environment string `envconfig:"ENV" default:"development"`

	DBConnectionString string `envconfig:"DATABASE_URL" required:"true"`
	JWTSecret          string `envconfig:"JWT_SECRET" required:"true"`

	// Photo storage (S3-compatible)
	S3URL       string `envconfig:"S3_URL" required:"true"`
	S3Bucket    string `envconfig:"S3_BUCKET" required:"true"`
	S3Region    string `envconfig:"S3_REGION" required:"true"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY" required:"true"`
	S3SecretKey string `envconfig:"S3_SECRET_KEY" required:"true"`

	// Assistant (OpenAI-compatible) API settings. The API key may instead be
	// loaded from Secret Manager when ASSISTANT_API_KEY_SECRET is set.
	AssistantBaseURL      string `envconfig:"ASSISTANT_BASE_URL" default:"https://api.openai.com/v1"`
	AssistantAPIKey       string `envconfig:"ASSISTANT_API_KEY"`
	AssistantAPIKeySecret string `envconfig:"ASSISTANT_API_KEY_SECRET"`
	ChatModel             string `envconfig:"CHAT_MODEL" default:"gpt-4o-mini"`
	VisionModel           string `envconfig:"VISION_MODEL" default:"gpt-4o-mini"`
	TranscriptionModel    string `envconfig:"TRANSCRIPTION_MODEL" default:"whisper-1"`

	// GCP settings
	GCPProjectID                  string `envconfig:"GCP_PROJECT_ID"`
	PubSubEmulatorHost            string `envconfig:"PUBSUB_EMULATOR_HOST"`
	PubSubDeadLetterTopic         string `envconfig:"PUBSUB_DEAD_LETTER_TOPIC" default:"photo-analysis-dlq"`
	PubSubPushServiceAccountEmail string `envconfig:"PUBSUB_PUSH_SERVICE_ACCOUNT_EMAIL"`
	DLQEndpointURL                string `envconfig:"DLQ_ENDPOINT_URL"`

	// Photo analysis orchestrator settings
	AnalysisQueueName         string `envconfig:"ANALYSIS_QUEUE_NAME" default:"photo_analysis_queue"`
	AnalysisPollTimeoutSec    int    `envconfig:"ANALYSIS_POLL_TIMEOUT_SEC" default:"30"`
	AnalysisPollMaxMsg        int    `envconfig:"ANALYSIS_POLL_MAX_MSG" default:"1"`
	AnalysisMaxRetries        int    `envconfig:"ANALYSIS_MAX_RETRIES" default:"5"`
	AnalysisBackoffInitialSec int    `envconfig:"ANALYSIS_BACKOFF_INITIAL_SEC" default:"1"`
	AnalysisBackoffMaxSec     int    `envconfig:"ANALYSIS_BACKOFF_MAX_SEC" default:"60"`
	AnalysisRequestTimeoutSec int    `envconfig:"ANALYSIS_REQUEST_TIMEOUT_SEC" default:"120"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
