package analysis

import (
	"context"
	"encoding/json"
	"time"

	"app/internal/config"
	"app/internal/pgmq"
	"app/internal/pubsub"
	"app/internal/repository"
	"app/internal/service"

	"github.com/rs/zerolog"
)

// Run starts the photo analysis orchestrator. It polls the analysis queue,
// runs vision categorization for each photo with retry and backoff, and
// moves exhausted jobs to the dead-letter topic.
func Run(
	ctx context.Context,
	cfg *config.Config,
	logger zerolog.Logger,
	client *pgmq.Client,
	photoRepo repository.PhotoRepository,
	photoSvc service.PhotoService,
	publisher pubsub.Publisher,
) error {
	queue := cfg.AnalysisQueueName
	logger.Info().Str("queue", queue).Msg("Starting photo analysis orchestrator")

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("Shutting down photo analysis orchestrator")
			return nil
		default:
		}

		msgs, err := client.ReadWithPoll(ctx, queue, cfg.AnalysisPollTimeoutSec, cfg.AnalysisPollMaxMsg)
		if err != nil {
			if ctx.Err() != nil {
				logger.Info().Msg("Shutting down photo analysis orchestrator")
				return nil
			}
			logger.Error().Err(err).Msg("Error reading analysis queue")
			time.Sleep(time.Second)
			continue
		}
		if len(msgs) == 0 {
			continue
		}

		msg := msgs[0]
		logger.Info().Int64("msg_id", msg.ID).Msg("Received analysis job")

		var job service.AnalysisJob
		if err := json.Unmarshal(msg.Data, &job); err != nil {
			logger.Error().Err(err).Msg("Failed to unmarshal analysis payload; deleting message")
			client.Delete(ctx, queue, []int64{msg.ID})
			continue
		}

		// Run analysis with exponential backoff
		backoff := time.Duration(cfg.AnalysisBackoffInitialSec) * time.Second
		var analyzeErr error
		for attempt := 1; attempt <= cfg.AnalysisMaxRetries; attempt++ {
			reqCtx, cancel := context.WithTimeout(ctx, time.Duration(cfg.AnalysisRequestTimeoutSec)*time.Second)
			analyzeErr = photoSvc.Analyze(reqCtx, job.PhotoID, job.StoragePath)
			cancel()

			if analyzeErr == nil {
				break
			}
			if ctx.Err() != nil {
				logger.Info().Msg("Shutting down photo analysis orchestrator")
				return nil
			}
			logger.Error().Err(analyzeErr).Int("attempt", attempt).Str("photo_id", job.PhotoID).Msg("Photo analysis failed, retrying")
			time.Sleep(backoff)
			backoff *= 2
			if maxBackoff := time.Duration(cfg.AnalysisBackoffMaxSec) * time.Second; backoff > maxBackoff {
				backoff = maxBackoff
			}
		}

		if analyzeErr != nil {
			if err := photoRepo.SetFailed(ctx, job.PhotoID, map[string]string{
				"stage":   "analysis",
				"message": analyzeErr.Error(),
			}); err != nil {
				logger.Error().Err(err).Str("photo_id", job.PhotoID).Msg("Failed to mark photo as failed")
			}

			// Publish the exhausted job to the dead-letter topic for inspection
			if publisher != nil {
				if payload, err := json.Marshal(job); err == nil {
					if msgID, err := publisher.Publish(ctx, cfg.PubSubDeadLetterTopic, payload); err != nil {
						logger.Error().Err(err).Str("topic", cfg.PubSubDeadLetterTopic).Msg("Failed to publish job to dead-letter topic")
					} else {
						logger.Info().Str("pubsub_msg_id", msgID).Msg("Published exhausted job to dead-letter topic")
					}
				}
			}

			if err := client.Delete(ctx, queue, []int64{msg.ID}); err != nil {
				logger.Error().Err(err).Msg("Error deleting analysis message after failure")
			}
			logger.Warn().
				Int("attempts", cfg.AnalysisMaxRetries).
				Str("photo_id", job.PhotoID).
				Err(analyzeErr).
				Msg("Exhausted all analysis retries; moving job to DLQ")
			continue
		}

		if err := client.Delete(ctx, queue, []int64{msg.ID}); err != nil {
			logger.Error().Err(err).Msg("Error deleting analysis message")
		}
		logger.Info().Str("photo_id", job.PhotoID).Msg("Photo analysis complete")
	}
}
