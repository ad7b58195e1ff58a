package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"time"

	"app/internal/model"
	"app/internal/pgmq"
	"app/internal/repository"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// UploadTicket is a short-lived presigned PUT target for a photo upload.
type UploadTicket struct {
	UploadURL   string `json:"upload_url"`
	StoragePath string `json:"storage_path"`
	ExpiresInS  int    `json:"expires_in_seconds"`
}

// AnalysisJob is the pgmq payload for asynchronous photo categorization.
type AnalysisJob struct {
	PhotoID     string `json:"photo_id"`
	UserID      string `json:"user_id"`
	StoragePath string `json:"storage_path"`
}

const presignTTL = 15 * time.Minute

var ErrPhotoNotFound = errors.New("photo not found")

type PhotoService interface {
	// RequestUpload checks the lifetime photo quota and issues a presigned
	// PUT URL. A denied check returns *LimitExceededError. No photo row is
	// created yet; the row (and therefore the counted photo) appears at
	// confirmation.
	RequestUpload(ctx context.Context, userID, contentType string) (*UploadTicket, error)
	// ConfirmUpload verifies the object exists in storage, creates the photo
	// row and enqueues the analysis job.
	ConfirmUpload(ctx context.Context, userID, storagePath string, childID *string, takenAt *time.Time) (*model.Photo, error)
	GetPhoto(ctx context.Context, photoID, userID string) (*model.Photo, error)
	ListPhotos(ctx context.Context, userID string, limit, offset int) ([]model.Photo, error)
	DeletePhoto(ctx context.Context, photoID, userID string) error
	// GetViewURL returns a presigned GET URL for a stored photo.
	GetViewURL(ctx context.Context, storagePath string) (string, error)
	// Analyze runs vision categorization for a stored photo and records the
	// result. Invoked by the analysis worker, not by request handlers.
	Analyze(ctx context.Context, photoID, storagePath string) error
}

type photoService struct {
	photoRepo     repository.PhotoRepository
	usageSvc      UsageService
	assistant     AssistantClient
	s3Client      *s3.Client
	presignClient *s3.PresignClient
	bucket        string
	queue         *pgmq.Client
	queueName     string
	logger        zerolog.Logger
}

func NewPhotoService(
	photoRepo repository.PhotoRepository,
	usageSvc UsageService,
	assistant AssistantClient,
	s3Client *s3.Client,
	bucket string,
	queue *pgmq.Client,
	queueName string,
	logger zerolog.Logger,
) PhotoService {
	return &photoService{
		photoRepo:     photoRepo,
		usageSvc:      usageSvc,
		assistant:     assistant,
		s3Client:      s3Client,
		presignClient: s3.NewPresignClient(s3Client),
		bucket:        bucket,
		queue:         queue,
		queueName:     queueName,
		logger:        logger.With().Str("service", "PhotoService").Logger(),
	}
}

func (s *photoService) RequestUpload(ctx context.Context, userID, contentType string) (*UploadTicket, error) {
	decision, err := s.usageSvc.CheckPhotoLimit(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("checking photo limit: %w", err)
	}
	if !decision.Allowed {
		return nil, &LimitExceededError{Type: model.LimitPhoto, Decision: decision}
	}

	ext := extensionForContentType(contentType)
	storagePath := path.Join("photos", userID, uuid.NewString()+ext)

	request, err := s.presignClient.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(storagePath),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(presignTTL))
	if err != nil {
		return nil, fmt.Errorf("presigning upload for user %s: %w", userID, err)
	}

	return &UploadTicket{
		UploadURL:   request.URL,
		StoragePath: storagePath,
		ExpiresInS:  int(presignTTL.Seconds()),
	}, nil
}

func (s *photoService) ConfirmUpload(ctx context.Context, userID, storagePath string, childID *string, takenAt *time.Time) (*model.Photo, error) {
	if _, err := s.s3Client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(storagePath),
	}); err != nil {
		return nil, fmt.Errorf("verifying uploaded object %s: %w", storagePath, err)
	}

	photo := &model.Photo{
		UserID:      userID,
		ChildID:     childID,
		StoragePath: storagePath,
		Status:      model.PhotoStatusUploaded,
		TakenAt:     takenAt,
	}
	if err := s.photoRepo.CreatePhoto(ctx, photo); err != nil {
		return nil, fmt.Errorf("recording photo: %w", err)
	}

	job := AnalysisJob{PhotoID: photo.ID, UserID: userID, StoragePath: storagePath}
	payload, err := json.Marshal(job)
	if err != nil {
		return nil, fmt.Errorf("marshaling analysis job: %w", err)
	}
	if err := s.queue.Send(ctx, s.queueName, payload); err != nil {
		// The photo itself is stored; analysis just won't run. Leave the row
		// in 'uploaded' so a sweep can re-enqueue it.
		s.logger.Error().Err(err).Str("photo_id", photo.ID).Msg("Failed to enqueue analysis job")
		return photo, nil
	}

	return photo, nil
}

func (s *photoService) GetPhoto(ctx context.Context, photoID, userID string) (*model.Photo, error) {
	photo, err := s.photoRepo.GetPhotoByID(ctx, photoID, userID)
	if err != nil {
		return nil, fmt.Errorf("getting photo: %w", err)
	}
	return photo, nil
}

func (s *photoService) ListPhotos(ctx context.Context, userID string, limit, offset int) ([]model.Photo, error) {
	photos, err := s.photoRepo.ListPhotosByUser(ctx, userID, limit, offset)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to list photos")
		return nil, fmt.Errorf("listing photos: %w", err)
	}
	return photos, nil
}

func (s *photoService) DeletePhoto(ctx context.Context, photoID, userID string) error {
	photo, err := s.photoRepo.GetPhotoByID(ctx, photoID, userID)
	if err != nil {
		return fmt.Errorf("getting photo: %w", err)
	}
	if photo == nil {
		return ErrPhotoNotFound
	}

	if _, err := s.s3Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(photo.StoragePath),
	}); err != nil {
		s.logger.Warn().Err(err).Str("photo_id", photoID).Msg("Failed to delete photo object; removing row anyway")
	}

	if err := s.photoRepo.DeletePhoto(ctx, photoID, userID); err != nil {
		return fmt.Errorf("deleting photo row: %w", err)
	}
	return nil
}

func (s *photoService) GetViewURL(ctx context.Context, storagePath string) (string, error) {
	resp, err := s.presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(storagePath),
	}, s3.WithPresignExpires(presignTTL))
	if err != nil {
		return "", fmt.Errorf("presigning view URL for %s: %w", storagePath, err)
	}
	return resp.URL, nil
}

func (s *photoService) Analyze(ctx context.Context, photoID, storagePath string) error {
	if err := s.photoRepo.UpdateStatus(ctx, photoID, model.PhotoStatusAnalyzing); err != nil {
		return fmt.Errorf("marking photo analyzing: %w", err)
	}

	imageURL, err := s.GetViewURL(ctx, storagePath)
	if err != nil {
		return fmt.Errorf("presigning image for analysis: %w", err)
	}

	analysis, err := s.assistant.AnalyzePhoto(ctx, imageURL)
	if err != nil {
		return fmt.Errorf("analyzing photo %s: %w", photoID, err)
	}

	if err := s.photoRepo.SetAnalysis(ctx, photoID, analysis.Category, analysis.Caption); err != nil {
		return fmt.Errorf("storing analysis for photo %s: %w", photoID, err)
	}
	return nil
}

func extensionForContentType(contentType string) string {
	switch contentType {
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "image/heic":
		return ".heic"
	default:
		return ".jpg"
	}
}
