package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"app/internal/model"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
)

func newTestS3Client() *s3.Client {
	cfg := aws.Config{
		Region:      "us-east-1",
		Credentials: credentials.NewStaticCredentialsProvider("test-key", "test-secret", ""),
	}
	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String("http://localhost:9000")
		o.UsePathStyle = true
	})
}

func TestRequestUploadDenied(t *testing.T) {
	usage := &fakeUsageService{decision: model.LimitDecision{Allowed: false, Remaining: 0, Limit: FreePhotoLimit}}
	svc := NewPhotoService(&fakePhotoRepo{}, usage, &fakeAssistant{}, newTestS3Client(), "photos", nil, "photo_analysis_queue", zerolog.Nop())

	_, err := svc.RequestUpload(context.Background(), "u1", "image/jpeg")
	var limitErr *LimitExceededError
	if !errors.As(err, &limitErr) {
		t.Fatalf("expected *LimitExceededError, got %v", err)
	}
	if limitErr.Type != model.LimitPhoto {
		t.Fatalf("expected photo limit type, got %s", limitErr.Type)
	}
	if limitErr.Decision.ResetAt != nil {
		t.Fatal("lifetime photo quota must not carry a reset time")
	}
}

func TestRequestUploadIssuesTicket(t *testing.T) {
	usage := &fakeUsageService{decision: model.LimitDecision{Allowed: true, Remaining: 60, Limit: FreePhotoLimit}}
	svc := NewPhotoService(&fakePhotoRepo{}, usage, &fakeAssistant{}, newTestS3Client(), "photos", nil, "photo_analysis_queue", zerolog.Nop())

	ticket, err := svc.RequestUpload(context.Background(), "u1", "image/png")
	if err != nil {
		t.Fatalf("RequestUpload returned error: %v", err)
	}
	if ticket.UploadURL == "" {
		t.Fatal("expected a presigned upload URL")
	}
	if !strings.HasPrefix(ticket.StoragePath, "photos/u1/") {
		t.Fatalf("expected storage path scoped to the user, got %q", ticket.StoragePath)
	}
	if !strings.HasSuffix(ticket.StoragePath, ".png") {
		t.Fatalf("expected extension derived from content type, got %q", ticket.StoragePath)
	}
	if ticket.ExpiresInS <= 0 {
		t.Fatalf("expected a positive expiry, got %d", ticket.ExpiresInS)
	}
}
