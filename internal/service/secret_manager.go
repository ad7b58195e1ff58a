package service

import (
	"context"
	"fmt"

	"app/internal/config"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"google.golang.org/api/option"
)

// SecretManagerService resolves secrets, in particular the assistant API
// key when it is not supplied via environment.
type SecretManagerService interface {
	GetSecret(ctx context.Context, secretName string) (string, error)
	Close() error
}

type secretManagerService struct {
	client    *secretmanager.Client
	projectID string
}

func NewSecretManagerService(ctx context.Context, cfg *config.Config) (SecretManagerService, error) {
	if cfg.GCPProjectID == "" {
		return nil, fmt.Errorf("GCP project ID is not set")
	}

	var opts []option.ClientOption
	client, err := secretmanager.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Secret Manager client: %w", err)
	}

	return &secretManagerService{
		client:    client,
		projectID: cfg.GCPProjectID,
	}, nil
}

func (s *secretManagerService) GetSecret(ctx context.Context, secretName string) (string, error) {
	name := fmt.Sprintf("projects/%s/secrets/%s/versions/latest", s.projectID, secretName)
	resp, err := s.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: name,
	})
	if err != nil {
		return "", fmt.Errorf("accessing secret %s: %w", secretName, err)
	}
	return string(resp.Payload.Data), nil
}

func (s *secretManagerService) Close() error {
	return s.client.Close()
}

// ResolveAssistantAPIKey returns the assistant API key from config, falling
// back to Secret Manager when ASSISTANT_API_KEY_SECRET is set.
func ResolveAssistantAPIKey(ctx context.Context, cfg *config.Config) (string, error) {
	if cfg.AssistantAPIKey != "" {
		return cfg.AssistantAPIKey, nil
	}
	if cfg.AssistantAPIKeySecret == "" {
		return "", fmt.Errorf("no assistant API key configured: set ASSISTANT_API_KEY or ASSISTANT_API_KEY_SECRET")
	}

	sm, err := NewSecretManagerService(ctx, cfg)
	if err != nil {
		return "", err
	}
	defer sm.Close()

	key, err := sm.GetSecret(ctx, cfg.AssistantAPIKeySecret)
	if err != nil {
		return "", fmt.Errorf("resolving assistant API key: %w", err)
	}
	return key, nil
}
