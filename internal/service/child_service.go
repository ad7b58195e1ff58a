package service

import (
	"context"
	"fmt"
	"time"

	"app/internal/model"
	"app/internal/repository"

	"github.com/rs/zerolog"
)

type ChildService interface {
	CreateChild(ctx context.Context, c *model.Child) error
	GetChild(ctx context.Context, childID, userID string) (*model.Child, error)
	ListChildren(ctx context.Context, userID string) ([]model.Child, error)
	UpdateChild(ctx context.Context, childID, userID, name string, birthdate time.Time) (*model.Child, error)
	DeleteChild(ctx context.Context, childID, userID string) error
}

type childService struct {
	childRepo repository.ChildRepository
	logger    zerolog.Logger
}

func NewChildService(childRepo repository.ChildRepository, logger zerolog.Logger) ChildService {
	return &childService{
		childRepo: childRepo,
		logger:    logger.With().Str("service", "ChildService").Logger(),
	}
}

func (s *childService) CreateChild(ctx context.Context, c *model.Child) error {
	if c.Birthdate.After(timeNow()) {
		return fmt.Errorf("birthdate cannot be in the future")
	}
	if err := s.childRepo.CreateChild(ctx, c); err != nil {
		s.logger.Error().Err(err).Str("user_id", c.UserID).Msg("Failed to create child")
		return fmt.Errorf("creating child: %w", err)
	}
	return nil
}

func (s *childService) GetChild(ctx context.Context, childID, userID string) (*model.Child, error) {
	child, err := s.childRepo.GetChildByID(ctx, childID, userID)
	if err != nil {
		return nil, fmt.Errorf("fetching child: %w", err)
	}
	if child == nil {
		return nil, ErrChildNotFound
	}
	return child, nil
}

func (s *childService) ListChildren(ctx context.Context, userID string) ([]model.Child, error) {
	children, err := s.childRepo.ListChildrenByUser(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to list children")
		return nil, fmt.Errorf("listing children: %w", err)
	}
	return children, nil
}

func (s *childService) UpdateChild(ctx context.Context, childID, userID, name string, birthdate time.Time) (*model.Child, error) {
	child, err := s.childRepo.UpdateChild(ctx, childID, userID, name, birthdate)
	if err != nil {
		return nil, fmt.Errorf("updating child: %w", err)
	}
	if child == nil {
		return nil, ErrChildNotFound
	}
	return child, nil
}

func (s *childService) DeleteChild(ctx context.Context, childID, userID string) error {
	if err := s.childRepo.DeleteChild(ctx, childID, userID); err != nil {
		return fmt.Errorf("deleting child: %w", err)
	}
	return nil
}
