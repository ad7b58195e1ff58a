package service

import (
	"context"
	"fmt"

	"app/internal/model"
	"app/internal/repository"

	"github.com/rs/zerolog"
)

// SubscriptionService is the entitlement write path. Tier and status are
// set from billing webhooks upstream; the billing provider integration
// itself lives outside this service.
type SubscriptionService interface {
	GetEntitlement(ctx context.Context, userID string) (*model.User, error)
	UpdateSubscription(ctx context.Context, userID string, tier model.SubscriptionTier, status model.SubscriptionStatus) error
	// DowngradeToFree resets a user to the free tier, e.g. when their
	// premium subscription is deleted upstream.
	DowngradeToFree(ctx context.Context, userID string) error
}

type subscriptionService struct {
	userRepo repository.UserRepository
	logger   zerolog.Logger
}

// NewSubscriptionService creates a new SubscriptionService with a scoped logger.
func NewSubscriptionService(userRepo repository.UserRepository, logger zerolog.Logger) SubscriptionService {
	return &subscriptionService{
		userRepo: userRepo,
		logger:   logger.With().Str("service", "SubscriptionService").Logger(),
	}
}

func (s *subscriptionService) GetEntitlement(ctx context.Context, userID string) (*model.User, error) {
	u, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to fetch entitlement")
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	return u, nil
}

func (s *subscriptionService) UpdateSubscription(ctx context.Context, userID string, tier model.SubscriptionTier, status model.SubscriptionStatus) error {
	if tier != model.TierFree && tier != model.TierPremium {
		return fmt.Errorf("unknown subscription tier %q", tier)
	}

	u, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("fetching user for subscription update: %w", err)
	}
	if u == nil {
		return ErrUserNotFound
	}

	if err := s.userRepo.UpdateSubscription(ctx, userID, tier, status); err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Str("tier", string(tier)).Msg("Failed to update subscription")
		return err
	}
	return nil
}

func (s *subscriptionService) DowngradeToFree(ctx context.Context, userID string) error {
	if err := s.userRepo.UpdateSubscription(ctx, userID, model.TierFree, model.StatusActive); err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to downgrade user to free tier")
		return err
	}
	return nil
}
