package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"app/internal/model"
	"app/internal/repository"

	"github.com/rs/zerolog"
)

// Free-tier quota constants. Premium is unlimited across the board.
const (
	FreeMessageLimit     = 10  // messages per UTC day
	FreeVoiceMinuteLimit = 10  // voice minutes per UTC day
	FreePhotoLimit       = 100 // photos, lifetime
)

// LimitExceededError is returned by gated actions when the limit check
// denied the request. It carries the decision so callers can surface the
// remaining quota and reset time.
type LimitExceededError struct {
	Type     model.LimitType
	Decision model.LimitDecision
}

func (e *LimitExceededError) Error() string {
	return fmt.Sprintf("%s limit exceeded", e.Type)
}

// UsageService decides whether a chargeable action may proceed and records
// usage after one succeeds. A deny is a normal decision value, never an
// error; only storage faults are returned as errors.
//
// The check and the later increment are not one transaction, so a burst of
// concurrent requests can transiently exceed a limit by a small margin.
// The increment itself is atomic at the storage layer.
type UsageService interface {
	// CheckLimit reports whether the user may perform a message or voice
	// action right now. An unknown user yields a deny, not an error.
	CheckLimit(ctx context.Context, userID string, limitType model.LimitType) (model.LimitDecision, error)
	// CheckPhotoLimit reports whether the user may store another photo. The
	// photo quota is lifetime, so the decision carries no reset time.
	CheckPhotoLimit(ctx context.Context, userID string) (model.LimitDecision, error)
	// IncrementUsage records a completed chargeable action. Callers must
	// invoke it only after the gated action succeeded. Messages count in
	// whole units; voice in (possibly fractional) minutes.
	IncrementUsage(ctx context.Context, userID string, limitType model.LimitType, amount float64) error
}

type usageService struct {
	userRepo  repository.UserRepository
	usageRepo repository.UsageRepository
	photoRepo repository.PhotoRepository
	logger    zerolog.Logger
	now       func() time.Time
}

// NewUsageService creates a new UsageService with a scoped logger.
func NewUsageService(
	userRepo repository.UserRepository,
	usageRepo repository.UsageRepository,
	photoRepo repository.PhotoRepository,
	logger zerolog.Logger,
) UsageService {
	return &usageService{
		userRepo:  userRepo,
		usageRepo: usageRepo,
		photoRepo: photoRepo,
		logger:    logger.With().Str("service", "UsageService").Logger(),
		now:       time.Now,
	}
}

// utcDay truncates t to its UTC calendar day. The same value keys both the
// lookup and the upsert; if the granularities ever diverged, lookups would
// silently miss rows written by the increment path.
func utcDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// nextMidnightUTC returns the start of the next UTC calendar day after t.
// Always computed from "now", never from a stored row's date.
func nextMidnightUTC(t time.Time) time.Time {
	return utcDay(t).AddDate(0, 0, 1)
}

func (s *usageService) CheckLimit(ctx context.Context, userID string, limitType model.LimitType) (model.LimitDecision, error) {
	if !limitType.Valid() {
		return model.LimitDecision{}, fmt.Errorf("unknown limit type %q", limitType)
	}

	now := s.now()
	resetAt := nextMidnightUTC(now)

	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return model.LimitDecision{}, fmt.Errorf("looking up user for limit check: %w", err)
	}
	if user == nil {
		// Fail closed: a missing entitlement record is a deny, not a fault.
		s.logger.Warn().Str("user_id", userID).Msg("Limit check for unknown user; denying")
		return model.LimitDecision{Allowed: false, Remaining: 0, Limit: s.limitFor(limitType), ResetAt: &resetAt}, nil
	}

	if user.SubscriptionTier == model.TierPremium {
		return model.LimitDecision{Allowed: true, Unlimited: true}, nil
	}

	usage, err := s.usageRepo.GetDailyUsage(ctx, userID, utcDay(now))
	if err != nil {
		return model.LimitDecision{}, fmt.Errorf("reading daily usage: %w", err)
	}

	var used float64
	if usage != nil {
		switch limitType {
		case model.LimitMessage:
			used = float64(usage.MessagesUsed)
		case model.LimitVoice:
			used = usage.VoiceMinutesUsed
		}
	}

	limit := s.limitFor(limitType)
	return model.LimitDecision{
		Allowed:   used < limit,
		Unlimited: false,
		Remaining: math.Max(0, limit-used),
		Limit:     limit,
		ResetAt:   &resetAt,
	}, nil
}

func (s *usageService) CheckPhotoLimit(ctx context.Context, userID string) (model.LimitDecision, error) {
	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return model.LimitDecision{}, fmt.Errorf("looking up user for photo limit check: %w", err)
	}
	if user == nil {
		s.logger.Warn().Str("user_id", userID).Msg("Photo limit check for unknown user; denying")
		return model.LimitDecision{Allowed: false, Remaining: 0, Limit: FreePhotoLimit}, nil
	}

	if user.SubscriptionTier == model.TierPremium {
		return model.LimitDecision{Allowed: true, Unlimited: true}, nil
	}

	count, err := s.photoRepo.CountPhotosByUser(ctx, userID)
	if err != nil {
		return model.LimitDecision{}, fmt.Errorf("counting photos: %w", err)
	}

	return model.LimitDecision{
		Allowed:   count < FreePhotoLimit,
		Remaining: math.Max(0, float64(FreePhotoLimit-count)),
		Limit:     FreePhotoLimit,
	}, nil
}

func (s *usageService) IncrementUsage(ctx context.Context, userID string, limitType model.LimitType, amount float64) error {
	if !limitType.Valid() {
		return fmt.Errorf("unknown limit type %q", limitType)
	}
	if amount <= 0 {
		return fmt.Errorf("increment amount must be positive, got %v", amount)
	}

	day := utcDay(s.now())
	var err error
	switch limitType {
	case model.LimitMessage:
		err = s.usageRepo.IncrementDailyUsage(ctx, userID, day, int(math.Round(amount)), 0)
	case model.LimitVoice:
		err = s.usageRepo.IncrementDailyUsage(ctx, userID, day, 0, amount)
	}
	if err != nil {
		return fmt.Errorf("incrementing %s usage for user %s: %w", limitType, userID, err)
	}
	return nil
}

func (s *usageService) limitFor(limitType model.LimitType) float64 {
	switch limitType {
	case model.LimitVoice:
		return FreeVoiceMinuteLimit
	default:
		return FreeMessageLimit
	}
}
