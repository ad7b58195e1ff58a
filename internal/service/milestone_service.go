package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"app/internal/model"
	"app/internal/repository"

	"github.com/rs/zerolog"
)

// MilestoneSuggestion pairs an applicable template with whether the child
// already achieved it.
type MilestoneSuggestion struct {
	Template model.MilestoneTemplate `json:"template"`
	Achieved bool                    `json:"achieved"`
}

type MilestoneService interface {
	// ListTemplates returns the full static catalog.
	ListTemplates() []model.MilestoneTemplate
	// SuggestForChild returns the templates whose age band contains the
	// child's current age, flagged with achievement state.
	SuggestForChild(ctx context.Context, childID, userID string) ([]MilestoneSuggestion, error)
	RecordAchievement(ctx context.Context, childID, userID, templateID string, achievedAt time.Time, note *string) (*model.ChildMilestone, error)
	ListAchievements(ctx context.Context, childID, userID string) ([]model.ChildMilestone, error)
	RemoveAchievement(ctx context.Context, childID, userID, templateID string) error
}

type milestoneService struct {
	milestoneRepo repository.MilestoneRepository
	childRepo     repository.ChildRepository
	templates     []model.MilestoneTemplate
	logger        zerolog.Logger
	now           func() time.Time
}

func NewMilestoneService(milestoneRepo repository.MilestoneRepository, childRepo repository.ChildRepository, logger zerolog.Logger) MilestoneService {
	return &milestoneService{
		milestoneRepo: milestoneRepo,
		childRepo:     childRepo,
		templates:     milestoneTemplates,
		logger:        logger.With().Str("service", "MilestoneService").Logger(),
		now:           time.Now,
	}
}

func (s *milestoneService) ListTemplates() []model.MilestoneTemplate {
	out := make([]model.MilestoneTemplate, len(s.templates))
	copy(out, s.templates)
	return out
}

func (s *milestoneService) SuggestForChild(ctx context.Context, childID, userID string) ([]MilestoneSuggestion, error) {
	child, err := s.childRepo.GetChildByID(ctx, childID, userID)
	if err != nil {
		return nil, fmt.Errorf("fetching child: %w", err)
	}
	if child == nil {
		return nil, ErrChildNotFound
	}

	achievements, err := s.milestoneRepo.ListAchievements(ctx, childID)
	if err != nil {
		return nil, fmt.Errorf("fetching achievements: %w", err)
	}
	achieved := make(map[string]bool, len(achievements))
	for _, a := range achievements {
		achieved[a.TemplateID] = true
	}

	ageMonths := child.AgeInMonths(s.now())
	var suggestions []MilestoneSuggestion
	for _, t := range s.templates {
		if !t.AppliesTo(ageMonths) {
			continue
		}
		suggestions = append(suggestions, MilestoneSuggestion{Template: t, Achieved: achieved[t.ID]})
	}

	// Unachieved first, then earlier age bands first.
	sort.SliceStable(suggestions, func(i, j int) bool {
		if suggestions[i].Achieved != suggestions[j].Achieved {
			return !suggestions[i].Achieved
		}
		return suggestions[i].Template.MinAgeMonths < suggestions[j].Template.MinAgeMonths
	})

	return suggestions, nil
}

func (s *milestoneService) RecordAchievement(ctx context.Context, childID, userID, templateID string, achievedAt time.Time, note *string) (*model.ChildMilestone, error) {
	child, err := s.childRepo.GetChildByID(ctx, childID, userID)
	if err != nil {
		return nil, fmt.Errorf("fetching child: %w", err)
	}
	if child == nil {
		return nil, ErrChildNotFound
	}
	if s.templateByID(templateID) == nil {
		return nil, fmt.Errorf("unknown milestone template %q", templateID)
	}
	if achievedAt.IsZero() {
		achievedAt = s.now()
	}

	cm, err := s.milestoneRepo.UpsertAchievement(ctx, childID, templateID, achievedAt, note)
	if err != nil {
		s.logger.Error().Err(err).Str("child_id", childID).Str("template_id", templateID).Msg("Failed to record milestone")
		return nil, fmt.Errorf("recording achievement: %w", err)
	}
	return cm, nil
}

func (s *milestoneService) ListAchievements(ctx context.Context, childID, userID string) ([]model.ChildMilestone, error) {
	child, err := s.childRepo.GetChildByID(ctx, childID, userID)
	if err != nil {
		return nil, fmt.Errorf("fetching child: %w", err)
	}
	if child == nil {
		return nil, ErrChildNotFound
	}
	return s.milestoneRepo.ListAchievements(ctx, childID)
}

func (s *milestoneService) RemoveAchievement(ctx context.Context, childID, userID, templateID string) error {
	child, err := s.childRepo.GetChildByID(ctx, childID, userID)
	if err != nil {
		return fmt.Errorf("fetching child: %w", err)
	}
	if child == nil {
		return ErrChildNotFound
	}
	return s.milestoneRepo.DeleteAchievement(ctx, childID, templateID)
}

func (s *milestoneService) templateByID(id string) *model.MilestoneTemplate {
	for i := range s.templates {
		if s.templates[i].ID == id {
			return &s.templates[i]
		}
	}
	return nil
}
