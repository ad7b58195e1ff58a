package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"app/internal/model"

	"github.com/rs/zerolog"
)

type fakeMilestoneRepo struct {
	achievements map[string]*model.ChildMilestone // keyed by childID + templateID
}

func newFakeMilestoneRepo() *fakeMilestoneRepo {
	return &fakeMilestoneRepo{achievements: map[string]*model.ChildMilestone{}}
}

func achievementKey(childID, templateID string) string {
	return childID + "|" + templateID
}

func (f *fakeMilestoneRepo) UpsertAchievement(ctx context.Context, childID, templateID string, achievedAt time.Time, note *string) (*model.ChildMilestone, error) {
	key := achievementKey(childID, templateID)
	if existing, ok := f.achievements[key]; ok {
		if achievedAt.Before(existing.AchievedAt) {
			existing.AchievedAt = achievedAt
		}
		return existing, nil
	}
	cm := &model.ChildMilestone{
		ID:         key,
		ChildID:    childID,
		TemplateID: templateID,
		AchievedAt: achievedAt,
		Note:       note,
	}
	f.achievements[key] = cm
	return cm, nil
}

func (f *fakeMilestoneRepo) ListAchievements(ctx context.Context, childID string) ([]model.ChildMilestone, error) {
	var out []model.ChildMilestone
	for _, cm := range f.achievements {
		if cm.ChildID == childID {
			out = append(out, *cm)
		}
	}
	return out, nil
}

func (f *fakeMilestoneRepo) DeleteAchievement(ctx context.Context, childID, templateID string) error {
	delete(f.achievements, achievementKey(childID, templateID))
	return nil
}

func newTestMilestoneService(children map[string]*model.Child, now time.Time) (MilestoneService, *fakeMilestoneRepo) {
	repo := newFakeMilestoneRepo()
	svc := NewMilestoneService(repo, &fakeChildRepo{children: children}, zerolog.Nop()).(*milestoneService)
	svc.now = func() time.Time { return now }
	return svc, repo
}

func TestSuggestForChildFiltersByAge(t *testing.T) {
	now := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	// Born 8 months before now.
	children := map[string]*model.Child{
		"c1": {ID: "c1", UserID: "u1", Name: "Mia", Birthdate: time.Date(2025, 7, 10, 0, 0, 0, 0, time.UTC)},
	}
	svc, _ := newTestMilestoneService(children, now)

	suggestions, err := svc.SuggestForChild(context.Background(), "c1", "u1")
	if err != nil {
		t.Fatalf("SuggestForChild returned error: %v", err)
	}
	if len(suggestions) == 0 {
		t.Fatal("expected suggestions for an 8 month old")
	}
	for _, s := range suggestions {
		if 8 < s.Template.MinAgeMonths || 8 > s.Template.MaxAgeMonths {
			t.Fatalf("template %s (band %d-%d) does not apply at 8 months",
				s.Template.ID, s.Template.MinAgeMonths, s.Template.MaxAgeMonths)
		}
	}

	// A newborn-only milestone must not appear for an 8 month old.
	for _, s := range suggestions {
		if s.Template.ID == "motor-head-up" {
			t.Fatal("newborn milestone suggested for an 8 month old")
		}
	}
}

func TestSuggestForChildFlagsAchievedAndSortsUnachievedFirst(t *testing.T) {
	now := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	children := map[string]*model.Child{
		"c1": {ID: "c1", UserID: "u1", Name: "Mia", Birthdate: time.Date(2025, 7, 10, 0, 0, 0, 0, time.UTC)},
	}
	svc, _ := newTestMilestoneService(children, now)

	ctx := context.Background()
	if _, err := svc.RecordAchievement(ctx, "c1", "u1", "motor-sits-unsupported", now, nil); err != nil {
		t.Fatalf("RecordAchievement returned error: %v", err)
	}

	suggestions, err := svc.SuggestForChild(ctx, "c1", "u1")
	if err != nil {
		t.Fatalf("SuggestForChild returned error: %v", err)
	}

	var sawAchieved bool
	for i, s := range suggestions {
		if s.Template.ID == "motor-sits-unsupported" {
			if !s.Achieved {
				t.Fatal("recorded milestone not flagged as achieved")
			}
			sawAchieved = true
		}
		if s.Achieved && i < len(suggestions)-1 && !suggestions[i+1].Achieved {
			t.Fatal("achieved suggestion sorted before an unachieved one")
		}
	}
	if !sawAchieved {
		t.Fatal("achieved milestone missing from suggestions")
	}
}

func TestRecordAchievementValidation(t *testing.T) {
	now := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	children := map[string]*model.Child{
		"c1": {ID: "c1", UserID: "u1", Name: "Mia", Birthdate: time.Date(2025, 7, 10, 0, 0, 0, 0, time.UTC)},
	}
	svc, _ := newTestMilestoneService(children, now)
	ctx := context.Background()

	if _, err := svc.RecordAchievement(ctx, "missing", "u1", "motor-crawls", now, nil); !errors.Is(err, ErrChildNotFound) {
		t.Fatalf("expected ErrChildNotFound, got %v", err)
	}
	if _, err := svc.RecordAchievement(ctx, "c1", "u1", "no-such-template", now, nil); err == nil {
		t.Fatal("expected error for unknown template")
	}

	// Zero achievedAt defaults to now.
	cm, err := svc.RecordAchievement(ctx, "c1", "u1", "motor-crawls", time.Time{}, nil)
	if err != nil {
		t.Fatalf("RecordAchievement returned error: %v", err)
	}
	if !cm.AchievedAt.Equal(now) {
		t.Fatalf("expected achievedAt defaulted to now, got %v", cm.AchievedAt)
	}
}

func TestRecordAchievementKeepsEarlierDate(t *testing.T) {
	now := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	children := map[string]*model.Child{
		"c1": {ID: "c1", UserID: "u1", Name: "Mia", Birthdate: time.Date(2025, 7, 10, 0, 0, 0, 0, time.UTC)},
	}
	svc, repo := newTestMilestoneService(children, now)
	ctx := context.Background()

	early := now.AddDate(0, 0, -10)
	if _, err := svc.RecordAchievement(ctx, "c1", "u1", "motor-crawls", early, nil); err != nil {
		t.Fatalf("RecordAchievement returned error: %v", err)
	}
	if _, err := svc.RecordAchievement(ctx, "c1", "u1", "motor-crawls", now, nil); err != nil {
		t.Fatalf("RecordAchievement returned error: %v", err)
	}

	cm := repo.achievements[achievementKey("c1", "motor-crawls")]
	if !cm.AchievedAt.Equal(early) {
		t.Fatalf("expected the earlier achievement date kept, got %v", cm.AchievedAt)
	}
}

func TestListTemplatesReturnsCopy(t *testing.T) {
	now := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	svc, _ := newTestMilestoneService(map[string]*model.Child{}, now)

	templates := svc.ListTemplates()
	if len(templates) == 0 {
		t.Fatal("expected a non-empty template catalog")
	}
	templates[0].Title = "mutated"

	again := svc.ListTemplates()
	if again[0].Title == "mutated" {
		t.Fatal("ListTemplates must not expose the internal catalog")
	}
}
