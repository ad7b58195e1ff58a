package service

import (
	"context"
	"testing"
	"time"

	"app/internal/model"

	"github.com/rs/zerolog"
)

type fakeUserRepo struct {
	users map[string]*model.User
}

func (f *fakeUserRepo) CreateUser(ctx context.Context, u *model.User) error {
	f.users[u.UserID] = u
	return nil
}

func (f *fakeUserRepo) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	return f.users[id], nil
}

func (f *fakeUserRepo) UpdateSubscription(ctx context.Context, userID string, tier model.SubscriptionTier, status model.SubscriptionStatus) error {
	if u, ok := f.users[userID]; ok {
		u.SubscriptionTier = tier
		u.SubscriptionStatus = status
	}
	return nil
}

type fakeUsageRepo struct {
	rows map[string]*model.DailyUsage // keyed by userID + day
}

func usageKey(userID string, day time.Time) string {
	return userID + "|" + day.Format("2006-01-02")
}

func (f *fakeUsageRepo) GetDailyUsage(ctx context.Context, userID string, day time.Time) (*model.DailyUsage, error) {
	return f.rows[usageKey(userID, day)], nil
}

func (f *fakeUsageRepo) IncrementDailyUsage(ctx context.Context, userID string, day time.Time, messages int, voiceMinutes float64) error {
	key := usageKey(userID, day)
	row, ok := f.rows[key]
	if !ok {
		row = &model.DailyUsage{UserID: userID, UsageDate: day}
		f.rows[key] = row
	}
	row.MessagesUsed += messages
	row.VoiceMinutesUsed += voiceMinutes
	return nil
}

type fakePhotoRepo struct {
	photos map[string]*model.Photo
	count  int
}

func (f *fakePhotoRepo) CreatePhoto(ctx context.Context, p *model.Photo) error {
	if f.photos == nil {
		f.photos = map[string]*model.Photo{}
	}
	f.photos[p.ID] = p
	f.count++
	return nil
}

func (f *fakePhotoRepo) GetPhotoByID(ctx context.Context, photoID, userID string) (*model.Photo, error) {
	return f.photos[photoID], nil
}

func (f *fakePhotoRepo) ListPhotosByUser(ctx context.Context, userID string, limit, offset int) ([]model.Photo, error) {
	return nil, nil
}

func (f *fakePhotoRepo) CountPhotosByUser(ctx context.Context, userID string) (int, error) {
	return f.count, nil
}

func (f *fakePhotoRepo) UpdateStatus(ctx context.Context, photoID, status string) error { return nil }

func (f *fakePhotoRepo) SetAnalysis(ctx context.Context, photoID, category, caption string) error {
	return nil
}

func (f *fakePhotoRepo) SetFailed(ctx context.Context, photoID string, details map[string]string) error {
	return nil
}

func (f *fakePhotoRepo) DeletePhoto(ctx context.Context, photoID, userID string) error {
	delete(f.photos, photoID)
	f.count--
	return nil
}

func newTestUsageService(users map[string]*model.User, photoCount int) (*usageService, *fakeUsageRepo) {
	usageRepo := &fakeUsageRepo{rows: map[string]*model.DailyUsage{}}
	return &usageService{
		userRepo:  &fakeUserRepo{users: users},
		usageRepo: usageRepo,
		photoRepo: &fakePhotoRepo{count: photoCount},
		logger:    zerolog.Nop(),
		now:       time.Now,
	}, usageRepo
}

func freeUser(id string) *model.User {
	return &model.User{UserID: id, SubscriptionTier: model.TierFree, SubscriptionStatus: model.StatusActive}
}

func premiumUser(id string) *model.User {
	return &model.User{UserID: id, SubscriptionTier: model.TierPremium, SubscriptionStatus: model.StatusActive}
}

func TestCheckLimitFreeUserUnderLimit(t *testing.T) {
	svc, usageRepo := newTestUsageService(map[string]*model.User{"u1": freeUser("u1")}, 0)
	now := time.Date(2026, 3, 15, 10, 30, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	usageRepo.IncrementDailyUsage(context.Background(), "u1", utcDay(now), 3, 0)

	d, err := svc.CheckLimit(context.Background(), "u1", model.LimitMessage)
	if err != nil {
		t.Fatalf("CheckLimit returned error: %v", err)
	}
	if !d.Allowed {
		t.Fatal("expected allowed for free user under the limit")
	}
	if d.Unlimited {
		t.Fatal("free user must not be unlimited")
	}
	if d.Remaining != 7 {
		t.Fatalf("expected remaining 7, got %v", d.Remaining)
	}
	if d.ResetAt == nil {
		t.Fatal("expected a reset time for a daily quota")
	}
	want := time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC)
	if !d.ResetAt.Equal(want) {
		t.Fatalf("expected reset at %v, got %v", want, *d.ResetAt)
	}
}

func TestCheckLimitFreeUserAtLimit(t *testing.T) {
	svc, usageRepo := newTestUsageService(map[string]*model.User{"u1": freeUser("u1")}, 0)
	now := time.Date(2026, 3, 15, 10, 30, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	usageRepo.IncrementDailyUsage(context.Background(), "u1", utcDay(now), FreeMessageLimit, 0)

	d, err := svc.CheckLimit(context.Background(), "u1", model.LimitMessage)
	if err != nil {
		t.Fatalf("CheckLimit returned error: %v", err)
	}
	if d.Allowed {
		t.Fatal("expected deny for free user at the limit")
	}
	if d.Remaining != 0 {
		t.Fatalf("expected remaining 0, got %v", d.Remaining)
	}
}

func TestCheckLimitPremiumIgnoresCounters(t *testing.T) {
	svc, usageRepo := newTestUsageService(map[string]*model.User{"u1": premiumUser("u1")}, 0)
	now := time.Date(2026, 3, 15, 10, 30, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	// Even an absurd counter value must not matter for premium.
	usageRepo.IncrementDailyUsage(context.Background(), "u1", utcDay(now), 500, 500)

	for _, lt := range []model.LimitType{model.LimitMessage, model.LimitVoice} {
		d, err := svc.CheckLimit(context.Background(), "u1", lt)
		if err != nil {
			t.Fatalf("CheckLimit(%s) returned error: %v", lt, err)
		}
		if !d.Allowed || !d.Unlimited {
			t.Fatalf("expected unlimited allow for premium on %s, got %+v", lt, d)
		}
	}
}

func TestCheckLimitUnknownUserDenies(t *testing.T) {
	svc, _ := newTestUsageService(map[string]*model.User{}, 0)

	d, err := svc.CheckLimit(context.Background(), "ghost", model.LimitMessage)
	if err != nil {
		t.Fatalf("expected a deny decision, not an error, got: %v", err)
	}
	if d.Allowed {
		t.Fatal("unknown user must be denied")
	}
	if d.Remaining != 0 {
		t.Fatalf("expected remaining 0 for unknown user, got %v", d.Remaining)
	}
	if d.ResetAt == nil {
		t.Fatal("deny for a daily quota should still carry a reset time")
	}
}

func TestCheckLimitInvalidType(t *testing.T) {
	svc, _ := newTestUsageService(map[string]*model.User{"u1": freeUser("u1")}, 0)

	if _, err := svc.CheckLimit(context.Background(), "u1", model.LimitType("bogus")); err == nil {
		t.Fatal("expected error for unknown limit type")
	}
	if _, err := svc.CheckLimit(context.Background(), "u1", model.LimitPhoto); err == nil {
		t.Fatal("photo is not a daily counter; CheckLimit must reject it")
	}
}

func TestCheckLimitIsReadOnly(t *testing.T) {
	svc, usageRepo := newTestUsageService(map[string]*model.User{"u1": freeUser("u1")}, 0)
	now := time.Date(2026, 3, 15, 10, 30, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	for i := 0; i < 5; i++ {
		if _, err := svc.CheckLimit(context.Background(), "u1", model.LimitMessage); err != nil {
			t.Fatalf("CheckLimit returned error: %v", err)
		}
	}
	if len(usageRepo.rows) != 0 {
		t.Fatal("CheckLimit must never write usage rows")
	}
}

func TestIncrementThenCheckVoice(t *testing.T) {
	svc, _ := newTestUsageService(map[string]*model.User{"u1": freeUser("u1")}, 0)
	now := time.Date(2026, 3, 15, 10, 30, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	if err := svc.IncrementUsage(context.Background(), "u1", model.LimitVoice, 3); err != nil {
		t.Fatalf("IncrementUsage returned error: %v", err)
	}

	d, err := svc.CheckLimit(context.Background(), "u1", model.LimitVoice)
	if err != nil {
		t.Fatalf("CheckLimit returned error: %v", err)
	}
	if d.Remaining != 7 {
		t.Fatalf("expected remaining 7 voice minutes, got %v", d.Remaining)
	}
}

func TestIncrementFractionalVoiceMinutes(t *testing.T) {
	svc, usageRepo := newTestUsageService(map[string]*model.User{"u1": freeUser("u1")}, 0)
	now := time.Date(2026, 3, 15, 10, 30, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	if err := svc.IncrementUsage(context.Background(), "u1", model.LimitVoice, 1.5); err != nil {
		t.Fatalf("IncrementUsage returned error: %v", err)
	}
	if err := svc.IncrementUsage(context.Background(), "u1", model.LimitVoice, 0.25); err != nil {
		t.Fatalf("IncrementUsage returned error: %v", err)
	}

	row := usageRepo.rows[usageKey("u1", utcDay(now))]
	if row == nil {
		t.Fatal("expected a usage row after increments")
	}
	if row.VoiceMinutesUsed != 1.75 {
		t.Fatalf("expected 1.75 voice minutes used, got %v", row.VoiceMinutesUsed)
	}
	if row.MessagesUsed != 0 {
		t.Fatalf("voice increments must not touch the message counter, got %d", row.MessagesUsed)
	}
}

func TestIncrementRejectsNonPositiveAmount(t *testing.T) {
	svc, _ := newTestUsageService(map[string]*model.User{"u1": freeUser("u1")}, 0)

	if err := svc.IncrementUsage(context.Background(), "u1", model.LimitMessage, 0); err == nil {
		t.Fatal("expected error for zero amount")
	}
	if err := svc.IncrementUsage(context.Background(), "u1", model.LimitMessage, -1); err == nil {
		t.Fatal("expected error for negative amount")
	}
}

func TestDayBoundaryResetsQuota(t *testing.T) {
	svc, _ := newTestUsageService(map[string]*model.User{"u1": freeUser("u1")}, 0)

	// Exhaust the quota just before midnight UTC.
	beforeMidnight := time.Date(2026, 3, 15, 23, 59, 0, 0, time.UTC)
	svc.now = func() time.Time { return beforeMidnight }
	for i := 0; i < FreeMessageLimit; i++ {
		if err := svc.IncrementUsage(context.Background(), "u1", model.LimitMessage, 1); err != nil {
			t.Fatalf("IncrementUsage returned error: %v", err)
		}
	}
	d, err := svc.CheckLimit(context.Background(), "u1", model.LimitMessage)
	if err != nil {
		t.Fatalf("CheckLimit returned error: %v", err)
	}
	if d.Allowed {
		t.Fatal("expected deny after exhausting the day's quota")
	}

	// Two minutes later it is a new UTC day; the old row no longer counts.
	afterMidnight := time.Date(2026, 3, 16, 0, 1, 0, 0, time.UTC)
	svc.now = func() time.Time { return afterMidnight }
	d, err = svc.CheckLimit(context.Background(), "u1", model.LimitMessage)
	if err != nil {
		t.Fatalf("CheckLimit returned error: %v", err)
	}
	if !d.Allowed {
		t.Fatal("expected allow on the next UTC day")
	}
	if d.Remaining != FreeMessageLimit {
		t.Fatalf("expected full quota on the new day, got %v", d.Remaining)
	}
}

func TestNonUTCTimezoneUsesUTCDay(t *testing.T) {
	svc, usageRepo := newTestUsageService(map[string]*model.User{"u1": freeUser("u1")}, 0)

	// 23:30 in UTC-5 is 04:30 the next day in UTC. Both write and read
	// paths must land on the same UTC day.
	loc := time.FixedZone("UTC-5", -5*60*60)
	local := time.Date(2026, 3, 15, 23, 30, 0, 0, loc)
	svc.now = func() time.Time { return local }

	if err := svc.IncrementUsage(context.Background(), "u1", model.LimitMessage, 1); err != nil {
		t.Fatalf("IncrementUsage returned error: %v", err)
	}

	wantDay := time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC)
	if usageRepo.rows[usageKey("u1", wantDay)] == nil {
		t.Fatalf("expected usage recorded under UTC day %v", wantDay)
	}

	d, err := svc.CheckLimit(context.Background(), "u1", model.LimitMessage)
	if err != nil {
		t.Fatalf("CheckLimit returned error: %v", err)
	}
	if d.Remaining != FreeMessageLimit-1 {
		t.Fatalf("read path missed the row the write path created: remaining %v", d.Remaining)
	}
}

func TestMessageQuotaExhaustionScenario(t *testing.T) {
	svc, _ := newTestUsageService(map[string]*model.User{"u1": freeUser("u1")}, 0)
	now := time.Date(2026, 3, 15, 8, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	ctx := context.Background()
	for i := 0; i < FreeMessageLimit; i++ {
		d, err := svc.CheckLimit(ctx, "u1", model.LimitMessage)
		if err != nil {
			t.Fatalf("CheckLimit returned error on turn %d: %v", i+1, err)
		}
		if !d.Allowed {
			t.Fatalf("expected allow on turn %d", i+1)
		}
		if err := svc.IncrementUsage(ctx, "u1", model.LimitMessage, 1); err != nil {
			t.Fatalf("IncrementUsage returned error on turn %d: %v", i+1, err)
		}
	}

	d, err := svc.CheckLimit(ctx, "u1", model.LimitMessage)
	if err != nil {
		t.Fatalf("CheckLimit returned error: %v", err)
	}
	if d.Allowed {
		t.Fatalf("expected deny after %d messages", FreeMessageLimit)
	}
}

func TestCheckPhotoLimitLifetime(t *testing.T) {
	svc, _ := newTestUsageService(map[string]*model.User{"u1": freeUser("u1")}, 40)

	d, err := svc.CheckPhotoLimit(context.Background(), "u1")
	if err != nil {
		t.Fatalf("CheckPhotoLimit returned error: %v", err)
	}
	if !d.Allowed {
		t.Fatal("expected allow with 40 of 100 photos stored")
	}
	if d.Remaining != 60 {
		t.Fatalf("expected remaining 60, got %v", d.Remaining)
	}
	if d.ResetAt != nil {
		t.Fatal("lifetime quota must not carry a reset time")
	}
}

func TestCheckPhotoLimitAtCap(t *testing.T) {
	svc, _ := newTestUsageService(map[string]*model.User{"u1": freeUser("u1")}, FreePhotoLimit)

	d, err := svc.CheckPhotoLimit(context.Background(), "u1")
	if err != nil {
		t.Fatalf("CheckPhotoLimit returned error: %v", err)
	}
	if d.Allowed {
		t.Fatal("expected deny at the lifetime cap")
	}
	if d.Remaining != 0 {
		t.Fatalf("expected remaining 0, got %v", d.Remaining)
	}
}

func TestCheckPhotoLimitPremium(t *testing.T) {
	svc, _ := newTestUsageService(map[string]*model.User{"u1": premiumUser("u1")}, 100000)

	d, err := svc.CheckPhotoLimit(context.Background(), "u1")
	if err != nil {
		t.Fatalf("CheckPhotoLimit returned error: %v", err)
	}
	if !d.Allowed || !d.Unlimited {
		t.Fatalf("expected unlimited allow for premium, got %+v", d)
	}
}

func TestCheckPhotoLimitUnknownUserDenies(t *testing.T) {
	svc, _ := newTestUsageService(map[string]*model.User{}, 0)

	d, err := svc.CheckPhotoLimit(context.Background(), "ghost")
	if err != nil {
		t.Fatalf("expected a deny decision, not an error, got: %v", err)
	}
	if d.Allowed {
		t.Fatal("unknown user must be denied")
	}
}

func TestUTCDayHelpers(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*60*60)
	t1 := time.Date(2026, 3, 16, 3, 0, 0, 0, loc) // 2026-03-15 18:00 UTC

	day := utcDay(t1)
	if !day.Equal(time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("utcDay(%v) = %v", t1, day)
	}

	reset := nextMidnightUTC(t1)
	if !reset.Equal(time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("nextMidnightUTC(%v) = %v", t1, reset)
	}
}
