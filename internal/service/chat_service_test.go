package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"app/internal/model"

	"github.com/rs/zerolog"
)

type fakeChatRepo struct {
	conversations map[string]*model.Conversation
	messages      map[string][]model.Message
	nextID        int
}

func newFakeChatRepo() *fakeChatRepo {
	return &fakeChatRepo{
		conversations: map[string]*model.Conversation{},
		messages:      map[string][]model.Message{},
	}
}

func (f *fakeChatRepo) CreateConversation(ctx context.Context, userID string, childID *string, title string) (*model.Conversation, error) {
	f.nextID++
	c := &model.Conversation{
		ID:      fmt.Sprintf("conv-%d", f.nextID),
		UserID:  userID,
		ChildID: childID,
		Title:   title,
	}
	f.conversations[c.ID] = c
	return c, nil
}

func (f *fakeChatRepo) GetConversation(ctx context.Context, conversationID, userID string) (*model.Conversation, error) {
	c, ok := f.conversations[conversationID]
	if !ok || c.UserID != userID {
		return nil, nil
	}
	return c, nil
}

func (f *fakeChatRepo) ListConversations(ctx context.Context, userID string, limit, offset int) ([]model.Conversation, error) {
	var out []model.Conversation
	for _, c := range f.conversations {
		if c.UserID == userID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (f *fakeChatRepo) UpdateConversationTitle(ctx context.Context, conversationID, userID, title string) (*model.Conversation, error) {
	c, _ := f.GetConversation(ctx, conversationID, userID)
	if c != nil {
		c.Title = title
	}
	return c, nil
}

func (f *fakeChatRepo) DeleteConversation(ctx context.Context, conversationID, userID string) error {
	delete(f.conversations, conversationID)
	return nil
}

func (f *fakeChatRepo) CreateMessage(ctx context.Context, conversationID, role, content string) (*model.Message, error) {
	f.nextID++
	m := model.Message{
		ID:             fmt.Sprintf("msg-%d", f.nextID),
		ConversationID: conversationID,
		Role:           role,
		Content:        content,
	}
	f.messages[conversationID] = append(f.messages[conversationID], m)
	return &m, nil
}

func (f *fakeChatRepo) ListMessages(ctx context.Context, conversationID string, limit int) ([]model.Message, error) {
	return f.messages[conversationID], nil
}

type fakeUsageService struct {
	decision   model.LimitDecision
	increments []float64
}

func (f *fakeUsageService) CheckLimit(ctx context.Context, userID string, limitType model.LimitType) (model.LimitDecision, error) {
	return f.decision, nil
}

func (f *fakeUsageService) CheckPhotoLimit(ctx context.Context, userID string) (model.LimitDecision, error) {
	return f.decision, nil
}

func (f *fakeUsageService) IncrementUsage(ctx context.Context, userID string, limitType model.LimitType, amount float64) error {
	f.increments = append(f.increments, amount)
	return nil
}

type fakeAssistant struct {
	reply    string
	err      error
	calls    int
	received []ChatMessage
}

func (f *fakeAssistant) Complete(ctx context.Context, messages []ChatMessage) (string, error) {
	f.calls++
	f.received = messages
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func (f *fakeAssistant) Transcribe(ctx context.Context, audio io.Reader, filename string) (string, float64, error) {
	f.calls++
	if f.err != nil {
		return "", 0, f.err
	}
	return f.reply, 90, nil
}

func (f *fakeAssistant) AnalyzePhoto(ctx context.Context, imageURL string) (*PhotoAnalysis, error) {
	return &PhotoAnalysis{Category: "smiling", Caption: "a happy baby"}, nil
}

type fakeChildRepo struct {
	children map[string]*model.Child
}

func (f *fakeChildRepo) CreateChild(ctx context.Context, c *model.Child) error {
	f.children[c.ID] = c
	return nil
}

func (f *fakeChildRepo) GetChildByID(ctx context.Context, childID, userID string) (*model.Child, error) {
	c, ok := f.children[childID]
	if !ok || c.UserID != userID {
		return nil, nil
	}
	return c, nil
}

func (f *fakeChildRepo) ListChildrenByUser(ctx context.Context, userID string) ([]model.Child, error) {
	var out []model.Child
	for _, c := range f.children {
		if c.UserID == userID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (f *fakeChildRepo) UpdateChild(ctx context.Context, childID, userID, name string, birthdate time.Time) (*model.Child, error) {
	c, _ := f.GetChildByID(ctx, childID, userID)
	if c != nil {
		c.Name = name
		c.Birthdate = birthdate
	}
	return c, nil
}

func (f *fakeChildRepo) DeleteChild(ctx context.Context, childID, userID string) error {
	delete(f.children, childID)
	return nil
}

func newTestChatService(usage UsageService, assistant AssistantClient) (ChatService, *fakeChatRepo) {
	chatRepo := newFakeChatRepo()
	childRepo := &fakeChildRepo{children: map[string]*model.Child{}}
	return NewChatService(chatRepo, childRepo, usage, assistant, zerolog.Nop()), chatRepo
}

func TestSendMessageSuccess(t *testing.T) {
	usage := &fakeUsageService{decision: model.LimitDecision{Allowed: true, Remaining: 5, Limit: 10}}
	assistant := &fakeAssistant{reply: "Try an earlier bedtime."}
	svc, chatRepo := newTestChatService(usage, assistant)

	ctx := context.Background()
	conv, err := svc.CreateConversation(ctx, "u1", nil, "Sleep help")
	if err != nil {
		t.Fatalf("CreateConversation returned error: %v", err)
	}

	reply, err := svc.SendMessage(ctx, conv.ID, "u1", "My toddler won't sleep")
	if err != nil {
		t.Fatalf("SendMessage returned error: %v", err)
	}
	if reply.Role != "assistant" || reply.Content != "Try an earlier bedtime." {
		t.Fatalf("unexpected reply: %+v", reply)
	}

	msgs := chatRepo.messages[conv.ID]
	if len(msgs) != 2 {
		t.Fatalf("expected user and assistant messages persisted, got %d", len(msgs))
	}
	if msgs[0].Role != "user" || msgs[1].Role != "assistant" {
		t.Fatalf("messages persisted in wrong order: %v, %v", msgs[0].Role, msgs[1].Role)
	}

	if len(usage.increments) != 1 || usage.increments[0] != 1 {
		t.Fatalf("expected exactly one usage increment of 1, got %v", usage.increments)
	}

	// System prompt first, user turn last.
	if assistant.received[0].Role != "system" {
		t.Fatalf("expected system prompt first, got %q", assistant.received[0].Role)
	}
	last := assistant.received[len(assistant.received)-1]
	if last.Role != "user" || last.Content != "My toddler won't sleep" {
		t.Fatalf("expected the new user turn last, got %+v", last)
	}
}

func TestSendMessageDenied(t *testing.T) {
	resetAt := time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC)
	usage := &fakeUsageService{decision: model.LimitDecision{Allowed: false, Remaining: 0, Limit: 10, ResetAt: &resetAt}}
	assistant := &fakeAssistant{reply: "should never be sent"}
	svc, chatRepo := newTestChatService(usage, assistant)

	ctx := context.Background()
	conv, _ := svc.CreateConversation(ctx, "u1", nil, "Sleep help")

	_, err := svc.SendMessage(ctx, conv.ID, "u1", "hello")
	var limitErr *LimitExceededError
	if !errors.As(err, &limitErr) {
		t.Fatalf("expected *LimitExceededError, got %v", err)
	}
	if limitErr.Type != model.LimitMessage {
		t.Fatalf("expected message limit type, got %s", limitErr.Type)
	}
	if limitErr.Decision.ResetAt == nil || !limitErr.Decision.ResetAt.Equal(resetAt) {
		t.Fatalf("expected decision to carry the reset time, got %+v", limitErr.Decision)
	}

	if assistant.calls != 0 {
		t.Fatal("assistant must not be called on a denied turn")
	}
	if len(chatRepo.messages[conv.ID]) != 0 {
		t.Fatal("no messages may be persisted on a denied turn")
	}
	if len(usage.increments) != 0 {
		t.Fatal("usage must not be incremented on a denied turn")
	}
}

func TestSendMessageAssistantFailureDoesNotCharge(t *testing.T) {
	usage := &fakeUsageService{decision: model.LimitDecision{Allowed: true, Remaining: 5, Limit: 10}}
	assistant := &fakeAssistant{err: errors.New("upstream timeout")}
	svc, chatRepo := newTestChatService(usage, assistant)

	ctx := context.Background()
	conv, _ := svc.CreateConversation(ctx, "u1", nil, "Sleep help")

	if _, err := svc.SendMessage(ctx, conv.ID, "u1", "hello"); err == nil {
		t.Fatal("expected error when the assistant fails")
	}
	if len(usage.increments) != 0 {
		t.Fatal("a failed turn must not be charged")
	}
	if len(chatRepo.messages[conv.ID]) != 0 {
		t.Fatal("a failed turn must not persist messages")
	}
}

func TestSendMessageUnknownConversation(t *testing.T) {
	usage := &fakeUsageService{decision: model.LimitDecision{Allowed: true}}
	svc, _ := newTestChatService(usage, &fakeAssistant{reply: "hi"})

	_, err := svc.SendMessage(context.Background(), "missing", "u1", "hello")
	if !errors.Is(err, ErrConversationNotFound) {
		t.Fatalf("expected ErrConversationNotFound, got %v", err)
	}
}

func TestCreateConversationWithChildPrompt(t *testing.T) {
	usage := &fakeUsageService{decision: model.LimitDecision{Allowed: true}}
	assistant := &fakeAssistant{reply: "ok"}

	fixedNow := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	origNow := timeNow
	timeNow = func() time.Time { return fixedNow }
	defer func() { timeNow = origNow }()

	chatRepo := newFakeChatRepo()
	childRepo := &fakeChildRepo{children: map[string]*model.Child{
		"c1": {ID: "c1", UserID: "u1", Name: "Mia", Birthdate: time.Date(2025, 7, 10, 0, 0, 0, 0, time.UTC)},
	}}
	svc := NewChatService(chatRepo, childRepo, usage, assistant, zerolog.Nop())

	ctx := context.Background()
	childID := "c1"
	conv, err := svc.CreateConversation(ctx, "u1", &childID, "")
	if err != nil {
		t.Fatalf("CreateConversation returned error: %v", err)
	}
	if conv.Title != "New Conversation" {
		t.Fatalf("expected default title, got %q", conv.Title)
	}

	if _, err := svc.SendMessage(ctx, conv.ID, "u1", "How much should she nap?"); err != nil {
		t.Fatalf("SendMessage returned error: %v", err)
	}
	prompt := assistant.received[0].Content
	if !strings.Contains(prompt, "Mia") || !strings.Contains(prompt, "8 months old") {
		t.Fatalf("expected child context in system prompt, got %q", prompt)
	}

	otherChild := "c2"
	if _, err := svc.CreateConversation(ctx, "u1", &otherChild, "x"); !errors.Is(err, ErrChildNotFound) {
		t.Fatalf("expected ErrChildNotFound for missing child, got %v", err)
	}
}
