package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"app/internal/model"
	"app/internal/repository"

	"github.com/rs/zerolog"
)

// swappable in tests
var timeNow = time.Now

var (
	ErrConversationNotFound = errors.New("conversation not found")
	ErrChildNotFound        = errors.New("child not found")
	ErrUnauthorized         = errors.New("unauthorized access")
)

// History window sent to the assistant per turn.
const chatHistoryLimit = 20

const parentingSystemPrompt = `You are a warm, knowledgeable parenting assistant. ` +
	`You help parents with age-appropriate guidance on sleep, feeding, development and behavior. ` +
	`Be reassuring and practical. For anything that could be a medical concern, ` +
	`advise the parent to contact their pediatrician.`

type ChatService interface {
	CreateConversation(ctx context.Context, userID string, childID *string, title string) (*model.Conversation, error)
	GetConversation(ctx context.Context, conversationID, userID string) (*model.Conversation, error)
	ListConversations(ctx context.Context, userID string, limit, offset int) ([]model.Conversation, error)
	DeleteConversation(ctx context.Context, conversationID, userID string) error
	ListMessages(ctx context.Context, conversationID, userID string, limit int) ([]model.Message, error)
	// SendMessage runs one gated chat turn: check the message limit, call the
	// assistant, persist both sides, then record usage. A denied check
	// returns *LimitExceededError.
	SendMessage(ctx context.Context, conversationID, userID, content string) (*model.Message, error)
}

type chatService struct {
	chatRepo  repository.ChatRepository
	childRepo repository.ChildRepository
	usageSvc  UsageService
	assistant AssistantClient
	logger    zerolog.Logger
}

func NewChatService(
	chatRepo repository.ChatRepository,
	childRepo repository.ChildRepository,
	usageSvc UsageService,
	assistant AssistantClient,
	logger zerolog.Logger,
) ChatService {
	return &chatService{
		chatRepo:  chatRepo,
		childRepo: childRepo,
		usageSvc:  usageSvc,
		assistant: assistant,
		logger:    logger.With().Str("service", "ChatService").Logger(),
	}
}

func (s *chatService) CreateConversation(ctx context.Context, userID string, childID *string, title string) (*model.Conversation, error) {
	if childID != nil {
		child, err := s.childRepo.GetChildByID(ctx, *childID, userID)
		if err != nil {
			return nil, fmt.Errorf("verifying child: %w", err)
		}
		if child == nil {
			return nil, ErrChildNotFound
		}
	}

	if title == "" {
		title = "New Conversation"
	}

	conversation, err := s.chatRepo.CreateConversation(ctx, userID, childID, title)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to create conversation")
		return nil, fmt.Errorf("creating conversation: %w", err)
	}
	return conversation, nil
}

func (s *chatService) GetConversation(ctx context.Context, conversationID, userID string) (*model.Conversation, error) {
	conversation, err := s.chatRepo.GetConversation(ctx, conversationID, userID)
	if err != nil {
		return nil, fmt.Errorf("getting conversation: %w", err)
	}
	if conversation == nil {
		return nil, ErrConversationNotFound
	}
	return conversation, nil
}

func (s *chatService) ListConversations(ctx context.Context, userID string, limit, offset int) ([]model.Conversation, error) {
	conversations, err := s.chatRepo.ListConversations(ctx, userID, limit, offset)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to list conversations")
		return nil, fmt.Errorf("listing conversations: %w", err)
	}
	return conversations, nil
}

func (s *chatService) DeleteConversation(ctx context.Context, conversationID, userID string) error {
	conversation, err := s.chatRepo.GetConversation(ctx, conversationID, userID)
	if err != nil {
		return fmt.Errorf("getting conversation: %w", err)
	}
	if conversation == nil {
		return ErrConversationNotFound
	}
	if err := s.chatRepo.DeleteConversation(ctx, conversationID, userID); err != nil {
		s.logger.Error().Err(err).Str("conversation_id", conversationID).Msg("Failed to delete conversation")
		return fmt.Errorf("deleting conversation: %w", err)
	}
	return nil
}

func (s *chatService) ListMessages(ctx context.Context, conversationID, userID string, limit int) ([]model.Message, error) {
	conversation, err := s.chatRepo.GetConversation(ctx, conversationID, userID)
	if err != nil {
		return nil, fmt.Errorf("getting conversation: %w", err)
	}
	if conversation == nil {
		return nil, ErrConversationNotFound
	}

	messages, err := s.chatRepo.ListMessages(ctx, conversationID, limit)
	if err != nil {
		s.logger.Error().Err(err).Str("conversation_id", conversationID).Msg("Failed to list messages")
		return nil, fmt.Errorf("listing messages: %w", err)
	}
	return messages, nil
}

func (s *chatService) SendMessage(ctx context.Context, conversationID, userID, content string) (*model.Message, error) {
	conversation, err := s.chatRepo.GetConversation(ctx, conversationID, userID)
	if err != nil {
		return nil, fmt.Errorf("getting conversation: %w", err)
	}
	if conversation == nil {
		return nil, ErrConversationNotFound
	}

	decision, err := s.usageSvc.CheckLimit(ctx, userID, model.LimitMessage)
	if err != nil {
		return nil, fmt.Errorf("checking message limit: %w", err)
	}
	if !decision.Allowed {
		return nil, &LimitExceededError{Type: model.LimitMessage, Decision: decision}
	}

	history, err := s.chatRepo.ListMessages(ctx, conversationID, chatHistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("loading conversation history: %w", err)
	}

	prompt := s.buildPrompt(ctx, conversation, userID)
	apiMessages := make([]ChatMessage, 0, len(history)+2)
	apiMessages = append(apiMessages, ChatMessage{Role: "system", Content: prompt})
	for _, m := range history {
		apiMessages = append(apiMessages, ChatMessage{Role: m.Role, Content: m.Content})
	}
	apiMessages = append(apiMessages, ChatMessage{Role: "user", Content: content})

	reply, err := s.assistant.Complete(ctx, apiMessages)
	if err != nil {
		s.logger.Error().Err(err).Str("conversation_id", conversationID).Msg("Assistant call failed")
		return nil, fmt.Errorf("completing chat turn: %w", err)
	}

	if _, err := s.chatRepo.CreateMessage(ctx, conversationID, "user", content); err != nil {
		return nil, fmt.Errorf("persisting user message: %w", err)
	}
	assistantMsg, err := s.chatRepo.CreateMessage(ctx, conversationID, "assistant", reply)
	if err != nil {
		return nil, fmt.Errorf("persisting assistant message: %w", err)
	}

	// The user already has their answer at this point. An increment failure
	// under-counts usage, which is worth alerting on but must not fail the
	// response.
	if err := s.usageSvc.IncrementUsage(ctx, userID, model.LimitMessage, 1); err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to record message usage")
	}

	return assistantMsg, nil
}

// buildPrompt augments the system prompt with the child's age when the
// conversation is linked to a child profile.
func (s *chatService) buildPrompt(ctx context.Context, conversation *model.Conversation, userID string) string {
	if conversation.ChildID == nil {
		return parentingSystemPrompt
	}
	child, err := s.childRepo.GetChildByID(ctx, *conversation.ChildID, userID)
	if err != nil || child == nil {
		if err != nil {
			s.logger.Warn().Err(err).Str("child_id", *conversation.ChildID).Msg("Failed to load child for prompt context")
		}
		return parentingSystemPrompt
	}
	return fmt.Sprintf("%s The parent is asking about %s, who is %d months old.",
		parentingSystemPrompt, child.Name, child.AgeInMonths(timeNow()))
}
