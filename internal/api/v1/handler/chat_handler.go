package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"app/internal/api/v1/dto"
	"app/internal/middleware"
	"app/internal/model"
	"app/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

type ChatHandler struct {
	chatService service.ChatService
	validate    *validator.Validate
	logger      zerolog.Logger
}

func NewChatHandler(chatService service.ChatService, validate *validator.Validate, logger zerolog.Logger) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
		validate:    validate,
		logger:      logger,
	}
}

// RegisterRoutes mounts conversation routes under /conversations
func (h *ChatHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("/conversations", authMw(http.HandlerFunc(h.handleConversations)))
	mux.Handle("/conversations/", authMw(http.HandlerFunc(h.handleConversation)))
}

func (h *ChatHandler) handleConversations(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.createConversation(w, r)
	case http.MethodGet:
		h.listConversations(w, r)
	default:
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
	}
}

func (h *ChatHandler) handleConversation(w http.ResponseWriter, r *http.Request) {
	pathParts := strings.Split(strings.TrimPrefix(r.URL.Path, "/conversations/"), "/")
	conversationID := pathParts[0]
	if conversationID == "" {
		http.NotFound(w, r)
		return
	}

	switch {
	case len(pathParts) == 1 && r.Method == http.MethodGet:
		h.getConversation(w, r, conversationID)
	case len(pathParts) == 1 && r.Method == http.MethodDelete:
		h.deleteConversation(w, r, conversationID)
	case len(pathParts) == 2 && pathParts[1] == "messages" && r.Method == http.MethodGet:
		h.listMessages(w, r, conversationID)
	case len(pathParts) == 2 && pathParts[1] == "messages" && r.Method == http.MethodPost:
		h.sendMessage(w, r, conversationID)
	default:
		http.NotFound(w, r)
	}
}

// createConversation godoc
// @Summary Create a new conversation
// @Description Creates a conversation with the parenting assistant, optionally linked to a child profile so the assistant can tailor answers to the child's age.
// @Tags conversations
// @Accept json
// @Produce json
// @Param conversation body dto.ConversationCreateDTO false "Conversation creation request"
// @Success 201 {object} dto.ConversationResponseDTO
// @Failure 400 {string} string "Invalid JSON payload"
// @Failure 401 {string} string "Unauthorized: User ID not found in context"
// @Failure 404 {string} string "Child not found"
// @Failure 500 {string} string "Failed to create conversation"
// @Router /conversations [post]
func (h *ChatHandler) createConversation(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(middleware.UserContextKey).(string)
	if !ok || userID == "" {
		http.Error(w, "Unauthorized: User ID not found in context", http.StatusUnauthorized)
		return
	}

	var req dto.ConversationCreateDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}

	title := "New Conversation"
	if req.Title != nil && *req.Title != "" {
		title = *req.Title
	}

	conv, err := h.chatService.CreateConversation(r.Context(), userID, req.ChildID, title)
	if err != nil {
		if errors.Is(err, service.ErrChildNotFound) {
			http.Error(w, "Child not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to create conversation: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(conversationResponse(conv)); err != nil {
		h.logger.Error().Err(err).Msg("Failed to encode response")
	}
}

// listConversations godoc
// @Summary List conversations
// @Description Retrieves the authenticated user's conversations with pagination support.
// @Tags conversations
// @Produce json
// @Param limit query int false "Maximum number of conversations to return" default(50)
// @Param offset query int false "Number of conversations to skip" default(0)
// @Success 200 {array} dto.ConversationResponseDTO
// @Failure 401 {string} string "Unauthorized: User ID not found in context"
// @Failure 500 {string} string "Failed to list conversations"
// @Router /conversations [get]
func (h *ChatHandler) listConversations(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(middleware.UserContextKey).(string)
	if !ok || userID == "" {
		http.Error(w, "Unauthorized: User ID not found in context", http.StatusUnauthorized)
		return
	}

	limit := 50
	offset := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsedLimit, err := strconv.Atoi(limitStr); err == nil && parsedLimit > 0 {
			limit = parsedLimit
		}
	}
	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if parsedOffset, err := strconv.Atoi(offsetStr); err == nil && parsedOffset >= 0 {
			offset = parsedOffset
		}
	}

	conversations, err := h.chatService.ListConversations(r.Context(), userID, limit, offset)
	if err != nil {
		http.Error(w, "Failed to list conversations: "+err.Error(), http.StatusInternalServerError)
		return
	}

	resp := make([]dto.ConversationResponseDTO, len(conversations))
	for i := range conversations {
		resp[i] = conversationResponse(&conversations[i])
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error().Err(err).Msg("Failed to encode response")
	}
}

// getConversation godoc
// @Summary Get a conversation
// @Description Retrieves a specific conversation by its ID.
// @Tags conversations
// @Produce json
// @Param conversationId path string true "Conversation ID"
// @Success 200 {object} dto.ConversationResponseDTO
// @Failure 401 {string} string "Unauthorized: User ID not found in context"
// @Failure 404 {string} string "Conversation not found"
// @Failure 500 {string} string "Failed to get conversation"
// @Router /conversations/{conversationId} [get]
func (h *ChatHandler) getConversation(w http.ResponseWriter, r *http.Request, conversationID string) {
	userID, ok := r.Context().Value(middleware.UserContextKey).(string)
	if !ok || userID == "" {
		http.Error(w, "Unauthorized: User ID not found in context", http.StatusUnauthorized)
		return
	}

	conv, err := h.chatService.GetConversation(r.Context(), conversationID, userID)
	if err != nil {
		if errors.Is(err, service.ErrConversationNotFound) {
			http.Error(w, "Conversation not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to get conversation: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(conversationResponse(conv)); err != nil {
		h.logger.Error().Err(err).Msg("Failed to encode response")
	}
}

// deleteConversation godoc
// @Summary Delete a conversation
// @Description Deletes a conversation and all its messages.
// @Tags conversations
// @Param conversationId path string true "Conversation ID"
// @Success 204 {string} string "No Content"
// @Failure 401 {string} string "Unauthorized: User ID not found in context"
// @Failure 404 {string} string "Conversation not found"
// @Failure 500 {string} string "Failed to delete conversation"
// @Router /conversations/{conversationId} [delete]
func (h *ChatHandler) deleteConversation(w http.ResponseWriter, r *http.Request, conversationID string) {
	userID, ok := r.Context().Value(middleware.UserContextKey).(string)
	if !ok || userID == "" {
		http.Error(w, "Unauthorized: User ID not found in context", http.StatusUnauthorized)
		return
	}

	if err := h.chatService.DeleteConversation(r.Context(), conversationID, userID); err != nil {
		if errors.Is(err, service.ErrConversationNotFound) {
			http.Error(w, "Conversation not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to delete conversation: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// listMessages godoc
// @Summary List messages in a conversation
// @Description Retrieves messages for a conversation in chronological order (oldest first).
// @Tags conversations
// @Produce json
// @Param conversationId path string true "Conversation ID"
// @Param limit query int false "Maximum number of messages to return" default(100)
// @Success 200 {array} dto.MessageResponseDTO
// @Failure 401 {string} string "Unauthorized: User ID not found in context"
// @Failure 404 {string} string "Conversation not found"
// @Failure 500 {string} string "Failed to list messages"
// @Router /conversations/{conversationId}/messages [get]
func (h *ChatHandler) listMessages(w http.ResponseWriter, r *http.Request, conversationID string) {
	userID, ok := r.Context().Value(middleware.UserContextKey).(string)
	if !ok || userID == "" {
		http.Error(w, "Unauthorized: User ID not found in context", http.StatusUnauthorized)
		return
	}

	limit := 100
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsedLimit, err := strconv.Atoi(limitStr); err == nil && parsedLimit > 0 {
			limit = parsedLimit
		}
	}

	messages, err := h.chatService.ListMessages(r.Context(), conversationID, userID, limit)
	if err != nil {
		if errors.Is(err, service.ErrConversationNotFound) {
			http.Error(w, "Conversation not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to list messages: "+err.Error(), http.StatusInternalServerError)
		return
	}

	resp := make([]dto.MessageResponseDTO, len(messages))
	for i := range messages {
		resp[i] = messageResponse(&messages[i])
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error().Err(err).Msg("Failed to encode response")
	}
}

// sendMessage godoc
// @Summary Send a message
// @Description Sends a user message to the parenting assistant and returns the assistant's reply. The daily message quota is checked before the assistant is called; a denied check returns 429 with the remaining allowance and reset time. Premium users are never denied.
// @Tags conversations
// @Accept json
// @Produce json
// @Param conversationId path string true "Conversation ID"
// @Param message body dto.MessageCreateDTO true "Message request"
// @Success 201 {object} dto.MessageResponseDTO
// @Failure 400 {string} string "Invalid JSON payload or validation failed"
// @Failure 401 {string} string "Unauthorized: User ID not found in context"
// @Failure 404 {string} string "Conversation not found"
// @Failure 429 {object} dto.RateLimitResponse
// @Failure 500 {string} string "Failed to send message"
// @Router /conversations/{conversationId}/messages [post]
func (h *ChatHandler) sendMessage(w http.ResponseWriter, r *http.Request, conversationID string) {
	userID, ok := r.Context().Value(middleware.UserContextKey).(string)
	if !ok || userID == "" {
		http.Error(w, "Unauthorized: User ID not found in context", http.StatusUnauthorized)
		return
	}

	var req dto.MessageCreateDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}

	reply, err := h.chatService.SendMessage(r.Context(), conversationID, userID, req.Content)
	if err != nil {
		var limitErr *service.LimitExceededError
		switch {
		case errors.As(err, &limitErr):
			writeRateLimited(w, limitErr)
		case errors.Is(err, service.ErrConversationNotFound):
			http.Error(w, "Conversation not found", http.StatusNotFound)
		default:
			http.Error(w, "Failed to send message: "+err.Error(), http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(messageResponse(reply)); err != nil {
		h.logger.Error().Err(err).Msg("Failed to encode response")
	}
}

func conversationResponse(c *model.Conversation) dto.ConversationResponseDTO {
	return dto.ConversationResponseDTO{
		ID:        c.ID,
		UserID:    c.UserID,
		ChildID:   c.ChildID,
		Title:     c.Title,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func messageResponse(m *model.Message) dto.MessageResponseDTO {
	return dto.MessageResponseDTO{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		Role:           m.Role,
		Content:        m.Content,
		CreatedAt:      m.CreatedAt,
	}
}
