package handler

import (
	"encoding/json"
	"net/http"

	"app/internal/api/v1/dto"
	"app/internal/middleware"
	"app/internal/model"
	"app/internal/service"

	"github.com/rs/zerolog"
)

type UsageHandler struct {
	usageService service.UsageService
	logger       zerolog.Logger
}

func NewUsageHandler(usageService service.UsageService, logger zerolog.Logger) *UsageHandler {
	return &UsageHandler{usageService: usageService, logger: logger}
}

// RegisterRoutes mounts v1 usage routes
func (h *UsageHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("/usage", authMw(http.HandlerFunc(h.getUsage)))
}

// getUsage godoc
// @Summary Get usage summary
// @Description Reports the message, voice-minute and photo quotas for the authenticated user. Each quota carries the remaining allowance and, for daily quotas, the next reset time. Premium users see unlimited quotas.
// @Tags usage
// @Produce json
// @Success 200 {object} dto.UsageSummaryResponse
// @Failure 401 {string} string "Unauthorized: User ID not found in context"
// @Failure 500 {string} string "Failed to get usage"
// @Router /usage [get]
func (h *UsageHandler) getUsage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := r.Context().Value(middleware.UserContextKey).(string)
	if !ok || userID == "" {
		http.Error(w, "Unauthorized: User ID not found in context", http.StatusUnauthorized)
		return
	}

	messages, err := h.usageService.CheckLimit(r.Context(), userID, model.LimitMessage)
	if err != nil {
		http.Error(w, "Failed to get usage: "+err.Error(), http.StatusInternalServerError)
		return
	}
	voice, err := h.usageService.CheckLimit(r.Context(), userID, model.LimitVoice)
	if err != nil {
		http.Error(w, "Failed to get usage: "+err.Error(), http.StatusInternalServerError)
		return
	}
	photos, err := h.usageService.CheckPhotoLimit(r.Context(), userID)
	if err != nil {
		http.Error(w, "Failed to get usage: "+err.Error(), http.StatusInternalServerError)
		return
	}

	resp := dto.UsageSummaryResponse{
		Messages:     dto.LimitFromDecision(messages),
		VoiceMinutes: dto.LimitFromDecision(voice),
		Photos:       dto.LimitFromDecision(photos),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error().Err(err).Msg("Failed to encode response")
	}
}

// writeRateLimited writes the 429 body shared by all gated endpoints.
func writeRateLimited(w http.ResponseWriter, limitErr *service.LimitExceededError) {
	resp := dto.RateLimitResponse{
		Error:     limitErr.Error(),
		LimitType: string(limitErr.Type),
		Remaining: limitErr.Decision.Remaining,
		ResetAt:   limitErr.Decision.ResetAt,
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	json.NewEncoder(w).Encode(resp)
}
