package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"app/internal/api/v1/dto"
	"app/internal/middleware"
	"app/internal/model"
	"app/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

type MilestoneHandler struct {
	milestoneService service.MilestoneService
	validate         *validator.Validate
	logger           zerolog.Logger
}

func NewMilestoneHandler(milestoneService service.MilestoneService, validate *validator.Validate, logger zerolog.Logger) *MilestoneHandler {
	return &MilestoneHandler{
		milestoneService: milestoneService,
		validate:         validate,
		logger:           logger,
	}
}

// RegisterRoutes mounts the milestone template catalog. Per-child milestone
// routes are registered through ChildHandler to avoid route conflicts.
func (h *MilestoneHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("/milestones", authMw(http.HandlerFunc(h.listTemplates)))
}

// handleChildMilestones dispatches /children/{childId}/milestones/... routes.
// The remaining path segments after "milestones" arrive in rest.
func (h *MilestoneHandler) handleChildMilestones(w http.ResponseWriter, r *http.Request, childID string, rest []string) {
	switch {
	case len(rest) == 0 && r.Method == http.MethodGet:
		h.suggestForChild(w, r, childID)
	case len(rest) == 1 && rest[0] == "achievements" && r.Method == http.MethodGet:
		h.listAchievements(w, r, childID)
	case len(rest) == 1 && rest[0] == "achievements" && r.Method == http.MethodPost:
		h.recordAchievement(w, r, childID)
	case len(rest) == 2 && rest[0] == "achievements" && r.Method == http.MethodDelete:
		h.removeAchievement(w, r, childID, rest[1])
	default:
		http.NotFound(w, r)
	}
}

// listTemplates godoc
// @Summary List milestone templates
// @Description Retrieves the full catalog of developmental milestone templates with their age bands.
// @Tags milestones
// @Produce json
// @Success 200 {array} model.MilestoneTemplate
// @Router /milestones [get]
func (h *MilestoneHandler) listTemplates(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	templates := h.milestoneService.ListTemplates()

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(templates); err != nil {
		h.logger.Error().Err(err).Msg("Failed to encode response")
	}
}

// suggestForChild godoc
// @Summary Suggest milestones for a child
// @Description Retrieves the milestone templates whose age band contains the child's current age, flagged with whether the child has already achieved each one. Unachieved milestones sort first.
// @Tags milestones
// @Produce json
// @Param childId path string true "Child ID"
// @Success 200 {array} service.MilestoneSuggestion
// @Failure 401 {string} string "Unauthorized: User ID not found in context"
// @Failure 404 {string} string "Child not found"
// @Failure 500 {string} string "Failed to suggest milestones"
// @Router /children/{childId}/milestones [get]
func (h *MilestoneHandler) suggestForChild(w http.ResponseWriter, r *http.Request, childID string) {
	userID, ok := r.Context().Value(middleware.UserContextKey).(string)
	if !ok || userID == "" {
		http.Error(w, "Unauthorized: User ID not found in context", http.StatusUnauthorized)
		return
	}

	suggestions, err := h.milestoneService.SuggestForChild(r.Context(), childID, userID)
	if err != nil {
		if errors.Is(err, service.ErrChildNotFound) {
			http.Error(w, "Child not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to suggest milestones: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if suggestions == nil {
		suggestions = []service.MilestoneSuggestion{}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(suggestions); err != nil {
		h.logger.Error().Err(err).Msg("Failed to encode response")
	}
}

// recordAchievement godoc
// @Summary Record a milestone achievement
// @Description Records that a child achieved a milestone template. Recording the same template twice keeps the earlier achievement date.
// @Tags milestones
// @Accept json
// @Produce json
// @Param childId path string true "Child ID"
// @Param achievement body dto.AchievementCreateDTO true "Achievement request"
// @Success 201 {object} dto.AchievementResponseDTO
// @Failure 400 {string} string "Invalid JSON payload, validation failed, or unknown template"
// @Failure 401 {string} string "Unauthorized: User ID not found in context"
// @Failure 404 {string} string "Child not found"
// @Failure 500 {string} string "Failed to record achievement"
// @Router /children/{childId}/milestones/achievements [post]
func (h *MilestoneHandler) recordAchievement(w http.ResponseWriter, r *http.Request, childID string) {
	userID, ok := r.Context().Value(middleware.UserContextKey).(string)
	if !ok || userID == "" {
		http.Error(w, "Unauthorized: User ID not found in context", http.StatusUnauthorized)
		return
	}

	var req dto.AchievementCreateDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}

	var achievedAt time.Time
	if req.AchievedAt != nil {
		achievedAt = *req.AchievedAt
	}

	cm, err := h.milestoneService.RecordAchievement(r.Context(), childID, userID, req.TemplateID, achievedAt, req.Note)
	if err != nil {
		if errors.Is(err, service.ErrChildNotFound) {
			http.Error(w, "Child not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to record achievement: "+err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(achievementResponse(cm)); err != nil {
		h.logger.Error().Err(err).Msg("Failed to encode response")
	}
}

// listAchievements godoc
// @Summary List milestone achievements
// @Description Retrieves all recorded milestone achievements for a child.
// @Tags milestones
// @Produce json
// @Param childId path string true "Child ID"
// @Success 200 {array} dto.AchievementResponseDTO
// @Failure 401 {string} string "Unauthorized: User ID not found in context"
// @Failure 404 {string} string "Child not found"
// @Failure 500 {string} string "Failed to list achievements"
// @Router /children/{childId}/milestones/achievements [get]
func (h *MilestoneHandler) listAchievements(w http.ResponseWriter, r *http.Request, childID string) {
	userID, ok := r.Context().Value(middleware.UserContextKey).(string)
	if !ok || userID == "" {
		http.Error(w, "Unauthorized: User ID not found in context", http.StatusUnauthorized)
		return
	}

	achievements, err := h.milestoneService.ListAchievements(r.Context(), childID, userID)
	if err != nil {
		if errors.Is(err, service.ErrChildNotFound) {
			http.Error(w, "Child not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to list achievements: "+err.Error(), http.StatusInternalServerError)
		return
	}

	resp := make([]dto.AchievementResponseDTO, len(achievements))
	for i := range achievements {
		resp[i] = achievementResponse(&achievements[i])
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error().Err(err).Msg("Failed to encode response")
	}
}

// removeAchievement godoc
// @Summary Remove a milestone achievement
// @Description Removes a recorded achievement for a child, e.g. after an accidental entry.
// @Tags milestones
// @Param childId path string true "Child ID"
// @Param templateId path string true "Milestone template ID"
// @Success 204 {string} string "No Content"
// @Failure 401 {string} string "Unauthorized: User ID not found in context"
// @Failure 404 {string} string "Child not found"
// @Failure 500 {string} string "Failed to remove achievement"
// @Router /children/{childId}/milestones/achievements/{templateId} [delete]
func (h *MilestoneHandler) removeAchievement(w http.ResponseWriter, r *http.Request, childID, templateID string) {
	userID, ok := r.Context().Value(middleware.UserContextKey).(string)
	if !ok || userID == "" {
		http.Error(w, "Unauthorized: User ID not found in context", http.StatusUnauthorized)
		return
	}

	if err := h.milestoneService.RemoveAchievement(r.Context(), childID, userID, templateID); err != nil {
		if errors.Is(err, service.ErrChildNotFound) {
			http.Error(w, "Child not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to remove achievement: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func achievementResponse(cm *model.ChildMilestone) dto.AchievementResponseDTO {
	return dto.AchievementResponseDTO{
		ID:         cm.ID,
		ChildID:    cm.ChildID,
		TemplateID: cm.TemplateID,
		AchievedAt: cm.AchievedAt,
		Note:       cm.Note,
	}
}
