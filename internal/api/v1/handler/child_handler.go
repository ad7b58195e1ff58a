package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"app/internal/api/v1/dto"
	"app/internal/middleware"
	"app/internal/model"
	"app/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

type ChildHandler struct {
	childService     service.ChildService
	milestoneHandler *MilestoneHandler
	validate         *validator.Validate
	logger           zerolog.Logger
}

func NewChildHandler(childService service.ChildService, milestoneHandler *MilestoneHandler, validate *validator.Validate, logger zerolog.Logger) *ChildHandler {
	return &ChildHandler{
		childService:     childService,
		milestoneHandler: milestoneHandler,
		validate:         validate,
		logger:           logger,
	}
}

// RegisterRoutes mounts child routes under /children. Milestone routes for a
// specific child are delegated to MilestoneHandler to avoid route conflicts.
func (h *ChildHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("/children", authMw(http.HandlerFunc(h.handleChildren)))
	mux.Handle("/children/", authMw(http.HandlerFunc(h.handleChild)))
}

func (h *ChildHandler) handleChildren(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.createChild(w, r)
	case http.MethodGet:
		h.listChildren(w, r)
	default:
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
	}
}

func (h *ChildHandler) handleChild(w http.ResponseWriter, r *http.Request) {
	pathParts := strings.Split(strings.TrimPrefix(r.URL.Path, "/children/"), "/")
	childID := pathParts[0]
	if childID == "" {
		http.NotFound(w, r)
		return
	}

	if len(pathParts) >= 2 && pathParts[1] == "milestones" {
		h.milestoneHandler.handleChildMilestones(w, r, childID, pathParts[2:])
		return
	}

	switch {
	case len(pathParts) == 1 && r.Method == http.MethodGet:
		h.getChild(w, r, childID)
	case len(pathParts) == 1 && r.Method == http.MethodPut:
		h.updateChild(w, r, childID)
	case len(pathParts) == 1 && r.Method == http.MethodDelete:
		h.deleteChild(w, r, childID)
	default:
		http.NotFound(w, r)
	}
}

// createChild godoc
// @Summary Create a child profile
// @Description Creates a child profile for the authenticated parent. The birthdate must not be in the future.
// @Tags children
// @Accept json
// @Produce json
// @Param child body dto.ChildCreateDTO true "Child creation request"
// @Success 201 {object} dto.ChildResponseDTO
// @Failure 400 {string} string "Invalid JSON payload or validation failed"
// @Failure 401 {string} string "Unauthorized: User ID not found in context"
// @Failure 500 {string} string "Failed to create child"
// @Router /children [post]
func (h *ChildHandler) createChild(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(middleware.UserContextKey).(string)
	if !ok || userID == "" {
		http.Error(w, "Unauthorized: User ID not found in context", http.StatusUnauthorized)
		return
	}

	var req dto.ChildCreateDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}

	child := &model.Child{
		UserID:    userID,
		Name:      req.Name,
		Birthdate: req.Birthdate,
		AvatarURL: req.AvatarURL,
	}

	if err := h.childService.CreateChild(r.Context(), child); err != nil {
		http.Error(w, "Failed to create child: "+err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(childResponse(child)); err != nil {
		h.logger.Error().Err(err).Msg("Failed to encode response")
	}
}

// listChildren godoc
// @Summary List child profiles
// @Description Retrieves all child profiles for the authenticated parent.
// @Tags children
// @Produce json
// @Success 200 {array} dto.ChildResponseDTO
// @Failure 401 {string} string "Unauthorized: User ID not found in context"
// @Failure 500 {string} string "Failed to list children"
// @Router /children [get]
func (h *ChildHandler) listChildren(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(middleware.UserContextKey).(string)
	if !ok || userID == "" {
		http.Error(w, "Unauthorized: User ID not found in context", http.StatusUnauthorized)
		return
	}

	children, err := h.childService.ListChildren(r.Context(), userID)
	if err != nil {
		http.Error(w, "Failed to list children: "+err.Error(), http.StatusInternalServerError)
		return
	}

	resp := make([]dto.ChildResponseDTO, len(children))
	for i := range children {
		resp[i] = childResponse(&children[i])
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error().Err(err).Msg("Failed to encode response")
	}
}

// getChild godoc
// @Summary Get a child profile
// @Description Retrieves a child profile by its ID.
// @Tags children
// @Produce json
// @Param childId path string true "Child ID"
// @Success 200 {object} dto.ChildResponseDTO
// @Failure 401 {string} string "Unauthorized: User ID not found in context"
// @Failure 404 {string} string "Child not found"
// @Failure 500 {string} string "Failed to get child"
// @Router /children/{childId} [get]
func (h *ChildHandler) getChild(w http.ResponseWriter, r *http.Request, childID string) {
	userID, ok := r.Context().Value(middleware.UserContextKey).(string)
	if !ok || userID == "" {
		http.Error(w, "Unauthorized: User ID not found in context", http.StatusUnauthorized)
		return
	}

	child, err := h.childService.GetChild(r.Context(), childID, userID)
	if err != nil {
		if errors.Is(err, service.ErrChildNotFound) {
			http.Error(w, "Child not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to get child: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(childResponse(child)); err != nil {
		h.logger.Error().Err(err).Msg("Failed to encode response")
	}
}

// updateChild godoc
// @Summary Update a child profile
// @Description Updates a child profile's name and birthdate.
// @Tags children
// @Accept json
// @Produce json
// @Param childId path string true "Child ID"
// @Param child body dto.ChildUpdateDTO true "Child update request"
// @Success 200 {object} dto.ChildResponseDTO
// @Failure 400 {string} string "Invalid JSON payload or validation failed"
// @Failure 401 {string} string "Unauthorized: User ID not found in context"
// @Failure 404 {string} string "Child not found"
// @Failure 500 {string} string "Failed to update child"
// @Router /children/{childId} [put]
func (h *ChildHandler) updateChild(w http.ResponseWriter, r *http.Request, childID string) {
	userID, ok := r.Context().Value(middleware.UserContextKey).(string)
	if !ok || userID == "" {
		http.Error(w, "Unauthorized: User ID not found in context", http.StatusUnauthorized)
		return
	}

	var req dto.ChildUpdateDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}

	child, err := h.childService.UpdateChild(r.Context(), childID, userID, req.Name, req.Birthdate)
	if err != nil {
		if errors.Is(err, service.ErrChildNotFound) {
			http.Error(w, "Child not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to update child: "+err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(childResponse(child)); err != nil {
		h.logger.Error().Err(err).Msg("Failed to encode response")
	}
}

// deleteChild godoc
// @Summary Delete a child profile
// @Description Deletes a child profile.
// @Tags children
// @Param childId path string true "Child ID"
// @Success 204 {string} string "No Content"
// @Failure 401 {string} string "Unauthorized: User ID not found in context"
// @Failure 404 {string} string "Child not found"
// @Failure 500 {string} string "Failed to delete child"
// @Router /children/{childId} [delete]
func (h *ChildHandler) deleteChild(w http.ResponseWriter, r *http.Request, childID string) {
	userID, ok := r.Context().Value(middleware.UserContextKey).(string)
	if !ok || userID == "" {
		http.Error(w, "Unauthorized: User ID not found in context", http.StatusUnauthorized)
		return
	}

	if err := h.childService.DeleteChild(r.Context(), childID, userID); err != nil {
		if errors.Is(err, service.ErrChildNotFound) {
			http.Error(w, "Child not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to delete child: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func childResponse(c *model.Child) dto.ChildResponseDTO {
	return dto.ChildResponseDTO{
		ID:        c.ID,
		UserID:    c.UserID,
		Name:      c.Name,
		Birthdate: c.Birthdate,
		AvatarURL: c.AvatarURL,
		AgeMonths: c.AgeInMonths(time.Now()),
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}
