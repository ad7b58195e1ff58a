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

type PhotoHandler struct {
	photoService service.PhotoService
	validate     *validator.Validate
	logger       zerolog.Logger
}

func NewPhotoHandler(photoService service.PhotoService, validate *validator.Validate, logger zerolog.Logger) *PhotoHandler {
	return &PhotoHandler{
		photoService: photoService,
		validate:     validate,
		logger:       logger,
	}
}

// RegisterRoutes mounts photo routes under /photos
func (h *PhotoHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("/photos", authMw(http.HandlerFunc(h.listPhotos)))
	mux.Handle("/photos/", authMw(http.HandlerFunc(h.handlePhoto)))
}

func (h *PhotoHandler) handlePhoto(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/photos/")
	switch {
	case rest == "upload-url" && r.Method == http.MethodPost:
		h.requestUpload(w, r)
	case rest == "confirm" && r.Method == http.MethodPost:
		h.confirmUpload(w, r)
	case rest != "" && !strings.Contains(rest, "/") && r.Method == http.MethodGet:
		h.getPhoto(w, r, rest)
	case rest != "" && !strings.Contains(rest, "/") && r.Method == http.MethodDelete:
		h.deletePhoto(w, r, rest)
	default:
		http.NotFound(w, r)
	}
}

// requestUpload godoc
// @Summary Request a photo upload URL
// @Description Checks the lifetime photo quota and issues a presigned PUT URL for direct upload to object storage. The photo does not count against the quota until the upload is confirmed. A denied check returns 429; the photo quota never resets, so the response carries no reset time.
// @Tags photos
// @Accept json
// @Produce json
// @Param request body dto.PhotoUploadRequestDTO true "Upload request"
// @Success 200 {object} dto.PhotoUploadResponseDTO
// @Failure 400 {string} string "Invalid JSON payload or validation failed"
// @Failure 401 {string} string "Unauthorized: User ID not found in context"
// @Failure 429 {object} dto.RateLimitResponse
// @Failure 500 {string} string "Failed to create upload URL"
// @Router /photos/upload-url [post]
func (h *PhotoHandler) requestUpload(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(middleware.UserContextKey).(string)
	if !ok || userID == "" {
		http.Error(w, "Unauthorized: User ID not found in context", http.StatusUnauthorized)
		return
	}

	var req dto.PhotoUploadRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}

	ticket, err := h.photoService.RequestUpload(r.Context(), userID, req.ContentType)
	if err != nil {
		var limitErr *service.LimitExceededError
		if errors.As(err, &limitErr) {
			writeRateLimited(w, limitErr)
			return
		}
		http.Error(w, "Failed to create upload URL: "+err.Error(), http.StatusInternalServerError)
		return
	}

	resp := dto.PhotoUploadResponseDTO{
		UploadURL:   ticket.UploadURL,
		StoragePath: ticket.StoragePath,
		ExpiresInS:  ticket.ExpiresInS,
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error().Err(err).Msg("Failed to encode response")
	}
}

// confirmUpload godoc
// @Summary Confirm a photo upload
// @Description Verifies the object landed in storage, records the photo and enqueues asynchronous categorization. The recorded row is what counts against the lifetime photo quota.
// @Tags photos
// @Accept json
// @Produce json
// @Param request body dto.PhotoConfirmDTO true "Confirmation request"
// @Success 201 {object} dto.PhotoResponseDTO
// @Failure 400 {string} string "Invalid JSON payload, validation failed, or object not found in storage"
// @Failure 401 {string} string "Unauthorized: User ID not found in context"
// @Failure 500 {string} string "Failed to confirm upload"
// @Router /photos/confirm [post]
func (h *PhotoHandler) confirmUpload(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(middleware.UserContextKey).(string)
	if !ok || userID == "" {
		http.Error(w, "Unauthorized: User ID not found in context", http.StatusUnauthorized)
		return
	}

	var req dto.PhotoConfirmDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}

	photo, err := h.photoService.ConfirmUpload(r.Context(), userID, req.StoragePath, req.ChildID, req.TakenAt)
	if err != nil {
		http.Error(w, "Failed to confirm upload: "+err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(h.photoResponse(r, photo, false)); err != nil {
		h.logger.Error().Err(err).Msg("Failed to encode response")
	}
}

// listPhotos godoc
// @Summary List photos
// @Description Retrieves the authenticated user's photos, newest first, with pagination support.
// @Tags photos
// @Produce json
// @Param limit query int false "Maximum number of photos to return" default(50)
// @Param offset query int false "Number of photos to skip" default(0)
// @Success 200 {array} dto.PhotoResponseDTO
// @Failure 401 {string} string "Unauthorized: User ID not found in context"
// @Failure 500 {string} string "Failed to list photos"
// @Router /photos [get]
func (h *PhotoHandler) listPhotos(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

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

	photos, err := h.photoService.ListPhotos(r.Context(), userID, limit, offset)
	if err != nil {
		http.Error(w, "Failed to list photos: "+err.Error(), http.StatusInternalServerError)
		return
	}

	resp := make([]dto.PhotoResponseDTO, len(photos))
	for i := range photos {
		resp[i] = h.photoResponse(r, &photos[i], false)
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error().Err(err).Msg("Failed to encode response")
	}
}

// getPhoto godoc
// @Summary Get a photo
// @Description Retrieves a photo by its ID, including a short-lived presigned view URL and the categorization result once analysis completes.
// @Tags photos
// @Produce json
// @Param photoId path string true "Photo ID"
// @Success 200 {object} dto.PhotoResponseDTO
// @Failure 401 {string} string "Unauthorized: User ID not found in context"
// @Failure 404 {string} string "Photo not found"
// @Failure 500 {string} string "Failed to get photo"
// @Router /photos/{photoId} [get]
func (h *PhotoHandler) getPhoto(w http.ResponseWriter, r *http.Request, photoID string) {
	userID, ok := r.Context().Value(middleware.UserContextKey).(string)
	if !ok || userID == "" {
		http.Error(w, "Unauthorized: User ID not found in context", http.StatusUnauthorized)
		return
	}

	photo, err := h.photoService.GetPhoto(r.Context(), photoID, userID)
	if err != nil {
		http.Error(w, "Failed to get photo: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if photo == nil {
		http.Error(w, "Photo not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(h.photoResponse(r, photo, true)); err != nil {
		h.logger.Error().Err(err).Msg("Failed to encode response")
	}
}

// deletePhoto godoc
// @Summary Delete a photo
// @Description Deletes a photo from storage and from the library. The lifetime quota counts stored photos, so deleting frees one slot.
// @Tags photos
// @Param photoId path string true "Photo ID"
// @Success 204 {string} string "No Content"
// @Failure 401 {string} string "Unauthorized: User ID not found in context"
// @Failure 404 {string} string "Photo not found"
// @Failure 500 {string} string "Failed to delete photo"
// @Router /photos/{photoId} [delete]
func (h *PhotoHandler) deletePhoto(w http.ResponseWriter, r *http.Request, photoID string) {
	userID, ok := r.Context().Value(middleware.UserContextKey).(string)
	if !ok || userID == "" {
		http.Error(w, "Unauthorized: User ID not found in context", http.StatusUnauthorized)
		return
	}

	if err := h.photoService.DeletePhoto(r.Context(), photoID, userID); err != nil {
		if errors.Is(err, service.ErrPhotoNotFound) {
			http.Error(w, "Photo not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to delete photo: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *PhotoHandler) photoResponse(r *http.Request, p *model.Photo, withViewURL bool) dto.PhotoResponseDTO {
	resp := dto.PhotoResponseDTO{
		ID:        p.ID,
		ChildID:   p.ChildID,
		Category:  p.Category,
		Caption:   p.Caption,
		Status:    p.Status,
		TakenAt:   p.TakenAt,
		CreatedAt: p.CreatedAt,
	}
	if withViewURL {
		url, err := h.photoService.GetViewURL(r.Context(), p.StoragePath)
		if err != nil {
			h.logger.Warn().Err(err).Str("photo_id", p.ID).Msg("Failed to presign view URL")
		} else {
			resp.ViewURL = url
		}
	}
	return resp
}
