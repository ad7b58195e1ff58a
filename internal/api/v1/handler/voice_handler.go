package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"app/internal/middleware"
	"app/internal/service"

	"github.com/rs/zerolog"
)

// voiceUploadMaxBytes bounds the in-memory part of a multipart audio upload.
const voiceUploadMaxBytes = 32 << 20

type VoiceHandler struct {
	voiceService service.VoiceService
	logger       zerolog.Logger
}

func NewVoiceHandler(voiceService service.VoiceService, logger zerolog.Logger) *VoiceHandler {
	return &VoiceHandler{voiceService: voiceService, logger: logger}
}

// RegisterRoutes mounts v1 voice routes
func (h *VoiceHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("/voice/transcriptions", authMw(http.HandlerFunc(h.transcribe)))
}

// transcribe godoc
// @Summary Transcribe a voice message
// @Description Accepts a multipart audio upload, transcribes it and charges the audio duration in minutes against the daily voice quota. With respond=true the transcript is also answered by the assistant, so a voice turn behaves like a spoken chat message. A denied quota check returns 429 before any audio is processed.
// @Tags voice
// @Accept multipart/form-data
// @Produce json
// @Param audio formData file true "Audio file"
// @Param respond query bool false "Also generate an assistant reply to the transcript" default(false)
// @Success 200 {object} service.VoiceTurn
// @Failure 400 {string} string "Missing or invalid audio file"
// @Failure 401 {string} string "Unauthorized: User ID not found in context"
// @Failure 429 {object} dto.RateLimitResponse
// @Failure 500 {string} string "Failed to transcribe audio"
// @Router /voice/transcriptions [post]
func (h *VoiceHandler) transcribe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := r.Context().Value(middleware.UserContextKey).(string)
	if !ok || userID == "" {
		http.Error(w, "Unauthorized: User ID not found in context", http.StatusUnauthorized)
		return
	}

	if err := r.ParseMultipartForm(voiceUploadMaxBytes); err != nil {
		http.Error(w, "Invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("audio")
	if err != nil {
		http.Error(w, "Missing audio file: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	var turn *service.VoiceTurn
	if r.URL.Query().Get("respond") == "true" {
		turn, err = h.voiceService.TranscribeAndRespond(r.Context(), userID, file, header.Filename)
	} else {
		turn, err = h.voiceService.Transcribe(r.Context(), userID, file, header.Filename)
	}
	if err != nil {
		var limitErr *service.LimitExceededError
		if errors.As(err, &limitErr) {
			writeRateLimited(w, limitErr)
			return
		}
		http.Error(w, "Failed to transcribe audio: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(turn); err != nil {
		h.logger.Error().Err(err).Msg("Failed to encode response")
	}
}
