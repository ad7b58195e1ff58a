package handler

import (
	"encoding/json"
	"net/http"

	"app/internal/api/v1/dto"
	"app/internal/service"

	"github.com/rs/zerolog"
)

type DLQHandler struct {
	dlqService service.DLQService
	logger     zerolog.Logger
}

func NewDLQHandler(dlqService service.DLQService, logger zerolog.Logger) *DLQHandler {
	return &DLQHandler{dlqService: dlqService, logger: logger}
}

// RegisterRoutes mounts the dead-letter intake endpoint. It is protected by
// the Pub/Sub push auth middleware, not the user auth middleware.
func (h *DLQHandler) RegisterRoutes(mux *http.ServeMux, pubsubAuthMw func(http.Handler) http.Handler) {
	mux.Handle("/dlq", pubsubAuthMw(http.HandlerFunc(h.receive)))
}

// receive godoc
// @Summary Receive a dead-lettered message
// @Description Accepts a Pub/Sub push delivery for a message that exhausted its retries and stores it for inspection. Always acknowledges with 200 so Pub/Sub stops redelivering; a message that cannot even be stored is logged and dropped.
// @Tags dlq
// @Accept json
// @Param message body dto.PubSubPushRequest true "Pub/Sub push envelope"
// @Success 200 {string} string "OK"
// @Failure 400 {string} string "Invalid JSON payload"
// @Failure 405 {string} string "Method Not Allowed"
// @Router /dlq [post]
func (h *DLQHandler) receive(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	var req dto.PubSubPushRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.dlqService.ProcessAndSave(r.Context(), &req); err != nil {
		// Acknowledge anyway; redelivering a poison message forever helps no one.
		h.logger.Error().Err(err).Str("message_id", req.Message.MessageID).Msg("Failed to store dead-lettered message")
	}

	w.WriteHeader(http.StatusOK)
}
