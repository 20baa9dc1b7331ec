package handlers

import (
	"encoding/json"
	"net/http"

	"smartchat-backend/internal/models"
	"smartchat-backend/internal/render"
	"smartchat-backend/internal/services"
	"smartchat-backend/internal/session"
)

// maxRequestBodySize caps POST bodies (1MB); a chat message should never
// come close.
const maxRequestBodySize = 1 << 20

type ChatHandler struct {
	chatService *services.ChatService
}

func NewChatHandler(chatService *services.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// Message handles POST /chat_api: one full conversation turn.
func (h *ChatHandler) Message(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)

	var req models.ChatRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		render.JSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}

	sessionID := session.FromContext(r.Context())

	reply, err := h.chatService.Submit(r.Context(), sessionID, req.Message, req.IsEdit)
	if err != nil {
		render.JSON(w, statusFor(err), models.ErrorResponse{Error: render.Error(err)})
		return
	}

	render.JSON(w, http.StatusOK, models.ChatResponse{AIResponse: reply})
}

// Clear handles GET /clear: drops the session's conversation.
func (h *ChatHandler) Clear(w http.ResponseWriter, r *http.Request) {
	sessionID := session.FromContext(r.Context())

	if err := h.chatService.Clear(r.Context(), sessionID); err != nil {
		render.JSON(w, statusFor(err), models.ErrorResponse{Error: render.Error(err)})
		return
	}

	render.JSON(w, http.StatusOK, models.StatusResponse{Status: "cleared"})
}
