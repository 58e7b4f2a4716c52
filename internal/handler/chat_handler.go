package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/launchlens/launchlens_api/internal/models"
	"github.com/launchlens/launchlens_api/internal/service"
	"github.com/launchlens/launchlens_api/internal/utils"
)

// ChatHandler handles the advisor chat endpoint.
type ChatHandler struct {
	chatService *service.ChatService
}

// NewChatHandler constructs a ChatHandler.
func NewChatHandler(chatService *service.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

type chatRequest struct {
	Message string               `json:"message"`
	History []models.ChatMessage `json:"history"`
}

// Chat answers a question about the saved reports.
func (h *ChatHandler) Chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "BAD_REQUEST", "Invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		utils.ValidationFailed(c, []utils.FieldError{{Field: "message", Reason: "is required"}})
		return
	}

	reply, err := h.chatService.Chat(c.Request.Context(), req.Message, req.History)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	utils.Success(c, http.StatusOK, "Chat reply", reply)
}
