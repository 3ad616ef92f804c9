package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/xxxsen/pdfchat/internal/middleware"
	"github.com/xxxsen/pdfchat/internal/pkg/errcode"
	"github.com/xxxsen/pdfchat/internal/pkg/response"
	"github.com/xxxsen/pdfchat/internal/service"
)

type ChatHandler struct {
	chat *service.ChatService
}

func NewChatHandler(chat *service.ChatService) *ChatHandler {
	return &ChatHandler{chat: chat}
}

type askRequest struct {
	Question string `json:"question"`
}

func (h *ChatHandler) Ask(c *gin.Context) {
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	answer, err := h.chat.Ask(c.Request.Context(), middleware.SessionID(c), req.Question)
	if err != nil {
		handleError(c, err, h.chat.UserMessage(err))
		return
	}
	response.Success(c, answer)
}

func (h *ChatHandler) History(c *gin.Context) {
	turns, err := h.chat.History(c.Request.Context(), middleware.SessionID(c))
	if err != nil {
		handleError(c, err, "")
		return
	}
	response.Success(c, gin.H{"turns": turns})
}

func (h *ChatHandler) ResetHistory(c *gin.Context) {
	if err := h.chat.ResetHistory(c.Request.Context(), middleware.SessionID(c)); err != nil {
		handleError(c, err, "")
		return
	}
	response.Success(c, gin.H{"ok": true})
}
