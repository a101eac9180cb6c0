// README: Conversation handler; returns the thread between the caller and another user.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"relay/internal/http/middleware"
	"relay/internal/modules/conversation"
)

type ConversationHandler struct {
	conversations *conversation.Service
}

func NewConversationHandler(svc *conversation.Service) *ConversationHandler {
	return &ConversationHandler{conversations: svc}
}

func (h *ConversationHandler) With(c *gin.Context) {
	other, ok := pathID(c, "userID")
	if !ok {
		return
	}
	conv, msgs, err := h.conversations.Between(c.Request.Context(), middleware.CallerUID(c), other)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	if msgs == nil {
		msgs = []conversation.Message{}
	}
	writeJSON(c, http.StatusOK, gin.H{"conversation": conv, "messages": msgs})
}
