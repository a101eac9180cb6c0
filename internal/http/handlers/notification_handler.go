// README: Notification feed handler.
package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"relay/internal/http/middleware"
	"relay/internal/modules/notification"
	"relay/internal/types"
)

// Feed serves the recent notifications of a user.
type Feed interface {
	Recent(ctx context.Context, userID types.ID, limit int) ([]notification.Notification, error)
}

type NotificationHandler struct {
	feed Feed
}

// NewNotificationHandler accepts a nil feed; the endpoint then always returns an empty list.
func NewNotificationHandler(feed Feed) *NotificationHandler {
	return &NotificationHandler{feed: feed}
}

func (h *NotificationHandler) List(c *gin.Context) {
	limit := 20
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(c, http.StatusBadRequest, "validation_error", "limit must be a positive integer")
			return
		}
		limit = n
	}
	out := []notification.Notification{}
	if h.feed != nil {
		items, err := h.feed.Recent(c.Request.Context(), middleware.CallerUID(c), limit)
		if err != nil {
			_ = c.Error(err)
			writeError(c, http.StatusInternalServerError, "internal_error", "internal error")
			return
		}
		out = append(out, items...)
	}
	writeJSON(c, http.StatusOK, gin.H{"notifications": out})
}
