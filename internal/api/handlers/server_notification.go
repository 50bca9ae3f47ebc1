package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ListNotifications handles GET /notifications?unread=true.
func (s *Server) ListNotifications(c *gin.Context) {
	unreadOnly := c.Query("unread") == "true"

	items, err := s.notifications.ListByRecipient(c.Request.Context(), actorFromCtx(c), unreadOnly)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "count": len(items)})
}

// MarkNotificationRead handles POST /notifications/:id/read.
func (s *Server) MarkNotificationRead(c *gin.Context) {
	if err := s.notifications.MarkRead(c.Request.Context(), c.Param("id"), actorFromCtx(c)); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

// MarkAllNotificationsRead handles POST /notifications/read-all.
func (s *Server) MarkAllNotificationsRead(c *gin.Context) {
	if err := s.notifications.MarkAllRead(c.Request.Context(), actorFromCtx(c)); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}
