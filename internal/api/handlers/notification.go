package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"reqflow.io/reqflow/internal/api/middleware"
	"reqflow.io/reqflow/internal/domain"
)

type notificationResponse struct {
	ID           string    `json:"id"`
	Type         string    `json:"type"`
	Title        string    `json:"title"`
	Message      string    `json:"message"`
	ResourceType string    `json:"resource_type,omitempty"`
	ResourceID   string    `json:"resource_id,omitempty"`
	Read         bool      `json:"read"`
	CreatedAt    time.Time `json:"created_at"`
}

func notificationToAPI(n *domain.Notification) notificationResponse {
	return notificationResponse{
		ID:           n.ID,
		Type:         string(n.Type),
		Title:        n.Title,
		Message:      n.Message,
		ResourceType: n.ResourceType,
		ResourceID:   n.ResourceID,
		Read:         n.Read,
		CreatedAt:    n.CreatedAt,
	}
}

// ListNotifications handles GET /notifications: the caller's inbox,
// newest first. ?unread_only=true narrows to unread rows.
func (s *Server) ListNotifications(c *gin.Context) {
	ctx := c.Request.Context()
	list, err := s.notifications.ListNotificationsForUser(ctx, middleware.GetUserID(ctx))
	if err != nil {
		c.Error(err)
		return
	}

	unreadOnly := c.Query("unread_only") == "true"
	items := make([]notificationResponse, 0, len(list))
	unread := 0
	for _, n := range list {
		if !n.Read {
			unread++
		}
		if unreadOnly && n.Read {
			continue
		}
		items = append(items, notificationToAPI(n))
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "unread_count": unread})
}

// MarkNotificationRead handles POST /notifications/:id/read. Scoped to the
// caller; another user's row reads as absent.
func (s *Server) MarkNotificationRead(c *gin.Context) {
	ctx := c.Request.Context()
	if err := s.notifications.MarkNotificationRead(ctx, c.Param("id"), middleware.GetUserID(ctx)); err != nil {
		c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}
