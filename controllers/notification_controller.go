package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ysalem/formbuilder-server/middleware"
	"github.com/ysalem/formbuilder-server/services"
)

type NotificationController struct {
	notifications *services.NotificationService
}

func NewNotificationController(notifications *services.NotificationService) *NotificationController {
	return &NotificationController{notifications: notifications}
}

// GET /api/admin/notifications?unread=true
func (n *NotificationController) List(c *gin.Context) {
	admin := middleware.CurrentAdmin(c)
	rows, err := n.notifications.List(admin.ID, c.Query("unread") == "true")
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": rows})
}

// PUT /api/admin/notifications/:id/read
func (n *NotificationController) MarkRead(c *gin.Context) {
	id, err := paramUint(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid notification id"})
		return
	}

	admin := middleware.CurrentAdmin(c)
	if err := n.notifications.MarkRead(admin.ID, id); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Marked as read"})
}
