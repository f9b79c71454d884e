package controllers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/digital-menu/middlewares"
	"github.com/yeremiapane/digital-menu/services"
	"github.com/yeremiapane/digital-menu/utils"
)

type NotificationController struct {
	Notifications *services.NotificationService
}

func NewNotificationController(notifications *services.NotificationService) *NotificationController {
	return &NotificationController{Notifications: notifications}
}

type markAllRequest struct {
	IDs []string `json:"ids"`
}

func staffRecipient(c *gin.Context) services.Recipient {
	return services.Recipient{UserID: c.GetString(middlewares.CtxUserID)}
}

func tableRecipient(c *gin.Context) services.Recipient {
	return services.Recipient{TableID: c.Param("table_id"), GuestID: c.Query("guest_id")}
}

// GetStaffNotifications -> GET /admin/notifications[?unread=true]
func (nc *NotificationController) GetStaffNotifications(c *gin.Context) {
	nc.list(c, staffRecipient(c))
}

func (nc *NotificationController) GetStaffUnreadCount(c *gin.Context) {
	nc.unreadCount(c, staffRecipient(c))
}

func (nc *NotificationController) MarkStaffNotificationRead(c *gin.Context) {
	nc.markRead(c, staffRecipient(c))
}

func (nc *NotificationController) MarkAllStaffNotificationsRead(c *gin.Context) {
	nc.markAll(c, staffRecipient(c))
}

// GetTableNotifications -> GET /tables/:table_id/notifications?guest_id=
func (nc *NotificationController) GetTableNotifications(c *gin.Context) {
	nc.list(c, tableRecipient(c))
}

func (nc *NotificationController) MarkTableNotificationRead(c *gin.Context) {
	nc.markRead(c, tableRecipient(c))
}

func (nc *NotificationController) MarkAllTableNotificationsRead(c *gin.Context) {
	nc.markAll(c, tableRecipient(c))
}

func (nc *NotificationController) list(c *gin.Context, to services.Recipient) {
	notifs, err := nc.Notifications.List(c.Request.Context(), to, c.Query("unread") == "true")
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of notifications", notifs)
}

func (nc *NotificationController) unreadCount(c *gin.Context, to services.Recipient) {
	count, err := nc.Notifications.UnreadCount(c.Request.Context(), to)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Unread notifications", gin.H{"count": count})
}

func (nc *NotificationController) markRead(c *gin.Context, to services.Recipient) {
	if err := nc.Notifications.MarkAsRead(c.Request.Context(), c.Param("notif_id"), to); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Notification marked as read", nil)
}

func (nc *NotificationController) markAll(c *gin.Context, to services.Recipient) {
	var req markAllRequest
	// body boleh kosong: berarti semua notifikasi
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	updated, err := nc.Notifications.MarkAllAsRead(c.Request.Context(), to, req.IDs)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Notifications marked as read", gin.H{"updated": updated})
}
