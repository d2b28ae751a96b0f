package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	portssvc "github.com/harborlend/loancrm/internal/core/ports/services"
	"github.com/harborlend/loancrm/internal/dto"
	"github.com/harborlend/loancrm/internal/middleware"
)

// notificationHandler handles notification requests.
type notificationHandler struct {
	notifService portssvc.NotificationService
}

func newNotificationHandler(ns portssvc.NotificationService) *notificationHandler {
	return &notificationHandler{notifService: ns}
}

// registerNotificationRoutes registers routes related to notifications.
func registerNotificationRoutes(rg *gin.RouterGroup, notifService portssvc.NotificationService) {
	h := newNotificationHandler(notifService)

	notifs := rg.Group("/notifications")
	{
		notifs.POST("", h.createNotification)
		notifs.GET("", h.listNotifications)
		notifs.POST("/broadcast", h.broadcast)
		notifs.GET("/summary", h.getSummary)
		notifs.PUT("/read-all", h.markAllRead)
		notifs.DELETE("/clear-read", h.clearRead)
		notifs.PUT("/:id/read", h.markRead)
		notifs.DELETE("/:id", h.deleteNotification)
	}
}

// createNotification godoc
// @Summary Create a notification
// @Description Creates a notification for the caller, or for another user when the caller is an admin.
// @Tags notifications
// @Accept json
// @Produce json
// @Param notification body dto.CreateNotificationRequest true "Notification details"
// @Success 201 {object} dto.NotificationResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Security BearerAuth
// @Router /notifications [post]
func (h *notificationHandler) createNotification(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.CreateNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	n, err := h.notifService.CreateNotification(c.Request.Context(), actor, req.ToNotification())
	if err != nil {
		respondError(c, err, "Failed to create notification")
		return
	}
	c.JSON(http.StatusCreated, dto.ToNotificationResponse(n))
}

// listNotifications godoc
// @Summary List the caller's notifications
// @Tags notifications
// @Produce json
// @Param page query int false "Page (1-based)"
// @Param limit query int false "Page size"
// @Param unreadOnly query bool false "Only unread notifications"
// @Param type query string false "Filter by type"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /notifications [get]
func (h *notificationHandler) listNotifications(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var params dto.ListNotificationsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		bindError(c, err)
		return
	}

	filter := params.ToNotificationFilter()
	notifs, total, err := h.notifService.ListNotifications(c.Request.Context(), actor, filter)
	if err != nil {
		respondError(c, err, "Failed to list notifications")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data":       dto.ToListNotificationResponse(notifs),
		"pagination": dto.NewPagination(total, filter.Page.Limit, filter.Page.Offset),
	})
}

// broadcast godoc
// @Summary Broadcast a notification
// @Description Fans a notification out to the named users, to every active user holding one of the named roles, or to all active users. Admin only.
// @Tags notifications
// @Accept json
// @Produce json
// @Param broadcast body dto.BroadcastRequest true "Recipients and payload"
// @Success 201 {object} map[string]int
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Security BearerAuth
// @Router /notifications/broadcast [post]
func (h *notificationHandler) broadcast(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.BroadcastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	count, err := h.notifService.Broadcast(c.Request.Context(), actor, req.ToBroadcastInput())
	if err != nil {
		respondError(c, err, "Failed to broadcast notification")
		return
	}
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	logger.Info("notification broadcast sent", slog.Int("recipients", count))
	c.JSON(http.StatusCreated, gin.H{"count": count})
}

// getSummary godoc
// @Summary Notification summary for the caller
// @Tags notifications
// @Produce json
// @Success 200 {object} domain.NotificationSummary
// @Security BearerAuth
// @Router /notifications/summary [get]
func (h *notificationHandler) getSummary(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	summary, err := h.notifService.GetNotificationSummary(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err, "Failed to load notification summary")
		return
	}
	c.JSON(http.StatusOK, summary)
}

// markRead godoc
// @Summary Mark a notification read
// @Tags notifications
// @Produce json
// @Param id path string true "Notification ID"
// @Success 200 {object} dto.NotificationResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /notifications/{id}/read [put]
func (h *notificationHandler) markRead(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	n, err := h.notifService.MarkRead(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to mark notification read")
		return
	}
	c.JSON(http.StatusOK, dto.ToNotificationResponse(n))
}

// markAllRead godoc
// @Summary Mark all of the caller's notifications read
// @Tags notifications
// @Produce json
// @Success 200 {object} map[string]int
// @Security BearerAuth
// @Router /notifications/read-all [put]
func (h *notificationHandler) markAllRead(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	count, err := h.notifService.MarkAllRead(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err, "Failed to mark notifications read")
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count})
}

// deleteNotification godoc
// @Summary Delete a notification
// @Tags notifications
// @Produce json
// @Param id path string true "Notification ID"
// @Success 204 "Deleted"
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /notifications/{id} [delete]
func (h *notificationHandler) deleteNotification(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	if err := h.notifService.DeleteNotification(c.Request.Context(), actor, c.Param("id")); err != nil {
		respondError(c, err, "Failed to delete notification")
		return
	}
	c.Status(http.StatusNoContent)
}

// clearRead godoc
// @Summary Delete all of the caller's read notifications
// @Tags notifications
// @Produce json
// @Success 200 {object} map[string]int
// @Security BearerAuth
// @Router /notifications/clear-read [delete]
func (h *notificationHandler) clearRead(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	count, err := h.notifService.ClearRead(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err, "Failed to clear read notifications")
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count})
}
