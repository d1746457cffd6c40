package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mindmesh/mentorship/internal/core/ports"
)

// NotificationHandler serves the caller's inbox.
type NotificationHandler struct {
	notifications ports.NotificationService
}

func NewNotificationHandler(notifications ports.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

// List returns the caller's notifications, newest first.
//
// @Summary      Own notifications
// @Tags         notifications
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   domain.Notification
// @Failure      401  {object}  map[string]string
// @Router       /users/me/notifications [get]
func (h *NotificationHandler) List(c echo.Context) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}

	items, err := h.notifications.List(c.Request().Context(), caller)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, items)
}

// MarkRead flags one of the caller's notifications as read.
//
// @Summary      Mark a notification as read
// @Tags         notifications
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Notification id"
// @Success      200  {object}  messageResponse
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /users/me/notifications/{id}/read [patch]
func (h *NotificationHandler) MarkRead(c echo.Context) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}

	if err := h.notifications.MarkRead(c.Request().Context(), caller, c.Param("id")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "notification marked as read"})
}

// MarkAllRead flags every unread notification of the caller as read.
//
// @Summary      Mark all notifications as read
// @Tags         notifications
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  markAllReadResponse
// @Failure      401  {object}  map[string]string
// @Router       /users/me/notifications/read [patch]
func (h *NotificationHandler) MarkAllRead(c echo.Context) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}

	n, err := h.notifications.MarkAllRead(c.Request().Context(), caller)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, markAllReadResponse{Message: "all notifications marked as read", Updated: n})
}
