// Notification endpoints.
package services

import (
	"context"
	"net/http"

	"github.com/amverse/songbook/internal/models"
)

// ListNotifications retrieves the authenticated user's notifications,
// newest first.
//
// Calls GET /api/notifications.
func (c *Client) ListNotifications(ctx context.Context) ([]models.Notification, error) {
	var notifications []models.Notification
	if err := c.doRequest(ctx, http.MethodGet, "/api/notifications", nil, &notifications); err != nil {
		return nil, err
	}

	return notifications, nil
}

// MarkNotificationRead acknowledges a notification.
//
// Calls POST /api/notifications/{id}/read.
func (c *Client) MarkNotificationRead(ctx context.Context, notificationID string) error {
	return c.doRequest(ctx, http.MethodPost, "/api/notifications/"+notificationID+"/read", nil, nil)
}
