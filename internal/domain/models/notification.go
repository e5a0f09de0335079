package models

import "time"

// Notification is a persisted in-app notification record. Actual email
// transport is an external collaborator; the engine only produces these
// rows, best-effort.
type Notification struct {
	ID               string    `json:"id,omitempty"`
	RecipientID      string    `json:"recipient_id"`
	Title            string    `json:"title"`
	Body             string    `json:"body"`
	Link             string    `json:"link,omitempty"`
	NotificationType string    `json:"notification_type"`
	IsRead           bool      `json:"is_read"`
	CreatedDate      time.Time `json:"created_date"`
}
