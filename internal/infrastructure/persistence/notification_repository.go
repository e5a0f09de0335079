package persistence

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/cihat41/ReqPortal-sub000/internal/domain/models"
	"github.com/cihat41/ReqPortal-sub000/pkg/constants"
	"github.com/cihat41/ReqPortal-sub000/pkg/utils"
)

const notificationColumns = "id, recipient_id, title, body, link, notification_type, is_read, created_date"

// NotificationRepository persists notification rows. It is the engine's
// Notifier: email transport is an external collaborator that consumes
// these rows.
type NotificationRepository struct {
	db *sql.DB
}

// NewNotificationRepository creates a new NotificationRepository
func NewNotificationRepository(db *sql.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Send persists one notification row for the recipient
func (r *NotificationRepository) Send(ctx context.Context, n models.Notification) error {
	if n.ID == "" {
		n.ID = utils.GenerateID()
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (?, ?, ?, ?, ?, ?, ?, ?)", constants.TableNotification, notificationColumns)
	_, err := conn(ctx, r.db).ExecContext(ctx, query,
		n.ID, n.RecipientID, n.Title, n.Body, n.Link, n.NotificationType, false, n.CreatedDate)
	return err
}

// ListForRecipient returns the most recent notifications for a user
func (r *NotificationRepository) ListForRecipient(ctx context.Context, recipientID string, limit int) ([]*models.Notification, error) {
	if limit <= 0 {
		limit = 20
	}

	query := fmt.Sprintf(
		"SELECT %s FROM %s WHERE recipient_id = ? ORDER BY created_date DESC LIMIT %d",
		notificationColumns, constants.TableNotification, limit)

	rows, err := conn(ctx, r.db).QueryContext(ctx, query, recipientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notifications []*models.Notification
	for rows.Next() {
		var n models.Notification
		var link sql.NullString
		err := rows.Scan(&n.ID, &n.RecipientID, &n.Title, &n.Body, &link, &n.NotificationType, &n.IsRead, &n.CreatedDate)
		if err != nil {
			return nil, err
		}
		n.Link = link.String
		notifications = append(notifications, &n)
	}
	return notifications, rows.Err()
}

// MarkAsRead marks a notification as read. Scoped to the recipient so a
// user cannot touch someone else's notification by guessing its id.
func (r *NotificationRepository) MarkAsRead(ctx context.Context, id, recipientID string) error {
	query := fmt.Sprintf("UPDATE %s SET is_read = true WHERE id = ? AND recipient_id = ?", constants.TableNotification)
	_, err := conn(ctx, r.db).ExecContext(ctx, query, id, recipientID)
	return err
}
