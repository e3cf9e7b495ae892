package repository

import (
	"context"

	"stream-notify/internal/domain/entity"
)

// InAppNotificationRepository persists in-app (alert) notifications.
type InAppNotificationRepository interface {
	// Insert stores a new notification and fills in its generated ID.
	Insert(ctx context.Context, alert *entity.InAppNotification) error
	// FindExisting returns the newest unread notification matching the
	// candidate's recipient, kind and source descriptor, for aggregation.
	// Returns (nil, nil) when no such notification exists.
	FindExisting(ctx context.Context, candidate *entity.InAppNotification) (*entity.InAppNotification, error)
	// Update rewrites the message and aggregation count of a stored
	// notification and refreshes its timestamp so it resurfaces.
	Update(ctx context.Context, alert *entity.InAppNotification) error
	// CountUnread returns the number of unread notifications for a recipient.
	// This is the authoritative count the cache is resynchronized from.
	CountUnread(ctx context.Context, recipientID int64) (int, error)
}

// UnreadCountResynchronizer refreshes a recipient's cached unread alert count
// after new alerts are stored.
type UnreadCountResynchronizer interface {
	Resync(ctx context.Context, recipientID int64) error
}
