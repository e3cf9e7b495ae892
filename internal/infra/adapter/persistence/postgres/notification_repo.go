package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"stream-notify/internal/domain/entity"
	"stream-notify/internal/repository"
)

type NotificationRepo struct{ db Querier }

func NewNotificationRepo(db Querier) repository.InAppNotificationRepository {
	return &NotificationRepo{db: db}
}

func (repo *NotificationRepo) Insert(ctx context.Context, alert *entity.InAppNotification) error {
	if alert.CreatedAt.IsZero() {
		alert.CreatedAt = time.Now().UTC()
	}
	const query = `
INSERT INTO in_app_notifications (
       recipient_id, kind, message, url, high_priority,
       source_type, source_unique_id, source_name,
       avatar_owner_type, avatar_owner_unique_id,
       aggregation_count, read, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
RETURNING id`
	err := repo.db.QueryRowContext(ctx, query,
		alert.RecipientID, string(alert.Kind), alert.Message, alert.URL, alert.HighPriority,
		string(alert.SourceType), alert.SourceUniqueID, alert.SourceName,
		string(alert.AvatarOwnerType), alert.AvatarOwnerUniqueID,
		alert.AggregationCount, alert.Read, alert.CreatedAt,
	).Scan(&alert.ID)
	if err != nil {
		return fmt.Errorf("Insert: %w", err)
	}
	return nil
}

func (repo *NotificationRepo) FindExisting(ctx context.Context, candidate *entity.InAppNotification) (*entity.InAppNotification, error) {
	const query = `
SELECT id, recipient_id, kind, message, url, high_priority,
       source_type, source_unique_id, source_name,
       avatar_owner_type, avatar_owner_unique_id,
       aggregation_count, read, created_at
FROM in_app_notifications
WHERE recipient_id = $1
AND   kind = $2
AND   source_type = $3
AND   source_unique_id = $4
AND   read = FALSE
ORDER BY created_at DESC
LIMIT 1`
	row := repo.db.QueryRowContext(ctx, query,
		candidate.RecipientID, string(candidate.Kind),
		string(candidate.SourceType), candidate.SourceUniqueID)

	var alert entity.InAppNotification
	var kind, sourceType, avatarOwnerType string
	err := row.Scan(
		&alert.ID, &alert.RecipientID, &kind, &alert.Message, &alert.URL, &alert.HighPriority,
		&sourceType, &alert.SourceUniqueID, &alert.SourceName,
		&avatarOwnerType, &alert.AvatarOwnerUniqueID,
		&alert.AggregationCount, &alert.Read, &alert.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("FindExisting: %w", err)
	}
	alert.Kind = entity.Kind(kind)
	alert.SourceType = entity.EntityType(sourceType)
	alert.AvatarOwnerType = entity.EntityType(avatarOwnerType)
	return &alert, nil
}

func (repo *NotificationRepo) Update(ctx context.Context, alert *entity.InAppNotification) error {
	const query = `
UPDATE in_app_notifications
SET    message = $1,
       aggregation_count = $2,
       created_at = now()
WHERE  id = $3`
	_, err := repo.db.ExecContext(ctx, query, alert.Message, alert.AggregationCount, alert.ID)
	if err != nil {
		return fmt.Errorf("Update: %w", err)
	}
	return nil
}

func (repo *NotificationRepo) CountUnread(ctx context.Context, recipientID int64) (int, error) {
	const query = `
SELECT COUNT(*)
FROM in_app_notifications
WHERE recipient_id = $1
AND   read = FALSE`
	var count int
	err := repo.db.QueryRowContext(ctx, query, recipientID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("CountUnread: %w", err)
	}
	return count, nil
}
