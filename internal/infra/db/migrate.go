package db

import (
	"database/sql"
)

func MigrateUp(db *sql.DB) error {
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS people (
    id           BIGSERIAL PRIMARY KEY,
    account_id   TEXT NOT NULL UNIQUE,
    display_name TEXT NOT NULL,
    email        TEXT NOT NULL DEFAULT '',
    avatar_id    TEXT NOT NULL DEFAULT '',
    locked       BOOLEAN NOT NULL DEFAULT FALSE
)`); err != nil {
		return err
	}

	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS in_app_notifications (
    id                     BIGSERIAL PRIMARY KEY,
    recipient_id           BIGINT NOT NULL REFERENCES people(id),
    kind                   VARCHAR(40) NOT NULL,
    message                TEXT NOT NULL,
    url                    TEXT NOT NULL DEFAULT '',
    high_priority          BOOLEAN NOT NULL DEFAULT FALSE,
    source_type            VARCHAR(20) NOT NULL DEFAULT 'NOTSET',
    source_unique_id       TEXT NOT NULL DEFAULT '',
    source_name            TEXT NOT NULL DEFAULT '',
    avatar_owner_type      VARCHAR(20) NOT NULL DEFAULT 'NOTSET',
    avatar_owner_unique_id TEXT NOT NULL DEFAULT '',
    aggregation_count      INTEGER NOT NULL DEFAULT 0,
    read                   BOOLEAN NOT NULL DEFAULT FALSE,
    created_at             TIMESTAMPTZ NOT NULL DEFAULT now()
)`); err != nil {
		return err
	}

	// パフォーマンス最適化: インデックス追加
	indexes := []string{
		// 未読件数カウント用(WHERE recipient_id = $1 AND read = FALSE)
		`CREATE INDEX IF NOT EXISTS idx_in_app_notifications_unread ON in_app_notifications(recipient_id) WHERE read = FALSE`,
		// 受信者別の新着順取得用
		`CREATE INDEX IF NOT EXISTS idx_in_app_notifications_recipient_created ON in_app_notifications(recipient_id, created_at DESC)`,
		// 集約対象の既存通知検索用
		`CREATE INDEX IF NOT EXISTS idx_in_app_notifications_aggregation ON in_app_notifications(recipient_id, kind, source_type, source_unique_id) WHERE read = FALSE`,
		// アカウントID逆引き用
		`CREATE INDEX IF NOT EXISTS idx_people_account_id ON people(account_id)`,
	}
	for _, idx := range indexes {
		if _, err := db.Exec(idx); err != nil {
			return err
		}
	}

	// エンティティタイプ制約追加
	// PostgreSQL特有の制約構文のため、エラーを無視(既に存在する場合)
	_, _ = db.Exec(`
DO $$
BEGIN
    IF NOT EXISTS (
        SELECT 1 FROM pg_constraint
        WHERE conname = 'chk_source_type'
    ) THEN
        ALTER TABLE in_app_notifications ADD CONSTRAINT chk_source_type
        CHECK (source_type IN ('PERSON', 'GROUP', 'NOTSET'));
    END IF;
END $$;
`)

	return nil
}

// MigrateDown rolls back the notification schema.
// Use with caution: this will delete all stored notifications.
func MigrateDown(db *sql.DB) error {
	dropStatements := []string{
		`DROP INDEX IF EXISTS idx_in_app_notifications_unread`,
		`DROP INDEX IF EXISTS idx_in_app_notifications_recipient_created`,
		`DROP INDEX IF EXISTS idx_in_app_notifications_aggregation`,
		`DROP TABLE IF EXISTS in_app_notifications CASCADE`,
	}

	for _, stmt := range dropStatements {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}

	// Note: We do NOT drop the people table as it is shared with the
	// rest of the platform.

	return nil
}
