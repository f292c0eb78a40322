package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

// createSearchHistoryVideosTable creates the per-entry record snapshots.
// Snapshots are not deduplicated against the videos catalog.
func createSearchHistoryVideosTable() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "003_create_search_history_videos",
		Migrate: func(tx *gorm.DB) error {
			err := tx.Exec(`
				CREATE TABLE IF NOT EXISTS search_history_videos (
					id BIGSERIAL PRIMARY KEY,
					search_history_id BIGINT NOT NULL REFERENCES search_history(id) ON DELETE CASCADE,
					position INTEGER NOT NULL,

					video_id TEXT NOT NULL,
					title TEXT NOT NULL DEFAULT '',
					description TEXT NOT NULL DEFAULT '',
					channel_title TEXT NOT NULL DEFAULT '',
					channel_id TEXT NOT NULL DEFAULT '',
					published_at TEXT NOT NULL DEFAULT '',
					view_count BIGINT NOT NULL DEFAULT 0,
					channel_subscriber_count BIGINT,
					duration TEXT NOT NULL DEFAULT '',
					thumbnail_url TEXT NOT NULL DEFAULT '',
					video_url TEXT NOT NULL DEFAULT '',
					tags TEXT[]
				);
			`).Error
			if err != nil {
				return err
			}

			return tx.Exec(`
				CREATE INDEX IF NOT EXISTS idx_search_history_videos_entry
				ON search_history_videos(search_history_id, position)
			`).Error
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Exec("DROP TABLE IF EXISTS search_history_videos;").Error
		},
	}
}
