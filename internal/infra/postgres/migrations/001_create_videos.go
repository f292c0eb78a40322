package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

// createVideosTable creates the video catalog. video_id is the natural key,
// so re-saving a record is an insert-or-ignore.
func createVideosTable() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "001_create_videos",
		Migrate: func(tx *gorm.DB) error {
			err := tx.Exec(`
				CREATE TABLE IF NOT EXISTS videos (
					video_id TEXT PRIMARY KEY,
					title TEXT NOT NULL DEFAULT '',
					description TEXT NOT NULL DEFAULT '',
					channel_title TEXT NOT NULL DEFAULT '',
					channel_id TEXT NOT NULL DEFAULT '',
					published_at TEXT NOT NULL DEFAULT '',

					-- Metrics
					view_count BIGINT NOT NULL DEFAULT 0 CHECK (view_count >= 0),
					channel_subscriber_count BIGINT,

					duration TEXT NOT NULL DEFAULT '',
					thumbnail_url TEXT NOT NULL DEFAULT '',
					video_url TEXT NOT NULL DEFAULT '',
					tags TEXT[],

					created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
				);
			`).Error
			if err != nil {
				return err
			}

			indexes := []string{
				"CREATE INDEX IF NOT EXISTS idx_videos_published_at ON videos(published_at DESC);",
				"CREATE INDEX IF NOT EXISTS idx_videos_channel_id ON videos(channel_id);",
			}

			for _, idx := range indexes {
				if err := tx.Exec(idx).Error; err != nil {
					return err
				}
			}

			return nil
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Exec("DROP TABLE IF EXISTS videos;").Error
		},
	}
}
