package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

// createSearchHistoryTable creates the append-only search ledger.
func createSearchHistoryTable() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "002_create_search_history",
		Migrate: func(tx *gorm.DB) error {
			err := tx.Exec(`
				CREATE TABLE IF NOT EXISTS search_history (
					id BIGSERIAL PRIMARY KEY,
					search_query TEXT NOT NULL,
					search_type TEXT NOT NULL CHECK (search_type IN ('channel', 'video_search')),
					channel_id TEXT,
					total_results INTEGER NOT NULL DEFAULT 0 CHECK (total_results >= 0),
					search_date TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
				);
			`).Error
			if err != nil {
				return err
			}

			indexes := []string{
				"CREATE INDEX IF NOT EXISTS idx_search_history_date ON search_history(search_date DESC, id DESC);",
				"CREATE INDEX IF NOT EXISTS idx_search_history_type_query ON search_history(search_type, search_query);",
			}

			for _, idx := range indexes {
				if err := tx.Exec(idx).Error; err != nil {
					return err
				}
			}

			return nil
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Exec("DROP TABLE IF EXISTS search_history;").Error
		},
	}
}
