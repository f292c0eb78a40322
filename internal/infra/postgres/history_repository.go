package postgres

import (
	"context"
	"time"

	"gorm.io/gorm"

	"youtube-analytics/internal/domain"
)

// SaveSearchHistory appends a ledger entry and its record snapshots in one transaction.
// The entry's ID and SearchDate are set from the stored row.
func (r *Repository) SaveSearchHistory(ctx context.Context, entry *domain.SearchHistoryEntry, records []domain.VideoRecord) (int64, error) {
	if err := entry.Validate(); err != nil {
		return 0, err
	}

	model := historyFromDomain(entry, time.Now().UTC())

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(model).Error; err != nil {
			return err
		}
		if len(records) == 0 {
			return nil
		}
		return tx.CreateInBatches(snapshotModels(model.ID, records), insertBatchSize).Error
	})
	if err != nil {
		return 0, storageErr("saving search history", err)
	}

	entry.ID = model.ID
	entry.SearchDate = model.SearchDate

	return model.ID, nil
}

// GetSearchHistory returns up to limit entries, most recent first.
// A non-positive limit returns every entry.
func (r *Repository) GetSearchHistory(ctx context.Context, limit int) ([]domain.SearchHistoryEntry, error) {
	query := r.db.WithContext(ctx).
		Order("search_date DESC").
		Order("id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var models []SearchHistoryModel
	if err := query.Find(&models).Error; err != nil {
		return nil, storageErr("fetching search history", err)
	}

	entries := make([]domain.SearchHistoryEntry, len(models))
	for i := range models {
		entries[i] = models[i].ToDomain()
	}

	return entries, nil
}

// popularRow is the scan target of the popularity aggregation.
type popularRow struct {
	Query        string
	SearchCount  int64
	LastSearched time.Time
}

// GetPopularSearches groups entries of one type by exact query text.
// Ordered by count descending, ties broken by the most recent occurrence.
func (r *Repository) GetPopularSearches(ctx context.Context, searchType domain.SearchType, limit int) ([]domain.PopularSearch, error) {
	if _, err := domain.ParseSearchType(string(searchType)); err != nil {
		return nil, err
	}

	query := r.db.WithContext(ctx).
		Model(&SearchHistoryModel{}).
		Select("search_query AS query, COUNT(*) AS search_count, MAX(search_date) AS last_searched").
		Where("search_type = ?", string(searchType)).
		Group("search_query").
		Order("search_count DESC").
		Order("last_searched DESC").
		Order("query")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var rows []popularRow
	if err := query.Scan(&rows).Error; err != nil {
		return nil, storageErr("aggregating popular searches", err)
	}

	popular := make([]domain.PopularSearch, len(rows))
	for i, row := range rows {
		popular[i] = domain.PopularSearch{
			Query:        row.Query,
			Count:        row.SearchCount,
			LastSearched: row.LastSearched.UTC(),
		}
	}

	return popular, nil
}

// GetHistoryVideos returns the record snapshots of one entry in their saved order.
func (r *Repository) GetHistoryVideos(ctx context.Context, entryID int64) ([]domain.VideoRecord, error) {
	var models []SearchHistoryVideoModel
	err := r.db.WithContext(ctx).
		Where("search_history_id = ?", entryID).
		Order("position").
		Find(&models).Error
	if err != nil {
		return nil, storageErr("fetching history videos", err)
	}

	records := make([]domain.VideoRecord, len(models))
	for i := range models {
		records[i] = models[i].ToDomain()
	}

	return records, nil
}
