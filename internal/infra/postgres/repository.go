package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"youtube-analytics/internal/domain"
	"youtube-analytics/internal/infra/postgres/migrations"
)

// insertBatchSize is the number of rows per INSERT statement.
const insertBatchSize = 100

// Repository implements domain.Store using PostgreSQL.
type Repository struct {
	db *gorm.DB
}

var _ domain.Store = (*Repository)(nil)

// NewRepository creates a new PostgreSQL repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// InitSchema applies pending migrations. Calling it on an initialized schema is a no-op.
func (r *Repository) InitSchema(ctx context.Context) error {
	if err := migrations.Run(r.db.WithContext(ctx)); err != nil {
		return storageErr("initializing schema", err)
	}

	return nil
}

// UpsertVideos inserts records whose video_id is not stored yet and ignores the rest.
// Returns the number of rows actually inserted.
func (r *Repository) UpsertVideos(ctx context.Context, records []domain.VideoRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	models := FromDomainSlice(records)

	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "video_id"}},
		DoNothing: true,
	}).CreateInBatches(models, insertBatchSize)

	if result.Error != nil {
		return 0, storageErr("upserting videos", result.Error)
	}

	return int(result.RowsAffected), nil
}

// FetchAllVideos returns every stored video, newest first.
func (r *Repository) FetchAllVideos(ctx context.Context) ([]domain.VideoRecord, error) {
	var models []VideoModel
	err := r.db.WithContext(ctx).
		Order("published_at DESC").
		Order("video_id").
		Find(&models).Error
	if err != nil {
		return nil, storageErr("fetching videos", err)
	}

	records := make([]domain.VideoRecord, len(models))
	for i := range models {
		records[i] = models[i].ToDomain()
	}

	return records, nil
}

// ListVideos returns one page of stored videos, newest first.
func (r *Repository) ListVideos(ctx context.Context, params domain.PageParams) (*domain.VideoPage, error) {
	params.Normalize()

	total, err := r.Count(ctx)
	if err != nil {
		return nil, err
	}

	var models []VideoModel
	err = r.db.WithContext(ctx).
		Order("published_at DESC").
		Order("video_id").
		Offset(params.Offset()).
		Limit(params.Limit()).
		Find(&models).Error
	if err != nil {
		return nil, storageErr("listing videos", err)
	}

	records := make([]domain.VideoRecord, len(models))
	for i := range models {
		records[i] = models[i].ToDomain()
	}

	return domain.NewVideoPage(records, total, params), nil
}

// Count returns the number of stored videos.
func (r *Repository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&VideoModel{}).Count(&count).Error; err != nil {
		return 0, storageErr("counting videos", err)
	}

	return count, nil
}

// Ping verifies the connection is alive.
func (r *Repository) Ping(ctx context.Context) error {
	if err := HealthCheck(ctx, r.db); err != nil {
		return storageErr("pinging database", err)
	}

	return nil
}

// Close releases the connection pool.
func (r *Repository) Close() error {
	return Close(r.db)
}

func storageErr(action string, err error) error {
	return fmt.Errorf("%w: %s: %v", domain.ErrStorage, action, err)
}
