package inbox

import (
	"context"

	"github.com/mentorhub/mentorhub-backend/pkg/db/models"
	"github.com/mentorhub/mentorhub-backend/pkg/pagination"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository exposes the remote mirror collection for inbox items.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Upsert(ctx context.Context, item *models.InboxItem) error
	ListByRecipient(ctx context.Context, email string, cursor *pagination.Cursor, limit int) ([]models.InboxItem, error)
	MarkRead(ctx context.Context, id, recipientEmail string) (bool, error)
	CountUnread(ctx context.Context, email string) (int64, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns an inbox repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Upsert(ctx context.Context, item *models.InboxItem) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(item).Error
}

func (r *repositoryImpl) ListByRecipient(ctx context.Context, email string, cursor *pagination.Cursor, limit int) ([]models.InboxItem, error) {
	query := r.db.WithContext(ctx).
		Where("recipient_email = ?", email).
		Order("created_at DESC, id DESC")
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	var rows []models.InboxItem
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// MarkRead flips the read flag only when the item belongs to the caller.
func (r *repositoryImpl) MarkRead(ctx context.Context, id, recipientEmail string) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.InboxItem{}).
		Where("id = ? AND recipient_email = ?", id, recipientEmail).
		UpdateColumn("read", true)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repositoryImpl) CountUnread(ctx context.Context, email string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.InboxItem{}).
		Where("recipient_email = ? AND read = ?", email, false).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}
