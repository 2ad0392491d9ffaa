package invites

import (
	"context"
	"errors"
	"time"

	"github.com/mentorhub/mentorhub-backend/pkg/db/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository exposes the remote mirror collection for invitation codes.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Upsert(ctx context.Context, code *models.InvitationCode) error
	GetByCode(ctx context.Context, code string) (*models.InvitationCode, error)
	ListByCreator(ctx context.Context, email string) ([]models.InvitationCode, error)
	Redeem(ctx context.Context, code, usedBy string, usedAt time.Time) (bool, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns an invitation code repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Upsert(ctx context.Context, code *models.InvitationCode) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(code).Error
}

func (r *repositoryImpl) GetByCode(ctx context.Context, code string) (*models.InvitationCode, error) {
	var row models.InvitationCode
	err := r.db.WithContext(ctx).First(&row, "code = ?", code).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *repositoryImpl) ListByCreator(ctx context.Context, email string) ([]models.InvitationCode, error) {
	var rows []models.InvitationCode
	err := r.db.WithContext(ctx).
		Where("creator_email = ?", email).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Redeem flips is_used under a conditional update so two concurrent
// redeemers cannot both spend the same code.
func (r *repositoryImpl) Redeem(ctx context.Context, code, usedBy string, usedAt time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.InvitationCode{}).
		Where("code = ? AND is_used = ?", code, false).
		Updates(map[string]any{
			"is_used": true,
			"used_by": usedBy,
			"used_at": usedAt,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
