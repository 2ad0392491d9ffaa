package profiles

import (
	"context"
	"errors"

	"github.com/mentorhub/mentorhub-backend/pkg/db/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository exposes the remote mirror collection for profiles. Profiles are
// keyed by email, so upsert replaces the whole document.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Upsert(ctx context.Context, profile *models.Profile) error
	Get(ctx context.Context, email string) (*models.Profile, error)
	List(ctx context.Context) ([]models.Profile, error)
	Delete(ctx context.Context, email string) error
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a profiles repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Upsert(ctx context.Context, profile *models.Profile) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "email"}},
			UpdateAll: true,
		}).
		Create(profile).Error
}

func (r *repositoryImpl) Get(ctx context.Context, email string) (*models.Profile, error) {
	var profile models.Profile
	err := r.db.WithContext(ctx).First(&profile, "email = ?", email).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *repositoryImpl) List(ctx context.Context) ([]models.Profile, error) {
	var rows []models.Profile
	if err := r.db.WithContext(ctx).Order("email ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repositoryImpl) Delete(ctx context.Context, email string) error {
	return r.db.WithContext(ctx).Delete(&models.Profile{}, "email = ?", email).Error
}
