package meetings

import (
	"context"
	"errors"

	"github.com/mentorhub/mentorhub-backend/pkg/db/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository exposes the remote mirror collection for meetings.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Upsert(ctx context.Context, meeting *models.Meeting) error
	Get(ctx context.Context, id string) (*models.Meeting, error)
	ListByOrganizer(ctx context.Context, email string) ([]models.Meeting, error)
	ListByParticipant(ctx context.Context, email string) ([]models.Meeting, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a meetings repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Upsert(ctx context.Context, meeting *models.Meeting) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(meeting).Error
}

func (r *repositoryImpl) Get(ctx context.Context, id string) (*models.Meeting, error) {
	var meeting models.Meeting
	err := r.db.WithContext(ctx).First(&meeting, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &meeting, nil
}

func (r *repositoryImpl) ListByOrganizer(ctx context.Context, email string) ([]models.Meeting, error) {
	return r.listBy(ctx, "organizer_email = ?", email)
}

func (r *repositoryImpl) ListByParticipant(ctx context.Context, email string) ([]models.Meeting, error) {
	return r.listBy(ctx, "participant_email = ?", email)
}

func (r *repositoryImpl) listBy(ctx context.Context, condition, email string) ([]models.Meeting, error) {
	var rows []models.Meeting
	err := r.db.WithContext(ctx).
		Where(condition, email).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
