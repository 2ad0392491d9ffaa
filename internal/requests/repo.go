package requests

import (
	"context"
	"errors"
	"time"

	"github.com/mentorhub/mentorhub-backend/pkg/db/models"
	"github.com/mentorhub/mentorhub-backend/pkg/enums"
	"gorm.io/gorm"
)

// Repository exposes the remote mirror collection for mentorship requests.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, request *models.MentorshipRequest) error
	Get(ctx context.Context, id string) (*models.MentorshipRequest, error)
	ListInvolving(ctx context.Context, email string) ([]models.MentorshipRequest, error)
	Respond(ctx context.Context, id string, status enums.RequestStatus, responseNote *string, respondedAt time.Time) (bool, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a requests repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, request *models.MentorshipRequest) error {
	return r.db.WithContext(ctx).Create(request).Error
}

func (r *repositoryImpl) Get(ctx context.Context, id string) (*models.MentorshipRequest, error) {
	var request models.MentorshipRequest
	err := r.db.WithContext(ctx).First(&request, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *repositoryImpl) ListInvolving(ctx context.Context, email string) ([]models.MentorshipRequest, error) {
	var rows []models.MentorshipRequest
	err := r.db.WithContext(ctx).
		Where("requester_email = ? OR mentor_email = ?", email, email).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Respond flips a pending request to its resolved status. The status guard
// makes the transition one-way even under concurrent responders.
func (r *repositoryImpl) Respond(ctx context.Context, id string, status enums.RequestStatus, responseNote *string, respondedAt time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.MentorshipRequest{}).
		Where("id = ? AND status = ?", id, enums.RequestStatusPending).
		Updates(map[string]any{
			"status":        status,
			"response_note": responseNote,
			"responded_at":  respondedAt,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
