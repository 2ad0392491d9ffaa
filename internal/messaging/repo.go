package messaging

import (
	"context"
	"errors"

	"github.com/mentorhub/mentorhub-backend/pkg/db/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository exposes the remote mirror collections for conversations and
// messages. Conversation membership queries use the Postgres array containment
// operator; the local fallback reproduces it with a slice scan.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	UpsertConversation(ctx context.Context, conversation *models.Conversation) error
	GetConversation(ctx context.Context, id string) (*models.Conversation, error)
	ListConversations(ctx context.Context, email string) ([]models.Conversation, error)
	CreateMessage(ctx context.Context, message *models.Message) error
	ListMessages(ctx context.Context, conversationID string) ([]models.Message, error)
	MarkMessagesRead(ctx context.Context, conversationID, readerEmail string) (int64, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a messaging repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) UpsertConversation(ctx context.Context, conversation *models.Conversation) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(conversation).Error
}

func (r *repositoryImpl) GetConversation(ctx context.Context, id string) (*models.Conversation, error) {
	var conversation models.Conversation
	err := r.db.WithContext(ctx).First(&conversation, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &conversation, nil
}

func (r *repositoryImpl) ListConversations(ctx context.Context, email string) ([]models.Conversation, error) {
	var rows []models.Conversation
	err := r.db.WithContext(ctx).
		Where("participants @> ARRAY[?]::text[]", email).
		Order("updated_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repositoryImpl) CreateMessage(ctx context.Context, message *models.Message) error {
	return r.db.WithContext(ctx).Create(message).Error
}

func (r *repositoryImpl) ListMessages(ctx context.Context, conversationID string) ([]models.Message, error) {
	var rows []models.Message
	err := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repositoryImpl) MarkMessagesRead(ctx context.Context, conversationID, readerEmail string) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Message{}).
		Where("conversation_id = ? AND receiver_email = ? AND read = ?", conversationID, readerEmail, false).
		UpdateColumn("read", true)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
