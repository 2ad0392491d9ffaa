package models

import (
	"time"

	dbtypes "github.com/mentorhub/mentorhub-backend/pkg/db/types"
)

// Conversation groups the messages between exactly two participants. The id
// is derived from the sorted participant emails, so lookups are idempotent
// regardless of argument order.
type Conversation struct {
	ID               string              `gorm:"type:text;primaryKey" json:"id"`
	Participants     dbtypes.StringArray `gorm:"type:text[];not null" json:"participants"`
	ParticipantNames dbtypes.StringMap   `gorm:"column:participant_names;type:jsonb;not null" json:"participantNames"`
	UnreadCounts     dbtypes.IntMap      `gorm:"column:unread_counts;type:jsonb;not null" json:"unreadCounts"`
	LastMessageText  *string             `gorm:"column:last_message_text" json:"lastMessageText,omitempty"`
	LastMessageAt    *time.Time          `gorm:"column:last_message_at;type:timestamptz" json:"lastMessageAt,omitempty"`
	CreatedAt        time.Time           `gorm:"type:timestamptz;default:now()" json:"createdAt"`
	UpdatedAt        time.Time           `gorm:"type:timestamptz;default:now()" json:"updatedAt"`
}
