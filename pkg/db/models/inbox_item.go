package models

import (
	"time"

	"github.com/mentorhub/mentorhub-backend/pkg/enums"
)

// InboxItem is a delivered inbox entry (notifications, invitation codes).
type InboxItem struct {
	ID             string              `gorm:"type:text;primaryKey" json:"id"`
	RecipientEmail string              `gorm:"column:recipient_email;not null;index" json:"recipientEmail"`
	Type           enums.InboxItemType `gorm:"type:text;not null" json:"type"`
	Title          string              `gorm:"type:text;not null" json:"title"`
	Message        string              `gorm:"type:text;not null" json:"message"`
	InvitationCode *string             `gorm:"column:invitation_code" json:"invitationCode,omitempty"`
	Read           bool                `gorm:"not null;default:false" json:"read"`
	CreatedAt      time.Time           `gorm:"type:timestamptz;default:now()" json:"createdAt"`
}
