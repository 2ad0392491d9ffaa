package models

import "time"

// InvitationCode is an 8-character signup code. IsUsed flips false -> true
// exactly once; redemption is exclusive.
type InvitationCode struct {
	ID           string     `gorm:"type:text;primaryKey" json:"id"`
	Code         string     `gorm:"type:text;not null;uniqueIndex" json:"code"`
	CreatorEmail string     `gorm:"column:creator_email;not null;index" json:"creatorEmail"`
	IsUsed       bool       `gorm:"column:is_used;not null;default:false" json:"isUsed"`
	UsedBy       *string    `gorm:"column:used_by" json:"usedBy,omitempty"`
	UsedAt       *time.Time `gorm:"column:used_at;type:timestamptz" json:"usedAt,omitempty"`
	CreatedAt    time.Time  `gorm:"type:timestamptz;default:now()" json:"createdAt"`
}
