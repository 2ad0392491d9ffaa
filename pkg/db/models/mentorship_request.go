package models

import (
	"time"

	"github.com/mentorhub/mentorhub-backend/pkg/enums"
)

// MentorshipRequest is a mentee's ask directed at a mentor. At most one
// pending request may exist per (requester, mentor) pair; resolved requests
// between the same pair may accumulate.
type MentorshipRequest struct {
	ID             string              `gorm:"type:text;primaryKey" json:"id"`
	RequesterEmail string              `gorm:"column:requester_email;not null;index" json:"requesterEmail"`
	RequesterName  string              `gorm:"column:requester_name;not null" json:"requesterName"`
	MentorEmail    string              `gorm:"column:mentor_email;not null;index" json:"mentorEmail"`
	MentorName     string              `gorm:"column:mentor_name;not null" json:"mentorName"`
	Note           string              `gorm:"type:text;not null" json:"note"`
	Status         enums.RequestStatus `gorm:"type:text;not null" json:"status"`
	ResponseNote   *string             `gorm:"column:response_note" json:"responseNote,omitempty"`
	CreatedAt      time.Time           `gorm:"type:timestamptz;default:now()" json:"createdAt"`
	RespondedAt    *time.Time          `gorm:"type:timestamptz" json:"respondedAt,omitempty"`
}
