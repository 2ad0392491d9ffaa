package models

import (
	"time"

	"github.com/mentorhub/mentorhub-backend/pkg/enums"
)

// Meeting is a scheduled session between an organizer and one participant.
type Meeting struct {
	ID               string              `gorm:"type:text;primaryKey" json:"id"`
	OrganizerEmail   string              `gorm:"column:organizer_email;not null;index" json:"organizerEmail"`
	OrganizerName    string              `gorm:"column:organizer_name;not null" json:"organizerName"`
	ParticipantEmail string              `gorm:"column:participant_email;not null;index" json:"participantEmail"`
	ParticipantName  string              `gorm:"column:participant_name;not null" json:"participantName"`
	Title            string              `gorm:"type:text;not null" json:"title"`
	Description      *string             `gorm:"type:text" json:"description,omitempty"`
	Date             string              `gorm:"type:text;not null" json:"date"`
	Time             string              `gorm:"type:text;not null" json:"time"`
	DurationMinutes  int                 `gorm:"column:duration_minutes;not null" json:"durationMinutes"`
	Location         string              `gorm:"type:text;not null" json:"location"`
	LocationType     enums.LocationType  `gorm:"column:location_type;type:text;not null" json:"locationType"`
	MeetingLink      *string             `gorm:"column:meeting_link" json:"meetingLink,omitempty"`
	Status           enums.MeetingStatus `gorm:"type:text;not null" json:"status"`
	CreatedAt        time.Time           `gorm:"type:timestamptz;default:now()" json:"createdAt"`
	UpdatedAt        time.Time           `gorm:"type:timestamptz;default:now()" json:"updatedAt"`
}
