package models

import "time"

// Profile is a member profile. The email doubles as the natural document id:
// the remote collection is keyed by it and local collections match on it.
type Profile struct {
	Email          string     `gorm:"type:text;primaryKey" json:"email"`
	Name           string     `gorm:"type:text;not null" json:"name"`
	Expertise      string     `gorm:"type:text;not null" json:"expertise"`
	ExpertiseYears float64    `gorm:"column:expertise_years;not null;default:0" json:"expertiseYears"`
	Interest       string     `gorm:"type:text;not null" json:"interest"`
	InterestYears  float64    `gorm:"column:interest_years;not null;default:0" json:"interestYears"`
	PhoneNumber    string     `gorm:"column:phone_number;not null" json:"phoneNumber"`
	Location       *string    `gorm:"type:text" json:"location,omitempty"`
	CreatedAt      *time.Time `gorm:"type:timestamptz" json:"createdAt,omitempty"`
	UpdatedAt      *time.Time `gorm:"type:timestamptz" json:"updatedAt,omitempty"`
}
