package models

import "time"

// User is the auth identity referenced by email from every other entity.
type User struct {
	ID            string    `gorm:"type:text;primaryKey" json:"id"`
	Email         string    `gorm:"type:text;not null;uniqueIndex" json:"email"`
	PasswordHash  string    `gorm:"column:password_hash;not null" json:"password,omitempty"`
	IsTestAccount bool      `gorm:"column:is_test_account;not null;default:false" json:"isTestAccount,omitempty"`
	CreatedAt     time.Time `gorm:"type:timestamptz;default:now()" json:"createdAt"`
}
