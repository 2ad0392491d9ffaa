package models

import "time"

// Message is a single chat message. Only the read flag ever mutates after
// creation; messages are never deleted.
type Message struct {
	ID             string    `gorm:"type:text;primaryKey" json:"id"`
	ConversationID string    `gorm:"column:conversation_id;not null;index" json:"conversationId"`
	SenderEmail    string    `gorm:"column:sender_email;not null" json:"senderEmail"`
	SenderName     string    `gorm:"column:sender_name;not null" json:"senderName"`
	ReceiverEmail  string    `gorm:"column:receiver_email;not null" json:"receiverEmail"`
	ReceiverName   string    `gorm:"column:receiver_name;not null" json:"receiverName"`
	Text           string    `gorm:"type:text;not null" json:"text"`
	Read           bool      `gorm:"not null;default:false" json:"read"`
	CreatedAt      time.Time `gorm:"type:timestamptz;default:now()" json:"createdAt"`
}
