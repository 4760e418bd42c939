package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Message types
const (
	MessageTypeText  = "text"
	MessageTypeFile  = "file"
	MessageTypeImage = "image"
	MessageTypeVideo = "video"
	MessageTypeAudio = "audio"
)

// Message is a direct message between exactly one sender and one receiver.
type Message struct {
	ID string `gorm:"primaryKey;type:text" json:"id"`

	SenderID string `gorm:"index;type:text;not null" json:"senderId"`
	Sender   User   `gorm:"foreignKey:SenderID" json:"sender,omitempty"`

	ReceiverID string `gorm:"index;type:text;not null" json:"receiverId"`
	Receiver   User   `gorm:"foreignKey:ReceiverID" json:"receiver,omitempty"`

	// Content may be empty for file/media messages.
	Content     string `gorm:"type:text" json:"content"`
	MessageType string `gorm:"type:text;default:'text';not null" json:"messageType"`

	FileURL  string `json:"fileUrl,omitempty"`
	FileName string `json:"fileName,omitempty"`
	FileSize int64  `json:"fileSize,omitempty"`

	IsRead bool       `gorm:"default:false" json:"isRead"`
	ReadAt *time.Time `json:"readAt"`

	Reactions []Reaction `gorm:"foreignKey:MessageID" json:"reactions"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (m *Message) BeforeCreate(tx *gorm.DB) (err error) {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	if m.MessageType == "" {
		m.MessageType = MessageTypeText
	}
	return
}

// Reaction is an emoji reaction embedded in a message. There is no
// uniqueness constraint on (message_id, user_id): the same user may stack
// multiple reactions on one message.
type Reaction struct {
	ID        string    `gorm:"primaryKey;type:text" json:"id"`
	MessageID string    `gorm:"index;type:text;not null" json:"messageId"`
	UserID    string    `gorm:"index;type:text;not null" json:"userId"`
	User      User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Emoji     string    `gorm:"type:text;not null" json:"emoji"`
	CreatedAt time.Time `json:"createdAt"`
}

func (r *Reaction) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return
}
