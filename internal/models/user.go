package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID        string         `gorm:"primaryKey;type:text" json:"id"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Name     string `json:"name"`
	Email    string `gorm:"uniqueIndex" json:"email"`
	Username string `gorm:"uniqueIndex" json:"username"`
	Avatar   string `json:"avatar"`
	Bio      string `json:"bio"`

	Password string `json:"-"`

	// Set once at provisioning. Accounts with this flag get generated
	// replies from the responder instead of a human operator.
	IsAIBot bool `gorm:"default:false" json:"isAIBot"`

	// Best-effort mirror of the live connection registry: updated on
	// connect/disconnect, not transactionally tied to it.
	IsOnline bool       `gorm:"default:false" json:"isOnline"`
	LastSeen *time.Time `json:"lastSeen"`
}

func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	return
}
