package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID               string    `gorm:"primaryKey;type:char(36)" json:"_id"`
	Username         string    `gorm:"uniqueIndex;size:64;not null" json:"username"`
	Email            string    `gorm:"uniqueIndex;size:255;not null" json:"email"`
	FullName         string    `gorm:"size:255;not null" json:"fullName"`
	PasswordHash     string    `gorm:"not null" json:"-"`
	RefreshTokenHash *string   `gorm:"size:64" json:"-"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// HasLiveSession reports whether the user holds a refresh token.
func (u *User) HasLiveSession() bool {
	return u.RefreshTokenHash != nil
}
