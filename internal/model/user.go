package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is a registered marketplace account.
type User struct {
	ID                              uuid.UUID  `gorm:"type:char(36);primaryKey"`
	Email                           string     `gorm:"uniqueIndex;size:255;not null"`
	Username                        string     `gorm:"size:32;not null"`
	ProfileImageURL                 *string    `gorm:"size:2048"`
	PasswordHash                    string     `gorm:"size:255;not null"`
	IsEmailVerified                 bool       `gorm:"not null;default:false"`
	EmailVerificationTokenHash      *string    `gorm:"size:64;index"`
	EmailVerificationTokenExpiresAt *time.Time
	CreatedAt                       time.Time
	UpdatedAt                       time.Time
}

// BeforeCreate sets UUID before creating the record.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// PublicUser is the only shape a user is ever serialized in.
type PublicUser struct {
	ID              string  `json:"id"`
	Email           string  `json:"email"`
	Username        string  `json:"username"`
	ProfileImageURL *string `json:"profileImageUrl"`
	IsEmailVerified bool    `json:"isEmailVerified"`
}

// ToPublicUser strips credentials and verification token state from u.
func ToPublicUser(u *User) PublicUser {
	return PublicUser{
		ID:              u.ID.String(),
		Email:           u.Email,
		Username:        u.Username,
		ProfileImageURL: u.ProfileImageURL,
		IsEmailVerified: u.IsEmailVerified,
	}
}
