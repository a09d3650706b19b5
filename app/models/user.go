package models

import "time"

// User is a registered customer. Email and phone are both usable as login
// identifiers, so each carries its own unique index.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"uniqueIndex;size:50;not null" json:"username"`
	Email        string    `gorm:"uniqueIndex;size:120;not null" json:"email"`
	Phone        string    `gorm:"uniqueIndex;size:20;not null" json:"phone"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"` // bcrypt, never serialised
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
}
