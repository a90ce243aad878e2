package models

import "time"

// User represents a registered account.
// Expert users can receive and answer questions; admin users can promote others to expert.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Name      string    `gorm:"uniqueIndex;size:255;not null" json:"name"`
	Password  string    `gorm:"size:255;not null" json:"-"` // bcrypt hash, never exposed in JSON
	Expert    bool      `gorm:"not null;default:false" json:"expert"`
	Admin     bool      `gorm:"not null;default:false" json:"admin"`
}
