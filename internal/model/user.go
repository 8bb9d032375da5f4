package model

import "time"

// User is one stored directory entry. Username is the primary key and is
// never changed in place; a rename replaces the row.
type User struct {
	Username     string    `gorm:"primaryKey;size:50" json:"username"`
	Email        string    `gorm:"size:254;not null;uniqueIndex" json:"email"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "user_details"
}
