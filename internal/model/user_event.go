package model

import "time"

const (
	UserEventCreated = "user.created"
	UserEventUpdated = "user.updated"
	UserEventDeleted = "user.deleted"
)

type UserEvent struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	Type             string    `gorm:"size:32;not null;index" json:"type"`
	Username         string    `gorm:"size:50;not null;index" json:"username"`
	PreviousUsername string    `gorm:"size:50" json:"previous_username,omitempty"`
	Email            string    `gorm:"size:254;not null" json:"email"`
	OccurredAt       time.Time `gorm:"not null" json:"occurred_at"`
}
