package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"loginify/internal/model"
)

type UserEventRepository struct {
	db *gorm.DB
}

func NewUserEventRepository(db *gorm.DB) *UserEventRepository {
	return &UserEventRepository{db: db}
}

func (r *UserEventRepository) Create(ctx context.Context, event *model.UserEvent) error {
	if err := r.db.WithContext(ctx).Create(event).Error; err != nil {
		return fmt.Errorf("create user event failed: %w", err)
	}
	return nil
}

// ListByUsername returns the newest events first, matching both the current
// and the previous username so a rename keeps its history reachable.
func (r *UserEventRepository) ListByUsername(ctx context.Context, username string, limit int) ([]model.UserEvent, error) {
	if limit <= 0 || limit > 200 {
		limit = 100
	}

	var events []model.UserEvent
	if err := r.db.WithContext(ctx).
		Where("username = ? OR previous_username = ?", username, username).
		Order("occurred_at DESC, id DESC").
		Limit(limit).
		Find(&events).Error; err != nil {
		return nil, fmt.Errorf("list user events failed: %w", err)
	}
	return events, nil
}
