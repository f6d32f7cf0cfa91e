package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"warrantycare/internal/models"
	"warrantycare/internal/reminder"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// WarrantyRepo is the gorm-backed implementation of reminder.Repository
type WarrantyRepo struct {
	db *gorm.DB
}

func NewWarrantyRepo(db *gorm.DB) *WarrantyRepo {
	return &WarrantyRepo{db: db}
}

// Ping verifies the backing store is reachable
func (r *WarrantyRepo) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// ItemsExpiringOn returns all warranty items whose expiry date equals the
// given calendar date, with customer contact data preloaded
func (r *WarrantyRepo) ItemsExpiringOn(ctx context.Context, date time.Time) ([]models.WarrantyItem, error) {
	var items []models.WarrantyItem
	err := r.db.WithContext(ctx).
		Preload("Customer").
		Where("expiry_date = ?", datatypes.Date(date)).
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("fetching warranty items: %w", err)
	}
	return items, nil
}

// HasSentReminder reports whether a sent record exists for the pair
func (r *WarrantyRepo) HasSentReminder(ctx context.Context, itemID string, offset int) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ReminderLog{}).
		Where("warranty_item_id = ? AND days_before_expiry = ? AND status = ?", itemID, offset, models.ReminderSent).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("checking reminder log: %w", err)
	}
	return count > 0, nil
}

// AppendLog inserts one reminder log row. A unique-index violation on a
// "sent" row means another run already sent this reminder and is reported
// as reminder.ErrDuplicateSent.
func (r *WarrantyRepo) AppendLog(ctx context.Context, entry *models.ReminderLog) error {
	err := r.db.WithContext(ctx).Create(entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) && entry.Status == models.ReminderSent {
			return reminder.ErrDuplicateSent
		}
		return fmt.Errorf("appending reminder log: %w", err)
	}
	return nil
}
