package models

import "time"

// ReminderStatus is the outcome of a single reminder dispatch attempt
type ReminderStatus string

const (
	ReminderSent   ReminderStatus = "sent"
	ReminderFailed ReminderStatus = "failed" // provider rejected the delivery
	ReminderError  ReminderStatus = "error"  // transient fault, timeout, bad data
)

// ReminderLog records every dispatch attempt, append-only. At most one
// "sent" row may ever exist per (warranty item, offset) pair; the partial
// unique index created in database.Migrate enforces it.
type ReminderLog struct {
	ID               uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	WarrantyItemID   string         `gorm:"size:36;not null;index:idx_reminder_item_offset" json:"warranty_item_id"`
	CustomerID       string         `gorm:"size:36;not null;index" json:"customer_id"`
	DaysBeforeExpiry int            `gorm:"not null;index:idx_reminder_item_offset" json:"days_before_expiry"`
	Status           ReminderStatus `gorm:"size:10;not null" json:"status"`
	Message          string         `gorm:"type:text" json:"message"`
	ProviderRef      string         `gorm:"size:100" json:"provider_ref,omitempty"`
	ErrorDetail      string         `gorm:"type:text" json:"error_detail,omitempty"`
	SentAt           time.Time      `gorm:"not null;index" json:"sent_at"`
}

// TableName specifies the table name for the ReminderLog model
func (ReminderLog) TableName() string {
	return "reminder_log"
}
