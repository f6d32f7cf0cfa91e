package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// WarrantyItem represents a registered product under warranty.
// ExpiryDate is stored denormalized so the reminder sweep can match on it
// with a plain indexed equality query.
type WarrantyItem struct {
	ID                   string         `gorm:"primaryKey;size:36" json:"id"`
	CustomerID           string         `gorm:"size:36;not null;index" json:"customer_id"`
	Customer             Customer       `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	ProductName          string         `gorm:"size:100;not null" json:"product_name"`
	Category             string         `gorm:"size:50" json:"category"`
	Model                string         `gorm:"size:50" json:"model"`
	SerialNumber         string         `gorm:"size:50" json:"serial_number"`
	PurchaseDate         datatypes.Date `gorm:"not null" json:"purchase_date"`
	WarrantyPeriodMonths int            `gorm:"not null" json:"warranty_period_months"`
	ExpiryDate           datatypes.Date `gorm:"not null;index" json:"expiry_date"`
	CreatedAt            time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt            time.Time      `gorm:"not null" json:"updated_at"`
}

// BeforeCreate hook fills in the id, timestamps and the computed expiry date
func (w *WarrantyItem) BeforeCreate(tx *gorm.DB) error {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	now := time.Now()
	if w.CreatedAt.IsZero() {
		w.CreatedAt = now
	}
	if w.UpdatedAt.IsZero() {
		w.UpdatedAt = now
	}
	if time.Time(w.ExpiryDate).IsZero() {
		w.ExpiryDate = datatypes.Date(AddMonthsClamped(time.Time(w.PurchaseDate), w.WarrantyPeriodMonths))
	}
	return nil
}

// TableName specifies the table name for the WarrantyItem model
func (WarrantyItem) TableName() string {
	return "warranty_item"
}

// AddMonthsClamped adds whole calendar months to a date, keeping the day of
// month where it exists in the target month and clamping to the last valid
// day otherwise (Jan 31 + 1 month = Feb 28/29, never Mar 2/3).
func AddMonthsClamped(d time.Time, months int) time.Time {
	y, m, day := d.Date()
	firstOfTarget := time.Date(y, m+time.Month(months), 1, 0, 0, 0, 0, time.UTC)
	lastDay := firstOfTarget.AddDate(0, 1, -1).Day()
	if day > lastDay {
		day = lastDay
	}
	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), day, 0, 0, 0, 0, time.UTC)
}

// CreateWarrantyItemRequest represents the data needed to register a warranty item
type CreateWarrantyItemRequest struct {
	CustomerID           string `json:"customer_id" binding:"required"`
	ProductName          string `json:"product_name" binding:"required"`
	Category             string `json:"category"`
	Model                string `json:"model"`
	SerialNumber         string `json:"serial_number"`
	PurchaseDate         string `json:"purchase_date" binding:"required,datetime=2006-01-02"`
	WarrantyPeriodMonths int    `json:"warranty_period_months" binding:"required,min=1,max=120"`
}
