package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Customer represents a customer whose products we track warranties for
type Customer struct {
	ID            string         `gorm:"primaryKey;size:36" json:"id"`
	Name          string         `gorm:"size:100;not null" json:"name" binding:"required"`
	PhoneNumber   string         `gorm:"size:20;not null" json:"phone_number" binding:"required"`
	Email         string         `gorm:"size:255" json:"email"`
	WarrantyItems []WarrantyItem `gorm:"foreignKey:CustomerID" json:"warranty_items,omitempty"`
	CreatedAt     time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"not null" json:"updated_at"`
}

// BeforeCreate hook is called before creating a new customer
func (c *Customer) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	now := time.Now()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = now
	}
	return nil
}

// TableName specifies the table name for the Customer model
func (Customer) TableName() string {
	return "customer"
}

// CreateCustomerRequest represents the data needed to register a customer
type CreateCustomerRequest struct {
	Name        string `json:"name" binding:"required"`
	PhoneNumber string `json:"phone_number" binding:"required"`
	Email       string `json:"email" binding:"omitempty,email"`
}
