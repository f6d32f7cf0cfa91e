package handlers

import (
	"net/http"
	"time"

	"warrantycare/internal/database"
	"warrantycare/internal/models"
	"warrantycare/internal/reminder"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
)

// GetDashboardStats handles the admin dashboard summary: how many
// warranties are tracked, how many expire within 15 days, how many have
// already lapsed, and how many reminders went out
func GetDashboardStats(c *gin.Context) {
	db := database.GetDB()
	today := reminder.DateOnly(time.Now())
	soonCutoff := today.AddDate(0, 0, 15)

	var totalCustomers, totalItems, expiringSoon, expired, remindersSent int64

	if err := db.Model(&models.Customer{}).Count(&totalCustomers).Error; err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to fetch dashboard stats", err)
		return
	}
	if err := db.Model(&models.WarrantyItem{}).Count(&totalItems).Error; err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to fetch dashboard stats", err)
		return
	}
	if err := db.Model(&models.WarrantyItem{}).
		Where("expiry_date >= ? AND expiry_date <= ?", datatypes.Date(today), datatypes.Date(soonCutoff)).
		Count(&expiringSoon).Error; err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to fetch dashboard stats", err)
		return
	}
	if err := db.Model(&models.WarrantyItem{}).
		Where("expiry_date < ?", datatypes.Date(today)).
		Count(&expired).Error; err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to fetch dashboard stats", err)
		return
	}
	if err := db.Model(&models.ReminderLog{}).
		Where("status = ?", models.ReminderSent).
		Count(&remindersSent).Error; err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to fetch dashboard stats", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total_customers": totalCustomers,
		"total_items":     totalItems,
		"expiring_soon":   expiringSoon,
		"expired":         expired,
		"reminders_sent":  remindersSent,
	})
}
