package handlers

import (
	"log"
	"net/http"
	"time"

	"warrantycare/internal/database"
	"warrantycare/internal/models"
	"warrantycare/internal/reminder"
	"warrantycare/internal/utils"

	"github.com/gin-gonic/gin"
)

// GetReminderLogs handles listing recent reminder dispatch attempts
func GetReminderLogs(c *gin.Context) {
	db := database.GetDB()
	var logs []models.ReminderLog

	query := db.Order("sent_at desc").Limit(50)
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if itemID := c.Query("warranty_item_id"); itemID != "" {
		query = query.Where("warranty_item_id = ?", itemID)
	}

	if err := query.Find(&logs).Error; err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to fetch reminder logs", err)
		return
	}

	c.JSON(http.StatusOK, logs)
}

// RunReminderSweep returns a handler that triggers one sweep immediately.
// The reminder log keeps manual triggers idempotent, so an admin pressing
// the button twice cannot double-send.
func RunReminderSweep(engine *reminder.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		log.Printf("Manual reminder sweep triggered from %s", utils.GetRealClientIP(c))
		summary, err := engine.RunReminderSweep(c.Request.Context(), time.Now())
		if err != nil {
			handleError(c, http.StatusServiceUnavailable, "Reminder sweep failed", err)
			return
		}
		c.JSON(http.StatusOK, summary)
	}
}
