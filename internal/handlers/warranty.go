package handlers

import (
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"warrantycare/internal/database"
	"warrantycare/internal/models"
	"warrantycare/internal/services"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
)

// CreateWarrantyItem handles registration of a product under warranty.
// The expiry date is computed server-side from the purchase date and the
// warranty length; clients never supply it.
func CreateWarrantyItem(c *gin.Context) {
	var request models.CreateWarrantyItemRequest

	if err := c.ShouldBindJSON(&request); err != nil {
		log.Printf("Error: Invalid input: %s", err.Error())
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Invalid input: %s", err.Error())})
		return
	}

	purchaseDate, err := time.ParseInLocation("2006-01-02", request.PurchaseDate, time.UTC)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid purchase date"})
		return
	}
	if purchaseDate.After(time.Now()) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Purchase date must not be in the future"})
		return
	}

	db := database.GetDB()

	// Find the owning customer
	var customer models.Customer
	if err := db.Where("id = ?", request.CustomerID).First(&customer).Error; err != nil {
		handleError(c, http.StatusNotFound, "Customer not found", err)
		return
	}

	item := models.WarrantyItem{
		CustomerID:           customer.ID,
		ProductName:          request.ProductName,
		Category:             request.Category,
		Model:                request.Model,
		SerialNumber:         request.SerialNumber,
		PurchaseDate:         datatypes.Date(purchaseDate),
		WarrantyPeriodMonths: request.WarrantyPeriodMonths,
		ExpiryDate:           datatypes.Date(models.AddMonthsClamped(purchaseDate, request.WarrantyPeriodMonths)),
	}

	if err := db.Create(&item).Error; err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to create warranty item", err)
		return
	}

	// Confirmation email is best-effort; registration succeeds without it
	if customer.Email != "" {
		go func() {
			if err := services.NewEmailService().SendRegistrationConfirmation(customer, item); err != nil {
				log.Printf("Warning: Failed to send registration confirmation: %v", err)
			}
		}()
	}

	c.JSON(http.StatusCreated, item)
}

// GetWarrantyItems handles listing warranty items with filtering and
// pagination, soonest expiry first
func GetWarrantyItems(c *gin.Context) {
	db := database.GetDB()
	var items []models.WarrantyItem

	query := db.Preload("Customer")

	// Filtering
	if customerID := c.Query("customer_id"); customerID != "" {
		query = query.Where("customer_id = ?", customerID)
	}
	if category := c.Query("category"); category != "" {
		query = query.Where("category = ?", category)
	}
	if expiresBefore := c.Query("expires_before"); expiresBefore != "" {
		query = query.Where("expiry_date <= ?", expiresBefore)
	}
	if expiresAfter := c.Query("expires_after"); expiresAfter != "" {
		query = query.Where("expiry_date >= ?", expiresAfter)
	}

	query = query.Order("expiry_date asc")

	// Pagination with defaults
	limitStr := c.DefaultQuery("limit", "50")
	offsetStr := c.DefaultQuery("offset", "0")
	limit, err1 := strconv.Atoi(limitStr)
	if err1 != nil || limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200 // max limit
	}
	offset, err2 := strconv.Atoi(offsetStr)
	if err2 != nil || offset < 0 {
		offset = 0
	}
	query = query.Limit(limit).Offset(offset)

	if err := query.Find(&items).Error; err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to fetch warranty items", err)
		return
	}

	c.JSON(http.StatusOK, items)
}

// GetWarrantyItemByID handles fetching a single warranty item
func GetWarrantyItemByID(c *gin.Context) {
	itemID := c.Param("item_id")
	db := database.GetDB()

	var item models.WarrantyItem
	if err := db.Preload("Customer").Where("id = ?", itemID).First(&item).Error; err != nil {
		handleError(c, http.StatusNotFound, "Warranty item not found", err)
		return
	}

	c.JSON(http.StatusOK, item)
}
