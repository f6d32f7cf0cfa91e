package handlers

import (
	"fmt"
	"log"
	"net/http"

	"warrantycare/internal/database"
	"warrantycare/internal/models"

	"github.com/gin-gonic/gin"
)

// CreateCustomer handles registration of a new customer
func CreateCustomer(c *gin.Context) {
	var request models.CreateCustomerRequest

	if err := c.ShouldBindJSON(&request); err != nil {
		log.Printf("Error: Invalid input: %s", err.Error())
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Invalid input: %s", err.Error())})
		return
	}

	customer := models.Customer{
		Name:        request.Name,
		PhoneNumber: request.PhoneNumber,
		Email:       request.Email,
	}

	db := database.GetDB()
	if err := db.Create(&customer).Error; err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to create customer", err)
		return
	}

	c.JSON(http.StatusCreated, customer)
}

// GetCustomers handles listing customers, newest first
func GetCustomers(c *gin.Context) {
	db := database.GetDB()
	var customers []models.Customer

	query := db.Order("created_at desc")
	if name := c.Query("name"); name != "" {
		query = query.Where("name ILIKE ?", "%"+name+"%")
	}

	if err := query.Find(&customers).Error; err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to fetch customers", err)
		return
	}

	c.JSON(http.StatusOK, customers)
}

// GetCustomerByID handles fetching one customer with their warranty items
func GetCustomerByID(c *gin.Context) {
	customerID := c.Param("customer_id")
	db := database.GetDB()

	var customer models.Customer
	if err := db.Preload("WarrantyItems").Where("id = ?", customerID).First(&customer).Error; err != nil {
		handleError(c, http.StatusNotFound, "Customer not found", err)
		return
	}

	c.JSON(http.StatusOK, customer)
}
