package main

import (
	"fmt"
	"log"

	"warrantycare/internal/database"
	"warrantycare/internal/handlers"
	"warrantycare/internal/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

// This is our main function - the entry point of our application
func main() {
	// Load .env in development; ignore when absent (production sets real env vars)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Initialize database
	if err := database.InitDB(); err != nil {
		log.Fatal("Failed to initialize database:", err)
	}

	// Start the background reminder worker
	worker, err := services.NewReminderWorker()
	if err != nil {
		log.Fatal("Failed to configure reminder worker:", err)
	}
	worker.Start()

	// Initialize Gin router
	router := gin.Default()

	// Configure trusted proxies
	router.SetTrustedProxies([]string{"127.0.0.1"})

	// Allow the portal frontend to call the API
	router.Use(cors.Default())

	// Basic routes
	router.GET("/", handlers.HomeHandler)
	router.GET("/health", handlers.HealthHandler)

	// Customer routes
	router.POST("/customers", handlers.CreateCustomer)
	router.GET("/customers", handlers.GetCustomers)
	router.GET("/customers/:customer_id", handlers.GetCustomerByID)

	// Warranty item routes
	router.POST("/warranties", handlers.CreateWarrantyItem)
	router.GET("/warranties", handlers.GetWarrantyItems)
	router.GET("/warranties/:item_id", handlers.GetWarrantyItemByID)

	// Reminder routes
	router.GET("/reminders/logs", handlers.GetReminderLogs)
	router.POST("/reminders/run", handlers.RunReminderSweep(worker.Engine()))

	// Dashboard route
	router.GET("/dashboard", handlers.GetDashboardStats)

	// Start the server
	fmt.Println("Server starting on port 8080...")
	if err := router.Run(":8080"); err != nil {
		log.Fatal(err)
	}
}
