package main

import (
	"context"
	"log"
	"time"

	"warrantycare/internal/database"
	"warrantycare/internal/services"

	"github.com/joho/godotenv"
)

// One-shot entry point for an external scheduler (cron, systemd timer).
// Exits non-zero only on setup failure: bad offset configuration or an
// unreachable database. Per-item delivery failures are recorded in the
// reminder log and reported in the summary, not the exit status.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	if err := database.InitDB(); err != nil {
		log.Fatal("Failed to initialize database:", err)
	}

	worker, err := services.NewReminderWorker()
	if err != nil {
		log.Fatal("Failed to configure reminder engine:", err)
	}

	summary, err := worker.Engine().RunReminderSweep(context.Background(), time.Now())
	if err != nil {
		log.Fatal("Reminder sweep failed:", err)
	}

	for offset, result := range summary.Offsets {
		log.Printf("Offset %d days: sent=%d failed=%d errors=%d skipped=%d",
			offset, result.Sent, result.Failed, result.Errors, result.Skipped)
	}
}
