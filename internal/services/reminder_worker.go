package services

import (
	"context"
	"log"
	"os"
	"time"

	"warrantycare/internal/database"
	"warrantycare/internal/reminder"
	"warrantycare/internal/repository"
)

// ReminderWorker drives the sweep engine on a fixed interval. Running more
// often than daily is harmless: the reminder log deduplicates, so extra
// runs within the same day send nothing new.
type ReminderWorker struct {
	engine   *reminder.Engine
	interval time.Duration
}

func NewReminderWorker() (*ReminderWorker, error) {
	offsets, err := reminder.OffsetsFromEnv()
	if err != nil {
		return nil, err
	}

	repo := repository.NewWarrantyRepo(database.GetDB())
	engine, err := reminder.NewEngine(repo, NewSMSService(), offsets, sendTimeoutFromEnv())
	if err != nil {
		return nil, err
	}

	interval := time.Hour
	if raw := os.Getenv("REMINDER_CHECK_INTERVAL"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return nil, err
		}
		interval = parsed
	}

	return &ReminderWorker{engine: engine, interval: interval}, nil
}

// Engine exposes the sweep engine for the manual-trigger handler
func (w *ReminderWorker) Engine() *reminder.Engine {
	return w.engine
}

func (w *ReminderWorker) Start() {
	go w.run()
}

func (w *ReminderWorker) run() {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for range ticker.C {
		summary, err := w.engine.RunReminderSweep(context.Background(), time.Now())
		if err != nil {
			log.Printf("Error: reminder sweep failed: %v", err)
			continue
		}
		if summary.TotalSent() > 0 {
			log.Printf("Reminder sweep for %s sent %d reminders", summary.Date.Format("2006-01-02"), summary.TotalSent())
		}
	}
}

func sendTimeoutFromEnv() time.Duration {
	raw := os.Getenv("REMINDER_SEND_TIMEOUT")
	if raw == "" {
		return 10 * time.Second
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		log.Printf("Warning: invalid REMINDER_SEND_TIMEOUT %q, using default", raw)
		return 10 * time.Second
	}
	return parsed
}
