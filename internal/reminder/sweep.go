package reminder

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"warrantycare/internal/models"
)

// ErrDuplicateSent is returned by Repository.AppendLog when a "sent" record
// for the same (item, offset) pair already exists. Benign: another run got
// there first.
var ErrDuplicateSent = errors.New("sent reminder already recorded for this item and offset")

// DeliveryError marks an explicit rejection by the messaging provider
// (bad phone number, undeliverable destination). Anything else returned by
// a Channel is treated as a transient fault.
type DeliveryError struct {
	Detail string
}

func (e *DeliveryError) Error() string {
	return e.Detail
}

// Repository is the engine's view of durable state
type Repository interface {
	Ping(ctx context.Context) error
	ItemsExpiringOn(ctx context.Context, date time.Time) ([]models.WarrantyItem, error)
	HasSentReminder(ctx context.Context, itemID string, offset int) (bool, error)
	AppendLog(ctx context.Context, entry *models.ReminderLog) error
}

// Channel sends one message to one recipient and reports the provider's
// reference for it
type Channel interface {
	Send(ctx context.Context, recipient, body string) (providerRef string, err error)
}

// OffsetResult counts outcomes for a single offset bucket
type OffsetResult struct {
	Sent    int `json:"sent"`
	Failed  int `json:"failed"`
	Errors  int `json:"errors"`
	Skipped int `json:"skipped"`
}

// Summary is the result of one full sweep
type Summary struct {
	Date    time.Time             `json:"date"`
	Offsets map[int]*OffsetResult `json:"offsets"`
}

func (s Summary) TotalSent() int {
	total := 0
	for _, r := range s.Offsets {
		total += r.Sent
	}
	return total
}

// Engine runs reminder sweeps. All durable state lives behind Repository;
// the engine itself only holds read-only configuration.
type Engine struct {
	repo        Repository
	channel     Channel
	offsets     []int
	sendTimeout time.Duration
}

// NewEngine validates the offset configuration and builds an engine
func NewEngine(repo Repository, channel Channel, offsets []int, sendTimeout time.Duration) (*Engine, error) {
	if err := ValidateOffsets(offsets); err != nil {
		return nil, err
	}
	if sendTimeout <= 0 {
		sendTimeout = 10 * time.Second
	}
	return &Engine{
		repo:        repo,
		channel:     channel,
		offsets:     offsets,
		sendTimeout: sendTimeout,
	}, nil
}

// RunReminderSweep executes one reminder sweep for the given moment. The
// sweep date is derived once from now and held stable for the whole run.
// It returns an error only for sweep-level conditions (repository
// unreachable, candidate query failure); per-item failures are recorded in
// the reminder log and the summary and never abort the run.
func (e *Engine) RunReminderSweep(ctx context.Context, now time.Time) (Summary, error) {
	summary := Summary{Date: DateOnly(now), Offsets: make(map[int]*OffsetResult)}

	if err := e.repo.Ping(ctx); err != nil {
		return summary, fmt.Errorf("repository unreachable: %w", err)
	}

	for _, target := range TargetDates(now, e.offsets) {
		result := &OffsetResult{}
		summary.Offsets[target.Offset] = result

		items, err := e.repo.ItemsExpiringOn(ctx, target.Date)
		if err != nil {
			return summary, fmt.Errorf("querying items expiring on %s: %w", target.Date.Format("2006-01-02"), err)
		}
		if len(items) == 0 {
			continue
		}
		log.Printf("Found %d warranties expiring in %d days (%s)", len(items), target.Offset, target.Date.Format("2006-01-02"))

		for _, item := range items {
			e.processItem(ctx, item, target, result)
		}
	}

	return summary, nil
}

func (e *Engine) processItem(ctx context.Context, item models.WarrantyItem, target Target, result *OffsetResult) {
	alreadySent, err := e.repo.HasSentReminder(ctx, item.ID, target.Offset)
	if err != nil {
		log.Printf("Error: dedup check failed for warranty item %s: %v", item.ID, err)
		e.appendLog(ctx, item, target, models.ReminderError, "", "", err.Error(), result)
		return
	}
	if alreadySent {
		result.Skipped++
		return
	}

	if item.Customer.PhoneNumber == "" {
		e.appendLog(ctx, item, target, models.ReminderError, "", "", "customer has no phone number", result)
		return
	}

	body := RenderMessage(item, target)

	sendCtx, cancel := context.WithTimeout(ctx, e.sendTimeout)
	providerRef, sendErr := e.channel.Send(sendCtx, item.Customer.PhoneNumber, body)
	cancel()

	var rejection *DeliveryError
	switch {
	case sendErr == nil:
		e.appendLog(ctx, item, target, models.ReminderSent, body, providerRef, "", result)
	case errors.As(sendErr, &rejection):
		log.Printf("Error: delivery rejected for warranty item %s: %v", item.ID, rejection)
		e.appendLog(ctx, item, target, models.ReminderFailed, body, "", rejection.Detail, result)
	default:
		log.Printf("Error: send failed for warranty item %s: %v", item.ID, sendErr)
		e.appendLog(ctx, item, target, models.ReminderError, body, "", sendErr.Error(), result)
	}
}

func (e *Engine) appendLog(ctx context.Context, item models.WarrantyItem, target Target, status models.ReminderStatus, body, providerRef, detail string, result *OffsetResult) {
	entry := &models.ReminderLog{
		WarrantyItemID:   item.ID,
		CustomerID:       item.CustomerID,
		DaysBeforeExpiry: target.Offset,
		Status:           status,
		Message:          body,
		ProviderRef:      providerRef,
		ErrorDetail:      detail,
		SentAt:           time.Now(),
	}
	if err := e.repo.AppendLog(ctx, entry); err != nil {
		if errors.Is(err, ErrDuplicateSent) {
			// A concurrent run already recorded a sent reminder for this
			// pair; nothing to do.
			log.Printf("Reminder already recorded for warranty item %s at offset %d, skipping", item.ID, target.Offset)
			result.Skipped++
			return
		}
		log.Printf("Error: failed to append reminder log for warranty item %s: %v", item.ID, err)
		result.Errors++
		return
	}

	switch status {
	case models.ReminderSent:
		result.Sent++
	case models.ReminderFailed:
		result.Failed++
	default:
		result.Errors++
	}
}

// RenderMessage builds the SMS body for one reminder
func RenderMessage(item models.WarrantyItem, target Target) string {
	dayWord := "days"
	if target.Offset == 1 {
		dayWord = "day"
	}
	return fmt.Sprintf("Hi %s, your LG %s warranty expires in %d %s on %s. Please contact us if you need assistance.",
		item.Customer.Name, item.ProductName, target.Offset, dayWord, target.Date.Format("2006-01-02"))
}
