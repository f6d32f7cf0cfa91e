package reminder

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"
	"time"

	"warrantycare/internal/models"
)

// fakeRepo mimics the store, including the at-most-one-sent constraint the
// real partial unique index enforces.
type fakeRepo struct {
	items    map[string][]models.WarrantyItem // keyed by expiry date
	logs     []models.ReminderLog
	pingErr  error
	queryErr error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{items: make(map[string][]models.WarrantyItem)}
}

func (r *fakeRepo) addItem(item models.WarrantyItem, expiry time.Time) {
	key := expiry.Format("2006-01-02")
	r.items[key] = append(r.items[key], item)
}

func (r *fakeRepo) Ping(ctx context.Context) error {
	return r.pingErr
}

func (r *fakeRepo) ItemsExpiringOn(ctx context.Context, d time.Time) ([]models.WarrantyItem, error) {
	if r.queryErr != nil {
		return nil, r.queryErr
	}
	return r.items[d.Format("2006-01-02")], nil
}

func (r *fakeRepo) HasSentReminder(ctx context.Context, itemID string, offset int) (bool, error) {
	for _, entry := range r.logs {
		if entry.WarrantyItemID == itemID && entry.DaysBeforeExpiry == offset && entry.Status == models.ReminderSent {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeRepo) AppendLog(ctx context.Context, entry *models.ReminderLog) error {
	if entry.Status == models.ReminderSent {
		for _, existing := range r.logs {
			if existing.WarrantyItemID == entry.WarrantyItemID &&
				existing.DaysBeforeExpiry == entry.DaysBeforeExpiry &&
				existing.Status == models.ReminderSent {
				return ErrDuplicateSent
			}
		}
	}
	r.logs = append(r.logs, *entry)
	return nil
}

func (r *fakeRepo) sentCount() int {
	count := 0
	for _, entry := range r.logs {
		if entry.Status == models.ReminderSent {
			count++
		}
	}
	return count
}

type fakeChannel struct {
	calls      []string // recipients, in call order
	rejections map[string]string
	faults     map[string]error
	delay      time.Duration
}

func (ch *fakeChannel) Send(ctx context.Context, recipient, body string) (string, error) {
	ch.calls = append(ch.calls, recipient)
	if ch.delay > 0 {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(ch.delay):
		}
	}
	if detail, ok := ch.rejections[recipient]; ok {
		return "", &DeliveryError{Detail: detail}
	}
	if err, ok := ch.faults[recipient]; ok {
		return "", err
	}
	return fmt.Sprintf("SM%d", len(ch.calls)), nil
}

func testItem(id, product, phone string) models.WarrantyItem {
	return models.WarrantyItem{
		ID:          id,
		CustomerID:  "cust-" + id,
		ProductName: product,
		Customer:    models.Customer{ID: "cust-" + id, Name: "Kim", PhoneNumber: phone},
	}
}

func newTestEngine(t *testing.T, repo Repository, ch Channel, offsets []int) *Engine {
	t.Helper()
	engine, err := NewEngine(repo, ch, offsets, time.Second)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return engine
}

func TestNewEngineRejectsInvalidOffsets(t *testing.T) {
	if _, err := NewEngine(newFakeRepo(), &fakeChannel{}, []int{0}, time.Second); err == nil {
		t.Error("expected error for non-positive offset")
	}
	if _, err := NewEngine(newFakeRepo(), &fakeChannel{}, []int{5, 5}, time.Second); err == nil {
		t.Error("expected error for duplicate offsets")
	}
}

// Scenario: item expires 2025-03-15, sweep on 2025-02-28 (15 days prior)
// sends exactly one reminder at offset 15.
func TestSweepSendsAtMatchingOffset(t *testing.T) {
	repo := newFakeRepo()
	repo.addItem(testItem("w1", "ThinQ Refrigerator", "+6511111111"), date(2025, 3, 15))
	ch := &fakeChannel{}
	engine := newTestEngine(t, repo, ch, []int{15, 10, 1})

	summary, err := engine.RunReminderSweep(context.Background(), date(2025, 2, 28))
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}

	if len(ch.calls) != 1 {
		t.Fatalf("expected 1 send, got %d", len(ch.calls))
	}
	if summary.Offsets[15].Sent != 1 {
		t.Errorf("offset 15 sent = %d, expected 1", summary.Offsets[15].Sent)
	}
	if len(repo.logs) != 1 || repo.logs[0].Status != models.ReminderSent || repo.logs[0].DaysBeforeExpiry != 15 {
		t.Errorf("unexpected log state: %+v", repo.logs)
	}
	if repo.logs[0].ProviderRef == "" {
		t.Error("sent log should carry the provider reference")
	}
}

// Re-running the identical sweep must not call the channel again and must
// not grow the log.
func TestSweepIdempotentWithinDay(t *testing.T) {
	repo := newFakeRepo()
	repo.addItem(testItem("w1", "OLED TV", "+6511111111"), date(2025, 3, 15))
	ch := &fakeChannel{}
	engine := newTestEngine(t, repo, ch, []int{15, 10, 1})

	now := date(2025, 2, 28)
	if _, err := engine.RunReminderSweep(context.Background(), now); err != nil {
		t.Fatalf("first sweep failed: %v", err)
	}
	summary, err := engine.RunReminderSweep(context.Background(), now)
	if err != nil {
		t.Fatalf("second sweep failed: %v", err)
	}

	if len(ch.calls) != 1 {
		t.Errorf("expected 1 send across both runs, got %d", len(ch.calls))
	}
	if len(repo.logs) != 1 {
		t.Errorf("expected 1 log row, got %d", len(repo.logs))
	}
	if summary.Offsets[15].Skipped != 1 {
		t.Errorf("second run should skip the already-sent pair, got %+v", summary.Offsets[15])
	}
}

// Scenario: a sent record at offset 15 exists; a sweep 10 days before
// expiry sends for offset 10 only and leaves the offset-15 pair untouched.
func TestSweepLaterOffsetAfterEarlierSent(t *testing.T) {
	repo := newFakeRepo()
	repo.addItem(testItem("w1", "Washing Machine", "+6511111111"), date(2025, 3, 15))
	ch := &fakeChannel{}
	engine := newTestEngine(t, repo, ch, []int{15, 10, 1})

	if _, err := engine.RunReminderSweep(context.Background(), date(2025, 2, 28)); err != nil {
		t.Fatalf("first sweep failed: %v", err)
	}
	summary, err := engine.RunReminderSweep(context.Background(), date(2025, 3, 5))
	if err != nil {
		t.Fatalf("second sweep failed: %v", err)
	}

	if len(ch.calls) != 2 {
		t.Fatalf("expected 2 sends total, got %d", len(ch.calls))
	}
	if summary.Offsets[10].Sent != 1 {
		t.Errorf("offset 10 sent = %d, expected 1", summary.Offsets[10].Sent)
	}
	if repo.sentCount() != 2 {
		t.Errorf("expected one sent log per offset, got %d", repo.sentCount())
	}
}

// One item's rejection or fault must not stop the others, and the summary
// must report every outcome.
func TestSweepPartialFailureIsolation(t *testing.T) {
	repo := newFakeRepo()
	expiry := date(2025, 3, 15)
	repo.addItem(testItem("wa", "Refrigerator", "+65-bad-number"), expiry)
	repo.addItem(testItem("wb", "Microwave", "+6522222222"), expiry)
	repo.addItem(testItem("wc", "Dryer", "+6533333333"), expiry)
	ch := &fakeChannel{
		rejections: map[string]string{"+65-bad-number": "invalid 'To' phone number"},
		faults:     map[string]error{"+6533333333": errors.New("connection reset")},
	}
	engine := newTestEngine(t, repo, ch, []int{15})

	summary, err := engine.RunReminderSweep(context.Background(), date(2025, 2, 28))
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}

	result := summary.Offsets[15]
	if result.Sent != 1 || result.Failed != 1 || result.Errors != 1 {
		t.Errorf("summary = %+v, expected sent=1 failed=1 errors=1", result)
	}
	if len(repo.logs) != 3 {
		t.Fatalf("expected 3 log rows, got %d", len(repo.logs))
	}
	for _, entry := range repo.logs {
		if entry.WarrantyItemID == "wa" && entry.Status != models.ReminderFailed {
			t.Errorf("rejected item logged as %s", entry.Status)
		}
		if entry.WarrantyItemID == "wa" && entry.ErrorDetail == "" {
			t.Error("failed log should carry the provider error detail")
		}
		if entry.WarrantyItemID == "wc" && entry.Status != models.ReminderError {
			t.Errorf("faulted item logged as %s", entry.Status)
		}
	}
}

// Processing offsets in any order must produce the same log records.
func TestSweepOrderIndependence(t *testing.T) {
	run := func(offsets []int) []string {
		repo := newFakeRepo()
		repo.addItem(testItem("w1", "TV", "+6511111111"), date(2025, 3, 15))
		repo.addItem(testItem("w2", "Soundbar", "+6522222222"), date(2025, 3, 10))
		repo.addItem(testItem("w3", "Monitor", "+6533333333"), date(2025, 3, 1))
		engine := newTestEngine(t, repo, &fakeChannel{}, offsets)
		if _, err := engine.RunReminderSweep(context.Background(), date(2025, 2, 28)); err != nil {
			t.Fatalf("sweep failed: %v", err)
		}
		keys := make([]string, 0, len(repo.logs))
		for _, entry := range repo.logs {
			keys = append(keys, fmt.Sprintf("%s/%d/%s", entry.WarrantyItemID, entry.DaysBeforeExpiry, entry.Status))
		}
		sort.Strings(keys)
		return keys
	}

	forward := run([]int{15, 10, 1})
	reverse := run([]int{1, 10, 15})

	if len(forward) != len(reverse) {
		t.Fatalf("log counts differ: %d vs %d", len(forward), len(reverse))
	}
	for i := range forward {
		if forward[i] != reverse[i] {
			t.Errorf("log records differ at %d: %s vs %s", i, forward[i], reverse[i])
		}
	}
}

// A pre-existing sent record suppresses the channel call entirely.
func TestSweepNeverResendsAcrossRuns(t *testing.T) {
	repo := newFakeRepo()
	repo.addItem(testItem("w1", "Air Conditioner", "+6511111111"), date(2025, 3, 15))
	repo.logs = append(repo.logs, models.ReminderLog{
		WarrantyItemID:   "w1",
		DaysBeforeExpiry: 15,
		Status:           models.ReminderSent,
		SentAt:           time.Now(),
	})
	ch := &fakeChannel{}
	engine := newTestEngine(t, repo, ch, []int{15})

	if _, err := engine.RunReminderSweep(context.Background(), date(2025, 2, 28)); err != nil {
		t.Fatalf("sweep failed: %v", err)
	}

	if len(ch.calls) != 0 {
		t.Errorf("expected no channel calls, got %d", len(ch.calls))
	}
	if len(repo.logs) != 1 {
		t.Errorf("log should be unchanged, got %d rows", len(repo.logs))
	}
}

// A failed attempt does not block a retry on a later run the same day.
func TestSweepRetriesAfterFailure(t *testing.T) {
	repo := newFakeRepo()
	repo.addItem(testItem("w1", "Vacuum", "+6511111111"), date(2025, 3, 15))
	ch := &fakeChannel{rejections: map[string]string{"+6511111111": "carrier rejected"}}
	engine := newTestEngine(t, repo, ch, []int{15})

	now := date(2025, 2, 28)
	if _, err := engine.RunReminderSweep(context.Background(), now); err != nil {
		t.Fatalf("first sweep failed: %v", err)
	}

	// Provider recovers before the next run
	ch.rejections = nil
	summary, err := engine.RunReminderSweep(context.Background(), now)
	if err != nil {
		t.Fatalf("second sweep failed: %v", err)
	}

	if summary.Offsets[15].Sent != 1 {
		t.Errorf("retry after failure should send, got %+v", summary.Offsets[15])
	}
	if repo.sentCount() != 1 {
		t.Errorf("expected exactly one sent log, got %d", repo.sentCount())
	}
	if len(repo.logs) != 2 {
		t.Errorf("expected failed + sent logs, got %d rows", len(repo.logs))
	}
}

// A send that outlives its timeout is recorded as an error outcome.
func TestSweepSendTimeout(t *testing.T) {
	repo := newFakeRepo()
	repo.addItem(testItem("w1", "Range Hood", "+6511111111"), date(2025, 3, 15))
	ch := &fakeChannel{delay: 5 * time.Second}
	engine, err := NewEngine(repo, ch, []int{15}, 20*time.Millisecond)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	summary, err := engine.RunReminderSweep(context.Background(), date(2025, 2, 28))
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}

	if summary.Offsets[15].Errors != 1 {
		t.Errorf("timeout should count as error, got %+v", summary.Offsets[15])
	}
	if len(repo.logs) != 1 || repo.logs[0].Status != models.ReminderError {
		t.Errorf("timeout should be logged as error, got %+v", repo.logs)
	}
}

// Losing the duplicate-sent race is a benign skip, never a failure.
func TestSweepDuplicateSentRaceIsBenign(t *testing.T) {
	repo := &racingRepo{fakeRepo: newFakeRepo()}
	repo.addItem(testItem("w1", "Dishwasher", "+6511111111"), date(2025, 3, 15))
	ch := &fakeChannel{}
	engine := newTestEngine(t, repo, ch, []int{15})

	summary, err := engine.RunReminderSweep(context.Background(), date(2025, 2, 28))
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}

	result := summary.Offsets[15]
	if result.Skipped != 1 || result.Sent != 0 || result.Failed != 0 || result.Errors != 0 {
		t.Errorf("duplicate race should be a skip, got %+v", result)
	}
}

// racingRepo reports no sent record at check time but rejects the insert,
// simulating a concurrent sweep winning the race in between.
type racingRepo struct {
	*fakeRepo
}

func (r *racingRepo) HasSentReminder(ctx context.Context, itemID string, offset int) (bool, error) {
	return false, nil
}

func (r *racingRepo) AppendLog(ctx context.Context, entry *models.ReminderLog) error {
	if entry.Status == models.ReminderSent {
		return ErrDuplicateSent
	}
	return r.fakeRepo.AppendLog(ctx, entry)
}

func TestSweepFatalWhenRepositoryUnreachable(t *testing.T) {
	repo := newFakeRepo()
	repo.pingErr = errors.New("connection refused")
	ch := &fakeChannel{}
	engine := newTestEngine(t, repo, ch, []int{15})

	if _, err := engine.RunReminderSweep(context.Background(), date(2025, 2, 28)); err == nil {
		t.Fatal("expected sweep-level error when repository is unreachable")
	}
	if len(ch.calls) != 0 {
		t.Errorf("no sends expected, got %d", len(ch.calls))
	}
}

func TestSweepFatalWhenCandidateQueryFails(t *testing.T) {
	repo := newFakeRepo()
	repo.queryErr = errors.New("relation does not exist")
	engine := newTestEngine(t, repo, &fakeChannel{}, []int{15})

	if _, err := engine.RunReminderSweep(context.Background(), date(2025, 2, 28)); err == nil {
		t.Fatal("expected sweep-level error when the candidate query fails")
	}
}

func TestRenderMessage(t *testing.T) {
	item := testItem("w1", "ThinQ Refrigerator", "+6511111111")

	plural := RenderMessage(item, Target{Offset: 15, Date: date(2025, 3, 15)})
	want := "Hi Kim, your LG ThinQ Refrigerator warranty expires in 15 days on 2025-03-15. Please contact us if you need assistance."
	if plural != want {
		t.Errorf("RenderMessage = %q, expected %q", plural, want)
	}

	singular := RenderMessage(item, Target{Offset: 1, Date: date(2025, 3, 15)})
	if singular != "Hi Kim, your LG ThinQ Refrigerator warranty expires in 1 day on 2025-03-15. Please contact us if you need assistance." {
		t.Errorf("unexpected singular message: %q", singular)
	}
}
