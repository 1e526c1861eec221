package repository

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/vibast-solutions/ms-go-paybot/app/entity"
)

func fixedClock(t *testing.T, at time.Time) {
	t.Helper()
	old := timeNow
	timeNow = func() time.Time { return at }
	t.Cleanup(func() { timeNow = old })
}

func createParams(userID, orderID string) CreateSubscriptionParams {
	return CreateSubscriptionParams{
		UserID:       userID,
		PaymentID:    "pay-" + orderID,
		OrderID:      orderID,
		Amount:       "1000",
		Currency:     "RUB",
		DurationDays: 30,
	}
}

func TestCreateSetsPeriodAndStatus(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	fixedClock(t, now)

	store := NewSubscriptionStore()
	sub, err := store.Create(createParams("user-1", "order-1"))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if sub.ID == "" {
		t.Fatal("expected generated subscription id")
	}
	if sub.Status != entity.SubscriptionStatusActive {
		t.Fatalf("unexpected status: %d", sub.Status)
	}
	if !sub.StartAt.Equal(now) {
		t.Fatalf("unexpected start: %v", sub.StartAt)
	}
	if !sub.EndAt.Equal(now.Add(30 * 24 * time.Hour)) {
		t.Fatalf("unexpected end: %v", sub.EndAt)
	}
	if !sub.EndAt.After(sub.StartAt) {
		t.Fatal("end date must be strictly after start date")
	}
}

func TestCreateRejectsNonPositiveDuration(t *testing.T) {
	store := NewSubscriptionStore()

	for _, days := range []int{0, -7} {
		params := createParams("user-1", "order-1")
		params.DurationDays = days
		if _, err := store.Create(params); !errors.Is(err, ErrInvalidDuration) {
			t.Fatalf("days=%d: expected ErrInvalidDuration, got %v", days, err)
		}
	}

	if stats := store.Stats(); stats.Total != 0 {
		t.Fatalf("rejected create must not add a record, total=%d", stats.Total)
	}
	// The order id was never committed, so a corrected retry succeeds.
	if _, err := store.Create(createParams("user-1", "order-1")); err != nil {
		t.Fatalf("retry with valid duration failed: %v", err)
	}
}

func TestCreateRejectsDuplicateOrder(t *testing.T) {
	store := NewSubscriptionStore()

	if _, err := store.Create(createParams("user-1", "order-42")); err != nil {
		t.Fatalf("first create failed: %v", err)
	}
	_, err := store.Create(createParams("user-2", "order-42"))
	if !errors.Is(err, ErrDuplicateOrder) {
		t.Fatalf("expected ErrDuplicateOrder, got %v", err)
	}

	if stats := store.Stats(); stats.Total != 1 {
		t.Fatalf("duplicate order must not add a record, total=%d", stats.Total)
	}
}

func TestCreateConcurrentSameOrder(t *testing.T) {
	store := NewSubscriptionStore()

	const workers = 16
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = store.Create(createParams("user-1", "order-1"))
		}(i)
	}
	wg.Wait()

	created := 0
	for _, err := range errs {
		if err == nil {
			created++
		} else if !errors.Is(err, ErrDuplicateOrder) {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if created != 1 {
		t.Fatalf("expected exactly one successful create, got %d", created)
	}
	if stats := store.Stats(); stats.Total != 1 {
		t.Fatalf("expected one record, got %d", stats.Total)
	}
}

func TestFindActiveForUserIgnoresExpiry(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	fixedClock(t, now)

	store := NewSubscriptionStore()
	if _, err := store.Create(createParams("user-1", "order-1")); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	// Jump past the end date: the record keeps its active status even though
	// the paid period is over.
	fixedClock(t, now.Add(31*24*time.Hour))

	if sub := store.FindActiveForUser("user-1"); sub == nil {
		t.Fatal("expected active-status record regardless of expiry")
	}
	if store.IsCurrentlyEntitled("user-1") {
		t.Fatal("expired subscription must not be entitled")
	}
}

func TestIsCurrentlyEntitled(t *testing.T) {
	store := NewSubscriptionStore()
	if store.IsCurrentlyEntitled("user-1") {
		t.Fatal("user without subscription must not be entitled")
	}

	if _, err := store.Create(createParams("user-1", "order-1")); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if !store.IsCurrentlyEntitled("user-1") {
		t.Fatal("expected entitlement right after create")
	}
}

func TestFindActiveForUserFirstMatchWins(t *testing.T) {
	store := NewSubscriptionStore()
	first, err := store.Create(createParams("user-1", "order-1"))
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := store.Create(createParams("user-1", "order-2")); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	got := store.FindActiveForUser("user-1")
	if got == nil || got.ID != first.ID {
		t.Fatalf("expected first record by insertion order, got %+v", got)
	}
}

func TestExtendMovesEndDate(t *testing.T) {
	store := NewSubscriptionStore()
	created, err := store.Create(createParams("user-1", "order-1"))
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	extended, err := store.Extend("user-1", 7)
	if err != nil {
		t.Fatalf("extend failed: %v", err)
	}
	if !extended.EndAt.Equal(created.EndAt.Add(7 * 24 * time.Hour)) {
		t.Fatalf("unexpected end date: %v", extended.EndAt)
	}
}

func TestExtendWithoutActiveSubscription(t *testing.T) {
	store := NewSubscriptionStore()
	if _, err := store.Extend("user-1", 7); !errors.Is(err, ErrSubscriptionNotFound) {
		t.Fatalf("expected ErrSubscriptionNotFound, got %v", err)
	}

	// A cancelled-only user has no active record either.
	if _, err := store.Create(createParams("user-1", "order-1")); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := store.Cancel("user-1"); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if _, err := store.Extend("user-1", 7); !errors.Is(err, ErrSubscriptionNotFound) {
		t.Fatalf("expected ErrSubscriptionNotFound after cancel, got %v", err)
	}
}

func TestCancelKeepsRecordForStats(t *testing.T) {
	store := NewSubscriptionStore()
	if _, err := store.Create(createParams("user-1", "order-1")); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := store.Create(createParams("user-2", "order-2")); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	cancelled, err := store.Cancel("user-1")
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if cancelled.Status != entity.SubscriptionStatusCancelled {
		t.Fatalf("unexpected status: %d", cancelled.Status)
	}

	stats := store.Stats()
	if stats.Total != 2 || stats.Active != 1 || stats.Cancelled != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestReturnedRecordsAreCopies(t *testing.T) {
	store := NewSubscriptionStore()
	if _, err := store.Create(createParams("user-1", "order-1")); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	sub := store.FindActiveForUser("user-1")
	sub.Status = entity.SubscriptionStatusCancelled

	if stats := store.Stats(); stats.Active != 1 {
		t.Fatal("mutating a returned record must not affect the store")
	}
}
