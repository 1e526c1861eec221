// Package repository holds the authoritative in-memory subscription state.
// A single store instance is constructed at process start and injected into
// the services that need it; records are never deleted, cancelled ones stay
// for audit and statistics.
package repository

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vibast-solutions/ms-go-paybot/app/entity"
)

var (
	ErrSubscriptionNotFound = errors.New("no active subscription found")
	ErrDuplicateOrder       = errors.New("order already processed")
	ErrInvalidDuration      = errors.New("subscription duration must be positive")
)

// timeNow is swapped out in tests to exercise expiry.
var timeNow = func() time.Time { return time.Now().UTC() }

type CreateSubscriptionParams struct {
	UserID       string
	PaymentID    string
	OrderID      string
	Amount       string
	Currency     string
	DurationDays int
}

// SubscriptionStore keeps every subscription record in insertion order plus
// an append-only index from order id to subscription id. One mutex guards
// both so the dedup check and the insert are a single critical section.
type SubscriptionStore struct {
	mu            sync.Mutex
	subscriptions []*entity.Subscription
	orders        map[string]string
}

func NewSubscriptionStore() *SubscriptionStore {
	return &SubscriptionStore{
		subscriptions: make([]*entity.Subscription, 0),
		orders:        make(map[string]string),
	}
}

// Create records a new subscription for a first-time order id. A repeated
// order id returns ErrDuplicateOrder without touching state; two concurrent
// calls for the same order id produce exactly one record. DurationDays must
// be positive so EndAt lands strictly after StartAt.
func (s *SubscriptionStore) Create(params CreateSubscriptionParams) (*entity.Subscription, error) {
	if params.DurationDays <= 0 {
		return nil, ErrInvalidDuration
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.orders[params.OrderID]; exists {
		return nil, ErrDuplicateOrder
	}

	now := timeNow()
	sub := &entity.Subscription{
		ID:        uuid.NewString(),
		UserID:    params.UserID,
		PaymentID: params.PaymentID,
		OrderID:   params.OrderID,
		Amount:    params.Amount,
		Currency:  params.Currency,
		Status:    entity.SubscriptionStatusActive,
		StartAt:   now,
		EndAt:     now.Add(time.Duration(params.DurationDays) * 24 * time.Hour),
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.subscriptions = append(s.subscriptions, sub)
	s.orders[params.OrderID] = sub.ID

	copied := *sub
	return &copied, nil
}

// FindActiveForUser returns the first active-status record for the user in
// insertion order, or nil. Whether the record is still within its paid
// period is a separate question, answered by IsCurrentlyEntitled.
func (s *SubscriptionStore) FindActiveForUser(userID string) *entity.Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sub := s.findActiveLocked(userID); sub != nil {
		copied := *sub
		return &copied
	}
	return nil
}

// IsCurrentlyEntitled reports whether the user has an active-status record
// whose end date has not yet passed. Expiry is computed lazily here; no
// background sweep is required for correctness.
func (s *SubscriptionStore) IsCurrentlyEntitled(userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub := s.findActiveLocked(userID)
	return sub != nil && timeNow().Before(sub.EndAt)
}

// Extend moves the end date of the user's active subscription forward.
func (s *SubscriptionStore) Extend(userID string, days int) (*entity.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub := s.findActiveLocked(userID)
	if sub == nil {
		return nil, ErrSubscriptionNotFound
	}

	sub.EndAt = sub.EndAt.Add(time.Duration(days) * 24 * time.Hour)
	sub.UpdatedAt = timeNow()

	copied := *sub
	return &copied, nil
}

// Cancel marks the user's active subscription as cancelled. The record is
// kept; entitlement revocation is the caller's responsibility and happens
// outside the store lock.
func (s *SubscriptionStore) Cancel(userID string) (*entity.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub := s.findActiveLocked(userID)
	if sub == nil {
		return nil, ErrSubscriptionNotFound
	}

	sub.Status = entity.SubscriptionStatusCancelled
	sub.UpdatedAt = timeNow()

	copied := *sub
	return &copied, nil
}

func (s *SubscriptionStore) Stats() entity.SubscriptionStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := entity.SubscriptionStats{Total: len(s.subscriptions)}
	for _, sub := range s.subscriptions {
		switch sub.Status {
		case entity.SubscriptionStatusActive:
			stats.Active++
		case entity.SubscriptionStatusCancelled:
			stats.Cancelled++
		}
	}
	return stats
}

// "First active match by insertion order" is the documented selection policy
// when a user somehow holds several active records.
func (s *SubscriptionStore) findActiveLocked(userID string) *entity.Subscription {
	for _, sub := range s.subscriptions {
		if sub.UserID == userID && sub.Status == entity.SubscriptionStatusActive {
			return sub
		}
	}
	return nil
}
