package entity

import "time"

const (
	SubscriptionStatusCancelled int32 = 0
	SubscriptionStatusActive    int32 = 10
)

type Subscription struct {
	ID        string
	UserID    string
	PaymentID string
	OrderID   string
	Amount    string
	Currency  string
	Status    int32
	StartAt   time.Time
	EndAt     time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

type SubscriptionStats struct {
	Total     int
	Active    int
	Cancelled int
}
