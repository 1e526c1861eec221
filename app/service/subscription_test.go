package service

import (
	"context"
	"errors"
	"testing"

	"github.com/vibast-solutions/ms-go-paybot/app/entity"
	"github.com/vibast-solutions/ms-go-paybot/app/repository"
	"github.com/vibast-solutions/ms-go-paybot/config"
)

type mockSubscriptionStore struct {
	createFn              func(params repository.CreateSubscriptionParams) (*entity.Subscription, error)
	findActiveForUserFn   func(userID string) *entity.Subscription
	isCurrentlyEntitledFn func(userID string) bool
	extendFn              func(userID string, days int) (*entity.Subscription, error)
	cancelFn              func(userID string) (*entity.Subscription, error)
	statsFn               func() entity.SubscriptionStats
}

func (m *mockSubscriptionStore) Create(params repository.CreateSubscriptionParams) (*entity.Subscription, error) {
	if m.createFn != nil {
		return m.createFn(params)
	}
	return &entity.Subscription{}, nil
}

func (m *mockSubscriptionStore) FindActiveForUser(userID string) *entity.Subscription {
	if m.findActiveForUserFn != nil {
		return m.findActiveForUserFn(userID)
	}
	return nil
}

func (m *mockSubscriptionStore) IsCurrentlyEntitled(userID string) bool {
	if m.isCurrentlyEntitledFn != nil {
		return m.isCurrentlyEntitledFn(userID)
	}
	return false
}

func (m *mockSubscriptionStore) Extend(userID string, days int) (*entity.Subscription, error) {
	if m.extendFn != nil {
		return m.extendFn(userID, days)
	}
	return &entity.Subscription{}, nil
}

func (m *mockSubscriptionStore) Cancel(userID string) (*entity.Subscription, error) {
	if m.cancelFn != nil {
		return m.cancelFn(userID)
	}
	return &entity.Subscription{}, nil
}

func (m *mockSubscriptionStore) Stats() entity.SubscriptionStats {
	if m.statsFn != nil {
		return m.statsFn()
	}
	return entity.SubscriptionStats{}
}

type fakeGateway struct {
	grantErr  error
	revokeErr error
	granted   []string
	revoked   []string
}

func (f *fakeGateway) Grant(_ context.Context, userID string) error {
	f.granted = append(f.granted, userID)
	return f.grantErr
}

func (f *fakeGateway) Revoke(_ context.Context, userID string) error {
	f.revoked = append(f.revoked, userID)
	return f.revokeErr
}

func testSubscriptionConfig() config.SubscriptionConfig {
	return config.SubscriptionConfig{
		PriceAmount:  "1000",
		Currency:     "rub",
		DurationDays: 30,
	}
}

func TestFindActiveDelegatesToStore(t *testing.T) {
	want := &entity.Subscription{ID: "s-1", UserID: "7"}
	store := &mockSubscriptionStore{
		findActiveForUserFn: func(userID string) *entity.Subscription {
			if userID != "7" {
				t.Fatalf("unexpected user id %q", userID)
			}
			return want
		},
	}
	svc := NewSubscriptionService(store, &fakeGateway{})

	if got := svc.FindActive("7"); got != want {
		t.Fatalf("unexpected subscription: %+v", got)
	}
	if svc.IsEntitled("7") {
		t.Fatal("expected not entitled")
	}
}

func TestExtendMapsNotFound(t *testing.T) {
	store := &mockSubscriptionStore{
		extendFn: func(_ string, _ int) (*entity.Subscription, error) {
			return nil, repository.ErrSubscriptionNotFound
		},
	}
	svc := NewSubscriptionService(store, &fakeGateway{})

	_, err := svc.Extend(context.Background(), "7", 7)
	if !errors.Is(err, ErrSubscriptionNotFound) {
		t.Fatalf("expected ErrSubscriptionNotFound, got %v", err)
	}
}

func TestExtendReturnsStoreRecord(t *testing.T) {
	want := &entity.Subscription{ID: "s-1", UserID: "7"}
	store := &mockSubscriptionStore{
		extendFn: func(userID string, days int) (*entity.Subscription, error) {
			if userID != "7" || days != 14 {
				t.Fatalf("unexpected args %q/%d", userID, days)
			}
			return want, nil
		},
	}
	svc := NewSubscriptionService(store, &fakeGateway{})

	got, err := svc.Extend(context.Background(), "7", 14)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got != want {
		t.Fatalf("unexpected subscription: %+v", got)
	}
}

func TestCancelRevokesExactlyOnce(t *testing.T) {
	gateway := &fakeGateway{}
	store := &mockSubscriptionStore{
		cancelFn: func(userID string) (*entity.Subscription, error) {
			return &entity.Subscription{ID: "s-1", UserID: userID, Status: entity.SubscriptionStatusCancelled}, nil
		},
	}
	svc := NewSubscriptionService(store, gateway)

	sub, err := svc.Cancel(context.Background(), "7")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if sub.Status != entity.SubscriptionStatusCancelled {
		t.Fatalf("expected cancelled status, got %d", sub.Status)
	}
	if len(gateway.revoked) != 1 || gateway.revoked[0] != "7" {
		t.Fatalf("expected one revoke for user 7, got %v", gateway.revoked)
	}
	if len(gateway.granted) != 0 {
		t.Fatalf("cancel must not grant, got %v", gateway.granted)
	}
}

func TestCancelNotFoundSkipsRevoke(t *testing.T) {
	gateway := &fakeGateway{}
	store := &mockSubscriptionStore{
		cancelFn: func(_ string) (*entity.Subscription, error) {
			return nil, repository.ErrSubscriptionNotFound
		},
	}
	svc := NewSubscriptionService(store, gateway)

	_, err := svc.Cancel(context.Background(), "7")
	if !errors.Is(err, ErrSubscriptionNotFound) {
		t.Fatalf("expected ErrSubscriptionNotFound, got %v", err)
	}
	if len(gateway.revoked) != 0 {
		t.Fatalf("expected no revoke, got %v", gateway.revoked)
	}
}

func TestCancelKeepsRecordWhenRevokeFails(t *testing.T) {
	revokeErr := errors.New("telegram down")
	gateway := &fakeGateway{revokeErr: revokeErr}
	cancelled := 0
	store := &mockSubscriptionStore{
		cancelFn: func(userID string) (*entity.Subscription, error) {
			cancelled++
			return &entity.Subscription{ID: "s-1", UserID: userID, Status: entity.SubscriptionStatusCancelled}, nil
		},
	}
	svc := NewSubscriptionService(store, gateway)

	sub, err := svc.Cancel(context.Background(), "7")
	if !errors.Is(err, revokeErr) {
		t.Fatalf("expected revoke error surfaced, got %v", err)
	}
	if sub == nil || sub.Status != entity.SubscriptionStatusCancelled {
		t.Fatalf("expected cancelled record alongside error, got %+v", sub)
	}
	if cancelled != 1 {
		t.Fatalf("expected exactly one store cancel, got %d", cancelled)
	}
}

func TestStatsDelegatesToStore(t *testing.T) {
	store := &mockSubscriptionStore{
		statsFn: func() entity.SubscriptionStats {
			return entity.SubscriptionStats{Total: 3, Active: 2, Cancelled: 1}
		},
	}
	svc := NewSubscriptionService(store, &fakeGateway{})

	stats := svc.Stats()
	if stats.Total != 3 || stats.Active != 2 || stats.Cancelled != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}
