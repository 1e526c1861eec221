package service

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/vibast-solutions/ms-go-paybot/app/entitlement"
	"github.com/vibast-solutions/ms-go-paybot/app/entity"
	"github.com/vibast-solutions/ms-go-paybot/app/factory"
	"github.com/vibast-solutions/ms-go-paybot/app/repository"
)

type subscriptionStore interface {
	Create(params repository.CreateSubscriptionParams) (*entity.Subscription, error)
	FindActiveForUser(userID string) *entity.Subscription
	IsCurrentlyEntitled(userID string) bool
	Extend(userID string, days int) (*entity.Subscription, error)
	Cancel(userID string) (*entity.Subscription, error)
	Stats() entity.SubscriptionStats
}

// SubscriptionService answers status queries and runs the extend/cancel
// lifecycle operations against the store.
type SubscriptionService struct {
	store   subscriptionStore
	gateway entitlement.Gateway
	logger  logrus.FieldLogger
}

func NewSubscriptionService(store subscriptionStore, gateway entitlement.Gateway) *SubscriptionService {
	return &SubscriptionService{
		store:   store,
		gateway: gateway,
		logger:  factory.NewModuleLogger("subscription-service"),
	}
}

// FindActive returns the user's current active-status subscription or nil.
// The record may already be past its end date; use IsEntitled for the
// time-bounded check.
func (s *SubscriptionService) FindActive(userID string) *entity.Subscription {
	return s.store.FindActiveForUser(userID)
}

func (s *SubscriptionService) IsEntitled(userID string) bool {
	return s.store.IsCurrentlyEntitled(userID)
}

func (s *SubscriptionService) Extend(_ context.Context, userID string, days int) (*entity.Subscription, error) {
	sub, err := s.store.Extend(userID, days)
	if errors.Is(err, repository.ErrSubscriptionNotFound) {
		return nil, ErrSubscriptionNotFound
	}
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"user_id": userID,
		"days":    days,
	}).Info("Subscription extended")
	return sub, nil
}

// Cancel marks the subscription cancelled and revokes channel access. The
// store mutation is committed first and is never unwound: a revoke failure
// is returned alongside the cancelled record so the caller can retry the
// propagation through operational tooling.
func (s *SubscriptionService) Cancel(ctx context.Context, userID string) (*entity.Subscription, error) {
	sub, err := s.store.Cancel(userID)
	if errors.Is(err, repository.ErrSubscriptionNotFound) {
		return nil, ErrSubscriptionNotFound
	}
	if err != nil {
		return nil, err
	}

	// Gateway call happens after the store released its lock.
	if err := s.gateway.Revoke(ctx, userID); err != nil {
		s.logger.WithError(err).WithField("user_id", userID).Error("Entitlement revoke failed, record stays cancelled")
		return sub, err
	}

	s.logger.WithField("user_id", userID).Info("Subscription cancelled")
	return sub, nil
}

func (s *SubscriptionService) Stats() entity.SubscriptionStats {
	return s.store.Stats()
}
