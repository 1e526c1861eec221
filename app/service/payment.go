package service

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/vibast-solutions/ms-go-paybot/app/entitlement"
	"github.com/vibast-solutions/ms-go-paybot/app/entity"
	"github.com/vibast-solutions/ms-go-paybot/app/factory"
	"github.com/vibast-solutions/ms-go-paybot/app/repository"
	"github.com/vibast-solutions/ms-go-paybot/app/types"
	"github.com/vibast-solutions/ms-go-paybot/config"
)

// PaymentStatusSuccess is the provider's token for a completed payment.
const PaymentStatusSuccess = "success"

// ProcessResult reports what a notification did. AlreadyProcessed means the
// order was applied by an earlier delivery and this one changed nothing; the
// boundary must still answer success so the provider stops retrying.
type ProcessResult struct {
	Subscription       *entity.Subscription
	AlreadyProcessed   bool
	EntitlementGranted bool
}

// PaymentService is the single entry point for an authenticated payment
// notification. The caller verifies the payload signature before handing the
// payload over.
type PaymentService struct {
	store   subscriptionStore
	gateway entitlement.Gateway
	cfg     config.SubscriptionConfig
	logger  logrus.FieldLogger
}

func NewPaymentService(store subscriptionStore, gateway entitlement.Gateway, cfg config.SubscriptionConfig) *PaymentService {
	return &PaymentService{
		store:   store,
		gateway: gateway,
		cfg:     cfg,
		logger:  factory.NewModuleLogger("payment-service"),
	}
}

// ProcessNotification validates the business fields, applies the payment
// exactly once and grants channel access. Validation failures return before
// any store mutation. A failed grant is reported in the result but never
// rolls the subscription back: entitlement propagation is a best-effort
// side effect with its own retry responsibility.
func (s *PaymentService) ProcessNotification(ctx context.Context, payload types.WebhookPayload) (*ProcessResult, error) {
	if !strings.EqualFold(strings.TrimSpace(payload.Status()), PaymentStatusSuccess) {
		return nil, ErrPaymentNotSuccessful
	}

	orderID := payload.OrderID()
	if orderID == "" {
		return nil, ErrMissingOrder
	}

	userID := payload.UserID()
	if userID == "" {
		return nil, ErrMissingPrincipal
	}

	currency := payload.Currency()
	if currency == "" {
		currency = s.cfg.Currency
	}

	sub, err := s.store.Create(repository.CreateSubscriptionParams{
		UserID:       userID,
		PaymentID:    payload.PaymentID(),
		OrderID:      orderID,
		Amount:       payload.Amount(),
		Currency:     currency,
		DurationDays: s.cfg.DurationDays,
	})
	if errors.Is(err, repository.ErrDuplicateOrder) {
		s.logger.WithField("order_id", orderID).Info("Order already processed, skipping")
		return &ProcessResult{AlreadyProcessed: true}, nil
	}
	if err != nil {
		return nil, err
	}

	result := &ProcessResult{Subscription: sub}

	// The store lock is released by now; the gateway call may block on
	// network I/O.
	if err := s.gateway.Grant(ctx, userID); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"user_id":  userID,
			"order_id": orderID,
		}).Error("Entitlement grant failed, subscription stands")
		return result, nil
	}

	result.EntitlementGranted = true
	return result, nil
}
