package payment

import (
	"context"
	"fmt"
)

// StubProvider answers locally without calling the provider. Used when no
// provider API key is configured and in tests.
type StubProvider struct{}

func NewStubProvider() *StubProvider {
	return &StubProvider{}
}

func (s *StubProvider) CreatePayment(_ context.Context, params CreatePaymentParams) (*Payment, error) {
	return &Payment{
		ID:         "stub-" + params.OrderID,
		OrderID:    params.OrderID,
		Status:     "pending",
		Amount:     params.Amount,
		Currency:   params.Currency,
		PaymentURL: fmt.Sprintf("https://payform.local/pay/%s", params.OrderID),
	}, nil
}

func (s *StubProvider) GetPayment(_ context.Context, paymentID string) (*Payment, error) {
	return &Payment{ID: paymentID, Status: "pending"}, nil
}

func (s *StubProvider) CheckOrderStatus(_ context.Context, orderID string) (*Payment, error) {
	return &Payment{OrderID: orderID, Status: "pending"}, nil
}

func (s *StubProvider) CreateRefund(_ context.Context, paymentID, amount string) (*Refund, error) {
	return &Refund{ID: "stub-refund-" + paymentID, PaymentID: paymentID, Amount: amount}, nil
}
