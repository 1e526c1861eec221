package payment

import (
	"context"
	"testing"
)

func TestStubProviderIssuesLocalLink(t *testing.T) {
	provider := NewStubProvider()

	payment, err := provider.CreatePayment(context.Background(), CreatePaymentParams{
		UserID:  "7",
		OrderID: "42",
		Amount:  "1000",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if payment.PaymentURL == "" {
		t.Fatal("expected payment url")
	}
	if payment.OrderID != "42" {
		t.Fatalf("unexpected order id %q", payment.OrderID)
	}
}
