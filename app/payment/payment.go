package payment

import "context"

// Payment is the provider's view of a single payment.
type Payment struct {
	ID         string `json:"payment_id"`
	OrderID    string `json:"order_id"`
	Status     string `json:"status"`
	Amount     string `json:"amount"`
	Currency   string `json:"currency"`
	PaymentURL string `json:"payment_url"`
}

// Refund is the provider's acknowledgement of a refund request.
type Refund struct {
	ID        string `json:"refund_id"`
	PaymentID string `json:"payment_id"`
	Amount    string `json:"amount"`
}

// CreatePaymentParams describes the payment link to issue. UserID travels in
// the provider's custom fields and comes back unchanged in the webhook, which
// is how a completed payment is tied back to a chat user.
type CreatePaymentParams struct {
	UserID      string
	OrderID     string
	Amount      string
	Currency    string
	Description string
}

// Provider issues payment links and answers payment lookups.
type Provider interface {
	CreatePayment(ctx context.Context, params CreatePaymentParams) (*Payment, error)
	GetPayment(ctx context.Context, paymentID string) (*Payment, error)
	CheckOrderStatus(ctx context.Context, orderID string) (*Payment, error)
	CreateRefund(ctx context.Context, paymentID, amount string) (*Refund, error)
}
