package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/vibast-solutions/ms-go-paybot/app/factory"
	"github.com/vibast-solutions/ms-go-paybot/config"
)

const defaultRequestTimeout = 15 * time.Second

// ProdamusProvider talks to the Prodamus REST API with a bearer key.
type ProdamusProvider struct {
	baseURL    string
	shopID     string
	apiKey     string
	httpClient *http.Client
	logger     logrus.FieldLogger
}

func NewProdamusProvider(cfg config.PaymentConfig) *ProdamusProvider {
	return &ProdamusProvider{
		baseURL: cfg.BaseURL,
		shopID:  cfg.ShopID,
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: defaultRequestTimeout,
		},
		logger: factory.NewModuleLogger("prodamus-provider"),
	}
}

type createPaymentRequest struct {
	ShopID       string            `json:"shop_id"`
	OrderID      string            `json:"order_id"`
	Amount       string            `json:"amount"`
	Currency     string            `json:"currency"`
	Description  string            `json:"description,omitempty"`
	CustomFields map[string]string `json:"custom_fields"`
}

type createRefundRequest struct {
	PaymentID string `json:"payment_id"`
	Amount    string `json:"amount"`
}

type providerError struct {
	Message string `json:"message"`
}

func (p *ProdamusProvider) CreatePayment(ctx context.Context, params CreatePaymentParams) (*Payment, error) {
	body := createPaymentRequest{
		ShopID:      p.shopID,
		OrderID:     params.OrderID,
		Amount:      params.Amount,
		Currency:    params.Currency,
		Description: params.Description,
		CustomFields: map[string]string{
			"telegram_user_id": params.UserID,
		},
	}

	payment := &Payment{}
	if err := p.do(ctx, http.MethodPost, "/api/payments", body, payment); err != nil {
		return nil, err
	}

	p.logger.WithFields(logrus.Fields{
		"order_id":   params.OrderID,
		"payment_id": payment.ID,
	}).Info("Payment created")
	return payment, nil
}

func (p *ProdamusProvider) GetPayment(ctx context.Context, paymentID string) (*Payment, error) {
	payment := &Payment{}
	if err := p.do(ctx, http.MethodGet, "/api/payments/"+paymentID, nil, payment); err != nil {
		return nil, err
	}
	return payment, nil
}

func (p *ProdamusProvider) CheckOrderStatus(ctx context.Context, orderID string) (*Payment, error) {
	payment := &Payment{}
	if err := p.do(ctx, http.MethodGet, "/api/orders/"+orderID+"/status", nil, payment); err != nil {
		return nil, err
	}
	return payment, nil
}

func (p *ProdamusProvider) CreateRefund(ctx context.Context, paymentID, amount string) (*Refund, error) {
	refund := &Refund{}
	body := createRefundRequest{PaymentID: paymentID, Amount: amount}
	if err := p.do(ctx, http.MethodPost, "/api/refunds", body, refund); err != nil {
		return nil, err
	}

	p.logger.WithFields(logrus.Fields{
		"payment_id": paymentID,
		"refund_id":  refund.ID,
	}).Info("Refund created")
	return refund, nil
}

func (p *ProdamusProvider) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("provider request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		var provErr providerError
		if decodeErr := json.NewDecoder(resp.Body).Decode(&provErr); decodeErr == nil && provErr.Message != "" {
			return fmt.Errorf("provider responded %d: %s", resp.StatusCode, provErr.Message)
		}
		return fmt.Errorf("provider responded %d", resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
