package types

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/labstack/echo/v4"
)

// Field names the provider uses in payment notifications.
const (
	FieldOrderID   = "order_id"
	FieldPaymentID = "payment_id"
	FieldStatus    = "status"
	FieldAmount    = "amount"
	FieldCurrency  = "currency"

	CustomFieldsKey = "custom_fields"
	UserIDField     = "telegram_user_id"
)

// SignHeader carries the payload digest out of band.
const SignHeader = "Sign"

// WebhookPayload is the decoded notification body: scalars, arrays and
// objects keyed by provider field names. It preserves whatever shape the
// provider sent so the signature is computed over the exact payload.
type WebhookPayload map[string]interface{}

// NewWebhookPayloadFromContext decodes the request body. JSON bodies are
// decoded with number tokens kept as text so the canonical form matches what
// the provider signed; form bodies use the provider's bracketed-key notation
// (products[0][name]) and are rebuilt into the equivalent nested shape.
func NewWebhookPayloadFromContext(ctx echo.Context) (WebhookPayload, error) {
	req := ctx.Request()
	contentType := req.Header.Get(echo.HeaderContentType)

	if strings.HasPrefix(contentType, echo.MIMEApplicationJSON) {
		dec := json.NewDecoder(req.Body)
		dec.UseNumber()
		payload := WebhookPayload{}
		if err := dec.Decode(&payload); err != nil {
			return nil, err
		}
		return payload, nil
	}

	if err := req.ParseForm(); err != nil {
		return nil, err
	}
	if len(req.PostForm) == 0 {
		return nil, errors.New("empty webhook payload")
	}

	payload := WebhookPayload{}
	for key, values := range req.PostForm {
		if len(values) == 0 {
			continue
		}
		setBracketedKey(payload, key, values[0])
	}
	return payload, nil
}

// setBracketedKey expands "a[b][0]" into nested maps. Numeric segments stay
// string-keyed: canonicalization renders them identically either way.
func setBracketedKey(dst map[string]interface{}, key, value string) {
	segments := splitBracketedKey(key)
	current := dst
	for i, segment := range segments {
		if i == len(segments)-1 {
			current[segment] = value
			return
		}
		next, ok := current[segment].(map[string]interface{})
		if !ok {
			next = map[string]interface{}{}
			current[segment] = next
		}
		current = next
	}
}

func splitBracketedKey(key string) []string {
	open := strings.IndexByte(key, '[')
	if open < 0 {
		return []string{key}
	}
	segments := []string{key[:open]}
	rest := key[open:]
	for strings.HasPrefix(rest, "[") {
		close := strings.IndexByte(rest, ']')
		if close < 0 {
			// Unbalanced bracket: treat the remainder as one literal segment.
			segments = append(segments, rest[1:])
			return segments
		}
		segments = append(segments, rest[1:close])
		rest = rest[close+1:]
	}
	return segments
}

func (p WebhookPayload) OrderID() string   { return p.stringField(FieldOrderID) }
func (p WebhookPayload) PaymentID() string { return p.stringField(FieldPaymentID) }
func (p WebhookPayload) Status() string    { return p.stringField(FieldStatus) }
func (p WebhookPayload) Amount() string    { return p.stringField(FieldAmount) }
func (p WebhookPayload) Currency() string  { return p.stringField(FieldCurrency) }

// UserID extracts the principal from the provider's custom-data field.
// Empty when the notification carries no recoverable principal.
func (p WebhookPayload) UserID() string {
	custom, ok := p[CustomFieldsKey].(map[string]interface{})
	if !ok {
		return ""
	}
	return scalarToString(custom[UserIDField])
}

func (p WebhookPayload) stringField(key string) string {
	return scalarToString(p[key])
}

func scalarToString(value interface{}) string {
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case json.Number:
		return v.String()
	default:
		return ""
	}
}
