package httpapi

import (
	"encoding/json"
	"strings"

	"github.com/aingc/stripe-example/internal/catalog"
)

// PurchaseItemDTO is one submitted cart line. Only the id and quantity are
// read; any other field a client sends (a forged price, for instance) is
// ignored by decoding and never reaches the total.
type PurchaseItemDTO struct {
	ID       catalog.ItemID `json:"id"`
	Quantity rawQuantity    `json:"quantity"`
}

// PurchaseRequestDTO is the inbound purchase payload. The token field name
// follows the payment widget's wire format.
type PurchaseRequestDTO struct {
	StripeTokenID string            `json:"stripeTokenId"`
	Items         []PurchaseItemDTO `json:"items"`
}

// PurchaseResponseDTO confirms a successful purchase.
type PurchaseResponseDTO struct {
	Message  string `json:"message"`
	OrderID  string `json:"order_id"`
	ChargeID string `json:"charge_id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// rawQuantity captures the quantity exactly as submitted. The browser cart
// sends quantities as strings (input values), other clients send numbers;
// both are accepted here and validated as positive integers by the handler,
// so "1.5", 0, or "abc" fail as invalid quantities rather than as opaque
// JSON errors.
type rawQuantity string

func (q *rawQuantity) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*q = rawQuantity(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*q = rawQuantity(n.String())
	return nil
}
