package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"

	"github.com/aingc/stripe-example/internal/catalog"
)

// CartLine is one client-submitted {id, quantity} pair. It is untrusted
// input: no price field exists here on purpose, and none is ever read from
// the wire even if a client sends one.
//
// RawQuantity optionally carries the quantity text exactly as the client
// submitted it. Transports that fail to parse a quantity into an integer set
// Quantity to zero and keep the raw text, so the line is rejected at its
// position in the cart with the client's own value in the error.
type CartLine struct {
	ID          catalog.ItemID
	Quantity    int64
	RawQuantity string
}

func (l CartLine) submittedQuantity() string {
	if l.RawQuantity != "" {
		return l.RawQuantity
	}
	return strconv.FormatInt(l.Quantity, 10)
}

// ChargeRequest is the outbound charge submission. Everything except the
// source token is computed server-side.
type ChargeRequest struct {
	Amount      int64
	Currency    string
	SourceToken string
	Description string
}

// Receipt is the processor's confirmation of a successful charge.
type Receipt struct {
	ChargeID string
	Amount   int64
	Currency string
}

// PricedLine is one cart line with the authoritative catalog price captured
// at checkout time.
type PricedLine struct {
	ID        catalog.ItemID
	Name      string
	Quantity  int64
	UnitPrice int64
	Subtotal  int64
}

// Confirmation is the outcome of a successful checkout: the processor's
// receipt plus the server-priced lines the total was derived from.
type Confirmation struct {
	Receipt  Receipt
	Lines    []PricedLine
	Total    int64
	Currency string
}

// Processor submits a charge to the external payment provider. Exactly one
// submission happens per checkout that passes validation; implementations
// must not retry internally.
type Processor interface {
	Charge(ctx context.Context, req ChargeRequest) (*Receipt, error)
}

// Service recomputes the authoritative order total from trusted catalog data
// and charges exactly that amount. Client-supplied prices or totals are
// never consulted.
type Service struct {
	source    catalog.Source
	processor Processor
	currency  string
}

// NewService wires the validator/charger. Currency is fixed per deployment
// and passed in explicitly so tests can run against a fake processor and a
// fake catalog source.
func NewService(source catalog.Source, processor Processor, currency string) *Service {
	return &Service{
		source:    source,
		processor: processor,
		currency:  currency,
	}
}

// Checkout validates the submitted cart against a freshly loaded catalog,
// accumulates the true total in minor currency units, and submits a single
// charge for it. Every validation fault short-circuits the whole operation
// before the processor is contacted; there are no partial charges.
func (s *Service) Checkout(ctx context.Context, lines []CartLine, token string) (*Confirmation, error) {
	cat, err := s.source.Load(ctx)
	if err != nil {
		return nil, &CatalogUnavailableError{Err: err}
	}

	idx := cat.Index()

	var total int64
	priced := make([]PricedLine, 0, len(lines))
	for _, line := range lines {
		item, ok := idx[line.ID]
		if !ok {
			return nil, &UnknownItemError{ID: line.ID}
		}
		if line.Quantity <= 0 {
			return nil, &InvalidQuantityError{ID: line.ID, Quantity: line.submittedQuantity()}
		}

		// The total accumulates in int64 cents. A quantity large enough to
		// wrap the multiplication or the running sum would let a tampered
		// cart be charged a fraction of its true price, so it is rejected
		// outright.
		if item.Price > 0 && line.Quantity > math.MaxInt64/item.Price {
			return nil, &InvalidQuantityError{ID: line.ID, Quantity: line.submittedQuantity()}
		}
		subtotal := item.Price * line.Quantity
		if subtotal > math.MaxInt64-total {
			return nil, &InvalidQuantityError{ID: line.ID, Quantity: line.submittedQuantity()}
		}
		priced = append(priced, PricedLine{
			ID:        line.ID,
			Name:      item.Name,
			Quantity:  line.Quantity,
			UnitPrice: item.Price,
			Subtotal:  subtotal,
		})
		total += subtotal
	}

	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}

	slog.InfoContext(ctx, "submitting charge", "amount", total, "currency", s.currency, "lines", len(lines))

	receipt, err := s.processor.Charge(ctx, ChargeRequest{
		Amount:      total,
		Currency:    s.currency,
		SourceToken: token,
		Description: fmt.Sprintf("storefront purchase, %d line(s)", len(lines)),
	})
	if err != nil {
		return nil, classifyChargeError(ctx, err)
	}

	slog.InfoContext(ctx, "charge succeeded", "charge_id", receipt.ChargeID, "amount", receipt.Amount)
	return &Confirmation{
		Receipt:  *receipt,
		Lines:    priced,
		Total:    total,
		Currency: s.currency,
	}, nil
}

// classifyChargeError keeps the error taxonomy intact for processors that
// return plain errors. A cancelled or expired context means the submission
// was interrupted mid-flight, which is an ambiguous outcome, not a decline.
func classifyChargeError(ctx context.Context, err error) error {
	var (
		procErr *ProcessorError
		ambig   *AmbiguousOutcomeError
	)
	switch {
	case errors.As(err, &procErr), errors.As(err, &ambig):
		return err
	case ctx.Err() != nil:
		return &AmbiguousOutcomeError{Err: err}
	default:
		return &ProcessorError{Err: err}
	}
}
