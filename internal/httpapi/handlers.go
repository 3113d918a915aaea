package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/aingc/stripe-example/internal/catalog"
	"github.com/aingc/stripe-example/internal/checkout"
	"github.com/aingc/stripe-example/internal/events"
)

const publishTimeout = 5 * time.Second

// Handler serves the storefront's two endpoints: the catalog feed and the
// purchase (checkout) call.
type Handler struct {
	source   catalog.Source
	checkout *checkout.Service
	events   *events.Publisher
	metrics  *Metrics
}

func NewHandler(source catalog.Source, svc *checkout.Service, publisher *events.Publisher, metrics *Metrics) *Handler {
	return &Handler{
		source:   source,
		checkout: svc,
		events:   publisher,
		metrics:  metrics,
	}
}

// Store serves the full catalog, loaded fresh from storage per request, as
// the grouped JSON document the storefront page renders from.
func (h *Handler) Store(w http.ResponseWriter, r *http.Request) {
	cat, err := h.source.Load(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to load catalog", "error", err)
		respondError(w, http.StatusInternalServerError, "catalog_unavailable", "could not load the item catalog")
		return
	}
	respondJSON(w, http.StatusOK, cat)
}

// Purchase validates the submitted cart, recomputes the total from trusted
// catalog prices, and charges the payment token for exactly that amount.
func (h *Handler) Purchase(w http.ResponseWriter, r *http.Request) {
	var req PurchaseRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if req.StripeTokenID == "" {
		respondError(w, http.StatusBadRequest, "missing_token", "stripeTokenId is required")
		return
	}

	// Unparseable quantities are not rejected here: the line keeps its place
	// in the cart (with the raw text for the error message) so validation
	// faults surface in submitted order.
	lines := make([]checkout.CartLine, 0, len(req.Items))
	for _, item := range req.Items {
		line := checkout.CartLine{ID: item.ID}
		if qty, err := strconv.ParseInt(string(item.Quantity), 10, 64); err == nil {
			line.Quantity = qty
		} else {
			line.RawQuantity = string(item.Quantity)
		}
		lines = append(lines, line)
	}

	conf, err := h.checkout.Checkout(r.Context(), lines, req.StripeTokenID)
	if err != nil {
		h.respondCheckoutError(w, r, err)
		return
	}

	orderID := uuid.New().String()
	h.metrics.Purchases.WithLabelValues("success").Inc()
	h.publishOrderCompleted(r.Context(), orderID, conf)

	respondJSON(w, http.StatusOK, PurchaseResponseDTO{
		Message:  "Successfully purchased items",
		OrderID:  orderID,
		ChargeID: conf.Receipt.ChargeID,
		Amount:   conf.Total,
		Currency: conf.Currency,
	})
}

// publishOrderCompleted emits the order event detached from the request
// lifetime; the purchase outcome never depends on it.
func (h *Handler) publishOrderCompleted(ctx context.Context, orderID string, conf *checkout.Confirmation) {
	if h.events == nil {
		return
	}

	items := make([]events.OrderItem, len(conf.Lines))
	for i, line := range conf.Lines {
		items[i] = events.OrderItem{
			ProductID:   string(line.ID),
			ProductName: line.Name,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
		}
	}
	event := events.OrderCompletedEvent{
		OrderID:     orderID,
		ChargeID:    conf.Receipt.ChargeID,
		Items:       items,
		TotalAmount: conf.Total,
		Currency:    conf.Currency,
		CompletedAt: time.Now().UTC(),
	}

	detached := context.WithoutCancel(ctx)
	go func() {
		pubCtx, cancel := context.WithTimeout(detached, publishTimeout)
		defer cancel()
		if err := h.events.PublishOrderCompleted(pubCtx, event); err != nil {
			slog.ErrorContext(pubCtx, "failed to publish order event", "order_id", orderID, "error", err)
		}
	}()
}

// respondCheckoutError maps the checkout error taxonomy onto HTTP statuses:
// validation faults are client errors, storage faults are service errors,
// processor declines surface the processor's reason, and an interrupted
// charge gets its own code so callers know not to resubmit blindly.
func (h *Handler) respondCheckoutError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		unknownItem *checkout.UnknownItemError
		invalidQty  *checkout.InvalidQuantityError
		unavailable *checkout.CatalogUnavailableError
		procErr     *checkout.ProcessorError
		ambiguous   *checkout.AmbiguousOutcomeError
	)

	switch {
	case errors.Is(err, checkout.ErrEmptyCart):
		h.metrics.Purchases.WithLabelValues("empty_cart").Inc()
		respondError(w, http.StatusBadRequest, "empty_cart", "cart has no items")
	case errors.As(err, &unknownItem):
		h.metrics.Purchases.WithLabelValues("unknown_item").Inc()
		respondError(w, http.StatusBadRequest, "unknown_item", err.Error())
	case errors.As(err, &invalidQty):
		h.metrics.Purchases.WithLabelValues("invalid_quantity").Inc()
		respondError(w, http.StatusBadRequest, "invalid_quantity", err.Error())
	case errors.As(err, &unavailable):
		h.metrics.Purchases.WithLabelValues("catalog_unavailable").Inc()
		slog.ErrorContext(r.Context(), "catalog unavailable during checkout", "error", err)
		respondError(w, http.StatusServiceUnavailable, "catalog_unavailable", "could not load the item catalog")
	case errors.As(err, &ambiguous):
		h.metrics.Purchases.WithLabelValues("ambiguous").Inc()
		slog.ErrorContext(r.Context(), "charge outcome unknown", "error", err)
		respondError(w, http.StatusBadGateway, "payment_outcome_unknown",
			"the payment request was interrupted; verify the charge before trying again")
	case errors.As(err, &procErr):
		h.metrics.Purchases.WithLabelValues("payment_failed").Inc()
		respondError(w, http.StatusPaymentRequired, "payment_failed", procErr.Error())
	default:
		h.metrics.Purchases.WithLabelValues("error").Inc()
		slog.ErrorContext(r.Context(), "checkout failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}
