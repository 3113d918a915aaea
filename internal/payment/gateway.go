package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/aingc/stripe-example/internal/checkout"
)

const defaultTimeout = 30 * time.Second

// Config carries the processor credentials and endpoint. They are passed in
// explicitly at construction, never read from ambient process state.
type Config struct {
	APIURL    string
	SecretKey string
	Timeout   time.Duration
}

// Gateway submits charges to a Stripe-style charges API: a form-encoded POST
// of {amount, currency, source} authorized with the secret key. It performs
// exactly one submission per Charge call; there is no internal retry, since
// a retry without an idempotency key risks a duplicate charge.
type Gateway struct {
	cfg    Config
	client *http.Client
}

func NewGateway(cfg Config) *Gateway {
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Gateway{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// chargeResponse is the subset of the processor's response the storefront
// reads. The confirmation payload is otherwise opaque.
type chargeResponse struct {
	ID             string `json:"id"`
	Status         string `json:"status"`
	FailureMessage string `json:"failure_message"`
	Error          struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (g *Gateway) Charge(ctx context.Context, req checkout.ChargeRequest) (*checkout.Receipt, error) {
	form := url.Values{}
	form.Set("amount", strconv.FormatInt(req.Amount, 10))
	form.Set("currency", req.Currency)
	form.Set("source", req.SourceToken)
	if req.Description != "" {
		form.Set("description", req.Description)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimRight(g.cfg.APIURL, "/")+"/v1/charges",
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, &checkout.ProcessorError{Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.Header.Set("Authorization", "Bearer "+g.cfg.SecretKey)

	resp, err := g.client.Do(httpReq)
	if err != nil {
		// Once Do returns an error the request may or may not have reached
		// the processor. Interruptions (cancellation, deadline, timeout) are
		// ambiguous; the caller must not resubmit blindly.
		if isInterrupted(ctx, err) {
			return nil, &checkout.AmbiguousOutcomeError{Err: err}
		}
		return nil, &checkout.ProcessorError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		// The processor answered but the response was cut off before it
		// could be read, so the outcome is unknown.
		return nil, &checkout.AmbiguousOutcomeError{Err: err}
	}

	var payload chargeResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		if resp.StatusCode == http.StatusOK {
			return nil, &checkout.AmbiguousOutcomeError{Err: fmt.Errorf("unreadable success response: %w", err)}
		}
		return nil, &checkout.ProcessorError{Err: fmt.Errorf("processor returned status %d", resp.StatusCode)}
	}

	if resp.StatusCode == http.StatusOK && payload.Status == "succeeded" {
		return &checkout.Receipt{
			ChargeID: payload.ID,
			Amount:   req.Amount,
			Currency: req.Currency,
		}, nil
	}

	return nil, &checkout.ProcessorError{Reason: declineReason(resp.StatusCode, payload)}
}

func declineReason(status int, payload chargeResponse) string {
	switch {
	case payload.Error.Message != "":
		return payload.Error.Message
	case payload.FailureMessage != "":
		return payload.FailureMessage
	case payload.Error.Code != "":
		return payload.Error.Code
	default:
		return fmt.Sprintf("processor returned status %d", status)
	}
}

// isInterrupted reports whether a transport error means the call was cut off
// mid-flight rather than definitively refused.
func isInterrupted(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return true
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
