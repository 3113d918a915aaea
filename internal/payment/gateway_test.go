package payment

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aingc/stripe-example/internal/checkout"
)

func chargeReq() checkout.ChargeRequest {
	return checkout.ChargeRequest{
		Amount:      1700,
		Currency:    "usd",
		SourceToken: "tok_visa",
		Description: "storefront purchase, 2 line(s)",
	}
}

func TestGateway_ChargeSuccess(t *testing.T) {
	var gotForm map[string]string
	var gotAuth string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/charges", r.URL.Path)
		require.NoError(t, r.ParseForm())

		gotAuth = r.Header.Get("Authorization")
		gotForm = map[string]string{
			"amount":   r.PostForm.Get("amount"),
			"currency": r.PostForm.Get("currency"),
			"source":   r.PostForm.Get("source"),
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id": "ch_1ABC", "status": "succeeded"}`))
	}))
	defer srv.Close()

	g := NewGateway(Config{APIURL: srv.URL, SecretKey: "sk_test_123"})
	receipt, err := g.Charge(context.Background(), chargeReq())

	require.NoError(t, err)
	assert.Equal(t, "ch_1ABC", receipt.ChargeID)
	assert.Equal(t, int64(1700), receipt.Amount)
	assert.Equal(t, "usd", receipt.Currency)

	assert.Equal(t, "Bearer sk_test_123", gotAuth)
	assert.Equal(t, "1700", gotForm["amount"])
	assert.Equal(t, "usd", gotForm["currency"])
	assert.Equal(t, "tok_visa", gotForm["source"])
}

func TestGateway_DeclineCarriesProcessorReason(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusPaymentRequired)
		w.Write([]byte(`{"error": {"code": "card_declined", "message": "Your card was declined."}}`))
	}))
	defer srv.Close()

	g := NewGateway(Config{APIURL: srv.URL, SecretKey: "sk_test_123"})
	_, err := g.Charge(context.Background(), chargeReq())

	var procErr *checkout.ProcessorError
	require.ErrorAs(t, err, &procErr)
	assert.Equal(t, "Your card was declined.", procErr.Reason)
}

func TestGateway_ServerErrorIsProcessorError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	g := NewGateway(Config{APIURL: srv.URL, SecretKey: "sk_test_123"})
	_, err := g.Charge(context.Background(), chargeReq())

	var procErr *checkout.ProcessorError
	require.ErrorAs(t, err, &procErr)
}

func TestGateway_ConnectionRefusedIsProcessorError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // nothing is listening anymore

	g := NewGateway(Config{APIURL: srv.URL, SecretKey: "sk_test_123"})
	_, err := g.Charge(context.Background(), chargeReq())

	// The request never reached the processor, so this is a definitive
	// failure, not an ambiguous one.
	var procErr *checkout.ProcessorError
	require.ErrorAs(t, err, &procErr)
}

func TestGateway_CancelledMidFlightIsAmbiguous(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-release
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()

	g := NewGateway(Config{APIURL: srv.URL, SecretKey: "sk_test_123"})
	_, err := g.Charge(ctx, chargeReq())

	var ambiguous *checkout.AmbiguousOutcomeError
	require.ErrorAs(t, err, &ambiguous,
		"a charge interrupted in flight must be ambiguous, not failed")
}

func TestGateway_TimeoutIsAmbiguous(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	g := NewGateway(Config{APIURL: srv.URL, SecretKey: "sk_test_123", Timeout: 50 * time.Millisecond})
	_, err := g.Charge(context.Background(), chargeReq())

	var ambiguous *checkout.AmbiguousOutcomeError
	require.ErrorAs(t, err, &ambiguous)
}

func TestGateway_UnreadableSuccessBodyIsAmbiguous(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id": "ch_`)) // truncated
	}))
	defer srv.Close()

	g := NewGateway(Config{APIURL: srv.URL, SecretKey: "sk_test_123"})
	_, err := g.Charge(context.Background(), chargeReq())

	var ambiguous *checkout.AmbiguousOutcomeError
	require.ErrorAs(t, err, &ambiguous)
}
