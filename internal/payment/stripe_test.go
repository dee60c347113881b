package payment

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fjod/go_cart/storefront/pkg/circuitbreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(url string) *StripeClient {
	return NewStripeClient(StripeConfig{
		APIURL:    url,
		SecretKey: "sk_test_key",
		Currency:  "EUR",
		Timeout:   2 * time.Second,
		Breaker: circuitbreaker.Settings{
			ConsecutiveFailures: 2,
			OpenTimeout:         time.Minute,
			HalfOpenRequests:    1,
		},
	})
}

func testRequest() CheckoutRequest {
	return CheckoutRequest{
		ClientReference: "20240101120000-abc",
		Items: []LineItem{
			{Name: "A", UnitPrice: 1000, Quantity: 2},
			{Name: "B", UnitPrice: 500, Quantity: 1},
			{Name: "Colissimo", UnitPrice: 300, Quantity: 1},
		},
		SuccessURL: "https://shop.test/api/v1/payment/success/{CHECKOUT_SESSION_ID}",
		CancelURL:  "https://shop.test/api/v1/payment/fail/{CHECKOUT_SESSION_ID}",
	}
}

func writeStripeError(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func TestCreateCheckoutSession_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/checkout/sessions", r.URL.Path)
		assert.Equal(t, "Bearer sk_test_key", r.Header.Get("Authorization"))

		require.NoError(t, r.ParseForm())
		assert.Equal(t, "payment", r.PostForm.Get("mode"))
		assert.Equal(t, "20240101120000-abc", r.PostForm.Get("client_reference_id"))
		assert.Equal(t, "eur", r.PostForm.Get("line_items[0][price_data][currency]"))
		assert.Equal(t, "1000", r.PostForm.Get("line_items[0][price_data][unit_amount]"))
		assert.Equal(t, "2", r.PostForm.Get("line_items[0][quantity]"))
		assert.Equal(t, "Colissimo", r.PostForm.Get("line_items[2][price_data][product_data][name]"))
		assert.Equal(t, "1", r.PostForm.Get("line_items[2][quantity]"))
		assert.Contains(t, r.PostForm.Get("success_url"), "{CHECKOUT_SESSION_ID}")

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"cs_test_1","object":"checkout.session","url":"https://pay.test/c/cs_test_1"}`))
	}))
	defer srv.Close()

	session, err := newTestClient(srv.URL).CreateCheckoutSession(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, "cs_test_1", session.ID)
	assert.Equal(t, "https://pay.test/c/cs_test_1", session.URL)
}

func TestCreateCheckoutSession_CanceledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"id":"cs_test_1","object":"checkout.session","url":"https://pay.test/c/cs_test_1"}`))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestClient(srv.URL).CreateCheckoutSession(ctx, testRequest())
	assert.ErrorIs(t, err, ErrGateway)
}

func TestCreateCheckoutSession_ProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeStripeError(w, http.StatusBadRequest, `{"error":{"type":"invalid_request_error","code":"parameter_missing","message":"secret detail"}}`)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).CreateCheckoutSession(context.Background(), testRequest())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrGateway)
	assert.NotContains(t, err.Error(), "secret detail")

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusBadRequest, se.StatusCode)
	assert.Equal(t, "parameter_missing", se.Code)
}

func TestCreateCheckoutSession_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := newTestClient(url).CreateCheckoutSession(context.Background(), testRequest())
	assert.ErrorIs(t, err, ErrGateway)
}

func TestCreateCheckoutSession_BreakerOpensOnServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		writeStripeError(w, http.StatusServiceUnavailable, `{"error":{"type":"api_error","message":"overloaded"}}`)
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	for i := 0; i < 2; i++ {
		_, err := client.CreateCheckoutSession(context.Background(), testRequest())
		assert.ErrorIs(t, err, ErrGateway)
	}

	_, err := client.CreateCheckoutSession(context.Background(), testRequest())
	assert.ErrorIs(t, err, ErrGateway)
	assert.ErrorIs(t, err, circuitbreaker.ErrOpen)
	assert.Equal(t, int32(2), calls.Load())
}

func TestCreateCheckoutSession_ClientErrorsDoNotTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeStripeError(w, http.StatusBadRequest, `{"error":{"type":"invalid_request_error","message":"bad amount"}}`)
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	for i := 0; i < 5; i++ {
		_, err := client.CreateCheckoutSession(context.Background(), testRequest())
		assert.NotErrorIs(t, err, circuitbreaker.ErrOpen)
	}
	assert.Equal(t, "closed", client.breaker.State())
}

func TestCreateCheckoutSession_NoItems(t *testing.T) {
	_, err := newTestClient("http://unused").CreateCheckoutSession(context.Background(), CheckoutRequest{})
	assert.ErrorIs(t, err, ErrGateway)
}

func TestTotal(t *testing.T) {
	assert.Equal(t, int64(2800), Total(testRequest().Items))
}
