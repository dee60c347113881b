package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/fjod/go_cart/storefront/pkg/circuitbreaker"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/checkout/session"
)

// StatusError is a non-2xx answer from the provider. The provider's message
// is dropped so it never reaches callers.
type StatusError struct {
	StatusCode int
	Code       string
}

func (e *StatusError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("provider responded with status %d (%s)", e.StatusCode, e.Code)
	}
	return fmt.Sprintf("provider responded with status %d", e.StatusCode)
}

type StripeConfig struct {
	APIURL    string
	SecretKey string
	Currency  string
	Timeout   time.Duration
	Breaker   circuitbreaker.Settings
}

// StripeClient creates hosted checkout sessions through stripe-go.
type StripeClient struct {
	sessions session.Client
	currency string
	breaker  *circuitbreaker.Breaker[*Session]
}

func NewStripeClient(cfg StripeConfig) *StripeClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Currency == "" {
		cfg.Currency = "eur"
	}

	backendCfg := &stripe.BackendConfig{
		HTTPClient:        &http.Client{Timeout: cfg.Timeout},
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     slogLogger{},
	}
	if cfg.APIURL != "" {
		backendCfg.URL = stripe.String(strings.TrimRight(cfg.APIURL, "/"))
	}

	bs := cfg.Breaker
	// rejected requests say nothing about provider health
	bs.IsSuccessful = func(err error) bool {
		var se *StatusError
		if errors.As(err, &se) {
			return se.StatusCode < http.StatusInternalServerError
		}
		return err == nil
	}

	return &StripeClient{
		sessions: session.Client{
			B:   stripe.GetBackendWithConfig(stripe.APIBackend, backendCfg),
			Key: cfg.SecretKey,
		},
		currency: strings.ToLower(cfg.Currency),
		breaker:  circuitbreaker.New[*Session]("payment-gateway", bs),
	}
}

func (c *StripeClient) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*Session, error) {
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("%w: no line items", ErrGateway)
	}

	params := c.params(req)
	params.Context = ctx

	out, err := c.breaker.Execute(func() (*Session, error) {
		s, err := c.sessions.New(params)
		if err != nil {
			return nil, providerError(err)
		}
		if s.ID == "" || s.URL == "" {
			return nil, errors.New("session without id or url")
		}
		return &Session{ID: s.ID, URL: s.URL}, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGateway, err)
	}
	return out, nil
}

func (c *StripeClient) params(req CheckoutRequest) *stripe.CheckoutSessionParams {
	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
	}
	if req.ClientReference != "" {
		params.ClientReferenceID = stripe.String(req.ClientReference)
	}
	for _, item := range req.Items {
		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(c.currency),
				UnitAmount: stripe.Int64(item.UnitPrice),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(item.Name),
				},
			},
			Quantity: stripe.Int64(int64(item.Quantity)),
		})
	}
	return params
}

func providerError(err error) error {
	var se *stripe.Error
	if errors.As(err, &se) {
		return &StatusError{StatusCode: se.HTTPStatusCode, Code: string(se.Code)}
	}
	return err
}

// slogLogger routes stripe-go's own logging into slog.
type slogLogger struct{}

func (slogLogger) Debugf(format string, v ...interface{}) { slog.Debug(fmt.Sprintf(format, v...)) }
func (slogLogger) Infof(format string, v ...interface{})  { slog.Debug(fmt.Sprintf(format, v...)) }
func (slogLogger) Warnf(format string, v ...interface{})  { slog.Warn(fmt.Sprintf(format, v...)) }
func (slogLogger) Errorf(format string, v ...interface{}) { slog.Error(fmt.Sprintf(format, v...)) }
