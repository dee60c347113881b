package service

import (
	"strings"
	"time"

	"github.com/fjod/go_cart/storefront/internal/notification"
	"github.com/fjod/go_cart/storefront/internal/payment"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("github.com/fjod/go_cart/storefront/internal/service")

const (
	checkoutSessionPlaceholder = "{CHECKOUT_SESSION_ID}"
	successPath                = "/api/v1/payment/success/"
	failPath                   = "/api/v1/payment/fail/"
)

type OrderDeps struct {
	Orders    OrderStore
	Users     UserStore
	Addresses AddressStore
	Carriers  CarrierStore
	Cart      Cart
	Gateway   payment.Gateway
	Notifier  notification.Sender
	// PublicBaseURL is where the gateway sends the browser back to.
	PublicBaseURL string
}

// OrderService turns carts into orders and reconciles their payment.
type OrderService struct {
	orders    OrderStore
	users     UserStore
	addresses AddressStore
	carriers  CarrierStore
	cart      Cart
	gateway   payment.Gateway
	notifier  notification.Sender
	baseURL   string
	now       func() time.Time
}

func NewOrderService(deps OrderDeps) *OrderService {
	notifier := deps.Notifier
	if notifier == nil {
		notifier = notification.NopSender{}
	}
	return &OrderService{
		orders:    deps.Orders,
		users:     deps.Users,
		addresses: deps.Addresses,
		carriers:  deps.Carriers,
		cart:      deps.Cart,
		gateway:   deps.Gateway,
		notifier:  notifier,
		baseURL:   strings.TrimRight(deps.PublicBaseURL, "/"),
		now:       time.Now,
	}
}

func (s *OrderService) successURL() string {
	return s.baseURL + successPath + checkoutSessionPlaceholder
}

func (s *OrderService) failURL() string {
	return s.baseURL + failPath + checkoutSessionPlaceholder
}
