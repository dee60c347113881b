package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type Handlers struct {
	Catalog  *CatalogHandler
	Cart     *CartHandler
	Accounts *AccountHandler
	Orders   *OrdersHandler
	Contact  *ContactHandler
}

type RouterConfig struct {
	RequestTimeout time.Duration
	CartTTL        time.Duration
	SecureCookies  bool
	Tokens         TokenParser
	// Health reports backing store status for /health; nil means always healthy.
	Health func(ctx context.Context) error
}

func NewRouter(h Handlers, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.Compress(5))

	r.Get("/health", healthHandler(cfg.Health))
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(CartSessionMiddleware(cfg.CartTTL, cfg.SecureCookies))
		r.Use(AuthMiddleware(cfg.Tokens))

		r.Get("/home", h.Catalog.Home)
		r.Post("/contact", h.Contact.Submit)
		r.Get("/products", h.Catalog.ListProducts)
		r.Get("/products/{product_id}", h.Catalog.GetProduct)
		r.Get("/categories", h.Catalog.ListCategories)
		r.Get("/carriers", h.Catalog.ListCarriers)

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", h.Cart.GetCart)
			r.Delete("/", h.Cart.ClearCart)
			r.Post("/items/{product_id}", h.Cart.AddItem)
			r.Post("/items/{product_id}/decrease", h.Cart.DecreaseItem)
			r.Delete("/items/{product_id}", h.Cart.RemoveItem)
		})

		r.Post("/auth/register", h.Accounts.Register)
		r.Post("/auth/login", h.Accounts.Login)
		r.Post("/auth/logout", h.Accounts.Logout)

		r.Group(func(r chi.Router) {
			r.Use(RequireAuth)

			r.Put("/account/password", h.Accounts.ChangePassword)
			r.Get("/account/addresses", h.Accounts.ListAddresses)
			r.Post("/account/addresses", h.Accounts.AddAddress)
			r.Delete("/account/addresses/{address_id}", h.Accounts.DeleteAddress)

			r.Get("/checkout", h.Orders.Preview)
			r.Post("/orders", h.Orders.CreateOrder)
			r.Get("/orders", h.Orders.ListOrders)
			r.Get("/orders/{reference}", h.Orders.GetOrder)
			r.Post("/orders/{reference}/payment", h.Orders.CreatePayment)
			r.Get("/payment/success/{session_id}", h.Orders.PaymentSuccess)
			r.Get("/payment/fail/{session_id}", h.Orders.PaymentFail)

			r.Group(func(r chi.Router) {
				r.Use(RequireAdmin)
				r.Put("/admin/orders/{reference}/state", h.Orders.AdvanceState)
			})
		})
	})

	return otelhttp.NewHandler(r, "storefront")
}

func healthHandler(check func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := check(ctx); err != nil {
				slog.ErrorContext(r.Context(), "health check failed", "error", err)
				respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
