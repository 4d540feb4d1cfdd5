package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type RouterConfig struct {
	RequestTimeout     time.Duration
	MaxRequestBodySize int64
	JWTSecret          []byte
}

type Handlers struct {
	Products *ProductHandler
	Cart     *CartHandler
	Checkout *CheckoutHandler
	Orders   *OrdersHandler
	Profile  *ProfileHandler
	// Metrics serves /metrics; MetricsMiddleware observes every request.
	Metrics           http.Handler
	MetricsMiddleware func(http.Handler) http.Handler
}

func NewRouter(cfg RouterConfig, hs Handlers, log *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestIDMiddleware)
	r.Use(RequestLogger(log))
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.Compress(5))
	if hs.MetricsMiddleware != nil {
		r.Use(hs.MetricsMiddleware)
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if hs.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", hs.Metrics)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(MaxBodySize(cfg.MaxRequestBodySize))

		r.Get("/products", hs.Products.List)

		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(cfg.JWTSecret))

			r.Get("/products/mine", hs.Products.ListMine)
			r.Post("/products", hs.Products.Create)
			r.Put("/products/{product_id}", hs.Products.Update)

			r.Get("/cart", hs.Cart.GetCart)
			r.Post("/cart/items", hs.Cart.AddItem)
			r.Put("/cart/items/{product_id}", hs.Cart.UpdateQuantity)
			r.Delete("/cart/items/{product_id}", hs.Cart.RemoveItem)

			r.Post("/checkout", hs.Checkout.Checkout)

			r.Get("/orders", hs.Orders.ListMine)
			r.Get("/orders/seller", hs.Orders.ListSeller)
			r.Get("/orders/{order_id}", hs.Orders.Get)
			r.Put("/orders/{order_id}/mark-done", hs.Orders.MarkDone)
			r.Put("/orders/{order_id}/ensure-done", hs.Orders.EnsureDone)

			r.Get("/me", hs.Profile.Get)
			r.Put("/me", hs.Profile.Put)
		})
	})

	return otelhttp.NewHandler(r, "marketplace")
}
