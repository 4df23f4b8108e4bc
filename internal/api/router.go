package api

import (
	"database/sql"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	"go.uber.org/zap"

	"github.com/erazemk/zaloga/internal/model"
)

// Config wires the router to its collaborators.
type Config struct {
	DB        *sql.DB
	JWTSecret string
	Notifier  StockNotifier
	Logger    *zap.Logger

	// RateLimit applies to public endpoints, in limiter format ("10-M").
	RateLimit string
}

// NewRouter creates the API router with all endpoints registered and the
// request middleware applied.
func NewRouter(cfg Config) (http.Handler, error) {
	if cfg.Logger == nil {
		cfg.Logger = zap.L()
	}
	if cfg.RateLimit == "" {
		cfg.RateLimit = "10-M"
	}

	rate, err := limiter.NewRateFromFormatted(cfg.RateLimit)
	if err != nil {
		return nil, fmt.Errorf("parsing rate limit %q: %w", cfg.RateLimit, err)
	}
	rateLimit := stdlib.NewMiddleware(limiter.New(memory.NewStore(), rate),
		stdlib.WithLimitReachedHandler(func(w http.ResponseWriter, r *http.Request) {
			jsonError(w, http.StatusTooManyRequests, "rate limit exceeded")
		}),
	).Handler

	mux := http.NewServeMux()

	items := &ItemsHandler{DB: cfg.DB}
	requests := &RequestsHandler{DB: cfg.DB}
	products := &ProductsHandler{DB: cfg.DB, Notifier: cfg.Notifier}
	subscriptions := &SubscriptionsHandler{DB: cfg.DB}
	users := &UsersHandler{DB: cfg.DB}

	authMW := AuthMiddleware(cfg.JWTSecret, cfg.DB)
	requireAdmin := RequireRole(model.RoleAdmin)
	requireManager := RequirePermission(model.CanManageInventory)
	requireLedger := RequirePermission(model.CanViewAllRequests)

	// Public.
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.Handle("POST /api/restock-subscriptions", rateLimit(http.HandlerFunc(subscriptions.Create)))

	// Items: custodians act on their own items, admin and staff manage all.
	mux.Handle("POST /api/items", authMW(http.HandlerFunc(items.Create)))
	mux.Handle("GET /api/items", authMW(requireManager(http.HandlerFunc(items.List))))
	mux.Handle("GET /api/items/mine", authMW(http.HandlerFunc(items.Mine)))
	mux.Handle("GET /api/items/{id}", authMW(http.HandlerFunc(items.Get)))
	mux.Handle("PATCH /api/items/{id}", authMW(requireManager(http.HandlerFunc(items.SetStatus))))
	mux.Handle("DELETE /api/items/{id}", authMW(http.HandlerFunc(items.Delete)))
	mux.Handle("POST /api/items/{id}/assign", authMW(requireManager(http.HandlerFunc(items.Assign))))
	mux.Handle("POST /api/items/assign", authMW(requireManager(http.HandlerFunc(items.BulkAssign))))
	mux.Handle("PUT /api/items/supplier", authMW(http.HandlerFunc(items.RecordSupplier)))
	mux.Handle("POST /api/items/{id}/receive", authMW(http.HandlerFunc(items.Receive)))
	mux.Handle("GET /api/items/{id}/history", authMW(http.HandlerFunc(items.GetHistory)))
	mux.Handle("PUT /api/items/{id}/photo", authMW(http.HandlerFunc(items.UploadPhoto)))
	mux.Handle("GET /api/items/{id}/photo", authMW(http.HandlerFunc(items.GetPhoto)))

	// Purchase requests.
	mux.Handle("GET /api/purchase-requests", authMW(http.HandlerFunc(requests.ListMine)))
	mux.Handle("POST /api/purchase-requests", authMW(http.HandlerFunc(requests.Create)))
	mux.Handle("GET /api/admin/purchase-requests", authMW(requireLedger(http.HandlerFunc(requests.ListAll))))
	mux.Handle("PATCH /api/admin/purchase-requests/{id}", authMW(requireManager(http.HandlerFunc(requests.Update))))
	mux.Handle("POST /api/admin/purchase-requests/bulk", authMW(requireManager(http.HandlerFunc(requests.BulkUpdate))))

	// Catalog stock.
	mux.Handle("GET /api/products", authMW(http.HandlerFunc(products.List)))
	mux.Handle("POST /api/products", authMW(requireManager(http.HandlerFunc(products.Create))))
	mux.Handle("PUT /api/products/{id}/stock", authMW(requireManager(http.HandlerFunc(products.SetStock))))
	mux.Handle("POST /api/products/{id}/stock/adjust", authMW(requireManager(http.HandlerFunc(products.AdjustStock))))

	// Users (admin only).
	mux.Handle("GET /api/users", authMW(requireAdmin(http.HandlerFunc(users.List))))
	mux.Handle("POST /api/users", authMW(requireAdmin(http.HandlerFunc(users.Create))))
	mux.Handle("PUT /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(users.Update))))

	var handler http.Handler = MetricsMiddleware(mux)
	handler = TracingMiddleware(handler)
	handler = LoggingMiddleware(handler)
	handler = RequestIDMiddleware(cfg.Logger)(handler)
	return handler, nil
}
