// Package api exposes the monitor and the practice database over HTTP.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/sqlpulse/sqlpulse/internal/config"
	"github.com/sqlpulse/sqlpulse/internal/logging"
	"github.com/sqlpulse/sqlpulse/internal/model"
	"github.com/sqlpulse/sqlpulse/internal/monitor"
	"github.com/sqlpulse/sqlpulse/internal/profiler"
	"github.com/sqlpulse/sqlpulse/internal/store"
)

// Deps carries everything the handlers need.
type Deps struct {
	Monitor    *monitor.Monitor
	Store      *store.Store
	Profiler   *profiler.Profiler
	DB         config.DB
	Thresholds model.Thresholds
	Log        *logging.Logger
	Hub        *Hub
}

// NewRouter creates the HTTP router with all API routes.
func NewRouter(deps Deps) http.Handler {
	mux := http.NewServeMux()

	ma := &monitorAPI{deps: deps}
	aa := &analyticsAPI{deps: deps}

	// Monitoring
	mux.HandleFunc("GET /api/v1/monitor/status", ma.status)
	mux.HandleFunc("GET /api/v1/monitor/metrics", ma.metrics)
	mux.HandleFunc("GET /api/v1/monitor/alerts", ma.alerts)
	mux.HandleFunc("GET /api/v1/monitor/report", ma.report)
	mux.HandleFunc("POST /api/v1/profile", ma.profile)

	// Practice database analytics
	mux.HandleFunc("GET /api/stats", aa.stats)
	mux.HandleFunc("GET /api/customers", aa.customers)
	mux.HandleFunc("GET /api/customers/{id}", aa.customer)
	mux.HandleFunc("GET /api/customers/{id}/orders", aa.customerOrders)
	mux.HandleFunc("GET /api/products", aa.products)
	mux.HandleFunc("GET /api/products/{id}", aa.product)
	mux.HandleFunc("GET /api/orders", aa.orders)
	mux.HandleFunc("GET /api/orders/{id}", aa.order)
	mux.HandleFunc("GET /api/analytics/sales-by-month", aa.salesByMonth)
	mux.HandleFunc("GET /api/analytics/top-products", aa.topProducts)
	mux.HandleFunc("GET /api/search/customers", aa.searchCustomers)

	// WebSocket snapshot stream
	if deps.Hub != nil {
		mux.HandleFunc("GET /api/v1/ws", deps.Hub.HandleWS)
	}

	return withMiddleware(mux, deps.Log)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
