package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter mounts every route. gatherer backs /metrics; nil uses the default gatherer.
func NewRouter(h *HTTPEscrowHandler, gatherer prometheus.Gatherer) http.Handler {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	mux := chi.NewRouter()
	mux.Use(middleware.RequestID)
	mux.Use(middleware.RealIP)
	mux.Use(requestLogger)
	mux.Use(middleware.Recoverer)

	mux.Get("/health", h.Health)
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	mux.Get("/tokens", h.ListTokens)

	mux.Group(func(r chi.Router) {
		r.Use(h.JWTAuthMiddleware)
		r.Use(middleware.AllowContentType("application/json"))

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", h.CreateOrder)
			r.Get("/", h.ListOrders)
			r.Get("/{id}", h.GetOrder)
			r.Post("/{id}/cancel", h.CancelOrder)
			r.Post("/{id}/escrow", h.OpenEscrow)
		})

		r.Route("/escrows", func(r chi.Router) {
			r.Get("/", h.ListEscrows)
			r.Get("/{id}", h.GetEscrow)
			r.Post("/{id}/lock", h.LockEscrow)
			r.Post("/{id}/complete", h.CompleteEscrow)
			r.Post("/{id}/dispute", h.DisputeEscrow)
			r.Post("/{id}/refund", h.RefundEscrow)
		})

		r.Get("/balances", h.GetBalances)

		r.Route("/admin", func(r chi.Router) {
			r.Get("/escrows", h.ListAllEscrows)
			r.Post("/deposits", h.Deposit)
			r.Post("/withdrawals", h.Withdraw)
		})
	})
	return mux
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		slog.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
