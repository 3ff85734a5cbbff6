/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. Logger:     logrus request logging (method, path, status, duration)
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. CORS:       Cross-origin requests for the POS frontend

ROUTE GROUPS:
  /api/auth/*        Admin accounts and tokens
  /api/categories/*  Menu categories
  /api/menu/*        Menu items
  /api/orders/*      Table orders
  /api/payments/*    Table settlement (admin)
  /api/reports/*     Sales reports (admin)
  /api/scenarios/*   Demo scenarios (dev mode only)

SECURITY:
  Routes marked (admin) in handlers.go run behind RequireAdmin. Ordering
  from a table and browsing the menu stay public.

SEE ALSO:
  - handlers.go: Handler implementations
  - auth.go: RequireAdmin
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"
)

// RouterConfig holds the router options that come from configuration.
type RouterConfig struct {
	AllowedOrigins []string
	// DevMode mounts the demo scenario routes.
	DevMode bool
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(h.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", h.Register)
			r.Post("/login", h.Login)
			r.With(h.RequireAdmin).Get("/verify", h.Verify)
			r.With(h.RequireAdmin).Post("/logout", h.Logout)
		})

		r.Route("/categories", func(r chi.Router) {
			r.Post("/", h.CreateCategory)
			r.Get("/", h.ListCategories)
			r.With(h.RequireAdmin).Put("/{id}", h.UpdateCategory)
			r.With(h.RequireAdmin).Delete("/{id}", h.DeleteCategory)
		})

		r.Route("/menu", func(r chi.Router) {
			r.Get("/", h.ListMenu)
			r.Get("/{id}", h.GetMenuItem)
			r.With(h.RequireAdmin).Post("/", h.CreateMenuItem)
			r.With(h.RequireAdmin).Put("/{id}", h.UpdateMenuItem)
			r.With(h.RequireAdmin).Delete("/{id}", h.DeleteMenuItem)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", h.CreateOrder)
			r.Get("/", h.ListOrders)
			r.Get("/unpaid", h.ListUnpaidOrders)
			r.With(h.RequireAdmin).Get("/{id}", h.GetOrder)
			r.With(h.RequireAdmin).Put("/{id}", h.UpdateOrder)
			r.With(h.RequireAdmin).Delete("/{id}", h.DeleteOrder)
		})

		r.Route("/payments", func(r chi.Router) {
			r.Use(h.RequireAdmin)
			r.Post("/", h.CreatePayment)
			r.Get("/", h.ListPayments)
			r.Get("/{id}", h.GetPayment)
		})

		r.Route("/reports", func(r chi.Router) {
			r.Use(h.RequireAdmin)
			r.Get("/", h.ListReports)
			r.Get("/current-month", h.CurrentMonthReport)
			r.Get("/monthly", h.MonthlyReport)
			r.Get("/yearly", h.YearlyReport)
			r.Get("/custom", h.CustomReport)
			r.Get("/download/{id}", h.DownloadReport)
			r.Get("/{id}", h.GetReport)
		})

		if cfg.DevMode {
			r.Route("/scenarios", func(r chi.Router) {
				r.Get("/", h.ListScenarios)
				r.Get("/current", h.GetCurrentScenario)
				r.Post("/load", h.LoadScenario)
				r.Post("/reset", h.ResetDatabase)
			})
		}
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return r
}

// requestLogger logs one line per request once the response is written.
func (h *Handler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			entry := h.requestLog(r).WithFields(logrus.Fields{
				"method":      r.Method,
				"path":        r.URL.Path,
				"status":      ww.Status(),
				"bytes":       ww.BytesWritten(),
				"duration_ms": time.Since(start).Milliseconds(),
			})
			if ww.Status() >= http.StatusInternalServerError {
				entry.Warn("request failed")
				return
			}
			entry.Debug("request served")
		}()
		next.ServeHTTP(ww, r)
	})
}

// requestLog is the handler logger tagged with the chi request id.
func (h *Handler) requestLog(r *http.Request) logrus.FieldLogger {
	if id := middleware.GetReqID(r.Context()); id != "" {
		return h.Log.WithField("request_id", id)
	}
	return h.Log
}
