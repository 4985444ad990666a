// Package httpserver assembles the chi router for the admin gateway.
package httpserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/securecookie"
	"go.uber.org/zap"

	"github.com/songviet/po-admin/internal/admin/httpserver/api"
	custommw "github.com/songviet/po-admin/internal/admin/httpserver/middleware"
	"github.com/songviet/po-admin/internal/admin/rbac"
	appsession "github.com/songviet/po-admin/internal/admin/session"
)

// Config holds runtime options for the admin HTTP server.
type Config struct {
	Address       string
	BasePath      string
	Sessions      custommw.SessionStore
	Authenticator custommw.Authenticator
	Handlers      api.Dependencies
	Logger        *zap.Logger
}

// New constructs the HTTP server with the full middleware stack.
func New(cfg Config) *http.Server {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := chi.NewRouter()
	router.Use(chimw.RequestID)
	router.Use(chimw.RealIP)
	router.Use(custommw.RequestLogger(logger))
	router.Use(chimw.Recoverer)
	router.Use(chimw.Timeout(60 * time.Second))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	authenticator := cfg.Authenticator
	if authenticator == nil {
		authenticator = custommw.DefaultAuthenticator()
	}

	sessions := cfg.Sessions
	if sessions == nil {
		// Ephemeral keys: fine for development, sessions die with the process.
		manager, err := appsession.NewManager(appsession.Config{
			HashKey:  securecookie.GenerateRandomKey(32),
			BlockKey: securecookie.GenerateRandomKey(32),
		})
		if err != nil {
			logger.Fatal("init session manager", zap.Error(err))
		}
		sessions = manager
	}

	handlers := api.NewHandlers(cfg.Handlers)
	mountAPIRoutes(router, normalizeBasePath(cfg.BasePath), routeOptions{
		Sessions:      sessions,
		Authenticator: authenticator,
		Handlers:      handlers,
		Logger:        logger,
	})

	return &http.Server{
		Addr:         cfg.Address,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

type routeOptions struct {
	Sessions      custommw.SessionStore
	Authenticator custommw.Authenticator
	Handlers      *api.Handlers
	Logger        *zap.Logger
}

func mountAPIRoutes(router chi.Router, base string, opts routeOptions) {
	router.Route(base, func(r chi.Router) {
		r.Use(custommw.Session(opts.Sessions, opts.Logger))

		// Session creation happens before any token exists.
		r.Post("/auth/session", opts.Handlers.CreateSession)
		r.Delete("/auth/session", opts.Handlers.DestroySession)

		r.Group(func(r chi.Router) {
			r.Use(custommw.Auth(opts.Authenticator, opts.Logger))

			r.Get("/auth/session", opts.Handlers.Profile)

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", opts.Handlers.ListOrders)
				r.Post("/", opts.Handlers.CreateOrder)
				r.Get("/stats", opts.Handlers.OrderStats)
				r.Get("/ids", opts.Handlers.EligibleOrderIDs)
				r.Get("/merged-by-month", opts.Handlers.MergedOrdersByMonth)
				r.Get("/merged-by-year", opts.Handlers.MergedOrdersByYear)
				r.With(custommw.RequireCapability(rbac.CapOrdersMerge)).
					Post("/merge", opts.Handlers.MergeOrders)
				r.With(custommw.RequireCapability(rbac.CapOrdersSplit)).
					Post("/split", opts.Handlers.SplitOrder)
				r.With(custommw.RequireCapability(rbac.CapOrdersImport)).
					Post("/import", opts.Handlers.ImportOrders)
				r.Get("/{number}", opts.Handlers.GetOrder)
				r.Put("/{number}", opts.Handlers.UpdateOrder)
				r.Delete("/{number}", opts.Handlers.DeleteOrder)
			})

			r.Route("/merge-orders", func(r chi.Router) {
				r.Get("/", opts.Handlers.ListMergedOrders)
				r.Get("/stats", opts.Handlers.MergedOrderStats)
				r.Get("/{number}", opts.Handlers.GetOrder)
				r.Put("/{number}", opts.Handlers.UpdateOrder)
			})

			exportGuard := custommw.RequireCapability(rbac.CapOrdersExport)
			r.With(exportGuard).Post("/export-order", opts.Handlers.ExportOrders)
			r.With(exportGuard).Post("/export-order/quick", opts.Handlers.QuickExportOrders)
			r.With(exportGuard).Post("/export-merged-orders-multi-months", opts.Handlers.ExportMergedByMonths)
			r.With(exportGuard).Post("/export-merged-orders-multi-years", opts.Handlers.ExportMergedByYears)

			r.Get("/order-statuses", opts.Handlers.OrderStatuses)
			r.Get("/products", opts.Handlers.ListProducts)

			r.Route("/categories", func(r chi.Router) {
				r.Get("/", opts.Handlers.ListCategories)
				r.Get("/{id}", opts.Handlers.GetCategory)

				manage := custommw.RequireCapability(rbac.CapCategoriesManage)
				r.With(manage).Post("/", opts.Handlers.CreateCategory)
				r.With(manage).Put("/{id}", opts.Handlers.UpdateCategory)
				r.With(manage).Put("/{id}/status", opts.Handlers.RestoreCategory)
			})
		})
	})
}

func normalizeBasePath(path string) string {
	p := strings.TrimSpace(path)
	if p == "" {
		return "/api"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimRight(p, "/")
	}
	if p == "" {
		return "/"
	}
	return p
}
