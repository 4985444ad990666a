// Package testutil spins up the full admin HTTP stack for integration tests.
package testutil

import (
	"net/http/httptest"
	"testing"

	"github.com/songviet/po-admin/internal/admin/categories"
	"github.com/songviet/po-admin/internal/admin/httpserver"
	"github.com/songviet/po-admin/internal/admin/httpserver/middleware"
	adminorders "github.com/songviet/po-admin/internal/admin/orders"
	"github.com/songviet/po-admin/internal/admin/products"
	"github.com/songviet/po-admin/internal/admin/session"
)

// ServerOption customises the HTTP server configuration for tests.
type ServerOption func(*httpserver.Config)

// WithAuthenticator overrides the authenticator used by the gateway.
func WithAuthenticator(auth middleware.Authenticator) ServerOption {
	return func(cfg *httpserver.Config) {
		cfg.Authenticator = auth
	}
}

// WithBasePath sets a custom base path for the API routes.
func WithBasePath(path string) ServerOption {
	return func(cfg *httpserver.Config) {
		cfg.BasePath = path
	}
}

// WithSessions wires a custom session manager.
func WithSessions(manager *session.Manager) ServerOption {
	return func(cfg *httpserver.Config) {
		cfg.Sessions = manager
	}
}

// WithOrderService wires a custom order service implementation.
func WithOrderService(service adminorders.Service) ServerOption {
	return func(cfg *httpserver.Config) {
		cfg.Handlers.OrderService = service
	}
}

// WithCategoryService wires a custom category service implementation.
func WithCategoryService(service categories.Service) ServerOption {
	return func(cfg *httpserver.Config) {
		cfg.Handlers.CategoryService = service
	}
}

// WithProductService wires a custom product service implementation.
func WithProductService(service products.Service) ServerOption {
	return func(cfg *httpserver.Config) {
		cfg.Handlers.ProductService = service
	}
}

// NewServer constructs an httptest server running the admin gateway with the
// in-memory services.
func NewServer(t testing.TB, opts ...ServerOption) *httptest.Server {
	t.Helper()

	sessions, err := session.NewManager(session.Config{
		HashKey: []byte("0123456789abcdef0123456789abcdef"),
	})
	if err != nil {
		t.Fatalf("session manager: %v", err)
	}

	cfg := httpserver.Config{
		Address:  ":0",
		BasePath: "/api",
		Sessions: sessions,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	srv := httpserver.New(cfg)
	ts := httptest.NewServer(srv.Handler)
	t.Cleanup(ts.Close)
	return ts
}
