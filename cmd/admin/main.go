package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/songviet/po-admin/internal/admin/backend"
	"github.com/songviet/po-admin/internal/admin/categories"
	"github.com/songviet/po-admin/internal/admin/export"
	"github.com/songviet/po-admin/internal/admin/httpserver"
	"github.com/songviet/po-admin/internal/admin/httpserver/api"
	custommw "github.com/songviet/po-admin/internal/admin/httpserver/middleware"
	"github.com/songviet/po-admin/internal/admin/orders"
	"github.com/songviet/po-admin/internal/admin/products"
	"github.com/songviet/po-admin/internal/admin/session"
)

func main() {
	_ = godotenv.Load()

	logger, err := buildLogger(os.Getenv("ENV"))
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	cfg := httpserver.Config{
		Address:  getEnv("ADMIN_HTTP_ADDR", ":8080"),
		BasePath: getEnv("ADMIN_BASE_PATH", "/api"),
		Sessions: buildSessions(logger),
		Handlers: buildServices(logger),
		Logger:   logger,
	}

	srv := httpserver.New(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	logger.Info("admin gateway listening",
		zap.String("address", cfg.Address),
		zap.String("base_path", cfg.BasePath),
	)

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
		os.Exit(1)
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func buildLogger(env string) (*zap.Logger, error) {
	if env == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// buildSessions returns the session store for the configured keys. The nil
// return must stay an untyped nil: a typed *session.Manager nil would make
// the Config.Sessions interface non-nil and defeat the server's
// ephemeral-key fallback.
func buildSessions(logger *zap.Logger) custommw.SessionStore {
	hashKey := os.Getenv("SESSION_HASH_KEY")
	if hashKey == "" {
		logger.Warn("SESSION_HASH_KEY not set; sessions will not survive restarts")
		return nil
	}

	manager, err := session.NewManager(session.Config{
		HashKey:      []byte(hashKey),
		BlockKey:     blockKey(os.Getenv("SESSION_BLOCK_KEY")),
		CookieSecure: os.Getenv("ENV") == "production",
	})
	if err != nil {
		logger.Fatal("init session manager", zap.Error(err))
	}
	return manager
}

func blockKey(raw string) []byte {
	if raw == "" {
		return nil
	}
	return []byte(raw)
}

// buildServices wires the domain services against the order backend. Without
// BACKEND_BASE_URL the gateway falls back to the in-memory services, which is
// enough to click through the SPA locally.
func buildServices(logger *zap.Logger) api.Dependencies {
	deps := api.Dependencies{Logger: logger}

	baseURL := os.Getenv("BACKEND_BASE_URL")
	if baseURL == "" {
		logger.Warn("BACKEND_BASE_URL not set; serving in-memory sample data")
		orderService := orders.NewStaticService(nil)
		orderService.RenderExport = export.Workbook
		deps.OrderService = orderService
		deps.CategoryService = categories.NewStaticService(nil)
		deps.ProductService = products.NewStaticService(nil)
		return deps
	}

	client, err := backend.NewClient(baseURL, &http.Client{Timeout: 30 * time.Second})
	if err != nil {
		logger.Fatal("init backend client", zap.String("base_url", baseURL), zap.Error(err))
	}

	deps.OrderService = orders.NewHTTPService(client)
	deps.CategoryService = categories.NewHTTPService(client)
	deps.ProductService = products.NewHTTPService(client)
	logger.Info("backend client initialised", zap.String("base_url", baseURL))
	return deps
}
