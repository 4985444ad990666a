// Package api exposes the JSON handlers of the admin gateway. Handlers read
// the authenticated user from the request context, call the domain services
// with the user's backend token, and translate domain errors into HTTP
// status codes.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/songviet/po-admin/internal/admin/backend"
	"github.com/songviet/po-admin/internal/admin/categories"
	custommw "github.com/songviet/po-admin/internal/admin/httpserver/middleware"
	"github.com/songviet/po-admin/internal/admin/orders"
	"github.com/songviet/po-admin/internal/admin/products"
	"github.com/songviet/po-admin/internal/admin/rbac"
	appsession "github.com/songviet/po-admin/internal/admin/session"
)

// Dependencies collects external services required by the API handlers.
type Dependencies struct {
	OrderService    orders.Service
	CategoryService categories.Service
	ProductService  products.Service
	Logger          *zap.Logger
}

// Handlers exposes the HTTP handlers of the admin gateway.
type Handlers struct {
	orders     orders.Service
	categories categories.Service
	products   products.Service
	logger     *zap.Logger
}

// NewHandlers wires the handler set. Missing services fall back to the
// in-memory implementations so the gateway still serves in development.
func NewHandlers(deps Dependencies) *Handlers {
	orderService := deps.OrderService
	if orderService == nil {
		orderService = orders.NewStaticService(nil)
	}
	categoryService := deps.CategoryService
	if categoryService == nil {
		categoryService = categories.NewStaticService(nil)
	}
	productService := deps.ProductService
	if productService == nil {
		productService = products.NewStaticService(nil)
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		orders:     orderService,
		categories: categoryService,
		products:   productService,
		logger:     logger,
	}
}

func (h *Handlers) user(w http.ResponseWriter, r *http.Request) (*custommw.User, bool) {
	user, ok := custommw.UserFromContext(r.Context())
	if !ok || user == nil {
		h.respondMessage(w, http.StatusUnauthorized, "unauthorized")
		return nil, false
	}
	return user, true
}

func (h *Handlers) respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("encode response", zap.Error(err))
	}
}

func (h *Handlers) respondMessage(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"message": message})
}

// respondError maps domain errors onto HTTP statuses. Backend failures with
// a known upstream status are forwarded as-is; anything else is a 502.
func (h *Handlers) respondError(w http.ResponseWriter, err error) {
	var orderValidation *orders.ValidationError
	if errors.As(err, &orderValidation) {
		h.respondJSON(w, http.StatusUnprocessableEntity, map[string]string{
			"message": orderValidation.Message,
			"field":   orderValidation.Field,
		})
		return
	}
	var categoryValidation *categories.ValidationError
	if errors.As(err, &categoryValidation) {
		h.respondJSON(w, http.StatusUnprocessableEntity, map[string]string{
			"message": categoryValidation.Message,
			"field":   categoryValidation.Field,
		})
		return
	}
	switch {
	case errors.Is(err, orders.ErrNotFound), errors.Is(err, categories.ErrNotFound):
		h.respondMessage(w, http.StatusNotFound, "not found")
	case errors.Is(err, orders.ErrNothingSelected):
		h.respondMessage(w, http.StatusBadRequest, err.Error())
	default:
		var be *backend.Error
		if errors.As(err, &be) && be.StatusCode > 0 {
			h.logger.Warn("backend error", zap.Int("status", be.StatusCode), zap.Error(err))
			message := be.Message
			if message == "" {
				message = http.StatusText(be.StatusCode)
			}
			h.respondMessage(w, be.StatusCode, message)
			return
		}
		h.logger.Error("backend unreachable", zap.Error(err))
		h.respondMessage(w, http.StatusBadGateway, "upstream unavailable")
	}
}

func decodeBody(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// sessionRequest is the payload stored on login. The token comes from the
// order backend's own login flow; the gateway only keeps it in the cookie.
type sessionRequest struct {
	Token      string `json:"token"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	Department string `json:"department"`
	RememberMe bool   `json:"rememberMe"`
}

// CreateSession stores the backend token and staff profile in the session
// cookie. POST /auth/session.
func (h *Handlers) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if err := decodeBody(r, &req); err != nil {
		h.respondMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Token) == "" {
		h.respondMessage(w, http.StatusBadRequest, "token is required")
		return
	}

	sess, ok := custommw.SessionFromContext(r.Context())
	if !ok {
		h.respondMessage(w, http.StatusInternalServerError, "session unavailable")
		return
	}
	sess.SetToken(req.Token)
	sess.SetUser(&appsession.User{
		Email:      strings.TrimSpace(req.Email),
		Role:       strings.TrimSpace(req.Role),
		Department: strings.TrimSpace(req.Department),
	})
	sess.SetRememberMe(req.RememberMe)

	actor := rbac.Actor{Role: req.Role, Department: req.Department}
	h.respondJSON(w, http.StatusCreated, map[string]any{
		"email":        req.Email,
		"role":         req.Role,
		"department":   req.Department,
		"capabilities": rbac.Capabilities(actor),
	})
}

// DestroySession logs the user out by clearing the session cookie.
// DELETE /auth/session.
func (h *Handlers) DestroySession(w http.ResponseWriter, r *http.Request) {
	if sess, ok := custommw.SessionFromContext(r.Context()); ok {
		sess.Destroy()
	}
	w.WriteHeader(http.StatusNoContent)
}

// Profile reports the authenticated user and their capabilities.
// GET /auth/session.
func (h *Handlers) Profile(w http.ResponseWriter, r *http.Request) {
	user, ok := h.user(w, r)
	if !ok {
		return
	}
	actor := user.Actor()
	h.respondJSON(w, http.StatusOK, map[string]any{
		"email":        user.Email,
		"role":         user.Role,
		"department":   user.Department,
		"capabilities": rbac.Capabilities(actor),
	})
}
