package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/songviet/po-admin/internal/admin/backend"
	"github.com/songviet/po-admin/internal/admin/categories"
)

// ListCategories serves GET /categories.
func (h *Handlers) ListCategories(w http.ResponseWriter, r *http.Request) {
	user, ok := h.user(w, r)
	if !ok {
		return
	}
	list, err := h.categories.List(r.Context(), user.Token)
	if err != nil {
		h.respondError(w, err)
		return
	}

	out := make([]categoryJSON, 0, len(list))
	for _, category := range list {
		out = append(out, categoryToJSON(category))
	}
	h.respondJSON(w, http.StatusOK, map[string]any{"categories": out})
}

// GetCategory serves GET /categories/{id}.
func (h *Handlers) GetCategory(w http.ResponseWriter, r *http.Request) {
	user, ok := h.user(w, r)
	if !ok {
		return
	}
	category, err := h.categories.Get(r.Context(), user.Token, backend.ID(chi.URLParam(r, "id")))
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]any{"category": categoryToJSON(*category)})
}

// CreateCategory serves POST /categories.
func (h *Handlers) CreateCategory(w http.ResponseWriter, r *http.Request) {
	user, ok := h.user(w, r)
	if !ok {
		return
	}
	var draft categories.Draft
	if err := decodeBody(r, &draft); err != nil {
		h.respondMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	created, err := h.categories.Create(r.Context(), user.Token, draft)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, map[string]any{"category": categoryToJSON(*created)})
}

// UpdateCategory serves PUT /categories/{id}.
func (h *Handlers) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	user, ok := h.user(w, r)
	if !ok {
		return
	}
	var draft categories.Draft
	if err := decodeBody(r, &draft); err != nil {
		h.respondMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	updated, err := h.categories.Update(r.Context(), user.Token, backend.ID(chi.URLParam(r, "id")), draft)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]any{"category": categoryToJSON(*updated)})
}

// RestoreCategory serves PUT /categories/{id}/status, flipping an inactive
// category back to active.
func (h *Handlers) RestoreCategory(w http.ResponseWriter, r *http.Request) {
	user, ok := h.user(w, r)
	if !ok {
		return
	}
	if err := h.categories.Restore(r.Context(), user.Token, backend.ID(chi.URLParam(r, "id"))); err != nil {
		h.respondError(w, err)
		return
	}
	h.respondMessage(w, http.StatusOK, "category restored")
}

type categoryJSON struct {
	ID          backend.ID `json:"id"`
	Name        string     `json:"name"`
	Prefix      string     `json:"prefix,omitempty"`
	Status      string     `json:"status"`
	Description string     `json:"description,omitempty"`
	UserEmails  []string   `json:"user_emails"`
}

func categoryToJSON(category categories.Category) categoryJSON {
	emails := category.UserEmails
	if emails == nil {
		emails = []string{}
	}
	return categoryJSON{
		ID:          category.ID,
		Name:        category.Name,
		Prefix:      category.Prefix,
		Status:      category.Status,
		Description: category.Description,
		UserEmails:  emails,
	}
}
