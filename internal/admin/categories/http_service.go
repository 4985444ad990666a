package categories

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"path"

	"github.com/songviet/po-admin/internal/admin/backend"
)

// HTTPService implements Service against the backend category API.
type HTTPService struct {
	client *backend.Client
}

// NewHTTPService constructs a Service that talks to the backend category API.
func NewHTTPService(client *backend.Client) *HTTPService {
	return &HTTPService{client: client}
}

// List retrieves every category.
func (s *HTTPService) List(ctx context.Context, token string) ([]Category, error) {
	req, err := s.client.NewRequest(ctx, http.MethodGet, "/categories", nil, token)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, s.client.ErrorFromResponse(resp)
	}

	var payload struct {
		Categories []Category `json:"categories"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("categories: decode list: %w", err)
	}
	return payload.Categories, nil
}

// Get retrieves a category detail, including assigned staff emails.
func (s *HTTPService) Get(ctx context.Context, token string, id backend.ID) (*Category, error) {
	req, err := s.client.NewRequest(ctx, http.MethodGet, s.endpoint(id), nil, token)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, s.client.ErrorFromResponse(resp)
	}

	// Detail responses nest the object under the same key the list uses.
	var payload struct {
		Categories *Category `json:"categories"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("categories: decode detail: %w", err)
	}
	if payload.Categories == nil {
		return nil, ErrNotFound
	}
	return payload.Categories, nil
}

// Create registers a new category.
func (s *HTTPService) Create(ctx context.Context, token string, draft Draft) (*Category, error) {
	draft.Normalize()
	if err := draft.Validate(); err != nil {
		return nil, err
	}

	req, err := s.client.NewJSONRequest(ctx, http.MethodPost, "/categories", draft, token)
	if err != nil {
		return nil, err
	}
	return s.doMutation(req)
}

// Update rewrites an existing category.
func (s *HTTPService) Update(ctx context.Context, token string, id backend.ID, draft Draft) (*Category, error) {
	draft.Normalize()
	if err := draft.Validate(); err != nil {
		return nil, err
	}

	req, err := s.client.NewJSONRequest(ctx, http.MethodPut, s.endpoint(id), draft, token)
	if err != nil {
		return nil, err
	}
	return s.doMutation(req)
}

// Restore transitions an inactive category back to active.
func (s *HTTPService) Restore(ctx context.Context, token string, id backend.ID) error {
	body := map[string]string{"status": StatusActive}
	req, err := s.client.NewJSONRequest(ctx, http.MethodPut, s.endpoint(id)+"/status", body, token)
	if err != nil {
		return err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return s.client.ErrorFromResponse(resp)
	}
	return nil
}

func (s *HTTPService) doMutation(req *http.Request) (*Category, error) {
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, s.client.ErrorFromResponse(resp)
	}

	var payload struct {
		Categories *Category `json:"categories"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("categories: decode mutation: %w", err)
	}
	return payload.Categories, nil
}

func (s *HTTPService) endpoint(id backend.ID) string {
	return path.Join("/categories", url.PathEscape(id.String()))
}
