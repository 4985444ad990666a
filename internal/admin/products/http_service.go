package products

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/songviet/po-admin/internal/admin/backend"
)

const defaultPerPage = 2000

// HTTPService implements Service against the backend product catalog.
type HTTPService struct {
	client *backend.Client
}

// NewHTTPService constructs a Service that talks to the backend catalog API.
func NewHTTPService(client *backend.Client) *HTTPService {
	return &HTTPService{client: client}
}

// List retrieves catalog products, filtered by category and status.
func (s *HTTPService) List(ctx context.Context, token string, query ListQuery) ([]Product, error) {
	values := url.Values{}
	perPage := query.PerPage
	if perPage <= 0 {
		perPage = defaultPerPage
	}
	values.Set("per_page", strconv.Itoa(perPage))
	if query.Status != "" {
		values.Set("status", query.Status)
	}
	if !query.CategoryID.IsZero() {
		values.Set("category_id", query.CategoryID.String())
	}

	req, err := s.client.NewRequest(ctx, http.MethodGet, "/products?"+values.Encode(), nil, token)
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
		Products []Product `json:"products"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("products: decode list: %w", err)
	}
	return payload.Products, nil
}
