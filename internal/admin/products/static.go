package products

import (
	"context"

	"github.com/shopspring/decimal"
)

// StaticService serves a fixed catalog for development and tests.
type StaticService struct {
	Products []Product
}

// NewStaticService constructs a StaticService with a small sample catalog
// when none is provided.
func NewStaticService(catalog []Product) *StaticService {
	if catalog == nil {
		catalog = []Product{
			{ID: "p-100", Code: "VT-100", Name: "Thùng carton 60x40", Price: decimal.NewFromInt(12500), Status: StatusActive, CategoryID: "3"},
			{ID: "p-101", Code: "VT-101", Name: "Băng keo trong 48mm", Price: decimal.NewFromInt(8000), Status: StatusActive, CategoryID: "3"},
			{ID: "p-200", Code: "NL-200", Name: "Hạt nhựa PP", Price: decimal.NewFromInt(31000), Status: StatusActive, CategoryID: "5"},
		}
	}
	return &StaticService{Products: catalog}
}

// List filters the static catalog the way the backend would.
func (s *StaticService) List(ctx context.Context, token string, query ListQuery) ([]Product, error) {
	var out []Product
	for _, p := range s.Products {
		if query.Status != "" && p.Status != query.Status {
			continue
		}
		if !query.CategoryID.IsZero() && p.CategoryID != query.CategoryID {
			continue
		}
		out = append(out, p)
		if query.PerPage > 0 && len(out) >= query.PerPage {
			break
		}
	}
	return out, nil
}
