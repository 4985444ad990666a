package categories

import (
	"context"
	"fmt"
	"sync"

	"github.com/songviet/po-admin/internal/admin/backend"
)

// StaticService keeps categories in memory for development and tests.
type StaticService struct {
	mu         sync.Mutex
	categories []Category
	nextID     int
}

// NewStaticService constructs a StaticService seeded with sample categories
// when none are provided.
func NewStaticService(seed []Category) *StaticService {
	if seed == nil {
		seed = []Category{
			{ID: "3", Name: "Vật tư đóng gói", Prefix: "VT", Status: StatusActive, UserEmails: []string{"kho@songviet.example"}},
			{ID: "5", Name: "Nguyên liệu sản xuất", Prefix: "NL", Status: StatusActive},
			{ID: ManualEntryID, Name: "Nhập tay", Prefix: "18", Status: StatusActive},
			{ID: "9", Name: "Thiết bị văn phòng", Prefix: "TB", Status: StatusInactive},
		}
	}
	return &StaticService{categories: seed, nextID: 100}
}

// List returns all categories.
func (s *StaticService) List(ctx context.Context, token string) ([]Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Category, len(s.categories))
	copy(out, s.categories)
	return out, nil
}

// Get returns a category by id.
func (s *StaticService) Get(ctx context.Context, token string, id backend.ID) (*Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.categories {
		if c.ID == id {
			copied := c
			return &copied, nil
		}
	}
	return nil, ErrNotFound
}

// Create appends a new category with a generated id.
func (s *StaticService) Create(ctx context.Context, token string, draft Draft) (*Category, error) {
	draft.Normalize()
	if err := draft.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	created := Category{
		ID:          backend.ID(fmt.Sprintf("%d", s.nextID)),
		Name:        draft.Name,
		Prefix:      draft.Prefix,
		Status:      draft.Status,
		Description: draft.Description,
		UserEmails:  draft.UserEmails,
	}
	s.categories = append(s.categories, created)
	return &created, nil
}

// Update rewrites an existing category in place.
func (s *StaticService) Update(ctx context.Context, token string, id backend.ID, draft Draft) (*Category, error) {
	draft.Normalize()
	if err := draft.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, c := range s.categories {
		if c.ID != id {
			continue
		}
		s.categories[i] = Category{
			ID:          id,
			Name:        draft.Name,
			Prefix:      draft.Prefix,
			Status:      draft.Status,
			Description: draft.Description,
			UserEmails:  draft.UserEmails,
		}
		copied := s.categories[i]
		return &copied, nil
	}
	return nil, ErrNotFound
}

// Restore flips an inactive category back to active.
func (s *StaticService) Restore(ctx context.Context, token string, id backend.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, c := range s.categories {
		if c.ID == id {
			s.categories[i].Status = StatusActive
			return nil
		}
	}
	return ErrNotFound
}
