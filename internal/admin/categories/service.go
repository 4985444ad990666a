// Package categories manages product categories and their assigned staff.
package categories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/songviet/po-admin/internal/admin/backend"
)

// Category status values. Inactive categories are restore-only: the backend
// models deletion as a status transition, never removal.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// ManualEntryID is the reserved category for hand-keyed line items that have
// no catalog product behind them.
const ManualEntryID backend.ID = "18"

// ErrNotFound indicates the requested category does not exist.
var ErrNotFound = errors.New("categories: not found")

// ValidationError reports a rejected category draft.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("categories: %s: %s", e.Field, e.Message)
}

// Category is a product grouping. UserEmails is the ordered list of staff
// assigned to the category; detail responses deliver it in several shapes and
// UnmarshalJSON folds them all into this one field.
type Category struct {
	ID          backend.ID `json:"id"`
	Name        string     `json:"name"`
	Prefix      string     `json:"prefix"`
	Status      string     `json:"status"`
	Description string     `json:"description"`
	UserEmails  []string   `json:"user_emails,omitempty"`
}

// UnmarshalJSON accepts assigned staff as `user_emails` (list of strings),
// or as `users` holding either plain strings or `{email}` objects.
func (c *Category) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID          backend.ID      `json:"id"`
		Name        string          `json:"name"`
		Prefix      string          `json:"prefix"`
		Status      string          `json:"status"`
		Description string          `json:"description"`
		UserEmails  []string        `json:"user_emails"`
		Users       json.RawMessage `json:"users"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	c.ID = raw.ID
	c.Name = raw.Name
	c.Prefix = raw.Prefix
	c.Status = raw.Status
	c.Description = raw.Description

	switch {
	case raw.UserEmails != nil:
		c.UserEmails = raw.UserEmails
	case len(raw.Users) > 0:
		emails, err := emailsFromUsers(raw.Users)
		if err != nil {
			return err
		}
		c.UserEmails = emails
	default:
		c.UserEmails = nil
	}
	return nil
}

func emailsFromUsers(raw json.RawMessage) ([]string, error) {
	var asStrings []string
	if err := json.Unmarshal(raw, &asStrings); err == nil {
		return asStrings, nil
	}

	var asObjects []struct {
		Email string `json:"email"`
	}
	if err := json.Unmarshal(raw, &asObjects); err != nil {
		return nil, fmt.Errorf("categories: decode users: %w", err)
	}
	emails := make([]string, len(asObjects))
	for i, u := range asObjects {
		emails[i] = u.Email
	}
	return emails, nil
}

// Draft is the create/update payload for a category.
type Draft struct {
	Name        string   `json:"name"`
	Prefix      string   `json:"prefix"`
	Status      string   `json:"status"`
	Description string   `json:"description"`
	UserEmails  []string `json:"user_emails"`
}

// Normalize trims the draft and drops blank assigned emails.
func (d *Draft) Normalize() {
	d.Name = strings.TrimSpace(d.Name)
	d.Prefix = strings.TrimSpace(d.Prefix)
	if d.Status == "" {
		d.Status = StatusActive
	}
	kept := d.UserEmails[:0]
	for _, email := range d.UserEmails {
		if trimmed := strings.TrimSpace(email); trimmed != "" {
			kept = append(kept, trimmed)
		}
	}
	d.UserEmails = kept
}

// Validate rejects drafts the backend would refuse anyway, before any call
// leaves the gateway.
func (d *Draft) Validate() error {
	if d.Name == "" {
		return &ValidationError{Field: "name", Message: "name is required"}
	}
	if d.Status != StatusActive && d.Status != StatusInactive {
		return &ValidationError{Field: "status", Message: "status must be active or inactive"}
	}
	return nil
}

// Service manages the category catalog.
type Service interface {
	List(ctx context.Context, token string) ([]Category, error)
	Get(ctx context.Context, token string, id backend.ID) (*Category, error)
	Create(ctx context.Context, token string, draft Draft) (*Category, error)
	Update(ctx context.Context, token string, id backend.ID, draft Draft) (*Category, error)
	Restore(ctx context.Context, token string, id backend.ID) error
}
