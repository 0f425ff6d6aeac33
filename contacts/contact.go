// Package contacts turns crawl results into persisted lead records.
package contacts

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by a Store when no contact has the requested email.
var ErrNotFound = errors.New("contact not found")

// Source channels and statuses recorded on contacts.
const (
	SourceScraped = "scraped"
	StatusNew     = "new"
)

// Contact is a lead record.
type Contact struct {
	ID               string    `json:"id"`
	FirstName        string    `json:"first_name"`
	LastName         string    `json:"last_name"`
	Email            string    `json:"email"`
	Position         string    `json:"position,omitempty"`
	CompanyID        string    `json:"company_id,omitempty"`
	OrganizationName string    `json:"organization_name,omitempty"`
	Source           string    `json:"source"`
	Status           string    `json:"status"`
	RoleBased        bool      `json:"role_based"`
	SourceURL        string    `json:"source_url,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// Company is the organization contacts are attached to. A zero Company
// attaches nothing.
type Company struct {
	ID   string
	Name string
}

// Store persists contacts. Emails are matched exactly.
type Store interface {
	FindByEmail(ctx context.Context, email string) (*Contact, error)
	Create(ctx context.Context, c *Contact) error
	SetCompany(ctx context.Context, contactID, companyID string) error
}
