package contacts

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStore is an in-process Store, used when no database is configured.
type MemoryStore struct {
	mu      sync.RWMutex
	byEmail map[string]*Contact
	byID    map[string]*Contact
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byEmail: make(map[string]*Contact),
		byID:    make(map[string]*Contact),
	}
}

func (s *MemoryStore) FindByEmail(_ context.Context, email string) (*Contact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.byEmail[email]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *MemoryStore) Create(_ context.Context, c *Contact) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byEmail[c.Email]; exists {
		return fmt.Errorf("contact with email %s already exists", c.Email)
	}
	cp := *c
	s.byEmail[c.Email] = &cp
	s.byID[c.ID] = &cp
	return nil
}

func (s *MemoryStore) SetCompany(_ context.Context, contactID, companyID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.byID[contactID]
	if !ok {
		return ErrNotFound
	}
	c.CompanyID = companyID
	return nil
}

// All returns a copy of every stored contact.
func (s *MemoryStore) All() []Contact {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Contact, 0, len(s.byID))
	for _, c := range s.byID {
		out = append(out, *c)
	}
	return out
}
