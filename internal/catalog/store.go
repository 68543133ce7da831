package catalog

import (
	"context"
	"errors"
	"sync/atomic"
)

// Store holds the catalog snapshot currently being served. Readers take one
// snapshot per computation; Swap publishes a new one without blocking them.
type Store struct {
	current atomic.Pointer[Catalog]
}

// NewStore returns a Store serving c.
func NewStore(c *Catalog) *Store {
	s := &Store{}
	s.current.Store(c)
	return s
}

// Current returns the snapshot being served.
func (s *Store) Current() *Catalog {
	return s.current.Load()
}

// Swap publishes c and returns the snapshot it replaced.
func (s *Store) Swap(c *Catalog) *Catalog {
	return s.current.Swap(c)
}

// Name identifies the store as a health probe.
func (s *Store) Name() string { return "catalog" }

// Check fails when no snapshot has been published.
func (s *Store) Check(context.Context) error {
	if s.Current() == nil {
		return errors.New("no catalog loaded")
	}
	return nil
}
