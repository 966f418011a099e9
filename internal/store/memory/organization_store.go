package memory

import (
	"context"
	"sync"

	"github.com/wolfeidau/orgregistry/internal/models"
	"github.com/wolfeidau/orgregistry/internal/store"
)

var _ store.OrganizationStore = (*OrganizationStore)(nil)

// OrganizationStore implements store.OrganizationStore using in-memory storage.
// This implementation is for testing and local development - data is lost on restart.
type OrganizationStore struct {
	mu sync.RWMutex

	organizations map[int64]*models.Organization // id -> Organization
	nextID        int64                          // last key handed out for store-assigned inserts
}

// NewOrganizationStore creates a new in-memory organization store.
func NewOrganizationStore() *OrganizationStore {
	return &OrganizationStore{
		organizations: make(map[int64]*models.Organization),
	}
}

// Create stores a copy of org. A zero ID is replaced by the next free key.
func (s *OrganizationStore) Create(ctx context.Context, org *models.Organization) (*models.Organization, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *org

	if clone.ID == 0 {
		// Behave like an identity column: skip keys already taken by explicit inserts
		for {
			s.nextID++
			if _, exists := s.organizations[s.nextID]; !exists {
				break
			}
		}
		clone.ID = s.nextID
	}

	if _, exists := s.organizations[clone.ID]; exists {
		return nil, store.ErrOrganizationAlreadyExists
	}

	s.organizations[clone.ID] = &clone

	// Clone to avoid external modifications
	out := clone
	return &out, nil
}

// Get retrieves an organization by ID.
func (s *OrganizationStore) Get(ctx context.Context, id int64) (*models.Organization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	org, exists := s.organizations[id]
	if !exists {
		return nil, store.ErrOrganizationNotFound
	}

	clone := *org
	return &clone, nil
}

// Ping always succeeds for the in-memory store.
func (s *OrganizationStore) Ping(ctx context.Context) error {
	return nil
}

// Len returns the number of stored organizations.
func (s *OrganizationStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.organizations)
}
