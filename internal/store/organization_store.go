package store

import (
	"context"
	"errors"

	"github.com/wolfeidau/orgregistry/internal/models"
)

// Sentinel errors for organization store operations
var (
	ErrOrganizationNotFound      = errors.New("organization not found")
	ErrOrganizationAlreadyExists = errors.New("organization already exists")
)

// OrganizationStore defines the interface for organization storage operations.
type OrganizationStore interface {
	// Create inserts a new organization and returns the row as stored.
	// An ID of zero asks the store to assign the key itself.
	// Returns ErrOrganizationAlreadyExists if the ID is already taken.
	Create(ctx context.Context, org *models.Organization) (*models.Organization, error)

	// Get retrieves an organization by ID.
	// Returns ErrOrganizationNotFound if the organization doesn't exist.
	Get(ctx context.Context, id int64) (*models.Organization, error)

	// Ping reports whether the store can currently serve requests.
	Ping(ctx context.Context) error
}
