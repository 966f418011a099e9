package server

import (
	"errors"

	"github.com/wolfeidau/orgregistry/internal/models"
)

// Outcomes of the organization service, matched with errors.Is.
var (
	// ErrValidation is returned for malformed or missing input. The store is never touched.
	ErrValidation = models.ErrInvalidOrganization

	// ErrDuplicateOrConflict is returned when every generated id collided with an existing row.
	ErrDuplicateOrConflict = errors.New("organization id already exists")

	// ErrNotFound is returned when no organization has the requested id.
	ErrNotFound = errors.New("organization not found")

	// ErrStorageFailure wraps any other persistence failure.
	ErrStorageFailure = errors.New("organization storage failure")
)
