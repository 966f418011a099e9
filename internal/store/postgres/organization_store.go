package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/orgregistry/internal/models"
	"github.com/wolfeidau/orgregistry/internal/store"
)

var _ store.OrganizationStore = (*OrganizationStore)(nil)

const (
	insertOrganizationSQL = `
		INSERT INTO organization (
			id, company_registration_id, name, address
		) VALUES (
			$1, $2, $3, $4
		)
		RETURNING id, company_registration_id, name, address
	`

	// id is left to the identity column
	insertOrganizationAssignedSQL = `
		INSERT INTO organization (
			company_registration_id, name, address
		) VALUES (
			$1, $2, $3
		)
		RETURNING id, company_registration_id, name, address
	`

	selectOrganizationSQL = `
		SELECT id, company_registration_id, name, address
		FROM organization
		WHERE id = $1
	`
)

// OrganizationStore implements store.OrganizationStore using PostgreSQL.
type OrganizationStore struct {
	pool *pgxpool.Pool
}

// NewOrganizationStore creates a new PostgreSQL-backed organization store.
// The pool is owned by the caller.
func NewOrganizationStore(pool *pgxpool.Pool) *OrganizationStore {
	return &OrganizationStore{
		pool: pool,
	}
}

// Create inserts the organization inside its own transaction and returns the
// row read back by RETURNING, so any column defaults are reflected.
func (s *OrganizationStore) Create(ctx context.Context, org *models.Organization) (*models.Organization, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", mapPostgresError(err))
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback is safe to call after commit

	var row pgx.Row
	if org.ID == 0 {
		row = tx.QueryRow(ctx, insertOrganizationAssignedSQL,
			org.CompanyRegistrationID,
			org.Name,
			org.Address,
		)
	} else {
		row = tx.QueryRow(ctx, insertOrganizationSQL,
			org.ID,
			org.CompanyRegistrationID,
			org.Name,
			org.Address,
		)
	}

	created, err := scanOrganization(row)
	if err != nil {
		if isUniqueViolation(err) {
			log.Debug().Int64("org_id", org.ID).Msg("Organization id already taken")
		}
		return nil, fmt.Errorf("failed to create organization: %w", mapPostgresError(err))
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit organization: %w", mapPostgresError(err))
	}

	log.Debug().
		Int64("org_id", created.ID).
		Str("name", created.Name).
		Msg("Created organization")

	return created, nil
}

// Get retrieves an organization by ID.
func (s *OrganizationStore) Get(ctx context.Context, id int64) (*models.Organization, error) {
	org, err := scanOrganization(s.pool.QueryRow(ctx, selectOrganizationSQL, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrOrganizationNotFound
		}
		return nil, fmt.Errorf("failed to get organization: %w", mapPostgresError(err))
	}

	return org, nil
}

// Ping checks connectivity through the shared pool.
func (s *OrganizationStore) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", mapPostgresError(err))
	}
	return nil
}

func scanOrganization(row pgx.Row) (*models.Organization, error) {
	var org models.Organization
	err := row.Scan(
		&org.ID,
		&org.CompanyRegistrationID,
		&org.Name,
		&org.Address,
	)
	if err != nil {
		return nil, err
	}
	return &org, nil
}
