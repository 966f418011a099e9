package server

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/orgregistry/internal/models"
	"github.com/wolfeidau/orgregistry/internal/store"
	"github.com/wolfeidau/orgregistry/internal/telemetry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/wolfeidau/orgregistry/internal/server"

// OrganizationService owns the create and fetch rules for organizations.
// It keeps no state between calls; every Get goes to the store.
type OrganizationService struct {
	store       store.OrganizationStore
	ids         IDGenerator
	maxAttempts uint
	metrics     *telemetry.Metrics
	tracer      trace.Tracer
}

// NewOrganizationService creates a service over the given store.
// maxAttempts bounds how many generated ids one create will try, minimum 1.
func NewOrganizationService(orgStore store.OrganizationStore, ids IDGenerator, maxAttempts uint) *OrganizationService {
	if maxAttempts == 0 {
		maxAttempts = 1
	}
	return &OrganizationService{
		store:       orgStore,
		ids:         ids,
		maxAttempts: maxAttempts,
		metrics:     telemetry.GetMetrics(),
		tracer:      otel.Tracer(tracerName),
	}
}

// Create validates the input, assigns an id and persists the organization.
//
// A primary key collision is retried with a fresh id up to maxAttempts times
// and then reported as ErrDuplicateOrConflict. Any other store error is
// reported as ErrStorageFailure and is not retried.
func (s *OrganizationService) Create(ctx context.Context, in models.OrganizationInput) (*models.Organization, error) {
	ctx, span := s.tracer.Start(ctx, "OrganizationService.Create")
	defer span.End()

	if err := in.Validate(); err != nil {
		s.metrics.OrganizationValidationTotal.Add(ctx, 1)
		span.SetStatus(codes.Error, "validation failed")
		return nil, err
	}

	attempt := 0
	operation := func() (*models.Organization, error) {
		attempt++
		candidate := in.Organization(s.ids.NextID())

		created, err := s.timedCreate(ctx, candidate)
		if err == nil {
			return created, nil
		}

		if errors.Is(err, store.ErrOrganizationAlreadyExists) {
			s.metrics.OrganizationIDRetriesTotal.Add(ctx, 1)
			log.Ctx(ctx).Debug().
				Int64("org_id", candidate.ID).
				Int("attempt", attempt).
				Msg("Organization id collision")
			return nil, err
		}

		return nil, backoff.Permanent(err)
	}

	org, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(&backoff.ZeroBackOff{}),
		backoff.WithMaxTries(s.maxAttempts),
	)
	if err != nil {
		span.RecordError(err)

		if errors.Is(err, store.ErrOrganizationAlreadyExists) {
			s.metrics.OrganizationConflictsTotal.Add(ctx, 1)
			span.SetStatus(codes.Error, "id conflict")
			log.Ctx(ctx).Warn().
				Int("attempts", attempt).
				Msg("Giving up on organization create after repeated id collisions")
			return nil, fmt.Errorf("%w: after %d attempts", ErrDuplicateOrConflict, attempt)
		}

		s.metrics.StorageFailuresTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", "create")))
		span.SetStatus(codes.Error, "storage failure")
		return nil, fmt.Errorf("%w: %w", ErrStorageFailure, err)
	}

	s.metrics.OrganizationsCreatedTotal.Add(ctx, 1)
	span.SetAttributes(attribute.Int64("org.id", org.ID), attribute.Int("org.attempts", attempt))

	log.Ctx(ctx).Info().
		Int64("org_id", org.ID).
		Int("attempts", attempt).
		Msg("Organization created")

	return org, nil
}

// Get returns the organization with the given id.
// ErrNotFound means no row matched; ErrStorageFailure means the lookup itself failed.
func (s *OrganizationService) Get(ctx context.Context, id int64) (*models.Organization, error) {
	ctx, span := s.tracer.Start(ctx, "OrganizationService.Get", trace.WithAttributes(attribute.Int64("org.id", id)))
	defer span.End()

	s.metrics.OrganizationLookupsTotal.Add(ctx, 1)

	started := time.Now()
	org, err := s.store.Get(ctx, id)
	s.recordStoreDuration(ctx, "get", started)

	if err != nil {
		if errors.Is(err, store.ErrOrganizationNotFound) {
			s.metrics.OrganizationNotFoundTotal.Add(ctx, 1)
			return nil, ErrNotFound
		}

		s.metrics.StorageFailuresTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", "get")))
		span.RecordError(err)
		span.SetStatus(codes.Error, "storage failure")
		return nil, fmt.Errorf("%w: %w", ErrStorageFailure, err)
	}

	return org, nil
}

// Ping reports whether the backing store is reachable.
func (s *OrganizationService) Ping(ctx context.Context) error {
	if err := s.store.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrStorageFailure, err)
	}
	return nil
}

func (s *OrganizationService) timedCreate(ctx context.Context, org *models.Organization) (*models.Organization, error) {
	started := time.Now()
	defer s.recordStoreDuration(ctx, "create", started)

	return s.store.Create(ctx, org)
}

func (s *OrganizationService) recordStoreDuration(ctx context.Context, operation string, started time.Time) {
	s.metrics.StoreDuration.Record(ctx,
		float64(time.Since(started).Microseconds())/1000,
		metric.WithAttributes(attribute.String("operation", operation)),
	)
}
