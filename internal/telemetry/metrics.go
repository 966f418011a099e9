package telemetry

import (
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const (
	meterName = "github.com/wolfeidau/orgregistry"
)

// Metrics holds all the OpenTelemetry metric instruments
type Metrics struct {
	// Organization metrics
	OrganizationsCreatedTotal   metric.Int64Counter
	OrganizationConflictsTotal  metric.Int64Counter
	OrganizationIDRetriesTotal  metric.Int64Counter
	OrganizationLookupsTotal    metric.Int64Counter
	OrganizationNotFoundTotal   metric.Int64Counter
	OrganizationValidationTotal metric.Int64Counter

	// Store metrics
	StorageFailuresTotal metric.Int64Counter
	StoreDuration        metric.Float64Histogram
}

var (
	once    sync.Once
	metrics *Metrics
)

// GetMetrics returns the singleton Metrics instance, initializing it if necessary
func GetMetrics() *Metrics {
	once.Do(func() {
		metrics = initMetrics()
	})
	return metrics
}

// initMetrics creates and registers all metric instruments
func initMetrics() *Metrics {
	meter := otel.GetMeterProvider().Meter(meterName)

	m := &Metrics{}

	m.OrganizationsCreatedTotal, _ = meter.Int64Counter(
		"orgregistry.organizations.created.total",
		metric.WithDescription("Total number of organizations created"),
		metric.WithUnit("{organization}"),
	)

	m.OrganizationConflictsTotal, _ = meter.Int64Counter(
		"orgregistry.organizations.conflicts.total",
		metric.WithDescription("Total number of creates rejected after exhausting id attempts"),
		metric.WithUnit("{conflict}"),
	)

	m.OrganizationIDRetriesTotal, _ = meter.Int64Counter(
		"orgregistry.organizations.id_retries.total",
		metric.WithDescription("Total number of id collisions retried with a fresh id"),
		metric.WithUnit("{retry}"),
	)

	m.OrganizationLookupsTotal, _ = meter.Int64Counter(
		"orgregistry.organizations.lookups.total",
		metric.WithDescription("Total number of organization lookups by id"),
		metric.WithUnit("{lookup}"),
	)

	m.OrganizationNotFoundTotal, _ = meter.Int64Counter(
		"orgregistry.organizations.not_found.total",
		metric.WithDescription("Total number of lookups that matched no organization"),
		metric.WithUnit("{lookup}"),
	)

	m.OrganizationValidationTotal, _ = meter.Int64Counter(
		"orgregistry.organizations.validation_errors.total",
		metric.WithDescription("Total number of create requests rejected by validation"),
		metric.WithUnit("{error}"),
	)

	m.StorageFailuresTotal, _ = meter.Int64Counter(
		"orgregistry.store.failures.total",
		metric.WithDescription("Total number of store operations that failed"),
		metric.WithUnit("{error}"),
	)

	m.StoreDuration, _ = meter.Float64Histogram(
		"orgregistry.store.duration",
		metric.WithDescription("Duration of store operations"),
		metric.WithUnit("ms"),
	)

	return m
}
