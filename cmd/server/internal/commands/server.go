package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"github.com/wolfeidau/orgregistry/internal/logger"
	"github.com/wolfeidau/orgregistry/internal/server"
	"github.com/wolfeidau/orgregistry/internal/store"
	memorystore "github.com/wolfeidau/orgregistry/internal/store/memory"
	postgresstore "github.com/wolfeidau/orgregistry/internal/store/postgres"
	"github.com/wolfeidau/orgregistry/internal/telemetry"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const shutdownTimeout = 15 * time.Second

type ServerCmd struct {
	// Server configuration
	Listen string `help:"HTTP server listen address" default:"0.0.0.0:8080" env:"ORGREGISTRY_LISTEN"`
	Cert   string `help:"path to TLS cert file, serves plain HTTP when empty" default:"" env:"ORGREGISTRY_TLS_CERT"`
	Key    string `help:"path to TLS key file, serves plain HTTP when empty" default:"" env:"ORGREGISTRY_TLS_KEY"`

	// CORS configuration
	CORSOrigins []string `help:"allowed CORS origins for API requests" default:"http://localhost:3000" env:"ORGREGISTRY_CORS_ORIGINS"`

	// Telemetry
	Tracing     bool    `help:"enable tracing and metrics export" default:"false" env:"ORGREGISTRY_TRACING"`
	SampleRatio float64 `help:"fraction of root spans sampled" default:"1" env:"ORGREGISTRY_TRACING_SAMPLE_RATIO"`

	// Store configuration
	StoreType     string             `help:"store type (memory or postgres)" default:"memory" env:"ORGREGISTRY_STORE_TYPE" enum:"memory,postgres"`
	PostgresStore PostgresStoreFlags `embed:"" prefix:"postgres-"`

	// Identifier generation
	ID IDFlags `embed:"" prefix:"id-"`
}

type PostgresStoreFlags struct {
	// Connection Configuration
	ConnString string `help:"PostgreSQL connection string" env:"POSTGRES_CONNECTION_STRING"`

	// Connection Pool Configuration
	MaxConns        int32         `help:"maximum number of connections in pool" default:"20"`
	MinConns        int32         `help:"minimum number of connections in pool" default:"2"`
	MaxConnLifetime time.Duration `help:"maximum connection lifetime" default:"1h"`
	MaxConnIdleTime time.Duration `help:"maximum connection idle time" default:"30m"`
	ConnectTimeout  time.Duration `help:"timeout establishing a new connection" default:"10s"`

	// Migration Configuration
	AutoMigrate bool `help:"run database migrations on startup" default:"false" env:"ORGREGISTRY_POSTGRES_AUTO_MIGRATE"`
}

func (s *PostgresStoreFlags) Validate() error {
	if s.ConnString == "" {
		return errors.New("PostgreSQL connection string is required (--postgres-conn-string or POSTGRES_CONNECTION_STRING)")
	}
	return nil
}

func (s *PostgresStoreFlags) poolConfig() *postgresstore.PoolConfig {
	return &postgresstore.PoolConfig{
		ConnString:      s.ConnString,
		MaxConns:        s.MaxConns,
		MinConns:        s.MinConns,
		MaxConnLifetime: s.MaxConnLifetime,
		MaxConnIdleTime: s.MaxConnIdleTime,
		ConnectTimeout:  s.ConnectTimeout,
	}
}

// IDFlags selects how new organization ids are chosen
type IDFlags struct {
	Strategy      string `help:"id strategy (random, snowflake or sequence)" default:"random" env:"ORGREGISTRY_ID_STRATEGY" enum:"random,snowflake,sequence"`
	Min           int64  `help:"smallest random id" default:"1"`
	Max           int64  `help:"largest random id" default:"2147483647"`
	SnowflakeNode int64  `help:"snowflake node number, unique per instance (0-1023)" default:"0" env:"ORGREGISTRY_SNOWFLAKE_NODE"`
	MaxAttempts   uint   `help:"attempts with a fresh id before a create conflicts" default:"5"`
}

func (f IDFlags) config() server.IDConfig {
	return server.IDConfig{
		Strategy:      f.Strategy,
		Min:           f.Min,
		Max:           f.Max,
		SnowflakeNode: f.SnowflakeNode,
		MaxAttempts:   f.MaxAttempts,
	}
}

func (c *ServerCmd) Run(ctx context.Context, globals *Globals) error {
	log := logger.Setup(globals.Debug)
	ctx = log.WithContext(ctx)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().Str("version", globals.Version).Bool("debug", globals.Debug).Msg("Starting server")

	// Setup telemetry if enabled
	if c.Tracing {
		log.Info().Msg("Tracing is enabled")
		shutdown, err := telemetry.InitTelemetry(ctx, telemetry.Config{
			ServiceName: "orgregistry-server",
			Version:     globals.Version,
			SampleRatio: c.SampleRatio,
		})
		if err != nil {
			log.Warn().Err(err).Msg("Failed to initialize telemetry, continuing without metrics")
			shutdown = func(ctx context.Context) error { return nil }
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(shutdownCtx); err != nil {
				log.Error().Err(err).Msg("Failed to shutdown telemetry")
			}
		}()
	}

	idCfg := c.ID.config()
	idCfg.ApplyDefaults()
	ids, err := server.NewIDGenerator(idCfg)
	if err != nil {
		return fmt.Errorf("failed to configure id generator: %w", err)
	}

	orgStore, closeStore, err := c.openStore(ctx, log)
	if err != nil {
		return err
	}
	defer closeStore()

	handler := c.buildHandler(server.NewServer(orgStore, ids, idCfg.MaxAttempts), log)

	srv := configureHTTPServer(c.Listen, handler)

	errCh := make(chan error, 1)
	go func() {
		errCh <- c.serve(srv, log)
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		log.Info().Msg("Shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	log.Info().Msg("Server stopped")
	return nil
}

func (c *ServerCmd) serve(srv *http.Server, log zerolog.Logger) error {
	if c.Cert == "" && c.Key == "" {
		log.Info().Str("addr", c.Listen).Msg("Starting HTTP server")
		return srv.ListenAndServe()
	}

	// Validate TLS certificates
	if c.Cert == "" || c.Key == "" {
		return errors.New("TLS requires both --cert and --key")
	}
	if _, err := os.Stat(c.Cert); err != nil {
		return fmt.Errorf("TLS certificate not found at %s: %w", c.Cert, err)
	}
	if _, err := os.Stat(c.Key); err != nil {
		return fmt.Errorf("TLS key not found at %s: %w", c.Key, err)
	}

	log.Info().Str("addr", c.Listen).Msg("Starting HTTPS server")
	return srv.ListenAndServeTLS(c.Cert, c.Key)
}

// openStore creates the organization store selected by --store-type. The
// returned func releases whatever the store holds open.
func (c *ServerCmd) openStore(ctx context.Context, log zerolog.Logger) (store.OrganizationStore, func(), error) {
	switch c.StoreType {
	case "postgres":
		if err := c.PostgresStore.Validate(); err != nil {
			return nil, nil, err
		}

		pool, err := postgresstore.NewPool(ctx, c.PostgresStore.poolConfig())
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create connection pool: %w", err)
		}

		// Run migrations if enabled
		if c.PostgresStore.AutoMigrate {
			if err := postgresstore.RunMigrations(ctx, pool); err != nil {
				pool.Close()
				return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
			}
			log.Info().Msg("Database migrations completed")
		}

		log.Info().Msg("Using PostgreSQL organization store")
		return postgresstore.NewOrganizationStore(pool), pool.Close, nil

	default:
		log.Warn().Msg("Using in-memory organization store, records are lost on restart")
		return memorystore.NewOrganizationStore(), func() {}, nil
	}
}

// buildHandler wraps the API routes with CORS and, when tracing, otelhttp.
func (c *ServerCmd) buildHandler(srv *server.Server, log zerolog.Logger) http.Handler {
	handler := withCORS(c.CORSOrigins, srv.Handler(log))

	if c.Tracing {
		handler = otelhttp.NewHandler(handler, "orgregistry")
	}

	return handler
}

// withCORS adds CORS support to the JSON API.
func withCORS(allowedOrigins []string, h http.Handler) http.Handler {
	middleware := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
	})
	return middleware.Handler(h)
}
