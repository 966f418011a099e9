//go:build integration

package postgres

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/wolfeidau/orgregistry/internal/models"
	"github.com/wolfeidau/orgregistry/internal/store"
)

func setupPostgresContainer(t *testing.T, ctx context.Context) (*pgxpool.Pool, func()) {
	req := testcontainers.ContainerRequest{
		Image:        "postgres:18-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)

	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	connString := fmt.Sprintf("postgres://test:test@%s:%s/testdb?sslmode=disable", host, port.Port())

	pool, err := NewPool(ctx, &PoolConfig{ConnString: connString})
	require.NoError(t, err)

	require.NoError(t, RunMigrations(ctx, pool))

	cleanup := func() {
		pool.Close()
		_ = container.Terminate(ctx)
	}

	return pool, cleanup
}

func countOrganizations(t *testing.T, ctx context.Context, pool *pgxpool.Pool) int {
	var n int
	require.NoError(t, pool.QueryRow(ctx, `SELECT count(*) FROM organization`).Scan(&n))
	return n
}

func TestIntegration_OrganizationStore(t *testing.T) {
	ctx := context.Background()
	pool, cleanup := setupPostgresContainer(t, ctx)
	defer cleanup()

	st := NewOrganizationStore(pool)

	t.Run("ping", func(t *testing.T) {
		require.NoError(t, st.Ping(ctx))
	})

	t.Run("create and get round trip", func(t *testing.T) {
		org := &models.Organization{
			ID:                    1001,
			CompanyRegistrationID: "REG-1",
			Name:                  "Acme",
			Address:               "1 Main St",
		}

		created, err := st.Create(ctx, org)
		require.NoError(t, err)
		require.Equal(t, org, created)

		got, err := st.Get(ctx, 1001)
		require.NoError(t, err)
		require.Equal(t, created, got)
	})

	t.Run("duplicate id is rejected", func(t *testing.T) {
		org := &models.Organization{ID: 2002, CompanyRegistrationID: "REG-2", Name: "Dup", Address: "2 Main St"}

		_, err := st.Create(ctx, org)
		require.NoError(t, err)

		before := countOrganizations(t, ctx, pool)

		_, err = st.Create(ctx, org)
		require.ErrorIs(t, err, store.ErrOrganizationAlreadyExists)
		require.Equal(t, before, countOrganizations(t, ctx, pool))
	})

	t.Run("store assigned id", func(t *testing.T) {
		created, err := st.Create(ctx, &models.Organization{CompanyRegistrationID: "REG-3", Name: "Seq", Address: "3 Main St"})
		require.NoError(t, err)
		require.NotZero(t, created.ID)

		got, err := st.Get(ctx, created.ID)
		require.NoError(t, err)
		require.Equal(t, created, got)
	})

	t.Run("missing id is not found", func(t *testing.T) {
		_, err := st.Get(ctx, 999999999)
		require.ErrorIs(t, err, store.ErrOrganizationNotFound)
	})

	t.Run("concurrent creates on the same id", func(t *testing.T) {
		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			successes int
			conflicts int
		)

		for range 10 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := st.Create(ctx, &models.Organization{ID: 3003, CompanyRegistrationID: "REG-4", Name: "Race", Address: "4 Main St"})

				mu.Lock()
				defer mu.Unlock()
				switch {
				case err == nil:
					successes++
				default:
					assert.ErrorIs(t, err, store.ErrOrganizationAlreadyExists)
					conflicts++
				}
			}()
		}
		wg.Wait()

		require.Equal(t, 1, successes)
		require.Equal(t, 9, conflicts)
	})

	t.Run("migrations are idempotent", func(t *testing.T) {
		require.NoError(t, RunMigrations(ctx, pool))
	})
}
