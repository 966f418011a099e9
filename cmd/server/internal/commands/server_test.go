package commands

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/orgregistry/internal/server"
	memorystore "github.com/wolfeidau/orgregistry/internal/store/memory"
)

func parseServerCmd(t *testing.T, args ...string) *ServerCmd {
	t.Helper()

	var cli struct {
		Server ServerCmd `cmd:""`
	}
	parser, err := kong.New(&cli, kong.Exit(func(int) { t.Fatal("unexpected exit") }))
	require.NoError(t, err)

	_, err = parser.Parse(append([]string{"server"}, args...))
	require.NoError(t, err)

	return &cli.Server
}

func TestServerCmd_defaults(t *testing.T) {
	cmd := parseServerCmd(t)

	require.Equal(t, "0.0.0.0:8080", cmd.Listen)
	require.Equal(t, "memory", cmd.StoreType)
	require.Equal(t, "random", cmd.ID.Strategy)
	require.Equal(t, int64(1), cmd.ID.Min)
	require.Equal(t, int64(2147483647), cmd.ID.Max)
	require.Equal(t, uint(5), cmd.ID.MaxAttempts)
	require.Equal(t, int32(20), cmd.PostgresStore.MaxConns)
	require.False(t, cmd.PostgresStore.AutoMigrate)
}

func TestServerCmd_flags(t *testing.T) {
	cmd := parseServerCmd(t,
		"--store-type", "postgres",
		"--postgres-conn-string", "postgres://localhost/orgs",
		"--postgres-auto-migrate",
		"--id-strategy", "snowflake",
		"--id-snowflake-node", "7",
		"--id-max-attempts", "3",
	)

	require.Equal(t, "postgres", cmd.StoreType)
	require.NoError(t, cmd.PostgresStore.Validate())
	require.True(t, cmd.PostgresStore.AutoMigrate)

	cfg := cmd.ID.config()
	require.Equal(t, server.IDStrategySnowflake, cfg.Strategy)
	require.Equal(t, int64(7), cfg.SnowflakeNode)
	require.Equal(t, uint(3), cfg.MaxAttempts)

	pool := cmd.PostgresStore.poolConfig()
	require.Equal(t, "postgres://localhost/orgs", pool.ConnString)
}

func TestPostgresStoreFlags_Validate(t *testing.T) {
	flags := PostgresStoreFlags{}
	require.Error(t, flags.Validate())
}

func TestServerCmd_openStoreMemory(t *testing.T) {
	cmd := parseServerCmd(t)

	st, closeStore, err := cmd.openStore(context.Background(), zerolog.Nop())
	require.NoError(t, err)
	defer closeStore()

	require.IsType(t, &memorystore.OrganizationStore{}, st)
}

func TestServerCmd_openStorePostgresRequiresConnString(t *testing.T) {
	cmd := parseServerCmd(t, "--store-type", "postgres")

	_, _, err := cmd.openStore(context.Background(), zerolog.Nop())
	require.ErrorContains(t, err, "connection string is required")
}

func TestServerCmd_buildHandler(t *testing.T) {
	cmd := parseServerCmd(t, "--cors-origins", "https://app.example.com")

	srv := server.NewServer(memorystore.NewOrganizationStore(), server.NewRandomIDs(1, 1000), 5)
	handler := cmd.buildHandler(srv, zerolog.Nop())

	t.Run("create through the full chain", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/organization",
			strings.NewReader(`{"companyRegistrationId":"REG-1","name":"Acme","address":"1 Main St"}`))
		req.Header.Set("Origin", "https://app.example.com")
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		require.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/organization", nil)
		req.Header.Set("Origin", "https://app.example.com")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		// browsers send requested header names lowercased
		req.Header.Set("Access-Control-Request-Headers", "content-type")
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		require.Equal(t, http.StatusNoContent, w.Code)
		require.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("preflight with request id header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/organization", nil)
		req.Header.Set("Origin", "https://app.example.com")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		req.Header.Set("Access-Control-Request-Headers", "content-type,x-request-id")
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		require.Equal(t, http.StatusNoContent, w.Code)
		require.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))
		require.Contains(t, strings.ToLower(w.Header().Get("Access-Control-Allow-Headers")), "x-request-id")
	})

	t.Run("preflight with unlisted header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/organization", nil)
		req.Header.Set("Origin", "https://app.example.com")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		req.Header.Set("Access-Control-Request-Headers", "x-api-key")
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		require.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("exposes request id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("Origin", "https://app.example.com")
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		require.NotEmpty(t, w.Header().Get("X-Request-Id"))
		require.Contains(t, w.Header().Get("Access-Control-Expose-Headers"), "X-Request-Id")
	})

	t.Run("unknown origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("Origin", "https://evil.example.com")
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		require.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})
}
