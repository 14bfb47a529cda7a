// Package integration holds tests that exercise the cache and the annotation
// store against real services. Containers are started per test via
// testcontainers; run with -short to skip the whole package.
package integration

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/turtacn/hla-annotator/internal/config"
)

func skipUnlessIntegration(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in -short mode")
	}
}

// startRedis launches a disposable Redis container and returns a cache config
// pointing at it.
func startRedis(t *testing.T) config.CacheConfig {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379/tcp")
	require.NoError(t, err)

	cfg := config.CacheConfig{
		Enabled: true,
		Addr:    fmt.Sprintf("%s:%s", host, port.Port()),
	}
	applied := config.NewDefaultConfig().Cache
	cfg.KeyPrefix = applied.KeyPrefix
	cfg.TTL = applied.TTL
	return cfg
}

// startPostgres launches a disposable PostgreSQL container and returns a
// store config pointing at it.
func startPostgres(t *testing.T) config.StoreConfig {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "hla",
				"POSTGRES_PASSWORD": "hla",
				"POSTGRES_DB":       "hla_test",
			},
			WaitingFor: wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	return config.StoreConfig{
		Enabled:        true,
		Host:           host,
		Port:           port.Int(),
		User:           "hla",
		Password:       "hla",
		DBName:         "hla_test",
		SSLMode:        "disable",
		MaxConns:       4,
		ConnectTimeout: 10 * time.Second,
		MigrationsPath: "file://../../migrations",
	}
}
