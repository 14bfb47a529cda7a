package integration

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/hla-annotator/internal/domain/annotation"
	"github.com/turtacn/hla-annotator/internal/infrastructure/database/redis"
	"github.com/turtacn/hla-annotator/internal/infrastructure/monitoring/logging"
)

func TestMetadataCache_RoundTrip(t *testing.T) {
	skipUnlessIntegration(t)

	cfg := startRedis(t)
	client, err := redis.NewClient(cfg, logging.NewNopLogger())
	require.NoError(t, err)
	defer client.Close()

	cache := redis.NewCache(client, logging.NewNopLogger(),
		redis.WithPrefix(cfg.KeyPrefix),
		redis.WithDefaultTTL(time.Hour),
	)
	ctx := context.Background()

	rec := &annotation.Record{
		Accession: "PXD000001",
		Title:     "HLA-I melanoma ligandome",
		Keywords:  []string{"hla", "melanoma"},
		Attributes: []annotation.Attribute{
			{Key: "instrument", Value: "Orbitrap"},
		},
	}
	require.NoError(t, cache.Set(ctx, rec.Accession, rec, 0))

	var got annotation.Record
	require.NoError(t, cache.Get(ctx, rec.Accession, &got))
	assert.Equal(t, rec.Title, got.Title)
	assert.Equal(t, rec.Keywords, got.Keywords)
	assert.Equal(t, "Orbitrap", got.Attributes[0].Value)

	var missing annotation.Record
	assert.ErrorIs(t, cache.Get(ctx, "PXD999999", &missing), redis.ErrCacheMiss)
}

func TestMetadataCache_GetOrSetCollapsesConcurrentLoads(t *testing.T) {
	skipUnlessIntegration(t)

	cfg := startRedis(t)
	client, err := redis.NewClient(cfg, logging.NewNopLogger())
	require.NoError(t, err)
	defer client.Close()

	cache := redis.NewCache(client, logging.NewNopLogger(), redis.WithDefaultTTL(time.Hour))
	ctx := context.Background()

	var loads atomic.Int32
	loader := func(ctx context.Context) (interface{}, error) {
		loads.Add(1)
		time.Sleep(50 * time.Millisecond)
		return &annotation.Record{Accession: "PXD000002", Title: "shared fetch"}, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var rec annotation.Record
			if err := cache.GetOrSet(ctx, "PXD000002", &rec, 0, loader); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), loads.Load(), "concurrent misses must collapse to one load")

	// Subsequent call is served from the cache.
	var rec annotation.Record
	require.NoError(t, cache.GetOrSet(ctx, "PXD000002", &rec, 0, loader))
	assert.Equal(t, int32(1), loads.Load())
	assert.Equal(t, "shared fetch", rec.Title)
}

func TestMetadataCache_NullResultCachedBriefly(t *testing.T) {
	skipUnlessIntegration(t)

	cfg := startRedis(t)
	client, err := redis.NewClient(cfg, logging.NewNopLogger())
	require.NoError(t, err)
	defer client.Close()

	cache := redis.NewCache(client, logging.NewNopLogger(), redis.WithNullCacheTTL(time.Minute))
	ctx := context.Background()

	var loads atomic.Int32
	nilLoader := func(ctx context.Context) (interface{}, error) {
		loads.Add(1)
		return nil, nil
	}

	var rec annotation.Record
	assert.ErrorIs(t, cache.GetOrSet(ctx, "PXD404", &rec, 0, nilLoader), redis.ErrCacheMiss)
	assert.ErrorIs(t, cache.GetOrSet(ctx, "PXD404", &rec, 0, nilLoader), redis.ErrCacheMiss)
	assert.Equal(t, int32(1), loads.Load(), "null sentinel must absorb the second load")
}
