package config

import (
	"context"
	"testing"

	"github.com/prebid/prebid-response-engine/config"
	"github.com/prebid/prebid-response-engine/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEmptyStoredRequests(t *testing.T) {
	fetcher, shutdown := NewStoredRequests(&config.Configuration{}, &metrics.NilMetricsEngine{})
	defer shutdown()

	imps, errs := fetcher.FetchImps(context.Background(), []string{"imp"})
	assert.Empty(t, imps)
	assert.Len(t, errs, 1)
}

func TestNewFileStoredRequests(t *testing.T) {
	cfg := &config.Configuration{
		StoredRequests: config.StoredRequests{
			Files:        config.FileFetcherConfig{Enabled: true, Path: "../backends/file_fetcher/test"},
			ImpCacheSize: 10,
		},
		CategoryMapping: config.CategoryMapping{CacheSize: 512 * 1024},
	}
	fetcher, shutdown := NewStoredRequests(cfg, &metrics.NilMetricsEngine{})
	defer shutdown()

	imps, errs := fetcher.FetchImps(context.Background(), []string{"video-imp"})
	assert.Empty(t, errs)
	assert.Contains(t, imps, "video-imp")

	category, err := fetcher.FetchCategories(context.Background(), "freewheel", "", "IAB1-1")
	require.NoError(t, err)
	assert.Equal(t, "Arts", category)
}
