package memory

import (
	"context"
	"encoding/json"
	"math/rand"
	"strconv"
	"sync"
	"testing"

	"github.com/prebid/prebid-response-engine/config"
	"github.com/prebid/prebid-response-engine/metrics"
	"github.com/prebid/prebid-response-engine/stored_requests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type countingFetcher struct {
	mutex          sync.Mutex
	impCalls       [][]string
	categoryCalls  int
	imps           map[string]json.RawMessage
	categories     map[string]string
	categoryErrors error
}

func (f *countingFetcher) FetchImps(ctx context.Context, impIDs []string) (map[string]json.RawMessage, []error) {
	f.mutex.Lock()
	f.impCalls = append(f.impCalls, impIDs)
	f.mutex.Unlock()

	data := make(map[string]json.RawMessage)
	for _, id := range impIDs {
		if imp, ok := f.imps[id]; ok {
			data[id] = imp
		}
	}
	return data, stored_requests.AppendNotFoundErrors("Imp", impIDs, data, nil)
}

func (f *countingFetcher) FetchCategories(ctx context.Context, primaryAdServer, publisherId, iabCategory string) (string, error) {
	f.mutex.Lock()
	f.categoryCalls++
	f.mutex.Unlock()

	if f.categoryErrors != nil {
		return "", f.categoryErrors
	}
	return f.categories[primaryAdServer+iabCategory], nil
}

func TestImpCache(t *testing.T) {
	backend := &countingFetcher{imps: map[string]json.RawMessage{
		"a": json.RawMessage(`{"id":"a"}`),
		"b": json.RawMessage(`{"id":"b"}`),
	}}
	fetcher := NewFetcherWithCache(backend, 10, config.CategoryMapping{}, &metrics.NilMetricsEngine{})

	imps, errs := fetcher.FetchImps(context.Background(), []string{"a"})
	assert.Empty(t, errs)
	assert.JSONEq(t, `{"id":"a"}`, string(imps["a"]))

	imps, errs = fetcher.FetchImps(context.Background(), []string{"a", "b", "c"})
	assert.Equal(t, []error{stored_requests.NotFoundError{ID: "c", DataType: "Imp"}}, errs)
	assert.Len(t, imps, 2)

	assert.Equal(t, [][]string{{"a"}, {"b", "c"}}, backend.impCalls, "cached ids must not reach the backend")
}

func TestImpCacheDisabled(t *testing.T) {
	backend := &countingFetcher{imps: map[string]json.RawMessage{"a": json.RawMessage(`{}`)}}
	fetcher := NewFetcherWithCache(backend, 0, config.CategoryMapping{}, &metrics.NilMetricsEngine{})

	fetcher.FetchImps(context.Background(), []string{"a"})
	fetcher.FetchImps(context.Background(), []string{"a"})

	assert.Len(t, backend.impCalls, 2)
}

func TestCategoryCache(t *testing.T) {
	backend := &countingFetcher{categories: map[string]string{"freewheelIAB1-1": "Arts"}}
	metricsMock := &metrics.MetricsEngineMock{}
	metricsMock.On("RecordCategoryCacheResult", mock.Anything, mock.Anything).Return()

	fetcher := NewFetcherWithCache(backend, 0, config.CategoryMapping{CacheSize: 512 * 1024}, metricsMock)

	for i := 0; i < 3; i++ {
		category, err := fetcher.FetchCategories(context.Background(), "freewheel", "", "IAB1-1")
		assert.NoError(t, err)
		assert.Equal(t, "Arts", category)
	}

	assert.Equal(t, 1, backend.categoryCalls)
	metricsMock.AssertNumberOfCalls(t, "RecordCategoryCacheResult", 3)
	metricsMock.AssertCalled(t, "RecordCategoryCacheResult", metrics.CacheMiss, 1)
	metricsMock.AssertCalled(t, "RecordCategoryCacheResult", metrics.CacheHit, 1)
}

func TestCategoryCacheSkipsErrors(t *testing.T) {
	backend := &countingFetcher{categoryErrors: stored_requests.CategoryNotFoundError{IABCategory: "IAB1-1"}}
	fetcher := NewFetcherWithCache(backend, 0, config.CategoryMapping{CacheSize: 512 * 1024}, &metrics.NilMetricsEngine{})

	_, err1 := fetcher.FetchCategories(context.Background(), "freewheel", "", "IAB1-1")
	_, err2 := fetcher.FetchCategories(context.Background(), "freewheel", "", "IAB1-1")

	assert.Error(t, err1)
	assert.Error(t, err2)
	assert.Equal(t, 2, backend.categoryCalls)
}

func TestRaceCacheConcurrency(t *testing.T) {
	backend := &countingFetcher{imps: map[string]json.RawMessage{}, categories: map[string]string{}}
	for i := 0; i < 100; i++ {
		backend.imps[strconv.Itoa(i)] = json.RawMessage(`{}`)
		backend.categories["dfp"+strconv.Itoa(i)] = strconv.Itoa(i)
	}
	fetcher := NewFetcherWithCache(backend, 50, config.CategoryMapping{CacheSize: 512 * 1024}, &metrics.NilMetricsEngine{})

	var wg sync.WaitGroup
	for _, i := range rand.Perm(100) {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := strconv.Itoa(i)
			fetcher.FetchImps(context.Background(), []string{id})
			category, _ := fetcher.FetchCategories(context.Background(), "dfp", "", id)
			assert.Equal(t, id, category)
		}(i)
	}
	wg.Wait()
}
