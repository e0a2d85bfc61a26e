package prebid_cache_client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/prebid/prebid-response-engine/config"
	"github.com/prebid/prebid-response-engine/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type responseObject struct {
	UUID string `json:"uuid"`
}

type response struct {
	Responses []responseObject `json:"responses"`
}

// Prevents #197
func TestEmptyPut(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("The server should not be called.")
	})
	server := httptest.NewServer(handler)
	defer server.Close()

	metricsMock := &metrics.MetricsEngineMock{}

	client := &clientImpl{
		httpClient: server.Client(),
		putUrl:     server.URL,
		metrics:    metricsMock,
	}
	ids, _ := client.PutJson(context.Background(), nil)
	assert.Len(t, ids, 0)
	ids, _, call := client.PutJsonWithDebug(context.Background(), []Cacheable{})
	assert.Len(t, ids, 0)
	assert.Nil(t, call)

	metricsMock.AssertNotCalled(t, "RecordPrebidCacheRequestTime")
}

func TestBadResponse(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(500)
	})
	server := httptest.NewServer(handler)
	defer server.Close()

	metricsMock := &metrics.MetricsEngineMock{}
	metricsMock.On("RecordPrebidCacheRequestTime", true, mock.Anything).Once()

	client := &clientImpl{
		httpClient: server.Client(),
		putUrl:     server.URL,
		metrics:    metricsMock,
	}
	ids, errs, call := client.PutJsonWithDebug(context.Background(), []Cacheable{
		{
			Type: TypeJSON,
			Data: json.RawMessage("true"),
		}, {
			Type: TypeJSON,
			Data: json.RawMessage("false"),
		},
	})
	assert.Equal(t, []string{"", ""}, ids)
	assert.Len(t, errs, 1)
	require.NotNil(t, call)
	assert.Equal(t, 500, call.Status)

	metricsMock.AssertExpectations(t)
}

func TestCancelledContext(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(200)
	})
	server := httptest.NewServer(handler)
	defer server.Close()

	metricsMock := &metrics.MetricsEngineMock{}
	metricsMock.On("RecordPrebidCacheRequestTime", false, mock.Anything).Once()

	client := &clientImpl{
		httpClient: server.Client(),
		putUrl:     server.URL,
		metrics:    metricsMock,
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ids, errs := client.PutJson(ctx, []Cacheable{{
		Type: TypeJSON,
		Data: json.RawMessage("true"),
	},
	})
	assert.Equal(t, []string{""}, ids)
	assert.Len(t, errs, 1)

	metricsMock.AssertExpectations(t)
}

func TestClientTimeout(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(200)
	})
	server := httptest.NewServer(handler)
	defer server.Close()

	metricsMock := &metrics.MetricsEngineMock{}
	metricsMock.On("RecordPrebidCacheRequestTime", false, mock.Anything).Once()

	client := &clientImpl{
		httpClient: server.Client(),
		putUrl:     server.URL,
		timeout:    10 * time.Millisecond,
		metrics:    metricsMock,
	}

	ids, errs := client.PutJson(context.Background(), []Cacheable{{Type: TypeJSON, Data: json.RawMessage("true")}})
	assert.Equal(t, []string{""}, ids)
	assert.Len(t, errs, 1)
	metricsMock.AssertExpectations(t)
}

func TestSuccessfulPut(t *testing.T) {
	var requestBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestBody, _ = io.ReadAll(r.Body)
		newHandler(2).ServeHTTP(w, r)
	}))
	defer server.Close()

	metricsMock := &metrics.MetricsEngineMock{}
	metricsMock.On("RecordPrebidCacheRequestTime", true, mock.Anything).Once()

	client := &clientImpl{
		httpClient: server.Client(),
		putUrl:     server.URL,
		metrics:    metricsMock,
	}

	ids, errs, call := client.PutJsonWithDebug(context.Background(), []Cacheable{
		{
			Type:       TypeJSON,
			Data:       json.RawMessage("true"),
			TTLSeconds: 300,
		}, {
			Type: TypeXML,
			Data: json.RawMessage(`"<VAST></VAST>"`),
		},
	})
	assert.Empty(t, errs)
	assert.Equal(t, []string{"0", "1"}, ids)
	assert.JSONEq(t, `{"puts":[{"type":"json","ttlseconds":300,"value":true},{"type":"xml","value":"<VAST></VAST>"}]}`, string(requestBody))

	require.NotNil(t, call)
	assert.Equal(t, server.URL, call.Uri)
	assert.Equal(t, string(requestBody), call.RequestBody)
	assert.Equal(t, 200, call.Status)
	assert.JSONEq(t, `{"responses":[{"uuid":"0"},{"uuid":"1"}]}`, call.ResponseBody)
	assert.Equal(t, []string{"application/json;charset=utf-8"}, call.RequestHeaders["Content-Type"])

	metricsMock.AssertExpectations(t)
}

func TestMalformedResponses(t *testing.T) {
	testCases := []struct {
		description  string
		body         string
		expectedIDs  []string
		expectedErrs int
	}{
		{
			description:  "uuid is not a string",
			body:         `{"responses":[{"uuid":1},{"uuid":"b"}]}`,
			expectedIDs:  []string{"", "b"},
			expectedErrs: 1,
		},
		{
			description:  "uuid missing",
			body:         `{"responses":[{"id":"a"},{"uuid":"b"}]}`,
			expectedIDs:  []string{"", "b"},
			expectedErrs: 1,
		},
		{
			description:  "more responses than values",
			body:         `{"responses":[{"uuid":"a"},{"uuid":"b"},{"uuid":"c"}]}`,
			expectedIDs:  []string{"a", "b"},
			expectedErrs: 1,
		},
		{
			description:  "not json",
			body:         `oops`,
			expectedIDs:  []string{"", ""},
			expectedErrs: 1,
		},
	}

	for _, test := range testCases {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(test.body))
		}))

		client := &clientImpl{
			httpClient: server.Client(),
			putUrl:     server.URL,
			metrics:    &metrics.NilMetricsEngine{},
		}
		ids, errs := client.PutJson(context.Background(), []Cacheable{
			{Type: TypeJSON, Data: json.RawMessage("1")},
			{Type: TypeJSON, Data: json.RawMessage("2")},
		})
		server.Close()

		assert.Equal(t, test.expectedIDs, ids, test.description)
		assert.Len(t, errs, test.expectedErrs, test.description)
	}
}

func TestEncodeValueToBuffer(t *testing.T) {
	buf := new(bytes.Buffer)
	testCache := Cacheable{
		Type:       TypeJSON,
		Data:       json.RawMessage(`{}`),
		TTLSeconds: 300,
		Key:        "abc",
	}
	encodeValueToBuffer(testCache, false, buf)
	assert.Equal(t, `{"type":"json","ttlseconds":300,"value":{},"key":"abc"}`, buf.String())
}

// GetExtCacheData returns the configured host and path with no substitutions nor default values.
func TestStripCacheHostAndPath(t *testing.T) {
	testInput := []struct {
		description  string
		cache        config.Cache
		expectedHost string
		expectedPath string
	}{
		{
			description:  "host and path",
			cache:        config.Cache{Scheme: "https", Host: "prebid-server.prebid.org", Path: "/pbcache/endpoint"},
			expectedHost: "prebid-server.prebid.org",
			expectedPath: "/pbcache/endpoint",
		},
		{
			description:  "empty path",
			cache:        config.Cache{Scheme: "https", Host: "prebidcache.net"},
			expectedHost: "prebidcache.net",
			expectedPath: "",
		},
		{
			description: "empty host and path",
			cache:       config.Cache{},
		},
		{
			description:  "path without leading slash",
			cache:        config.Cache{Scheme: "https", Host: "prebid-server.prebid.org", Path: "pbcache/endpoint"},
			expectedHost: "prebid-server.prebid.org",
			expectedPath: "/pbcache/endpoint",
		},
		{
			description:  "slash only path",
			cache:        config.Cache{Scheme: "https", Host: "prebidcache.net", Path: "/"},
			expectedHost: "prebidcache.net",
			expectedPath: "",
		},
	}
	for _, test := range testInput {
		cacheClient := NewClient(http.DefaultClient, &config.Configuration{CacheURL: test.cache}, &metrics.NilMetricsEngine{})
		scheme, host, path := cacheClient.GetExtCacheData()

		assert.Equal(t, test.cache.Scheme, scheme, test.description)
		assert.Equal(t, test.expectedHost, host, test.description)
		assert.Equal(t, test.expectedPath, path, test.description)
	}
}

func TestPutURL(t *testing.T) {
	client := NewClient(http.DefaultClient, &config.Configuration{CacheURL: config.Cache{Host: "cache.net", Path: "/cache"}}, &metrics.NilMetricsEngine{})
	assert.Equal(t, "http://cache.net/cache", client.(*clientImpl).putUrl)

	client = NewClient(http.DefaultClient, &config.Configuration{CacheURL: config.Cache{Scheme: "https", Host: "cache.net", Path: "/cache"}}, &metrics.NilMetricsEngine{})
	assert.Equal(t, "https://cache.net/cache", client.(*clientImpl).putUrl)
}

func newHandler(numResponses int) http.HandlerFunc {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := response{
			Responses: make([]responseObject, numResponses),
		}
		for i := 0; i < numResponses; i++ {
			resp.Responses[i].UUID = strconv.Itoa(i)
		}

		respBytes, _ := json.Marshal(resp)
		w.Write(respBytes)
	})
}
