package service

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seesharpsoft/multipart-batch-service/clients/batch"
	"github.com/seesharpsoft/multipart-batch-service/config"
	"github.com/seesharpsoft/multipart-batch-service/logging"
	"github.com/seesharpsoft/multipart-batch-service/multipart"
	"github.com/seesharpsoft/multipart-batch-service/service/cachemdw"
)

var (
	testDefaultContext = context.TODO()

	dummyLogger = func() *logging.ServiceLogger {
		logger, err := logging.New("ERROR")

		if err != nil {
			panic(err)
		}

		return &logger
	}()
)

func dummyConfig(backendURL string) config.Config {
	return config.Config{
		LogLevel:                "ERROR",
		BatchServicePort:        "0",
		BatchBackendURLRaw:      backendURL,
		ParallelProcessing:      true,
		ThreadPoolSize:          4,
		IncludeOriginalHeaders:  true,
		MaxParts:                10,
		MaxBodyBytes:            1 << 20,
		HTTPReadTimeoutSeconds:  5,
		HTTPWriteTimeoutSeconds: 5,
		CacheTTL:                time.Minute,
		CachePrefix:             "batch",
	}
}

// newBackend starts a backend answering GET /people/{id} and POST /people,
// counting the requests to them
func newBackend(t *testing.T) (*httptest.Server, *int32) {
	var calls int32

	mux := http.NewServeMux()
	mux.HandleFunc("GET /people/{id}", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"` + r.PathValue("id") + `"}`))
	})
	mux.HandleFunc("GET /people/missing", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"not found"}`))
	})
	mux.HandleFunc("POST /people", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write(body)
	})

	backend := httptest.NewServer(mux)
	t.Cleanup(backend.Close)

	return backend, &calls
}

func newTestService(t *testing.T, serviceConfig config.Config) *httptest.Server {
	service, err := New(testDefaultContext, serviceConfig, dummyLogger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = service.close() })

	server := httptest.NewServer(service.httpServer.Handler)
	t.Cleanup(server.Close)

	return server
}

func postBatch(t *testing.T, serviceURL string, requests []multipart.Request) (*http.Response, []multipart.PartResult) {
	body, err := multipart.Encode(requests, "b", strings.TrimPrefix(serviceURL, "http://"))
	require.NoError(t, err)

	resp, err := http.Post(serviceURL+BatchPath, multipart.ContentTypeHeader("b"), strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	responseBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(responseBody))

	results, err := multipart.Decode(string(responseBody))
	require.NoError(t, err)

	return resp, results
}

func TestUnitTestNewWithInvalidBackendURLReturnsError(t *testing.T) {
	_, err := New(testDefaultContext, dummyConfig(""), dummyLogger)

	assert.ErrorIs(t, err, config.ErrEmptyBackendURL)
}

func TestUnitTestBatchServiceProxiesParts(t *testing.T) {
	backend, calls := newBackend(t)
	server := newTestService(t, dummyConfig(backend.URL))

	client, err := batch.NewClient(batch.ClientConfig{Timeout: 5 * time.Second})
	require.NoError(t, err)

	results, err := client.SendBatch(testDefaultContext, server.URL+BatchPath, []multipart.Request{
		{Method: "GET", URL: "/people/1"},
		{Method: "POST", URL: "/people", Body: map[string]any{"name": "a<b"}},
		{Method: "GET", URL: "/people/missing"},
	})
	require.NoError(t, err)

	require.Len(t, results, 3)
	assert.Equal(t, multipart.PartResult{Status: http.StatusOK, Data: map[string]any{"id": "1"}}, results[0])
	assert.Equal(t, multipart.PartResult{Status: http.StatusCreated, Data: map[string]any{"name": "a<b"}}, results[1])
	assert.Equal(t, multipart.PartResult{Status: http.StatusNotFound, Data: map[string]any{"error": "not found"}}, results[2])
	assert.False(t, results[2].Ok())

	assert.Equal(t, int32(2), atomic.LoadInt32(calls))
}

func TestUnitTestBatchServiceCachesGetParts(t *testing.T) {
	backend, calls := newBackend(t)
	redis := miniredis.RunT(t)

	serviceConfig := dummyConfig(backend.URL)
	serviceConfig.CacheEnabled = true
	serviceConfig.RedisEndpointURL = redis.Addr()
	server := newTestService(t, serviceConfig)

	requests := []multipart.Request{
		{Method: "GET", URL: "/people/1"},
		{Method: "GET", URL: "/people/2"},
	}

	resp, first := postBatch(t, server.URL, requests)
	assert.Equal(t, cachemdw.CacheMissHeaderValue, resp.Header.Get(cachemdw.CacheHeaderKey))
	assert.Equal(t, int32(2), atomic.LoadInt32(calls))

	resp, second := postBatch(t, server.URL, requests)
	assert.Equal(t, cachemdw.CacheHitHeaderValue, resp.Header.Get(cachemdw.CacheHeaderKey))
	assert.Equal(t, int32(2), atomic.LoadInt32(calls))
	assert.Equal(t, first, second)

	resp, _ = postBatch(t, server.URL, []multipart.Request{
		{Method: "GET", URL: "/people/1"},
		{Method: "GET", URL: "/people/3"},
		{Method: "POST", URL: "/people", Body: map[string]any{}},
	})
	assert.Equal(t, cachemdw.CachePartialHeaderValue, resp.Header.Get(cachemdw.CacheHeaderKey))
	assert.Equal(t, int32(4), atomic.LoadInt32(calls))
}

func TestUnitTestBatchServiceRejectsInvalidBatches(t *testing.T) {
	backend, _ := newBackend(t)
	server := newTestService(t, dummyConfig(backend.URL))

	resp, err := http.Get(server.URL + BatchPath)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)

	resp, err = http.Post(server.URL+BatchPath, "application/json", strings.NewReader("{}"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnsupportedMediaType, resp.StatusCode)
}

func TestUnitTestHealthcheck(t *testing.T) {
	backend, _ := newBackend(t)
	redis := miniredis.RunT(t)

	serviceConfig := dummyConfig(backend.URL)
	serviceConfig.CacheEnabled = true
	serviceConfig.RedisEndpointURL = redis.Addr()
	server := newTestService(t, serviceConfig)

	for _, path := range []string{HealthcheckPath, ServicecheckPath, MetricsPath} {
		resp, err := http.Get(server.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
	}

	redis.Close()

	resp, err := http.Get(server.URL + HealthcheckPath)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Contains(t, string(body), "unable to connect to cache")
}

func TestUnitTestPartMetricsStatus(t *testing.T) {
	backend, _ := newBackend(t)
	server := newTestService(t, dummyConfig(backend.URL))

	client, err := NewBatchServiceClient(BatchServiceClientConfig{BatchServiceHostname: server.URL})
	require.NoError(t, err)

	response, err := client.GetPartMetrics(testDefaultContext, 0, 10)
	require.NoError(t, err)
	assert.Empty(t, response.PartMetrics)
	assert.Equal(t, int64(0), response.NextCursor)

	_, err = client.GetPartMetrics(testDefaultContext, -1, 10)
	var requestErr *RequestError
	require.ErrorAs(t, err, &requestErr)
	assert.Equal(t, http.StatusBadRequest, requestErr.StatusCode)
}

func TestUnitTestParsePageParams(t *testing.T) {
	for _, tc := range []struct {
		name           string
		query          string
		expectedCursor int64
		expectedLimit  int
		expectErr      bool
	}{
		{name: "defaults", query: "", expectedCursor: 0, expectedLimit: defaultPartMetricsPageSize},
		{name: "explicit", query: "cursor=5&limit=20", expectedCursor: 5, expectedLimit: 20},
		{name: "limit capped", query: "limit=5000", expectedLimit: maxPartMetricsPageSize},
		{name: "negative cursor", query: "cursor=-1", expectErr: true},
		{name: "zero limit", query: "limit=0", expectErr: true},
		{name: "garbage", query: "cursor=abc", expectErr: true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, PartMetricsStatusPath+"?"+tc.query, nil)

			cursor, limit, err := parsePageParams(r)
			if tc.expectErr {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.expectedCursor, cursor)
			assert.Equal(t, tc.expectedLimit, limit)
		})
	}
}

func TestUnitTestPartMetricsResponseJSON(t *testing.T) {
	response := newPartMetricsResponse(nil, 0)

	encoded, err := json.Marshal(response)
	require.NoError(t, err)
	assert.JSONEq(t, `{"part_metrics":[],"next_cursor":0}`, string(encoded))
}

// slowCloser records being closed after a delay
type slowCloser struct {
	delay  time.Duration
	closed atomic.Bool
}

func (c *slowCloser) Close() error {
	time.Sleep(c.delay)
	c.closed.Store(true)
	return nil
}

func TestUnitTestRunUntilWaitsForShutdown(t *testing.T) {
	backend, _ := newBackend(t)

	service, err := New(testDefaultContext, dummyConfig(backend.URL), dummyLogger)
	require.NoError(t, err)

	closer := &slowCloser{delay: 50 * time.Millisecond}
	service.closers = append(service.closers, closer)

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan error, 1)
	go func() {
		stopped <- service.RunUntil(ctx, time.Second)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-stopped:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("service did not stop")
	}

	assert.True(t, closer.closed.Load())
}
