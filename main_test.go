package main_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/seesharpsoft/multipart-batch-service/clients/batch"
	"github.com/seesharpsoft/multipart-batch-service/logging"
	"github.com/seesharpsoft/multipart-batch-service/multipart"
	"github.com/seesharpsoft/multipart-batch-service/service"
	"github.com/seesharpsoft/multipart-batch-service/service/cachemdw"
)

// The end to end tests run against a batch service started with docker compose,
// its backend is an httpbin compatible server
var (
	testContext = context.Background()

	testServiceLogger = func() logging.ServiceLogger {
		logger, err := logging.New("ERROR")
		if err != nil {
			panic(err)
		}
		return logger
	}()

	batchServiceURL = os.Getenv("TEST_BATCH_SERVICE_URL")
	redisURL        = os.Getenv("TEST_REDIS_ENDPOINT_URL")
	redisPassword   = os.Getenv("REDIS_PASSWORD")
	cachePrefix     = os.Getenv("CACHE_PREFIX")
	metricsEnabled  = os.Getenv("METRIC_DATABASE_ENABLED") == "true"
)

func skipUnlessE2E(t *testing.T) {
	if batchServiceURL == "" {
		t.Skip("TEST_BATCH_SERVICE_URL not set")
	}
}

func waitForService(t *testing.T) {
	err := backoff.Retry(func() error {
		resp, err := http.Get(batchServiceURL + service.HealthcheckPath)
		if err != nil {
			return err
		}
		resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("healthcheck returned %d", resp.StatusCode)
		}
		return nil
	}, backoff.WithMaxRetries(backoff.NewConstantBackOff(500*time.Millisecond), 60))
	require.NoError(t, err)
}

func newBatchClient(t *testing.T) *batch.Client {
	client, err := batch.NewClient(batch.ClientConfig{
		Timeout: 30 * time.Second,
		Logger:  &testServiceLogger,
	})
	require.NoError(t, err)

	return client
}

func sendRawBatch(t *testing.T, requests []multipart.Request) (*http.Response, []multipart.PartResult) {
	boundary := multipart.NewBoundary()
	body, err := multipart.Encode(requests, boundary, strings.TrimPrefix(strings.TrimPrefix(batchServiceURL, "http://"), "https://"))
	require.NoError(t, err)

	resp, err := http.Post(batchServiceURL+service.BatchPath, multipart.ContentTypeHeader(boundary), strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var buf strings.Builder
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)

	results, err := multipart.Decode(buf.String())
	require.NoError(t, err)

	return resp, results
}

func TestE2ETestBatchServiceIsHealthy(t *testing.T) {
	skipUnlessE2E(t)
	waitForService(t)

	for _, path := range []string{service.ServicecheckPath, service.MetricsPath} {
		resp, err := http.Get(batchServiceURL + path)
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode, path)
	}
}

func TestE2ETestSendBatch(t *testing.T) {
	skipUnlessE2E(t)
	waitForService(t)

	marker := uuid.NewString()

	results, err := newBatchClient(t).SendBatch(testContext, batchServiceURL+service.BatchPath, []multipart.Request{
		{Method: "GET", URL: "/get?marker=" + marker},
		{Method: "POST", URL: "/post", Body: map[string]any{"marker": marker}},
		{Method: "PUT", URL: "/put", Body: []int{1, 2, 3}},
		{Method: "GET", URL: "/status/404"},
	})
	require.NoError(t, err)
	require.Len(t, results, 4)

	require.Equal(t, http.StatusOK, results[0].Status)
	require.Equal(t, marker, results[0].Data.(map[string]any)["args"].(map[string]any)["marker"])

	require.Equal(t, http.StatusOK, results[1].Status)
	require.Equal(t, map[string]any{"marker": marker}, results[1].Data.(map[string]any)["json"])

	require.Equal(t, []any{float64(1), float64(2), float64(3)}, results[2].Data.(map[string]any)["json"])

	require.Equal(t, http.StatusNotFound, results[3].Status)
	require.False(t, results[3].Ok())
}

func TestE2ETestBatchPartsAreCached(t *testing.T) {
	skipUnlessE2E(t)
	if redisURL == "" {
		t.Skip("TEST_REDIS_ENDPOINT_URL not set")
	}
	waitForService(t)

	redisClient := redis.NewClient(&redis.Options{
		Addr:     redisURL,
		Password: redisPassword,
		DB:       0,
	})
	defer redisClient.Close()

	first := "/get?marker=" + uuid.NewString()
	second := "/get?marker=" + uuid.NewString()

	resp, missed := sendRawBatch(t, []multipart.Request{{Method: "GET", URL: first}})
	require.Equal(t, cachemdw.CacheMissHeaderValue, resp.Header.Get(cachemdw.CacheHeaderKey))

	keys, err := redisClient.Keys(testContext, cachePrefix+":part-response:GET:*").Result()
	require.NoError(t, err)
	require.NotEmpty(t, keys)

	resp, hit := sendRawBatch(t, []multipart.Request{{Method: "GET", URL: first}})
	require.Equal(t, cachemdw.CacheHitHeaderValue, resp.Header.Get(cachemdw.CacheHeaderKey))
	require.Equal(t, missed, hit)

	resp, _ = sendRawBatch(t, []multipart.Request{
		{Method: "GET", URL: first},
		{Method: "GET", URL: second},
	})
	require.Equal(t, cachemdw.CachePartialHeaderValue, resp.Header.Get(cachemdw.CacheHeaderKey))
}

func TestE2ETestPartMetricsAreStored(t *testing.T) {
	skipUnlessE2E(t)
	if !metricsEnabled {
		t.Skip("METRIC_DATABASE_ENABLED not set")
	}
	waitForService(t)

	marker := uuid.NewString()
	_, err := newBatchClient(t).SendBatch(testContext, batchServiceURL+service.BatchPath, []multipart.Request{
		{Method: "GET", URL: "/get?marker=" + marker},
		{Method: "DELETE", URL: "/delete?marker=" + marker},
	})
	require.NoError(t, err)

	statusClient, err := service.NewBatchServiceClient(service.BatchServiceClientConfig{
		BatchServiceHostname: batchServiceURL,
		Logger:               &testServiceLogger,
	})
	require.NoError(t, err)

	// metrics are stored out of band of the batch request
	err = backoff.Retry(func() error {
		found := map[string]bool{}

		var cursor int64
		for {
			page, err := statusClient.GetPartMetrics(testContext, cursor, 1000)
			if err != nil {
				return err
			}
			for _, metric := range page.PartMetrics {
				if strings.Contains(metric.URL, marker) {
					found[metric.Method] = true
				}
			}
			if page.NextCursor == 0 {
				break
			}
			cursor = page.NextCursor
		}

		if !found[http.MethodGet] || !found[http.MethodDelete] {
			return errors.New("part metrics not stored yet")
		}
		return nil
	}, backoff.WithMaxRetries(backoff.NewConstantBackOff(100*time.Millisecond), 50))
	require.NoError(t, err)
}
