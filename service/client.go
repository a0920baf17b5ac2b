package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/seesharpsoft/multipart-batch-service/logging"
)

const (
	PartMetricsStatusPath = "/status/part-metrics"
)

// BatchServiceClient provides a client
// for making requests and decoding responses
// to the status api of the batch service
type BatchServiceClient struct {
	*http.Client
	config            BatchServiceClientConfig
	DebugLogResponses bool
}

// BatchServiceClientConfig wraps values used to
// create a new BatchServiceClient
type BatchServiceClientConfig struct {
	BatchServiceHostname string
	DebugLogResponses    bool
	Logger               *logging.ServiceLogger
}

// NewBatchServiceClient creates a new BatchServiceClient
// using the provided config, returning the client and error (if any)
func NewBatchServiceClient(config BatchServiceClientConfig) (*BatchServiceClient, error) {
	if config.BatchServiceHostname == "" {
		return nil, fmt.Errorf("batch service hostname must not be empty")
	}
	if config.Logger == nil {
		nop := logging.Nop()
		config.Logger = &nop
	}

	return &BatchServiceClient{
		Client:            &http.Client{},
		DebugLogResponses: config.DebugLogResponses,
		config:            config,
	}, nil
}

// GetPartMetrics calls `PartMetricsStatusPath` to get a page of
// at most limit part metrics stored after cursor
func (c *BatchServiceClient) GetPartMetrics(ctx context.Context, cursor int64, limit int) (PartMetricsResponse, error) {
	var response PartMetricsResponse

	query := url.Values{}
	query.Set("cursor", strconv.FormatInt(cursor, 10))
	query.Set("limit", strconv.Itoa(limit))

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BatchServiceHostname+PartMetricsStatusPath+"?"+query.Encode(), nil)
	if err != nil {
		return response, &RequestError{URL: PartMetricsStatusPath, message: err.Error()}
	}

	err = c.call(request, &response)

	return response, err
}

// RequestError provides additional details about the failed request.
type RequestError struct {
	message    string
	URL        string
	StatusCode int
}

// Error implements the error interface for RequestError.
func (err *RequestError) Error() string {
	return err.message
}

// NewError creates a new RequestError
func NewError(message, url string, statusCode int) error {
	return &RequestError{message, url, statusCode}
}

// call makes an http request to a JSON HTTP api
// decoding the JSON response to the result interface if non-nil
// returning error (if any)
func (c *BatchServiceClient) call(request *http.Request, result interface{}) error {
	response, err := c.Do(request)

	if err != nil {
		return &RequestError{
			URL:     request.URL.String(),
			message: err.Error(),
		}
	}

	defer response.Body.Close()

	if !(response.StatusCode >= 200 && response.StatusCode <= 299) {
		requestURL := request.URL.String()
		return &RequestError{
			StatusCode: response.StatusCode,
			URL:        requestURL,
			message:    fmt.Sprintf("request to %s error server http error %d", requestURL, response.StatusCode),
		}
	}

	// If no result is expected, don't attempt to decode a potentially
	// empty response stream and avoid incurring EOF errors
	if result == nil {
		return nil
	}
	// Check if debug is on
	if c.DebugLogResponses {
		bodyBytes, err := io.ReadAll(response.Body)
		if err != nil {
			return &RequestError{
				URL:     request.URL.String(),
				message: err.Error(),
			}
		}
		c.config.Logger.Debug().
			Str("url", request.URL.String()).
			Int("status", response.StatusCode).
			Bytes("body", bodyBytes).
			Msg("batch service response")

		// Repopulate body with the data read
		response.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))
	}
	err = json.NewDecoder(response.Body).Decode(result)
	if err != nil {
		return &RequestError{
			URL:     request.URL.String(),
			message: err.Error(),
		}
	}
	return nil
}
