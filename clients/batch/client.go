// Package batch provides a client for sending several HTTP requests
// to a server as a single multipart/mixed batch request.
package batch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/seesharpsoft/multipart-batch-service/logging"
	"github.com/seesharpsoft/multipart-batch-service/multipart"
)

// Client sends batches of requests and decodes
// the per part results of the batch response
type Client struct {
	*http.Client
	config            ClientConfig
	logger            *logging.ServiceLogger
	DebugLogResponses bool
}

// ClientConfig wraps values used to
// create a new Client
type ClientConfig struct {
	// Timeout of the outer batch request, zero means no timeout
	Timeout time.Duration
	// BoundaryFunc returns the boundary of each batch, defaults to multipart.NewBoundary
	BoundaryFunc func() string
	// HTTPClient is used instead of a new client when set
	HTTPClient *http.Client
	// Logger defaults to a logger discarding all messages
	Logger            *logging.ServiceLogger
	DebugLogResponses bool
}

// NewClient creates a new Client
// using the provided config, returning the client and error (if any)
func NewClient(config ClientConfig) (*Client, error) {
	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: config.Timeout,
		}
	}

	if config.BoundaryFunc == nil {
		config.BoundaryFunc = multipart.NewBoundary
	}

	logger := config.Logger
	if logger == nil {
		nop := logging.Nop()
		logger = &nop
	}

	return &Client{
		Client:            httpClient,
		config:            config,
		logger:            logger,
		DebugLogResponses: config.DebugLogResponses,
	}, nil
}

// SendBatch sends requests to targetURL as one multipart/mixed POST request
// and returns one PartResult per request, in request order.
//
// A transport failure or a non 2xx batch response is returned as a *RequestError
// without decoding the body. A batch response that can not be decoded
// is returned as the *multipart.ParseError of the offending part.
func (c *Client) SendBatch(ctx context.Context, targetURL string, requests []multipart.Request) ([]multipart.PartResult, error) {
	target, err := url.Parse(targetURL)
	if err != nil {
		return nil, &RequestError{
			URL:     targetURL,
			message: err.Error(),
		}
	}

	boundary := c.config.BoundaryFunc()

	body, err := multipart.Encode(requests, boundary, target.Host)
	if err != nil {
		return nil, err
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, targetURL, strings.NewReader(body))
	if err != nil {
		return nil, &RequestError{
			URL:     targetURL,
			message: err.Error(),
		}
	}
	request.Header.Set("Content-Type", multipart.ContentTypeHeader(boundary))

	c.logger.Debug().
		Str("url", targetURL).
		Str("boundary", boundary).
		Int("parts", len(requests)).
		Msg("sending batch request")

	raw, err := c.call(request)
	if err != nil {
		return nil, err
	}

	results, err := multipart.Decode(raw)
	if err != nil {
		c.logger.Debug().Err(err).Str("url", targetURL).Msg("unable to decode batch response")
		return nil, err
	}

	return results, nil
}

// call makes the outer request and returns the raw response body
// if the server answered with a 2xx status
func (c *Client) call(request *http.Request) (string, error) {
	requestURL := request.URL.String()

	response, err := c.Do(request)
	if err != nil {
		return "", &RequestError{
			URL:     requestURL,
			message: err.Error(),
		}
	}

	defer response.Body.Close()

	if !(response.StatusCode >= 200 && response.StatusCode <= 299) {
		return "", &RequestError{
			StatusCode: response.StatusCode,
			URL:        requestURL,
			message:    fmt.Sprintf("request to %s error server http error %d", requestURL, response.StatusCode),
		}
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, response.Body); err != nil {
		return "", &RequestError{
			StatusCode: response.StatusCode,
			URL:        requestURL,
			message:    err.Error(),
		}
	}

	if c.DebugLogResponses {
		c.logger.Trace().
			Str("url", requestURL).
			Int("status_code", response.StatusCode).
			Str("body", buf.String()).
			Msg("batch response")
	}

	return buf.String(), nil
}

// RequestError provides additional details about the failed batch request.
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
