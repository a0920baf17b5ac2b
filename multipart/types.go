package multipart

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	// MediaType is the media type of the outer batch request and response
	MediaType = "multipart/mixed"
	// PartContentType marks a part payload as a raw HTTP message
	PartContentType = "application/http"
	// DefaultContentType is used for inner requests carrying a body
	// when the Request does not name one
	DefaultContentType = "application/json; charset=utf-8"
	// DefaultBoundary is assumed for batch requests whose
	// Content-Type header has no boundary parameter
	DefaultBoundary = "batch"

	httpVersion = "HTTP/1.1"
	crlf        = "\r\n"
	dashes      = "--"
)

// Errors returned while encoding or decoding batch bodies
var (
	ErrEncodeBody      = errors.New("unable to serialize request body")
	ErrMalformedPart   = errors.New("malformed batch part")
	ErrMissingBoundary = errors.New("missing multipart boundary")
	ErrNotMultipart    = errors.New("content type is not multipart")
)

// Request describes a single inner request of a batch
type Request struct {
	// Method is the HTTP method, it is upper cased on encoding
	Method string `json:"method"`
	// URL is written verbatim into the inner request line
	URL string `json:"url"`
	// ContentType of the inner body, DefaultContentType when empty.
	// Ignored for GET and DELETE requests.
	ContentType string `json:"contentType,omitempty"`
	// Body is serialized to JSON. nil means no body, as does a typed nil
	// pointer, map or slice.
	Body any `json:"data,omitempty"`
}

// PartResult is the decoded outcome of a single inner request
type PartResult struct {
	// Status is the inner HTTP status code, 0 when the
	// status line of the part could not be parsed
	Status int `json:"status"`
	// Data is the parsed JSON body of the part, nil without body
	Data any `json:"data"`
}

// Ok returns true if the inner request succeeded
func (r PartResult) Ok() bool {
	return r.Status >= 200 && r.Status <= 299
}

// InboundPart is a single inner request parsed from a batch request body
type InboundPart struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte
}

// ResponsePart is a single inner response written into a batch response body
type ResponsePart struct {
	Status int
	Header http.Header
	Body   []byte
}

// ParseError reports a part of a batch body that could not be parsed
type ParseError struct {
	// Part is the zero based index of the offending part
	Part int
	Err  error
}

// Error implements the error interface for ParseError
func (e *ParseError) Error() string {
	return fmt.Sprintf("part %d: %s: %v", e.Part, ErrMalformedPart, e.Err)
}

// Unwrap allows errors.Is(err, ErrMalformedPart) as well as
// matching the underlying error
func (e *ParseError) Unwrap() []error {
	return []error{ErrMalformedPart, e.Err}
}
