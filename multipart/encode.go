package multipart

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"reflect"
	"strings"
)

// Encode frames the requests as a multipart/mixed batch body delimited by boundary.
// host is written into the Host header of every inner request, usually the
// host the batch itself is sent to.
// The returned body must be sent with the Content-Type returned by ContentTypeHeader.
func Encode(requests []Request, boundary string, host string) (string, error) {
	// 7 lines per part at most, plus the closing delimiter
	lines := make([]string, 0, len(requests)*7+1)

	for i, req := range requests {
		method := strings.ToUpper(req.Method)

		body, err := marshalBody(req.Body)
		if err != nil {
			return "", fmt.Errorf("request %d (%s %s): %w: %w", i, method, req.URL, ErrEncodeBody, err)
		}

		lines = append(lines,
			dashes+boundary,
			"Content-Type: "+PartContentType,
			"",
			method+" "+req.URL+" "+httpVersion,
			"Host: "+host,
		)

		if methodHasBody(method) {
			lines = append(lines, "Content-Type: "+req.contentType())
		}

		lines = append(lines, "", body)
	}

	lines = append(lines, dashes+boundary+dashes)

	return strings.Join(lines, crlf), nil
}

func (r Request) contentType() string {
	if r.ContentType == "" {
		return DefaultContentType
	}
	return r.ContentType
}

// GET and DELETE requests never carry an inner Content-Type
func methodHasBody(method string) bool {
	return method != http.MethodGet && method != http.MethodDelete
}

// marshalBody serializes body to compact JSON without escaping HTML characters.
// nil bodies, typed nil pointers, maps and slices included, are written as no body.
func marshalBody(body any) (string, error) {
	if isNil(body) {
		return "", nil
	}

	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)

	if err := encoder.Encode(body); err != nil {
		return "", err
	}

	// Encode terminates every value with a newline
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

func isNil(body any) bool {
	if body == nil {
		return true
	}

	value := reflect.ValueOf(body)
	switch value.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		return value.IsNil()
	}
	return false
}
