package batchmdw

import (
	"bytes"
	"net/http"

	"github.com/seesharpsoft/multipart-batch-service/multipart"
)

// fakeResponseWriter is a custom implementation of http.ResponseWriter
// capturing the response of a single part
type fakeResponseWriter struct {
	// body is the response body for the current request
	body *bytes.Buffer
	// header is the response headers for the current request
	header http.Header
	// status is zero until WriteHeader or Write is called
	status int
}

var _ http.ResponseWriter = &fakeResponseWriter{}

// newFakeResponseWriter creates a new fakeResponseWriter
func newFakeResponseWriter(buf *bytes.Buffer) *fakeResponseWriter {
	return &fakeResponseWriter{
		header: make(http.Header),
		body:   buf,
	}
}

// Write implements the Write method of http.ResponseWriter
// it overrides the Write method to capture the response content for the current request
func (w *fakeResponseWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.body.Write(b)
}

// Header implements the Header method of http.ResponseWriter
// it overrides the Header method to capture the response headers for the current request
func (w *fakeResponseWriter) Header() http.Header {
	return w.header
}

// WriteHeader implements the WriteHeader method of http.ResponseWriter
// only the first status written is kept
func (w *fakeResponseWriter) WriteHeader(status int) {
	if w.status == 0 {
		w.status = status
	}
}

// Flush is a no-op, the part is sent once the whole batch is complete
func (w *fakeResponseWriter) Flush() {}

// responsePart returns the captured response
func (w *fakeResponseWriter) responsePart() multipart.ResponsePart {
	status := w.status
	if status == 0 {
		// handler returned without writing anything
		status = http.StatusOK
	}

	return multipart.ResponsePart{
		Status: status,
		Header: w.header,
		Body:   w.body.Bytes(),
	}
}
