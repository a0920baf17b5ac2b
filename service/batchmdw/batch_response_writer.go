package batchmdw

import (
	"net/http"

	"github.com/seesharpsoft/multipart-batch-service/multipart"
	"github.com/seesharpsoft/multipart-batch-service/service/cachemdw"
)

// batchResponseWriter collects the responses of all parts of a batch, in part order,
// and writes them to the underlying ResponseWriter as a multipart/mixed body in FlushResponses()
type batchResponseWriter struct {
	http.ResponseWriter

	boundary string

	// responses collects all part responses
	responses []multipart.ResponsePart
	// cacheHits tracks the number of cache hits across all parts
	cacheHits int
}

// newBatchResponseWriter creates a new batchResponseWriter prepared to collect numParts responses
func newBatchResponseWriter(w http.ResponseWriter, boundary string, numParts int) *batchResponseWriter {
	return &batchResponseWriter{
		ResponseWriter: w,
		boundary:       boundary,
		responses:      make([]multipart.ResponsePart, 0, numParts),
	}
}

// add appends the response of the next part
func (w *batchResponseWriter) add(part multipart.ResponsePart) {
	// track cache hits
	if cachemdw.IsCacheHitHeaders(part.Header) {
		w.cacheHits += 1
	}

	w.responses = append(w.responses, part)
}

// FlushResponses frames all part responses into a multipart/mixed body
// and writes it to the underlying ResponseWriter along with the batch headers
func (w *batchResponseWriter) FlushResponses() error {
	header := w.ResponseWriter.Header()
	header.Set("Content-Type", multipart.ContentTypeHeader(w.boundary))
	// cleared in order to prevent premature end of client read
	header.Del("Content-Length")

	// write cache hit header based on results of all parts
	header.Set(cachemdw.CacheHeaderKey, cacheHitValue(len(w.responses), w.cacheHits))

	w.ResponseWriter.WriteHeader(http.StatusOK)
	_, err := w.ResponseWriter.Write([]byte(multipart.EncodeResponse(w.responses, w.boundary)))

	return err
}

// cacheHitValue handles the combined response's CacheHeader
func cacheHitValue(totalNum, cacheHits int) string {
	// totalNum is 0 for empty batches which are reported as a cache MISS.
	if cacheHits == 0 || totalNum == 0 {
		// case 1. no results from cache => MISS
		return cachemdw.CacheMissHeaderValue
	} else if cacheHits == totalNum {
		// case 2: all results from cache => HIT
		return cachemdw.CacheHitHeaderValue
	}
	//case 3: some results from cache => PARTIAL
	return cachemdw.CachePartialHeaderValue
}
