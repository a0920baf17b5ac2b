package cachemdw

import (
	"encoding/json"
	"net/http"
)

// CachedResponse is the structure stored in the cache for every cacheable part
type CachedResponse struct {
	Status int         `json:"status"`
	Header http.Header `json:"header"`
	Body   []byte      `json:"body"`
}

// IsCacheable checks if the response may be stored, only complete 200 responses are
func (resp *CachedResponse) IsCacheable() bool {
	return resp != nil && resp.Status == http.StatusOK
}

// WriteTo replays the cached response on w, marking it as a cache hit
func (resp *CachedResponse) WriteTo(w http.ResponseWriter) error {
	for name, values := range resp.Header {
		for _, value := range values {
			w.Header().Add(name, value)
		}
	}
	w.Header().Set(CacheHeaderKey, CacheHitHeaderValue)

	w.WriteHeader(resp.Status)
	_, err := w.Write(resp.Body)

	return err
}

// UnmarshalCachedResponse unmarshals a response read from the cache
func UnmarshalCachedResponse(data []byte) (*CachedResponse, error) {
	var resp CachedResponse
	err := json.Unmarshal(data, &resp)
	return &resp, err
}

// Marshal marshals the response for storing it in the cache
func (resp *CachedResponse) Marshal() ([]byte, error) {
	return json.Marshal(resp)
}

// IsCacheHitHeaders returns true if the headers mark a cache hit
func IsCacheHitHeaders(header http.Header) bool {
	return header.Get(CacheHeaderKey) == CacheHitHeaderValue
}
