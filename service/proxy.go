package service

import (
	"net/http"
	"net/http/httputil"
	"net/url"

	"github.com/seesharpsoft/multipart-batch-service/logging"
)

// newBackendProxy creates the reverse proxy forwarding every
// part of a batch to the backend at target
func newBackendProxy(target *url.URL, serviceLogger *logging.ServiceLogger) *httputil.ReverseProxy {
	proxy := httputil.NewSingleHostReverseProxy(target)

	director := proxy.Director
	proxy.Director = func(r *http.Request) {
		director(r)
		// parts addressed to the batch service itself belong to the backend
		r.Host = target.Host
	}

	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		serviceLogger.Error().
			Str("method", r.Method).
			Str("url", r.URL.String()).
			Err(err).
			Msg("error proxying part request to backend")

		w.WriteHeader(http.StatusBadGateway)
	}

	return proxy
}
