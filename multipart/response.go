package multipart

import (
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
)

// EncodeResponse frames the responses of a batch into a multipart/mixed body.
// Parts without a status are written as 422 Unprocessable Entity.
func EncodeResponse(parts []ResponsePart, boundary string) string {
	var lines []string

	for _, part := range parts {
		lines = append(lines,
			dashes+boundary,
			"Content-Type: "+PartContentType,
			"Content-Transfer-Encoding: binary",
			"",
			statusLine(part.Status),
		)
		lines = append(lines, headerLines(part.Header)...)

		if len(part.Body) > 0 {
			contentType := part.Header.Get("Content-Type")
			if contentType == "" {
				contentType = "*/*"
			}
			lines = append(lines,
				"Content-Type: "+contentType,
				"Content-Length: "+strconv.Itoa(len(part.Body)),
				"",
				string(part.Body),
			)
		} else {
			// the header block is always terminated
			lines = append(lines, "")
		}
	}

	lines = append(lines, dashes+boundary+dashes)

	return strings.Join(lines, crlf)
}

func statusLine(status int) string {
	if status == 0 {
		status = http.StatusUnprocessableEntity
	}

	reason := http.StatusText(status)
	if reason == "" {
		return fmt.Sprintf("%s %d", httpVersion, status)
	}

	return fmt.Sprintf("%s %d %s", httpVersion, status, reason)
}

// headerLines returns the part headers in a stable order, skipping the ones
// derived from the body
func headerLines(header http.Header) []string {
	names := make([]string, 0, len(header))
	for name := range header {
		switch http.CanonicalHeaderKey(name) {
		case "Content-Type", "Content-Length", "Transfer-Encoding":
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	var lines []string
	for _, name := range names {
		for _, value := range header[name] {
			lines = append(lines, fmt.Sprintf("%s: %s", http.CanonicalHeaderKey(name), value))
		}
	}

	return lines
}
