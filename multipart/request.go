package multipart

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ParseRequest splits the body of an incoming batch request into its inner requests.
//
// Each part may start with MIME headers (e.g. `Content-Type: application/http`)
// followed by a blank line. The inner request follows: a request line
// `METHOD URL [HTTP/x.y]`, its headers, a blank line and the body.
// Line endings may be CRLF or LF.
func ParseRequest(body []byte, boundary string) ([]InboundPart, error) {
	if boundary == "" {
		return nil, ErrMissingBoundary
	}

	lines := strings.Split(string(body), "\n")
	parts := splitParts(lines, dashes+boundary)

	inbound := make([]InboundPart, 0, len(parts))
	for i, part := range parts {
		request, err := parsePart(part)
		if err != nil {
			return nil, &ParseError{Part: i, Err: err}
		}
		inbound = append(inbound, request)
	}

	return inbound, nil
}

func parsePart(lines []string) (InboundPart, error) {
	head, rest, _ := splitEnvelope(trimLeadingBlank(lines))

	head = trimLeadingBlank(head)
	if len(head) == 0 {
		return InboundPart{}, errors.New("missing request line")
	}

	fields := strings.Fields(head[0])
	if len(fields) < 2 || len(fields) > 3 {
		return InboundPart{}, fmt.Errorf("invalid request line %q", strings.TrimSpace(head[0]))
	}

	header := http.Header{}
	for _, line := range head[1:] {
		name, value, ok := strings.Cut(line, ":")
		if !ok || strings.TrimSpace(name) == "" {
			return InboundPart{}, fmt.Errorf("invalid header line %q", strings.TrimSpace(line))
		}
		header.Add(strings.TrimSpace(name), strings.TrimSpace(value))
	}

	return InboundPart{
		Method: strings.ToUpper(fields[0]),
		URL:    fields[1],
		Header: header,
		Body:   joinBody(rest),
	}, nil
}

// joinBody restores the body lines, the line break preceding
// the next delimiter belongs to the delimiter
func joinBody(lines []string) []byte {
	content := strings.TrimSuffix(strings.Join(lines, "\n"), "\r")
	if strings.TrimSpace(content) == "" {
		return nil
	}
	return []byte(content)
}

func trimLeadingBlank(lines []string) []string {
	for len(lines) > 0 && isBlankLine(lines[0]) {
		lines = lines[1:]
	}
	return lines
}
