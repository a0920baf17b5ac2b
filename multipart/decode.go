package multipart

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Decode parses a multipart/mixed batch response body into one PartResult
// per part, in the order the parts appear in the body.
//
// The first non-empty line of the body is taken as the delimiter of the parts.
// A part whose status line can not be found gets Status 0 and is not an error.
// A part whose body is not valid JSON fails the whole decode with a *ParseError.
func Decode(body string) ([]PartResult, error) {
	lines := strings.Split(strings.ReplaceAll(body, "\r", ""), "\n")

	delimiter, ok := firstLine(lines)
	if !ok {
		return []PartResult{}, nil
	}

	parts := splitParts(lines, delimiter)
	results := make([]PartResult, 0, len(parts))

	for i, part := range parts {
		result, err := decodePart(i, part)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}

	return results, nil
}

func decodePart(index int, lines []string) (PartResult, error) {
	head, rest, hasBody := splitEnvelope(lines)

	result := PartResult{
		Status: parseStatus(head),
	}

	if !hasBody {
		return result, nil
	}

	// everything after the first blank line is body, blank lines inside JSON included
	content := strings.TrimSpace(strings.Join(rest, "\n"))
	if content == "" {
		return result, nil
	}

	var data any
	if err := json.Unmarshal([]byte(content), &data); err != nil {
		return PartResult{}, &ParseError{Part: index, Err: err}
	}
	result.Data = data

	return result, nil
}

// parseStatus returns the status code of the first inner status line, 0 if there is none
func parseStatus(head []string) int {
	match := statusLinePattern.FindStringSubmatch(strings.Join(head, "\n"))
	if match == nil {
		return 0
	}

	status, err := strconv.Atoi(match[1])
	if err != nil {
		return 0
	}

	return status
}

func firstLine(lines []string) (string, bool) {
	for _, line := range lines {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			return trimmed, true
		}
	}
	return "", false
}
