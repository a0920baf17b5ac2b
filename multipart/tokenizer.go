package multipart

import (
	"regexp"
	"strings"
)

var (
	// statusLinePattern matches the status line of an inner response
	statusLinePattern = regexp.MustCompile(`HTTP/1\.1 ([0-9]+)`)
	// headerLinePattern matches a MIME header line, `Name: value`
	headerLinePattern = regexp.MustCompile(`^[A-Za-z0-9!#$%&'*+.^_|~-]+:`)
)

// splitParts returns the lines of every part found between delimiter lines.
// Lines before the first delimiter (preamble) and after the closing
// delimiter (epilogue) are dropped, as are parts consisting only of blank lines.
func splitParts(lines []string, delimiter string) [][]string {
	var (
		parts   [][]string
		current []string
		inPart  bool
	)

	flush := func() {
		if inPart && !isBlank(current) {
			parts = append(parts, current)
		}
		current = nil
	}

	for _, line := range lines {
		trimmed := strings.TrimRight(line, " \t\r")

		switch trimmed {
		case delimiter + dashes:
			flush()
			return parts
		case delimiter:
			flush()
			inPart = true
		default:
			if inPart {
				current = append(current, line)
			}
		}
	}

	// tolerate a missing closing delimiter
	flush()

	return parts
}

// cutBlock splits lines on the first blank line into the block before it
// and everything after it. found is false if there is no blank line.
func cutBlock(lines []string) (head []string, rest []string, found bool) {
	for i, line := range lines {
		if isBlankLine(line) {
			return lines[:i], lines[i+1:], true
		}
	}
	return lines, nil, false
}

// splitEnvelope drops the MIME headers of a part, returning the inner
// HTTP message head and the lines following its first blank line
func splitEnvelope(lines []string) (head []string, rest []string, found bool) {
	head, rest, found = cutBlock(lines)
	if found && isEnvelope(head) {
		return cutBlock(rest)
	}
	return head, rest, found
}

// isEnvelope returns true if every line of the block is a MIME header
// and none of them is an inner HTTP start line
func isEnvelope(block []string) bool {
	for _, line := range block {
		if !headerLinePattern.MatchString(line) || statusLinePattern.MatchString(line) {
			return false
		}
	}
	return true
}

func isBlank(lines []string) bool {
	for _, line := range lines {
		if !isBlankLine(line) {
			return false
		}
	}
	return true
}

func isBlankLine(line string) bool {
	return strings.TrimSpace(line) == ""
}
