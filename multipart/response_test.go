package multipart_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/seesharpsoft/multipart-batch-service/multipart"
)

func TestUnitTestEncodeResponse(t *testing.T) {
	tests := []struct {
		name     string
		parts    []multipart.ResponsePart
		expected string
	}{
		{
			name: "body and no content",
			parts: []multipart.ResponsePart{
				{
					Status: http.StatusOK,
					Header: http.Header{"Content-Type": []string{"application/json"}},
					Body:   []byte(`{"ok":true}`),
				},
				{Status: http.StatusNoContent},
			},
			expected: "--b\r\nContent-Type: application/http\r\nContent-Transfer-Encoding: binary\r\n\r\n" +
				"HTTP/1.1 200 OK\r\nContent-Type: application/json\r\nContent-Length: 11\r\n\r\n{\"ok\":true}\r\n" +
				"--b\r\nContent-Type: application/http\r\nContent-Transfer-Encoding: binary\r\n\r\n" +
				"HTTP/1.1 204 No Content\r\n\r\n--b--",
		},
		{
			name: "missing status and content type",
			parts: []multipart.ResponsePart{
				{Body: []byte("oops")},
			},
			expected: "--b\r\nContent-Type: application/http\r\nContent-Transfer-Encoding: binary\r\n\r\n" +
				"HTTP/1.1 422 Unprocessable Entity\r\nContent-Type: */*\r\nContent-Length: 4\r\n\r\noops\r\n--b--",
		},
		{
			name: "extra headers are sorted",
			parts: []multipart.ResponsePart{
				{
					Status: 599,
					Header: http.Header{
						"X-Z":            []string{"1"},
						"X-A":            []string{"2", "3"},
						"Content-Length": []string{"999"},
					},
				},
			},
			expected: "--b\r\nContent-Type: application/http\r\nContent-Transfer-Encoding: binary\r\n\r\n" +
				"HTTP/1.1 599\r\nX-A: 2\r\nX-A: 3\r\nX-Z: 1\r\n\r\n--b--",
		},
		{
			name:     "no parts",
			parts:    nil,
			expected: "--b--",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expected, multipart.EncodeResponse(tc.parts, "b"))
		})
	}
}

func TestUnitTestEncodeResponse_DecodesBack(t *testing.T) {
	parts := []multipart.ResponsePart{
		{
			Status: http.StatusCreated,
			Header: http.Header{"Content-Type": []string{"application/json"}, "X-Batch-Cache-Status": []string{"MISS"}},
			Body:   []byte("{\n  \"id\": 7,\n\n  \"tags\": []\n}"),
		},
		{Status: http.StatusNotFound, Body: []byte(`"not found"`)},
		{Status: http.StatusNoContent},
	}

	results, err := multipart.Decode(multipart.EncodeResponse(parts, multipart.NewBoundary()))
	require.NoError(t, err)
	require.Equal(t, []multipart.PartResult{
		{Status: http.StatusCreated, Data: map[string]any{"id": float64(7), "tags": []any{}}},
		{Status: http.StatusNotFound, Data: "not found"},
		{Status: http.StatusNoContent},
	}, results)
}

func TestUnitTestEncodeResponse_HeaderBlockTerminatedWithoutBody(t *testing.T) {
	encoded := multipart.EncodeResponse([]multipart.ResponsePart{
		{Status: http.StatusNoContent, Header: http.Header{"X-A": []string{"1"}}},
	}, "b")

	require.Contains(t, encoded, "HTTP/1.1 204 No Content\r\nX-A: 1\r\n\r\n--b--")

	results, err := multipart.Decode(encoded)
	require.NoError(t, err)
	require.Equal(t, []multipart.PartResult{{Status: http.StatusNoContent}}, results)
}
