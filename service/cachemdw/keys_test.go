package cachemdw_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/seesharpsoft/multipart-batch-service/service/cachemdw"
)

func TestUnitTestBuildCacheKey(t *testing.T) {
	require.Equal(t, "batch:part-response:a:b", cachemdw.BuildCacheKey("batch", cachemdw.CacheItemTypePartResponse, []string{"a", "b"}))
	require.Equal(t, "unknown", cachemdw.CacheItemType(0).String())
}

func TestUnitTestGetPartResponseKey(t *testing.T) {
	key := cachemdw.GetPartResponseKey("batch", "get", "http://backend/people?page=1")

	require.True(t, strings.HasPrefix(key, "batch:part-response:GET:"))
	// sha256 hex digest
	require.Len(t, strings.TrimPrefix(key, "batch:part-response:GET:"), 64)

	require.Equal(t, key, cachemdw.GetPartResponseKey("batch", "GET", "http://backend/people?page=1"))
	require.NotEqual(t, key, cachemdw.GetPartResponseKey("batch", "GET", "http://backend/people?page=2"))
}
