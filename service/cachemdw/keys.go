package cachemdw

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

type CacheItemType int

const (
	CacheItemTypePartResponse CacheItemType = iota + 1
)

func (t CacheItemType) String() string {
	switch t {
	case CacheItemTypePartResponse:
		return "part-response"
	default:
		return "unknown"
	}
}

func BuildCacheKey(cachePrefix string, cacheItemType CacheItemType, parts []string) string {
	fullParts := append(
		[]string{
			cachePrefix,
			cacheItemType.String(),
		},
		parts...,
	)

	return strings.Join(fullParts, ":")
}

// GetPartResponseKey calculates the cache key for the response of a part,
// the url is hashed to keep keys short and free of separators
func GetPartResponseKey(cachePrefix string, method string, url string) string {
	hashedURL := sha256.Sum256([]byte(url))

	return BuildCacheKey(cachePrefix, CacheItemTypePartResponse, []string{
		strings.ToUpper(method),
		hex.EncodeToString(hashedURL[:]),
	})
}
