package config

import "fmt"

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// AdminSessionKey returns the cache key for an admin's login session.
func (r *CacheKeyStruct) AdminSessionKey(adminID int) string {
	return fmt.Sprintf("login:admin:%d", adminID)
}

// DailyStatsKey returns the hash key holding per-group recognition counters
// for one calendar day (YYYY-MM-DD).
func (r *CacheKeyStruct) DailyStatsKey(day string) string {
	return fmt.Sprintf("stats:%s", day)
}

// RecognitionFeedChannel returns the Redis PubSub channel carrying terminal
// recognition outcomes for the live admin feed.
func (r *CacheKeyStruct) RecognitionFeedChannel() string {
	return "recognitions:feed"
}

var CacheKey = NewCacheKeyStruct()
