package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// StudentSessionKey returns the cache key for a student's login session
func (r *CacheKeyStruct) StudentSessionKey(studentID int) string {
	return fmt.Sprintf("login:%d", studentID)
}

// SessionStatsKey returns the cache key for a session's attendance tallies
func (r *CacheKeyStruct) SessionStatsKey(sessionID string) string {
	return fmt.Sprintf("session:%s:stats", sessionID)
}

// StudentStatsKey returns the cache key for a student's aggregate attendance counters
func (r *CacheKeyStruct) StudentStatsKey(studentID int) string {
	return fmt.Sprintf("student:%d:stats", studentID)
}

// SessionMonitorChannel returns the Redis PubSub channel for a session's live monitor feed
func (r *CacheKeyStruct) SessionMonitorChannel(sessionID string) string {
	return fmt.Sprintf("session:%s:monitor", sessionID)
}

var CacheKey = NewCacheKeyStruct()
