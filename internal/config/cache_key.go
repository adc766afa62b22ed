package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// SessionFieldKey returns the cache key for one persisted field of a candidate's exam session
func (r *CacheKeyStruct) SessionFieldKey(sessionID, field string) string {
	return fmt.Sprintf("session:%s:%s", sessionID, field)
}

// QuestionSetKey returns the cache key for the grouped question set
func (r *CacheKeyStruct) QuestionSetKey() string {
	return "exam:questions"
}

var CacheKey = NewCacheKeyStruct()
