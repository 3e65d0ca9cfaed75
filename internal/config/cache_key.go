package config

import (
	"fmt"
	"strings"
)

type CacheKeyStruct struct {
	// UnapprovedQuestions holds the aggregate list of pending questions.
	UnapprovedQuestions string
	// ApprovedQuestions holds the aggregate list of approved questions.
	ApprovedQuestions string
}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{
		UnapprovedQuestions: "unapprovedQuestions",
		ApprovedQuestions:   "approvedQuestions",
	}
}

// QuestionKey returns the cache key for a single question
func (r *CacheKeyStruct) QuestionKey(questionID string) string {
	return fmt.Sprintf("question:%s", questionID)
}

// UserKey returns the cache key for a user resolved during authentication
func (r *CacheKeyStruct) UserKey(userID string) string {
	return fmt.Sprintf("user:%s", userID)
}

// UserEmailKey returns the cache key for a user looked up by email
func (r *CacheKeyStruct) UserEmailKey(email string) string {
	return fmt.Sprintf("user:email:%s", strings.ToLower(strings.TrimSpace(email)))
}

// LoginAttemptsKey returns the cache key for the sign-in attempt counter of a client
func (r *CacheKeyStruct) LoginAttemptsKey(clientKey string) string {
	return fmt.Sprintf("login_attempts:%s", clientKey)
}

var CacheKey = NewCacheKeyStruct()
