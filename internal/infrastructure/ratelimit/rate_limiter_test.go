package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTokenBucketExhaustionAndRefill(t *testing.T) {
	bucket := NewTokenBucket(2, 1, 50*time.Millisecond)

	allowed, _ := bucket.Allow()
	assert.True(t, allowed)
	allowed, _ = bucket.Allow()
	assert.True(t, allowed)

	allowed, waitTime := bucket.Allow()
	assert.False(t, allowed)
	assert.Greater(t, waitTime, time.Duration(0))

	time.Sleep(60 * time.Millisecond)

	allowed, _ = bucket.Allow()
	assert.True(t, allowed)
}

func TestRateLimiterIsolatesUsersAndActions(t *testing.T) {
	limiter := NewRateLimiter()

	for i := 0; i < 5; i++ {
		allowed, _ := limiter.Allow("user-1", "create_chat")
		assert.True(t, allowed)
	}

	allowed, _ := limiter.Allow("user-1", "create_chat")
	assert.False(t, allowed)

	// Another user and another action keep their own budgets.
	allowed, _ = limiter.Allow("user-2", "create_chat")
	assert.True(t, allowed)
	allowed, _ = limiter.Allow("user-1", "send_message")
	assert.True(t, allowed)
}

func TestCleanupDropsIdleBuckets(t *testing.T) {
	limiter := NewRateLimiter()
	limiter.Allow("user-1", "send_message")

	limiter.buckets["user-1:send_message"].lastRefill = time.Now().Add(-2 * time.Hour)
	limiter.Cleanup()

	assert.Empty(t, limiter.buckets)
}
