package shared

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsExpired(t *testing.T) {
	now := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)

	assert.False(t, IsExpired(nil, now))
	assert.True(t, IsExpired(&past, now))
	assert.False(t, IsExpired(&future, now))
	assert.False(t, IsExpired(&now, now))
}
