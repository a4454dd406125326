package server

import (
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestMapEnvToGinMode(t *testing.T) {
	assert.Equal(t, gin.ReleaseMode, MapEnvToGinMode("production"))
	assert.Equal(t, gin.ReleaseMode, MapEnvToGinMode("prod"))
	assert.Equal(t, gin.TestMode, MapEnvToGinMode("test"))
	assert.Equal(t, gin.DebugMode, MapEnvToGinMode("development"))
	assert.Equal(t, gin.DebugMode, MapEnvToGinMode(""))
}
