package helper

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveEnv(t *testing.T) {
	require.NoError(t, os.Setenv("MITTCHECK_TEST_HOST", "db.internal"))
	defer os.Unsetenv("MITTCHECK_TEST_HOST")

	assert.Equal(t, "db.internal", ResolveEnv("ENV:MITTCHECK_TEST_HOST"))
	assert.Equal(t, "", ResolveEnv("ENV:MITTCHECK_TEST_UNSET"))
	assert.Equal(t, "literal", ResolveEnv("literal"))
}

func TestDefaults(t *testing.T) {
	assert.Equal(t, "3306", SetDefaultPort("", "3306"))
	assert.Equal(t, "13306", SetDefaultPort("13306", "3306"))
	assert.Equal(t, "GET", SetDefaultStringIfEmpty("", "GET", "method", "http"))
	assert.Equal(t, "POST", SetDefaultStringIfEmpty("POST", "GET", "method", "http"))
}

func TestParseDurationOrDefault(t *testing.T) {
	d, err := ParseDurationOrDefault("", 5*time.Second)
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, d)

	d, err = ParseDurationOrDefault("250ms", 5*time.Second)
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, d)

	_, err = ParseDurationOrDefault("soon", time.Second)
	assert.Error(t, err)
}
