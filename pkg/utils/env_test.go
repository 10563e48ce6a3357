package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEnvFallbacks(t *testing.T) {
	t.Setenv("DASH_TEST_STR", "")
	t.Setenv("DASH_TEST_INT", "-4")
	t.Setenv("DASH_TEST_DUR", "nope")

	assert.Equal(t, "fallback", Env("DASH_TEST_STR", "fallback"))
	assert.Equal(t, 7, EnvInt("DASH_TEST_INT", 7), "negative ints fall back")
	assert.Equal(t, 3*time.Second, EnvDuration("DASH_TEST_DUR", 3*time.Second))
}

func TestEnvParsed(t *testing.T) {
	t.Setenv("DASH_TEST_INT", "12")
	t.Setenv("DASH_TEST_DUR", "90s")
	t.Setenv("DASH_TEST_BOOL", "YES")

	assert.Equal(t, 12, EnvInt("DASH_TEST_INT", 1))
	assert.Equal(t, 90*time.Second, EnvDuration("DASH_TEST_DUR", time.Second))
	assert.True(t, EnvBool("DASH_TEST_BOOL", false))
	assert.False(t, EnvBool("DASH_TEST_UNSET_BOOL", false))
}
