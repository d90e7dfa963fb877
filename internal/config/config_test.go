package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	cfg := Load()
	require.NotNil(t, cfg)

	assert.Equal(t, ":8080", cfg.Server.Port)
	assert.Equal(t, "*", cfg.CORS.AllowOrigins)
	// Authorization 헤더는 기본 허용 목록에 포함되어야 한다
	assert.Contains(t, cfg.CORS.AllowHeaders, "Authorization")
	assert.Equal(t, "test-secret", cfg.Auth.JWTSecret)
	assert.Equal(t, 30*time.Minute, cfg.Share.GrantTTL)
	assert.Equal(t, 5*time.Second, cfg.Share.LockTTL)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("CORS_ALLOW_HEADERS", "Origin, X-Custom")
	t.Setenv("SHARE_GRANT_TTL", "10m")
	t.Setenv("SHARE_LOCK_TTL", "3")

	cfg := Load()
	assert.Equal(t, "Origin, X-Custom", cfg.CORS.AllowHeaders)
	assert.Equal(t, 10*time.Minute, cfg.Share.GrantTTL)
	// 단위 없는 숫자는 초로 해석
	assert.Equal(t, 3*time.Second, cfg.Share.LockTTL)
}

func TestGetDuration(t *testing.T) {
	t.Setenv("TEST_DURATION", "90")
	assert.Equal(t, 90*time.Second, getDuration("TEST_DURATION", time.Minute))

	t.Setenv("TEST_DURATION", "2h")
	assert.Equal(t, 2*time.Hour, getDuration("TEST_DURATION", time.Minute))

	t.Setenv("TEST_DURATION", "not-a-duration")
	assert.Equal(t, time.Minute, getDuration("TEST_DURATION", time.Minute))
}
