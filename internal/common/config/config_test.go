// Package config 配置管理单元测试
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==================== Load 测试 ====================

func TestLoad_WithDefaultValues(t *testing.T) {
	cfg, err := load("")
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "hotel-inventory-backend", cfg.Server.Name)
	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "localhost", cfg.Redis.Host)
	assert.Equal(t, 6379, cfg.Redis.Port)
}

func TestLoad_WithConfigFile(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "test_config.yaml")

	configContent := `
server:
  name: "front-desk"
  mode: "release"
  port: 9000
database:
  driver: "sqlite"
  path: "/tmp/hotel.db"
rate_limit:
  enabled: true
  limit: 50
business:
  booking:
    lock_backend: "redis"
    number_retries: 8
`
	require.NoError(t, os.WriteFile(configPath, []byte(configContent), 0644))

	cfg, err := load(configPath)
	require.NoError(t, err)

	assert.Equal(t, "front-desk", cfg.Server.Name)
	assert.True(t, cfg.IsRelease())
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.True(t, cfg.Database.IsSQLite())
	assert.Equal(t, "/tmp/hotel.db", cfg.Database.DSN())
	assert.Equal(t, "redis", cfg.Business.Booking.LockBackend)
	assert.Equal(t, 8, cfg.Business.Booking.NumberRetries)
	assert.True(t, cfg.RateLimit.Enabled)
	assert.Equal(t, 50, cfg.RateLimit.Limit)
	// 未覆盖的键保留默认值
	assert.Equal(t, 3, cfg.Business.Booking.MaxGuests)
	assert.Equal(t, 60, cfg.RateLimit.Window)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("SERVER_PORT", "9100")
	t.Setenv("BUSINESS_BOOKING_LOCK_WAIT", "250")
	t.Setenv("RATE_LIMIT_LIMIT", "20")

	cfg, err := load("")
	require.NoError(t, err)
	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, 20, cfg.RateLimit.Limit)
	assert.Equal(t, 250*time.Millisecond, cfg.Business.Booking.LockWaitDuration())
}

func TestLoad_BadFile(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "broken.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("server: [unclosed"), 0644))

	_, err := load(configPath)
	assert.Error(t, err)
}

// ==================== Get 测试 ====================

func TestGet_ReturnsSameInstance(t *testing.T) {
	cfg1 := Get()
	cfg2 := Get()
	require.NotNil(t, cfg1)
	assert.Same(t, cfg1, cfg2)
}

// ==================== DatabaseConfig 测试 ====================

func TestDatabaseConfig_DSN(t *testing.T) {
	tests := []struct {
		name   string
		config DatabaseConfig
		want   string
	}{
		{
			name: "Postgres",
			config: DatabaseConfig{
				Driver:   "postgres",
				Host:     "localhost",
				Port:     5432,
				User:     "postgres",
				Password: "secret",
				Name:     "hotel",
				SSLMode:  "disable",
				Timezone: "UTC",
			},
			want: "host=localhost port=5432 user=postgres password=secret dbname=hotel sslmode=disable TimeZone=UTC",
		},
		{
			name: "SQLite",
			config: DatabaseConfig{
				Driver: "sqlite",
				Path:   "file:hotel.db?_busy_timeout=5000",
			},
			want: "file:hotel.db?_busy_timeout=5000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.config.DSN())
		})
	}
}

// ==================== RedisConfig 测试 ====================

func TestRedisConfig_Addr(t *testing.T) {
	config := RedisConfig{Host: "redis.example.com", Port: 6380}
	assert.Equal(t, "redis.example.com:6380", config.Addr())
}

// ==================== Config 模式测试 ====================

func TestConfig_Mode(t *testing.T) {
	tests := []struct {
		name    string
		mode    string
		debug   bool
		release bool
	}{
		{"Debug mode", "debug", true, false},
		{"Release mode", "release", false, true},
		{"Production mode", "production", false, true},
		{"Test mode", "test", false, false},
		{"Empty mode", "", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := &Config{Server: ServerConfig{Mode: tt.mode}}
			assert.Equal(t, tt.debug, config.IsDebug())
			assert.Equal(t, tt.release, config.IsRelease())
		})
	}
}

// ==================== 业务配置测试 ====================

func TestBookingConfig_Defaults(t *testing.T) {
	cfg := Default()
	booking := cfg.Business.Booking

	assert.Equal(t, 3, booking.MaxGuests)
	assert.Equal(t, "local", booking.LockBackend)
	assert.Equal(t, 30*time.Second, booking.LockTTLDuration())
	assert.Equal(t, 5*time.Second, booking.LockWaitDuration())
	assert.Equal(t, 5, booking.NumberRetries)
	assert.Equal(t, 30, booking.SequenceRetentionDays)
	assert.Equal(t, 60, booking.PruneInterval)
}

func TestConfig_OtherDefaults(t *testing.T) {
	cfg := Default()

	assert.Contains(t, cfg.CORS.AllowedOrigins, "*")
	assert.Contains(t, cfg.CORS.AllowedMethods, "PUT")
	assert.Equal(t, 86400, cfg.CORS.MaxAge)

	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)

	assert.False(t, cfg.Tracing.Enabled)
	assert.Equal(t, "otlp", cfg.Tracing.Exporter)
	assert.Equal(t, 1.0, cfg.Tracing.SampleRate)

	assert.False(t, cfg.RateLimit.Enabled)
	assert.False(t, cfg.Redis.Enabled)

	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.Equal(t, "console", cfg.Logger.Format)
	assert.True(t, cfg.Logger.Caller)
}
