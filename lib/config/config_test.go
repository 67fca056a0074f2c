package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestGetDefaultConfig(t *testing.T) {
	cfg := GetDefaultConfig()

	assert.Equal(t, 9600, cfg.Serial.BaudRate)
	assert.Equal(t, 3*time.Second, cfg.Serial.ReadTimeout)
	assert.Equal(t, 50*time.Millisecond, cfg.Serial.SettleDelay)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.Metrics.Enabled)
	assert.EqualValues(t, 1000, cfg.Redis.History)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfigEmptyPathUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, GetDefaultConfig(), cfg)
}

func TestLoadConfigFromFile(t *testing.T) {
	path := writeConfig(t, `
serial:
  port: /dev/ttyACM3
  baud_rate: 57600
  settle_delay: 120ms
log:
  level: debug
  format: json
metrics:
  enabled: true
  listen: 127.0.0.1:9100
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "/dev/ttyACM3", cfg.Serial.Port)
	assert.Equal(t, 57600, cfg.Serial.BaudRate)
	assert.Equal(t, 120*time.Millisecond, cfg.Serial.SettleDelay)
	// untouched keys keep their defaults
	assert.Equal(t, 3*time.Second, cfg.Serial.ReadTimeout)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, "127.0.0.1:9100", cfg.Metrics.Listen)

	sc := cfg.Session()
	assert.Equal(t, "/dev/ttyACM3", sc.Device)
	assert.Equal(t, 57600, sc.BaudRate)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadConfigMalformed(t *testing.T) {
	path := writeConfig(t, "serial: [not, a, map\n")
	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("BKP9151_PORT", "/dev/ttyUSB7")
	t.Setenv("BKP9151_BAUD", "115200")
	t.Setenv("BKP9151_SETTLE_DELAY", "10ms")
	t.Setenv("BKP9151_READ_TIMEOUT", "750ms")
	t.Setenv("BKP9151_LOG_LEVEL", "warn")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "/dev/ttyUSB7", cfg.Serial.Port)
	assert.Equal(t, 115200, cfg.Serial.BaudRate)
	assert.Equal(t, 10*time.Millisecond, cfg.Serial.SettleDelay)
	assert.Equal(t, 750*time.Millisecond, cfg.Serial.ReadTimeout)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestApplyEnvOverridesInvalid(t *testing.T) {
	t.Setenv("BKP9151_BAUD", "fast")
	_, err := LoadConfig("")
	assert.ErrorContains(t, err, "BKP9151_BAUD")
}

func TestApplyEnvOverridesInvalidReadTimeout(t *testing.T) {
	t.Setenv("BKP9151_READ_TIMEOUT", "soon")
	_, err := LoadConfig("")
	assert.ErrorContains(t, err, "BKP9151_READ_TIMEOUT")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"no port", func(c *Config) { c.Serial.Port = "" }, "serial.port"},
		{"zero baud", func(c *Config) { c.Serial.BaudRate = 0 }, "serial.baud_rate"},
		{"zero read timeout", func(c *Config) { c.Serial.ReadTimeout = 0 }, "serial.read_timeout"},
		{"negative settle delay", func(c *Config) { c.Serial.SettleDelay = -time.Millisecond }, "serial.settle_delay"},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
		{"file without path", func(c *Config) { c.Log.Output = "file" }, "log.file_path"},
		{"bad output", func(c *Config) { c.Log.Output = "syslog" }, "log.output"},
		{"negative history", func(c *Config) { c.Redis.History = -1 }, "redis.history"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := GetDefaultConfig()
			tt.mutate(cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.want)
		})
	}
}
