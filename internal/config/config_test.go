package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWhenFileMissing(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.toml"))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "loginify", cfg.App.Name)
	assert.Equal(t, "0.0.0.0:8000", cfg.HTTPAddr())
	assert.False(t, cfg.Redis.Enabled)
	assert.False(t, cfg.RabbitMQ.Enabled)
	assert.False(t, cfg.Auth.ProtectAPI)
	assert.Equal(t, "root:@tcp(127.0.0.1:3306)/loginify?parseTime=true&loc=Local&charset=utf8mb4", cfg.MySQLDSN())
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[app]
port = 9090

[mysql]
host = "db.internal"
db = "users"

[redis]
enabled = true
user_ttl_seconds = 30
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("MYSQL_DB", "users_override")
	t.Setenv("AUTH_PROTECT_API", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.App.Port)
	assert.Equal(t, "db.internal", cfg.MySQL.Host)
	assert.Equal(t, "users_override", cfg.MySQL.DB)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, 30, cfg.Redis.UserTTLSeconds)
	assert.True(t, cfg.Auth.ProtectAPI)
	// untouched by file or env
	assert.Equal(t, "127.0.0.1:6379", cfg.Redis.Addr)
}

func TestLoad_InvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[app\nport ="), 0o600))
	t.Setenv("CONFIG_FILE", path)

	_, err := Load()
	assert.Error(t, err)
}

func TestEnvHelpers_FallBackOnGarbage(t *testing.T) {
	t.Setenv("X_INT", "abc")
	t.Setenv("X_BOOL", "maybe")

	assert.Equal(t, 7, getEnvAsInt("X_INT", 7))
	assert.True(t, getEnvAsBool("X_BOOL", true))
	assert.Equal(t, "fb", getEnv("X_UNSET_KEY", "fb"))
}
