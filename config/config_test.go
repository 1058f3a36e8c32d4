package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, 480*time.Hour, cfg.Session.TTL)
	assert.Equal(t, 587, cfg.SMTP.Port)
	assert.Equal(t, "local", cfg.Storage.Provider)
	assert.False(t, cfg.IsRemoteStore())
}

func TestLoad_RequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	os.Unsetenv("JWT_SECRET")

	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}

func TestLoad_DotEnv(t *testing.T) {
	t.Setenv("JWT_SECRET", "from-env")
	// Setenv 登记还原，Unsetenv 保证 .env 中的值能生效
	t.Setenv("STORE_DRIVER", "")
	os.Unsetenv("STORE_DRIVER")

	file := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(file, []byte("STORE_DRIVER=rest\nJWT_SECRET=from-file\n"), 0o600))

	cfg, err := Load(file)
	require.NoError(t, err)
	assert.Equal(t, "rest", cfg.Store.Driver)
	assert.True(t, cfg.IsRemoteStore())
	assert.Equal(t, "from-env", cfg.Session.Secret, "进程环境变量优先于 .env")
}
