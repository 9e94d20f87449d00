package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"APP_NAME", "APP_PORT", "PORT", "MONGO_URI", "MONGO_DB_NAME", "STORE_DRIVER", "API_KEY",
		"HTTP_READ_TIMEOUT", "HTTP_WRITE_TIMEOUT", "SHUTDOWN_TIMEOUT", "TRACE_STDOUT",
		"REMOTE_LOG_HTTP_URI", "REMOTE_TRACE_RPC_URI", "REMOTE_PROFILING_HTTP_URI",
		"API_BASE_URL", "CLIENT_DELAY_MS",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "product-api", cfg.AppName)
	assert.Equal(t, "3000", cfg.AppPort)
	assert.Equal(t, "mongodb://localhost:27017", cfg.MongoURI)
	assert.Equal(t, "productsdb", cfg.MongoDBName)
	assert.Equal(t, StoreMongo, cfg.StoreDriver)
	assert.Equal(t, DefaultAPIKey, cfg.APIKey)
	assert.Equal(t, 10*time.Second, cfg.HTTPReadTimeout)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.False(t, cfg.TraceStdout)
	assert.Equal(t, int64(1000), cfg.ClientDelayMs)
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "8080")
	t.Setenv("API_KEY", "k")
	t.Setenv("STORE_DRIVER", "Memory")
	t.Setenv("HTTP_WRITE_TIMEOUT", "3s")
	t.Setenv("TRACE_STDOUT", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.AppPort)
	assert.Equal(t, "k", cfg.APIKey)
	assert.Equal(t, StoreMemory, cfg.StoreDriver)
	assert.Equal(t, 3*time.Second, cfg.HTTPWriteTimeout)
	assert.True(t, cfg.TraceStdout)
}

func TestLoad_AppPortWinsOverPort(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "8080")
	t.Setenv("APP_PORT", "9090")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.AppPort)
}

func TestLoad_Invalid(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_PORT", "http")
	t.Setenv("STORE_DRIVER", "postgres")
	t.Setenv("SHUTDOWN_TIMEOUT", "-1s")
	t.Setenv("CLIENT_DELAY_MS", "0")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CLIENT_DELAY_MS")
	assert.Contains(t, err.Error(), "APP_PORT")
	assert.Contains(t, err.Error(), "STORE_DRIVER")
	assert.Contains(t, err.Error(), "SHUTDOWN_TIMEOUT")
}

func TestStructAttrs_SafeConfigHidesSecrets(t *testing.T) {
	cfg := &Config{AppName: "a", AppPort: "1", MongoURI: "mongodb://user:pw@h", APIKey: "secret", TraceStdout: true}

	attrs := StructAttrs("data", cfg.ToSafeConfig())

	keys := make(map[string]string, len(attrs))
	for _, a := range attrs {
		keys[a.Key] = a.Value.String()
	}
	assert.Equal(t, "a", keys["data.app_name"])
	assert.Equal(t, "true", keys["data.trace_stdout"])
	for _, v := range keys {
		assert.NotContains(t, v, "secret")
		assert.NotContains(t, v, "pw@")
	}
}
