package config

import (
	"fmt"
	"log/slog"
	"os"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode"

	"product-api/internal/logger"

	"github.com/joho/godotenv"
)

const (
	StoreMongo  = "mongo"
	StoreMemory = "memory"

	DefaultAPIKey = "my-secret-api-key"
)

type Config struct {
	AppName                string
	AppPort                string
	MongoURI               string
	MongoDBName            string
	StoreDriver            string
	APIKey                 string
	HTTPReadTimeout        time.Duration
	HTTPWriteTimeout       time.Duration
	ShutdownTimeout        time.Duration
	RemoteLogHttpURI       string
	RemoteTraceRpcURI      string
	RemoteProfilingHttpURI string
	TraceStdout            bool
	APIBaseURL             string
	ClientDelayMs          int64
}

// SafeConfig is what gets logged: no connection string, no API key.
type SafeConfig struct {
	AppName                string `json:"app_name"`
	AppPort                string `json:"app_port"`
	MongoDBName            string `json:"mongo_db_name"`
	StoreDriver            string `json:"store_driver"`
	HTTPReadTimeout        string `json:"http_read_timeout"`
	HTTPWriteTimeout       string `json:"http_write_timeout"`
	ShutdownTimeout        string `json:"shutdown_timeout"`
	RemoteLogHttpURI       string `json:"remote_log_http_uri"`
	RemoteTraceRpcURI      string `json:"remote_trace_rpc_uri"`
	RemoteProfilingHttpURI string `json:"remote_profiling_http_uri"`
	TraceStdout            bool   `json:"trace_stdout"`
}

func (c *Config) ToSafeConfig() SafeConfig {
	return SafeConfig{
		AppName:                c.AppName,
		AppPort:                c.AppPort,
		MongoDBName:            c.MongoDBName,
		StoreDriver:            c.StoreDriver,
		HTTPReadTimeout:        c.HTTPReadTimeout.String(),
		HTTPWriteTimeout:       c.HTTPWriteTimeout.String(),
		ShutdownTimeout:        c.ShutdownTimeout.String(),
		RemoteLogHttpURI:       c.RemoteLogHttpURI,
		RemoteTraceRpcURI:      c.RemoteTraceRpcURI,
		RemoteProfilingHttpURI: c.RemoteProfilingHttpURI,
		TraceStdout:            c.TraceStdout,
	}
}

func toSnake(s string) string {
	var out strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 && s[i-1] != '_' {
				out.WriteRune('_')
			}
			out.WriteRune(unicode.ToLower(r))
		} else {
			out.WriteRune(r)
		}
	}
	return out.String()
}

// StructAttrs("data", cfg) ➜ []slog.Attr{ slog.String("data.app_port", "3000"), ... }
func StructAttrs(prefix string, s any) []slog.Attr {
	v := reflect.ValueOf(s)
	if v.Kind() == reflect.Pointer {
		v = v.Elem()
	}
	t := v.Type()

	attrs := make([]slog.Attr, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		key := prefix + "." + jsonKey(f)

		switch v.Field(i).Kind() {
		case reflect.String:
			attrs = append(attrs, slog.String(key, v.Field(i).String()))
		case reflect.Int, reflect.Int64, reflect.Int32:
			attrs = append(attrs, slog.Int64(key, v.Field(i).Int()))
		case reflect.Bool:
			attrs = append(attrs, slog.Bool(key, v.Field(i).Bool()))
		default:
			attrs = append(attrs, slog.Any(key, v.Field(i).Interface()))
		}
	}
	return attrs
}

func jsonKey(f reflect.StructField) string {
	if tag := f.Tag.Get("json"); tag != "" {
		return strings.Split(tag, ",")[0]
	}
	return toSnake(f.Name)
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, val, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be positive", key, val)
	}
	return d, nil
}

func envInt64(key string, fallback int64) (int64, error) {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return fallback, nil
	}
	num, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, val, err)
	}
	if num <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be positive", key, val)
	}
	return num, nil
}

func envBool(key string) (bool, error) {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, val, err)
	}
	return b, nil
}

// Load reads the process environment. It does not touch .env files; Instance does that.
func Load() (*Config, error) {
	cfg := &Config{
		AppName:                envOr("APP_NAME", "product-api"),
		AppPort:                envOr("APP_PORT", envOr("PORT", "3000")),
		MongoURI:               envOr("MONGO_URI", "mongodb://localhost:27017"),
		MongoDBName:            envOr("MONGO_DB_NAME", "productsdb"),
		StoreDriver:            strings.ToLower(envOr("STORE_DRIVER", StoreMongo)),
		APIKey:                 os.Getenv("API_KEY"),
		RemoteLogHttpURI:       os.Getenv("REMOTE_LOG_HTTP_URI"),
		RemoteTraceRpcURI:      os.Getenv("REMOTE_TRACE_RPC_URI"),
		RemoteProfilingHttpURI: os.Getenv("REMOTE_PROFILING_HTTP_URI"),
		APIBaseURL:             envOr("API_BASE_URL", "http://localhost:3000"),
	}

	var errs []string
	var err error
	if cfg.HTTPReadTimeout, err = envDuration("HTTP_READ_TIMEOUT", 10*time.Second); err != nil {
		errs = append(errs, err.Error())
	}
	if cfg.HTTPWriteTimeout, err = envDuration("HTTP_WRITE_TIMEOUT", 10*time.Second); err != nil {
		errs = append(errs, err.Error())
	}
	if cfg.ShutdownTimeout, err = envDuration("SHUTDOWN_TIMEOUT", 10*time.Second); err != nil {
		errs = append(errs, err.Error())
	}
	if cfg.TraceStdout, err = envBool("TRACE_STDOUT"); err != nil {
		errs = append(errs, err.Error())
	}
	if cfg.ClientDelayMs, err = envInt64("CLIENT_DELAY_MS", 1000); err != nil {
		errs = append(errs, err.Error())
	}

	if _, err := strconv.ParseUint(cfg.AppPort, 10, 16); err != nil {
		errs = append(errs, fmt.Sprintf("invalid APP_PORT %q", cfg.AppPort))
	}
	if cfg.StoreDriver != StoreMongo && cfg.StoreDriver != StoreMemory {
		errs = append(errs, fmt.Sprintf("invalid STORE_DRIVER %q: want %s or %s", cfg.StoreDriver, StoreMongo, StoreMemory))
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("config: %s", strings.Join(errs, "; "))
	}

	if cfg.APIKey == "" {
		cfg.APIKey = DefaultAPIKey
	}
	return cfg, nil
}

var (
	configInstance *Config
	configOnce     sync.Once
)

// Instance loads .env (optional) and the environment once. Invalid configuration exits the process.
func Instance() *Config {
	configOnce.Do(func() {
		log := logger.Instance()

		if err := godotenv.Load(); err != nil {
			log.Warn("No .env file found, using system environment variables")
		}

		cfg, err := Load()
		if err != nil {
			log.Error("Invalid configuration", slog.String("error", err.Error()))
			os.Exit(1)
		}

		if os.Getenv("API_KEY") == "" {
			log.Warn("API_KEY not set, using the built-in default key")
		}
		if cfg.RemoteLogHttpURI == "" {
			log.Warn("Missing REMOTE_LOG_HTTP_URI will skip sending log")
		}
		if cfg.RemoteTraceRpcURI == "" {
			log.Warn("Missing REMOTE_TRACE_RPC_URI will skip sending trace")
		}
		if cfg.RemoteProfilingHttpURI == "" {
			log.Warn("Missing REMOTE_PROFILING_HTTP_URI will skip sending profiling")
		}

		attrs := StructAttrs("data", cfg.ToSafeConfig())
		anyAttrs := make([]any, len(attrs))
		for i, a := range attrs {
			anyAttrs[i] = a
		}
		log.Info("Configuration loaded successfully", anyAttrs...)

		configInstance = cfg
	})

	return configInstance
}
