package config

import (
	"log/slog"
	"strings"
	"testing"
	"time"
)

// setRequiredEnv устанавливает минимальный набор обязательных переменных.
func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("MM_DB_HOST", "localhost")
	t.Setenv("MM_DB_NAME", "matching")
	t.Setenv("MM_DB_USER", "matching")
	t.Setenv("MM_DB_PASSWORD", "secret")
}

// TestLoadDefaults проверяет значения по умолчанию при минимальной конфигурации.
func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() вернул ошибку: %v", err)
	}

	if cfg.Port != 8040 {
		t.Errorf("Port = %d, ожидалось 8040", cfg.Port)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("LogLevel = %v, ожидалось info", cfg.LogLevel)
	}
	if cfg.LogFormat != "json" {
		t.Errorf("LogFormat = %q, ожидалось json", cfg.LogFormat)
	}
	if cfg.DBPort != 5432 {
		t.Errorf("DBPort = %d, ожидалось 5432", cfg.DBPort)
	}
	if cfg.DBSSLMode != "disable" {
		t.Errorf("DBSSLMode = %q, ожидалось disable", cfg.DBSSLMode)
	}
	if cfg.DBMaxConns != 10 {
		t.Errorf("DBMaxConns = %d, ожидалось 10", cfg.DBMaxConns)
	}
	if cfg.DBMinConns != 2 {
		t.Errorf("DBMinConns = %d, ожидалось 2", cfg.DBMinConns)
	}
	if cfg.DBConnMaxLifetime != 30*time.Minute {
		t.Errorf("DBConnMaxLifetime = %v, ожидалось 30m", cfg.DBConnMaxLifetime)
	}
	if cfg.CacheSize != 1000 {
		t.Errorf("CacheSize = %d, ожидалось 1000", cfg.CacheSize)
	}
	if cfg.CacheTTL != 5*time.Minute {
		t.Errorf("CacheTTL = %v, ожидалось 5m", cfg.CacheTTL)
	}
	if cfg.ShutdownTimeout != 5*time.Second {
		t.Errorf("ShutdownTimeout = %v, ожидалось 5s", cfg.ShutdownTimeout)
	}
	if cfg.HTTPWriteTimeout != 120*time.Second {
		t.Errorf("HTTPWriteTimeout = %v, ожидалось 120s", cfg.HTTPWriteTimeout)
	}
	if cfg.ExportDir == "" {
		t.Error("ExportDir пустой, ожидался системный temp")
	}
}

// TestLoadMissingRequired проверяет ошибку при отсутствии обязательной переменной.
func TestLoadMissingRequired(t *testing.T) {
	t.Setenv("MM_DB_HOST", "localhost")
	t.Setenv("MM_DB_NAME", "matching")
	t.Setenv("MM_DB_USER", "matching")
	// MM_DB_PASSWORD не задана

	_, err := Load()
	if err == nil {
		t.Fatal("Load() не вернул ошибку при отсутствии MM_DB_PASSWORD")
	}
	if !strings.Contains(err.Error(), "MM_DB_PASSWORD") {
		t.Errorf("ошибка не упоминает MM_DB_PASSWORD: %v", err)
	}
}

// TestLoadOverrides проверяет переопределение значений через окружение.
func TestLoadOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("MM_PORT", "8043")
	t.Setenv("MM_LOG_LEVEL", "debug")
	t.Setenv("MM_LOG_FORMAT", "text")
	t.Setenv("MM_CACHE_TTL", "90s")
	t.Setenv("MM_EXPORT_DIR", "/var/lib/matching/export")
	t.Setenv("MM_JWKS_URL", "https://idp.example.com/realms/balliscan/protocol/openid-connect/certs")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() вернул ошибку: %v", err)
	}

	if cfg.Port != 8043 {
		t.Errorf("Port = %d, ожидалось 8043", cfg.Port)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("LogLevel = %v, ожидалось debug", cfg.LogLevel)
	}
	if cfg.LogFormat != "text" {
		t.Errorf("LogFormat = %q, ожидалось text", cfg.LogFormat)
	}
	if cfg.CacheTTL != 90*time.Second {
		t.Errorf("CacheTTL = %v, ожидалось 90s", cfg.CacheTTL)
	}
	if cfg.ExportDir != "/var/lib/matching/export" {
		t.Errorf("ExportDir = %q", cfg.ExportDir)
	}
	if cfg.JWKSURL == "" {
		t.Error("JWKSURL пустой после переопределения")
	}
}

// TestLoadInvalidValues проверяет валидацию некорректных значений.
func TestLoadInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"НекорректныйПорт", "MM_PORT", "not-a-port"},
		{"НекорректныйУровеньЛога", "MM_LOG_LEVEL", "verbose"},
		{"НекорректныйФорматЛога", "MM_LOG_FORMAT", "xml"},
		{"НекорректнаяДлительность", "MM_CACHE_TTL", "пять минут"},
		{"НулевойРазмерКэша", "MM_CACHE_SIZE", "0"},
		{"НулевойПул", "MM_DB_MAX_CONNS", "0"},
		{"МинБольшеМакс", "MM_DB_MIN_CONNS", "100"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv(tt.key, tt.value)

			if _, err := Load(); err == nil {
				t.Errorf("Load() не вернул ошибку для %s=%q", tt.key, tt.value)
			}
		})
	}
}

// TestDatabaseDSN проверяет формирование DSN подключения.
func TestDatabaseDSN(t *testing.T) {
	cfg := &Config{
		DBHost:     "db.internal",
		DBPort:     5433,
		DBName:     "matching",
		DBUser:     "mm",
		DBPassword: "pw",
		DBSSLMode:  "require",
	}

	want := "postgres://mm:pw@db.internal:5433/matching?sslmode=require"
	if got := cfg.DatabaseDSN(); got != want {
		t.Errorf("DatabaseDSN() = %q, ожидалось %q", got, want)
	}
}

// TestParseLogLevel проверяет разбор уровней логирования.
func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
	}

	for _, tt := range tests {
		got, err := parseLogLevel(tt.input)
		if err != nil {
			t.Errorf("parseLogLevel(%q) вернул ошибку: %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("parseLogLevel(%q) = %v, ожидалось %v", tt.input, got, tt.want)
		}
	}
}
