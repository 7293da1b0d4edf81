package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const appName = "studytracker"

type Config struct {
	Port            string
	DBPath          string
	CORSOrigins     []string
	MigrationsDir   string
	LogLevel        string
	LogFile         string
	TickInterval    time.Duration
	SoundEnabled    bool
	PreferencesPath string
}

func Load() Config {
	return Config{
		Port:            getEnv("PORT", "8080"),
		DBPath:          getEnv("DB_PATH", "./data/studytracker.db"),
		CORSOrigins:     getEnvList("CORS_ORIGINS", []string{"http://localhost:5173", "http://127.0.0.1:5173"}),
		MigrationsDir:   getEnv("MIGRATIONS_DIR", "./migrations"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogFile:         getEnv("LOG_FILE", ""),
		TickInterval:    time.Duration(getEnvInt("TICK_INTERVAL_MS", 1000)) * time.Millisecond,
		SoundEnabled:    getEnvBool("SOUND_ENABLED", true),
		PreferencesPath: getEnv("PREFERENCES_PATH", defaultPreferencesPath()),
	}
}

func defaultPreferencesPath() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".", preferencesFileName)
	}
	return filepath.Join(configDir, appName, preferencesFileName)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}

	parsed, err := strconv.Atoi(value)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}

	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvList(key string, fallback []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}

	parts := strings.Split(value, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			items = append(items, trimmed)
		}
	}
	if len(items) == 0 {
		return fallback
	}
	return items
}
