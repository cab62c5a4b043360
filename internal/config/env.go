package config

import (
	"os"
	"strconv"
	"strings"
)

// ApplyEnv overrides config values from DAILYTASKS_* environment variables.
// Unset or unparsable variables leave the config untouched.
func (c *Config) ApplyEnv() {
	if v := strings.TrimSpace(os.Getenv("DAILYTASKS_ADDR")); v != "" {
		c.ListenAddr = v
	}
	if v := strings.TrimSpace(os.Getenv("DAILYTASKS_DATA_DIR")); v != "" {
		c.DataDir = v
	}
	if v := getEnvInt64("DAILYTASKS_QUOTA_BYTES"); v > 0 {
		c.Storage.QuotaBytes = v
	}
	if v := getEnvInt("DAILYTASKS_REMINDER_INTERVAL"); v > 0 {
		c.Reminders.IntervalSeconds = v
	}
	if v := strings.TrimSpace(os.Getenv("DAILYTASKS_CACHE_VERSION")); v != "" {
		c.Cache.Version = v
	}
	if v := strings.TrimSpace(os.Getenv("DAILYTASKS_UPSTREAM")); v != "" {
		c.Cache.Upstream = v
	}
	if v := strings.TrimSpace(os.Getenv("DAILYTASKS_LOG_FILE")); v != "" {
		c.Logging.File = v
	}
}

func getEnvInt(key string) int {
	val := os.Getenv(key)
	if val == "" {
		return 0
	}
	num, err := strconv.Atoi(val)
	if err != nil {
		return 0
	}
	return num
}

func getEnvInt64(key string) int64 {
	val := os.Getenv(key)
	if val == "" {
		return 0
	}
	num, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0
	}
	return num
}
