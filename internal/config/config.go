package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	ListenAddr string    `yaml:"listen_addr" json:"listen_addr"`
	DataDir    string    `yaml:"data_dir" json:"data_dir"`
	Storage    Storage   `yaml:"storage" json:"storage"`
	Reminders  Reminders `yaml:"reminders" json:"reminders"`
	Cache      Cache     `yaml:"cache" json:"cache"`
	Logging    Logging   `yaml:"logging" json:"logging"`
}

type Storage struct {
	// QuotaBytes caps the durable slot; writes past it are rejected.
	QuotaBytes int64 `yaml:"quota_bytes" json:"quota_bytes"`
}

type Reminders struct {
	IntervalSeconds int `yaml:"interval_seconds" json:"interval_seconds"`
}

type Cache struct {
	// Version names the bucket; bumping it invalidates every older bucket
	// on activation.
	Version  string   `yaml:"version" json:"version"`
	Upstream string   `yaml:"upstream" json:"upstream"`
	Precache []string `yaml:"precache" json:"precache"`
}

type Logging struct {
	File       string `yaml:"file" json:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb" json:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups" json:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days" json:"max_age_days"`
}

// BucketName is the cache bucket for the configured version.
func (c *Cache) BucketName() string {
	v := c.Version
	if v == "" {
		v = "v1"
	}
	return "dailytasks-cache-" + v
}

func (c *Config) ApplyDefaults() {
	if c.ListenAddr == "" {
		c.ListenAddr = ":8080"
	}
	if c.DataDir == "" {
		c.DataDir = "data"
	}
	if c.Storage.QuotaBytes <= 0 {
		c.Storage.QuotaBytes = 5 * 1024 * 1024
	}
	if c.Reminders.IntervalSeconds <= 0 {
		c.Reminders.IntervalSeconds = 30
	}
	if c.Cache.Version == "" {
		c.Cache.Version = "v1"
	}
	if len(c.Cache.Precache) == 0 {
		c.Cache.Precache = []string{"/", "/index.html"}
	}
	if c.Logging.MaxSizeMB <= 0 {
		c.Logging.MaxSizeMB = 100
	}
	if c.Logging.MaxBackups <= 0 {
		c.Logging.MaxBackups = 10
	}
	if c.Logging.MaxAgeDays <= 0 {
		c.Logging.MaxAgeDays = 30
	}
}

func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}
	c.ApplyDefaults()
	c.ApplyEnv()
	return &c, nil
}

// Default is the configuration used when no config file exists.
func Default() *Config {
	var c Config
	c.ApplyDefaults()
	c.ApplyEnv()
	return &c
}
