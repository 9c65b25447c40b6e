// Package config holds runtime settings for both the terminal client and the
// API server. Defaults suit local development; every field can be overridden
// through the environment.
package config

import (
	"os"
	"time"
)

// Config is built once at process start and handed to the components that
// need it. Nothing reads the environment after LoadConfig returns.
type Config struct {
	MongoURI     string
	DatabaseName string
	RedisAddr    string
	KeyFilePath  string
	ListenAddr   string
	SyncPeriod   time.Duration
	SessionTTL   time.Duration
}

// LoadDefaults populates Config with development defaults. Override for
// anything beyond a local setup.
func (c *Config) LoadDefaults() {
	c.MongoURI = "mongodb://localhost:27017"
	c.DatabaseName = "chat"
	c.RedisAddr = "localhost:6379"
	c.KeyFilePath = "secret.key"
	c.ListenAddr = "localhost:9090"
	c.SyncPeriod = 5 * time.Second
	c.SessionTTL = 2 * time.Hour
}

// LoadConfig applies defaults and then overlays environment variables.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	cfg.parseEnv()
	return cfg
}

func (c *Config) parseEnv() {
	if v, ok := os.LookupEnv("CRYPTCHAT_MONGO_URI"); ok {
		c.MongoURI = v
	}
	if v, ok := os.LookupEnv("CRYPTCHAT_DATABASE"); ok {
		c.DatabaseName = v
	}
	if v, ok := os.LookupEnv("CRYPTCHAT_REDIS_ADDR"); ok {
		c.RedisAddr = v
	}
	if v, ok := os.LookupEnv("CRYPTCHAT_KEY_FILE"); ok {
		c.KeyFilePath = v
	}
	if v, ok := os.LookupEnv("CRYPTCHAT_LISTEN_ADDR"); ok {
		c.ListenAddr = v
	}
	if v, ok := os.LookupEnv("CRYPTCHAT_SYNC_PERIOD"); ok {
		if d, err := time.ParseDuration(v); err == nil {
			c.SyncPeriod = d
		}
	}
	if v, ok := os.LookupEnv("CRYPTCHAT_SESSION_TTL"); ok {
		if d, err := time.ParseDuration(v); err == nil {
			c.SessionTTL = d
		}
	}
}
