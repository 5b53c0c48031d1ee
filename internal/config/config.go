package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Port                   string `yaml:"port"`
	AllowedOrigin          string `yaml:"allowed_origin"`
	DatabaseURL            string `yaml:"database_url"`
	SQLitePath             string `yaml:"sqlite_path"`
	RedisAddr              string `yaml:"redis_addr"`
	RedisPassword          string `yaml:"redis_password"`
	RedisDB                int    `yaml:"redis_db"`
	ReceiptCacheTTLSeconds int    `yaml:"receipt_cache_ttl_seconds"`
	StoreName              string `yaml:"store_name"`
	StoreTimezone          string `yaml:"store_timezone"`
	CommitAdjustsStock     bool   `yaml:"commit_adjusts_stock"`
	SeedItems              bool   `yaml:"seed_items"`
}

func Defaults() Config {
	return Config{
		Port:                   "5001",
		AllowedOrigin:          "*",
		SQLitePath:             "./pos_app.db",
		ReceiptCacheTTLSeconds: 3600,
		StoreName:              "Point of Sale",
		StoreTimezone:          "Asia/Jakarta",
	}
}

// Load reads the optional YAML file named by POS_CONFIG, then applies
// environment overrides.
func Load() (Config, error) {
	return LoadFile(os.Getenv("POS_CONFIG"))
}

func LoadFile(path string) (Config, error) {
	cfg := Defaults()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		decoder := yaml.NewDecoder(bytes.NewReader(raw))
		decoder.KnownFields(true)
		if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.AllowedOrigin = getEnv("ALLOWED_ORIGIN", cfg.AllowedOrigin)
	cfg.DatabaseURL = getEnv("DATABASE_URL", cfg.DatabaseURL)
	cfg.SQLitePath = getEnv("SQLITE_PATH", cfg.SQLitePath)
	cfg.RedisAddr = getEnv("REDIS_ADDR", cfg.RedisAddr)
	cfg.RedisPassword = getEnv("REDIS_PASSWORD", cfg.RedisPassword)
	cfg.RedisDB = getEnvInt("REDIS_DB", cfg.RedisDB)
	cfg.ReceiptCacheTTLSeconds = getEnvInt("RECEIPT_CACHE_TTL_SECONDS", cfg.ReceiptCacheTTLSeconds)
	cfg.StoreName = getEnv("STORE_NAME", cfg.StoreName)
	cfg.StoreTimezone = getEnv("STORE_TIMEZONE", cfg.StoreTimezone)
	cfg.CommitAdjustsStock = getEnvBool("COMMIT_ADJUSTS_STOCK", cfg.CommitAdjustsStock)
	cfg.SeedItems = getEnvBool("SEED_ITEMS", cfg.SeedItems)

	cfg.DatabaseURL = strings.TrimSpace(cfg.DatabaseURL)
	if cfg.ReceiptCacheTTLSeconds < 1 {
		cfg.ReceiptCacheTTLSeconds = Defaults().ReceiptCacheTTLSeconds
	}
}

func (c Config) Address() string {
	return fmt.Sprintf(":%s", c.Port)
}

func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.StoreTimezone)
	if err != nil {
		return nil, fmt.Errorf("store timezone %q: %w", c.StoreTimezone, err)
	}
	return loc, nil
}

func (c Config) ReceiptCacheTTL() time.Duration {
	return time.Duration(c.ReceiptCacheTTLSeconds) * time.Second
}

func (c Config) Validate() error {
	port, err := strconv.Atoi(c.Port)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("PORT must be a number between 1 and 65535, got %q", c.Port)
	}
	if c.DatabaseURL == "" && strings.TrimSpace(c.SQLitePath) == "" {
		return errors.New("either DATABASE_URL or SQLITE_PATH must be set")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

func getEnv(key string, fallback string) string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return val
}

func getEnvInt(key string, fallback int) int {
	val, err := strconv.Atoi(getEnv(key, strconv.Itoa(fallback)))
	if err != nil {
		return fallback
	}
	return val
}

func getEnvBool(key string, fallback bool) bool {
	val, err := strconv.ParseBool(getEnv(key, strconv.FormatBool(fallback)))
	if err != nil {
		return fallback
	}
	return val
}
