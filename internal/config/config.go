package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// DefaultIconURL is the decorative icon shown next to the form.
const DefaultIconURL = "https://www.iconfinder.com/data/icons/weather-forecast-19/64/weather_19-512.png"

// Config holds service configuration loaded from YAML, .env and env.
type Config struct {
	ServerPort string

	RequestTimeout       time.Duration
	RateLimitRPS         int
	RateLimitBurst       int
	OverloadWindow       time.Duration
	OverloadThresholdPct int
	InputMaxLength       int

	IconURL             string
	IconTimeout         time.Duration
	IconStartupTimeout  time.Duration
	IconSize            int
	IconRetryAttempts   int
	IconRetryBaseDelay  time.Duration
	IconRetryMaxDelay   time.Duration
	IconCacheTTL        time.Duration
	IconRefreshCron     string // empty disables scheduled refresh
	IconBreakerFailures uint32
	IconBreakerTimeout  time.Duration

	CacheBackend string // "in_memory", "memcached" or "redis"

	MemcachedAddrs        string
	MemcachedTimeout      time.Duration
	MemcachedMaxIdleConns int

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	ShutdownTimeout               time.Duration
	ShutdownInFlightTimeout       time.Duration
	ShutdownInFlightCheckInterval time.Duration
}

type fileConfig struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`

	Request struct {
		Timeout string `yaml:"timeout"`
	} `yaml:"request"`

	Input struct {
		MaxLength int `yaml:"max_length"`
	} `yaml:"input"`

	Icon struct {
		URL            string `yaml:"url"`
		Timeout        string `yaml:"timeout"`
		StartupTimeout string `yaml:"startup_timeout"`
		Size           int    `yaml:"size"`
		CacheTTL       string `yaml:"cache_ttl"`
		RefreshCron    string `yaml:"refresh_cron"`
		Retry          struct {
			MaxAttempts int    `yaml:"max_attempts"`
			BaseDelay   string `yaml:"base_delay"`
			MaxDelay    string `yaml:"max_delay"`
		} `yaml:"retry"`
		Breaker struct {
			ConsecutiveFailures uint32 `yaml:"consecutive_failures"`
			OpenTimeout         string `yaml:"open_timeout"`
		} `yaml:"breaker"`
	} `yaml:"icon"`

	Cache struct {
		Backend   string `yaml:"backend"`
		Memcached struct {
			Addrs        string `yaml:"addrs"`
			Timeout      string `yaml:"timeout"`
			MaxIdleConns int    `yaml:"max_idle_conns"`
		} `yaml:"memcached"`
		Redis struct {
			Addr string `yaml:"addr"`
			DB   int    `yaml:"db"`
		} `yaml:"redis"`
	} `yaml:"cache"`

	Reliability struct {
		RateLimitRPS         int    `yaml:"rate_limit_rps"`
		RateLimitBurst       int    `yaml:"rate_limit_burst"`
		OverloadWindow       string `yaml:"overload_window"`
		OverloadThresholdPct int    `yaml:"overload_threshold_pct"`
	} `yaml:"reliability"`

	Shutdown struct {
		Timeout               string `yaml:"timeout"`
		InFlightTimeout       string `yaml:"in_flight_timeout"`
		InFlightCheckInterval string `yaml:"in_flight_check_interval"`
	} `yaml:"shutdown"`
}

// envOverrides are read with the TRACKER_ prefix, e.g. TRACKER_CACHE_BACKEND.
type envOverrides struct {
	Port           string `envconfig:"PORT"`
	CacheBackend   string `envconfig:"CACHE_BACKEND"`
	MemcachedAddrs string `envconfig:"MEMCACHED_ADDRS"`
	RedisAddr      string `envconfig:"REDIS_ADDR"`
	RedisPassword  string `envconfig:"REDIS_PASSWORD"`
	IconURL        string `envconfig:"ICON_URL"`
	IconRefresh    string `envconfig:"ICON_REFRESH_CRON"`
}

// Load reads config/{ENV_NAME}.yaml (default dev), loads .env if present and
// applies TRACKER_* environment overrides. Call from project root.
func Load() (*Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("config: get working directory: %w", err)
	}
	if err := godotenv.Load(filepath.Join(cwd, ".env")); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	env := os.Getenv("ENV_NAME")
	if env == "" {
		env = "dev"
	}
	configPath := filepath.Join(cwd, "config", env+".yaml")
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", configPath)
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	var ov envOverrides
	if err := envconfig.Process("tracker", &ov); err != nil {
		return nil, fmt.Errorf("parse env overrides: %w", err)
	}

	cfg := &Config{}

	cfg.ServerPort = firstNonEmpty(ov.Port, fc.Server.Port, "8080")
	cfg.RequestTimeout = parseDuration(fc.Request.Timeout, 5*time.Second)
	cfg.InputMaxLength = fc.Input.MaxLength
	if cfg.InputMaxLength <= 0 {
		cfg.InputMaxLength = 64
	}

	cfg.RateLimitRPS = fc.Reliability.RateLimitRPS
	if cfg.RateLimitRPS <= 0 {
		cfg.RateLimitRPS = 50
	}
	cfg.RateLimitBurst = fc.Reliability.RateLimitBurst
	if cfg.RateLimitBurst <= 0 {
		cfg.RateLimitBurst = 100
	}
	cfg.OverloadWindow = parseDuration(fc.Reliability.OverloadWindow, time.Minute)
	cfg.OverloadThresholdPct = fc.Reliability.OverloadThresholdPct
	if cfg.OverloadThresholdPct <= 0 {
		cfg.OverloadThresholdPct = 50
	}

	cfg.IconURL = firstNonEmpty(ov.IconURL, strings.TrimSpace(fc.Icon.URL), DefaultIconURL)
	cfg.IconTimeout = parseDurationOrZero(fc.Icon.Timeout, 3*time.Second)
	cfg.IconStartupTimeout = parseDuration(fc.Icon.StartupTimeout, 10*time.Second)
	cfg.IconSize = fc.Icon.Size
	if cfg.IconSize <= 0 {
		cfg.IconSize = 100
	}
	cfg.IconCacheTTL = parseDuration(fc.Icon.CacheTTL, 24*time.Hour)
	cfg.IconRefreshCron = firstNonEmpty(ov.IconRefresh, strings.TrimSpace(fc.Icon.RefreshCron))
	cfg.IconRetryAttempts = fc.Icon.Retry.MaxAttempts
	if cfg.IconRetryAttempts <= 0 {
		cfg.IconRetryAttempts = 2
	}
	cfg.IconRetryBaseDelay = parseDuration(fc.Icon.Retry.BaseDelay, 200*time.Millisecond)
	cfg.IconRetryMaxDelay = parseDuration(fc.Icon.Retry.MaxDelay, 2*time.Second)
	cfg.IconBreakerFailures = fc.Icon.Breaker.ConsecutiveFailures
	if cfg.IconBreakerFailures == 0 {
		cfg.IconBreakerFailures = 3
	}
	cfg.IconBreakerTimeout = parseDuration(fc.Icon.Breaker.OpenTimeout, time.Minute)

	cfg.CacheBackend = strings.TrimSpace(strings.ToLower(firstNonEmpty(ov.CacheBackend, fc.Cache.Backend, "in_memory")))
	cfg.MemcachedAddrs = firstNonEmpty(strings.TrimSpace(ov.MemcachedAddrs), strings.TrimSpace(fc.Cache.Memcached.Addrs), "localhost:11211")
	cfg.MemcachedTimeout = parseDuration(fc.Cache.Memcached.Timeout, 500*time.Millisecond)
	cfg.MemcachedMaxIdleConns = fc.Cache.Memcached.MaxIdleConns
	if cfg.MemcachedMaxIdleConns <= 0 {
		cfg.MemcachedMaxIdleConns = 2
	}
	cfg.RedisAddr = firstNonEmpty(strings.TrimSpace(ov.RedisAddr), strings.TrimSpace(fc.Cache.Redis.Addr), "localhost:6379")
	cfg.RedisPassword = ov.RedisPassword
	cfg.RedisDB = fc.Cache.Redis.DB

	cfg.ShutdownTimeout = parseDuration(fc.Shutdown.Timeout, 30*time.Second)
	cfg.ShutdownInFlightTimeout = parseDuration(fc.Shutdown.InFlightTimeout, 10*time.Second)
	cfg.ShutdownInFlightCheckInterval = parseDuration(fc.Shutdown.InFlightCheckInterval, 100*time.Millisecond)

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// parseDuration parses a duration string and returns defaultVal if parsing fails or result is <= 0.
func parseDuration(s string, defaultVal time.Duration) time.Duration {
	d := parseDurationOrZero(s, defaultVal)
	if d <= 0 {
		return defaultVal
	}
	return d
}

// parseDurationOrZero parses a duration string, returning defaultVal on empty string or parse error.
// Returns zero or negative durations as-is (caller should handle fallback).
func parseDurationOrZero(s string, defaultVal time.Duration) time.Duration {
	s = strings.TrimSpace(s)
	if s == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return defaultVal
	}
	return d
}

// validate performs post-load validation. The startup icon budget is raised
// to cover at least one download attempt.
func validate(cfg *Config) error {
	if cfg.IconTimeout <= 0 {
		return fmt.Errorf("icon.timeout must be positive")
	}
	if cfg.IconStartupTimeout < cfg.IconTimeout {
		cfg.IconStartupTimeout = cfg.IconTimeout
	}
	if cfg.OverloadThresholdPct > 100 {
		return fmt.Errorf("reliability.overload_threshold_pct must be at most 100, got %d", cfg.OverloadThresholdPct)
	}
	switch cfg.CacheBackend {
	case "in_memory", "memcached", "redis":
		// valid
	default:
		return fmt.Errorf("cache.backend must be in_memory, memcached or redis, got %q", cfg.CacheBackend)
	}
	return nil
}
