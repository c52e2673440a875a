package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"wrenchbid/internal/models"
)

type Config struct {
	App           AppConfig           `yaml:"app"`
	Database      DatabaseConfig      `yaml:"database"`
	Redis         RedisConfig         `yaml:"redis"`
	Monitoring    MonitoringConfig    `yaml:"monitoring"`
	Logging       LoggingConfig       `yaml:"logging"`
	API           APIConfig           `yaml:"api"`
	Bidding       BiddingConfig       `yaml:"bidding"`
	Notifications NotificationsConfig `yaml:"notifications"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

type APIConfig struct {
	HTTP      APIHTTPConfig      `yaml:"http"`
	Auth      APIAuthConfig      `yaml:"auth"`
	RateLimit APIRateLimitConfig `yaml:"rate_limit"`
}

type APIHTTPConfig struct {
	Port         int `yaml:"port"`
	ReadTimeout  int `yaml:"read_timeout"`
	WriteTimeout int `yaml:"write_timeout"`
}

type APIAuthConfig struct {
	Enabled      bool           `yaml:"enabled"`
	HeaderAPIKey string         `yaml:"header_api_key"`
	HeaderExtra  string         `yaml:"header_extra"`
	APIKeys      []APIClientKey `yaml:"api_keys"`
}

type APIClientKey struct {
	Key         string   `yaml:"key"`
	Extra       string   `yaml:"extra"`
	Name        string   `yaml:"name"`
	Permissions []string `yaml:"permissions"`
}

type APIRateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

// BiddingConfig tunes the marketplace rules that are operational
// rather than structural.
type BiddingConfig struct {
	DefaultMaxBids     int     `yaml:"default_max_bids"`
	ReferralFeePercent float64 `yaml:"referral_fee_percent"`
	SweepInterval      int     `yaml:"sweep_interval_seconds"`
	SubmitRateLimit    int     `yaml:"submit_rate_limit"`
	SubmitRateWindow   int     `yaml:"submit_rate_window_seconds"`
}

type NotificationsConfig struct {
	MaxRetries    int     `yaml:"max_retries"`
	InitialDelay  int     `yaml:"initial_delay_seconds"`
	MaxDelay      int     `yaml:"max_delay_seconds"`
	BackoffFactor float64 `yaml:"backoff_factor"`
}

func Load(configPath string) (*Config, error) {
	// The .env file is optional outside development.
	_ = godotenv.Load(".env")

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	// Environment variables are expanded before parsing so secrets
	// stay out of the YAML file.
	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return errors.New("database path is required")
	}
	if c.Redis.Enabled && c.Redis.Address == "" {
		return errors.New("redis address is required when redis is enabled")
	}
	if c.API.Auth.Enabled && len(c.API.Auth.APIKeys) == 0 {
		return errors.New("api auth is enabled but no api keys are configured")
	}
	if c.Bidding.ReferralFeePercent < 0 || c.Bidding.ReferralFeePercent > 100 {
		return errors.New("referral fee percent must be between 0 and 100")
	}
	if c.Bidding.DefaultMaxBids < 0 || c.Bidding.DefaultMaxBids > models.MaxMaxBids {
		return fmt.Errorf("default max bids must be between 0 and %d", models.MaxMaxBids)
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "wrenchbid"
	}
	if c.API.HTTP.Port == 0 {
		c.API.HTTP.Port = 8080
	}
	if c.API.HTTP.ReadTimeout == 0 {
		c.API.HTTP.ReadTimeout = 15
	}
	if c.API.HTTP.WriteTimeout == 0 {
		c.API.HTTP.WriteTimeout = 15
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
	if c.API.Auth.HeaderAPIKey == "" {
		c.API.Auth.HeaderAPIKey = "x-api-key"
	}
	if c.API.Auth.HeaderExtra == "" {
		c.API.Auth.HeaderExtra = "x-api-extra"
	}
	if c.API.RateLimit.RPS == 0 {
		c.API.RateLimit.RPS = 10
	}
	if c.API.RateLimit.Burst == 0 {
		c.API.RateLimit.Burst = 20
	}

	if c.Bidding.DefaultMaxBids == 0 {
		c.Bidding.DefaultMaxBids = models.DefaultMaxBids
	}
	if c.Bidding.ReferralFeePercent == 0 {
		c.Bidding.ReferralFeePercent = models.DefaultReferralFeePercent
	}
	if c.Bidding.SweepInterval == 0 {
		c.Bidding.SweepInterval = 60
	}
	if c.Bidding.SubmitRateLimit == 0 {
		c.Bidding.SubmitRateLimit = 10
	}
	if c.Bidding.SubmitRateWindow == 0 {
		c.Bidding.SubmitRateWindow = 60
	}

	if c.Notifications.MaxRetries == 0 {
		c.Notifications.MaxRetries = 5
	}
	if c.Notifications.InitialDelay == 0 {
		c.Notifications.InitialDelay = 2
	}
	if c.Notifications.MaxDelay == 0 {
		c.Notifications.MaxDelay = 60
	}
	if c.Notifications.BackoffFactor == 0 {
		c.Notifications.BackoffFactor = 2
	}
}

// SweepInterval returns the expiry sweeper period as a duration.
func (c *BiddingConfig) SweepIntervalDuration() time.Duration {
	return time.Duration(c.SweepInterval) * time.Second
}

// SubmitRateWindowDuration returns the bid submission rate window.
func (c *BiddingConfig) SubmitRateWindowDuration() time.Duration {
	return time.Duration(c.SubmitRateWindow) * time.Second
}
