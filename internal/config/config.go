// Package config provides configuration management using viper.
// It supports loading from YAML files and environment variable overrides.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Bot      BotConfig      `mapstructure:"bot"`
	Database DatabaseConfig `mapstructure:"database"`
	Admin    AdminConfig    `mapstructure:"admin"`
	Channels ChannelsConfig `mapstructure:"channels"`
	Delivery DeliveryConfig `mapstructure:"delivery"`
	Marathon MarathonConfig `mapstructure:"marathon"`
}

// BotConfig holds Telegram bot configuration.
type BotConfig struct {
	Token string `mapstructure:"token"`
}

// DatabaseConfig holds PostgreSQL connection configuration.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	PoolSize        int           `mapstructure:"pool_size"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
}

// AdminConfig holds admin user configuration.
type AdminConfig struct {
	IDs []int64 `mapstructure:"ids"`
}

// ChannelsConfig holds the required subscription channels.
// A zero ID means the channel is not configured; subscription checks
// then degrade to always-pass (development mode).
type ChannelsConfig struct {
	Main    int64 `mapstructure:"main"`
	Oksana  int64 `mapstructure:"oksana"`
	Natalia int64 `mapstructure:"natalia"`
	Maria   int64 `mapstructure:"maria"`
}

// DeliveryConfig holds message delivery tuning.
type DeliveryConfig struct {
	MaxRetries   int           `mapstructure:"max_retries"`
	PaceDelay    time.Duration `mapstructure:"pace_delay"`
	TickInterval time.Duration `mapstructure:"tick_interval"`
}

// MarathonConfig holds the static campaign calendar.
// All timestamps use the "2006-01-02 15:04" layout in local time.
type MarathonConfig struct {
	Broadcasts []BroadcastConfig `mapstructure:"broadcasts"`
	EndAt      string            `mapstructure:"end_at"`
}

// BroadcastConfig describes one scheduled broadcast and its reminder times.
type BroadcastConfig struct {
	Day           string `mapstructure:"day"`
	StartsAt      string `mapstructure:"starts_at"`
	DayBefore     string `mapstructure:"day_before"`
	HourBefore    string `mapstructure:"hour_before"`
	FiveMinBefore string `mapstructure:"five_min_before"`
	After         string `mapstructure:"after"`
}

// DSN returns the PostgreSQL connection string.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name,
	)
}

// Load reads configuration from file and environment variables.
// It looks for config.yaml in the config directory.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Configure viper
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// Enable environment variable override
	// e.g., BOT_TOKEN, DATABASE_HOST, CHANNELS_MAIN
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (optional - env vars can provide all config)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is OK - we can use env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "marathon")
	v.SetDefault("database.name", "marathon")
	v.SetDefault("database.pool_size", 10)
	v.SetDefault("database.connect_timeout", "10s")
	v.SetDefault("database.max_conn_lifetime", "1h")
	v.SetDefault("database.max_conn_idle_time", "30m")

	// Delivery defaults
	v.SetDefault("delivery.max_retries", 3)
	v.SetDefault("delivery.pace_delay", "50ms")
	v.SetDefault("delivery.tick_interval", "60s")
}

// IsAdmin checks if a user ID is in the admin list.
func (c *Config) IsAdmin(userID int64) bool {
	for _, id := range c.Admin.IDs {
		if id == userID {
			return true
		}
	}
	return false
}

// HasAdmins reports whether any administrators are configured.
// Admin commands are unavailable when the list is empty.
func (c *Config) HasAdmins() bool {
	return len(c.Admin.IDs) > 0
}

// Required returns the named required channels in a stable order.
func (ch *ChannelsConfig) Required() []Channel {
	return []Channel{
		{Name: "MAIN", ID: ch.Main},
		{Name: "OKSANA", ID: ch.Oksana},
		{Name: "NATALIA", ID: ch.Natalia},
		{Name: "MARIA", ID: ch.Maria},
	}
}

// Channel is one required subscription channel.
type Channel struct {
	Name string
	ID   int64
}
