package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the full application configuration, loaded from one YAML
// file with defaults applied after parsing.
type Config struct {
	Server        ServerConfig       `yaml:"server"`
	Database      DatabaseConfig     `yaml:"database"`
	RabbitMQ      RabbitMQConfig     `yaml:"rabbitmq"`
	Kitchen       KitchenConfig      `yaml:"kitchen"`
	Notifications NotificationConfig `yaml:"notifications"`
	Pricing       PricingConfig      `yaml:"pricing"`
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

type RabbitMQConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

type KitchenConfig struct {
	UrgentThresholdMinutes   int `yaml:"urgent_threshold_minutes"`
	CriticalThresholdMinutes int `yaml:"critical_threshold_minutes"`
	TickIntervalSeconds      int `yaml:"tick_interval_seconds"`
}

type EventTypeConfig struct {
	Enabled bool    `yaml:"enabled"`
	Volume  float64 `yaml:"volume"`
}

type NotificationConfig struct {
	DebounceMs         int                        `yaml:"debounce_ms"`
	MinAudioIntervalMs int                        `yaml:"min_audio_interval_ms"`
	QueueLimit         int                        `yaml:"queue_limit"`
	Types              map[string]EventTypeConfig `yaml:"types"`
}

type PricingConfig struct {
	// RemovedIngredientDiscount is the per-ingredient discount applied
	// for removed base ingredients. Zero means unset and yields the
	// default of 10; the discount cannot be configured to exactly zero.
	RemovedIngredientDiscount float64 `yaml:"removed_ingredient_discount"`
}

// Load reads and parses the configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 3000
	}
	if c.Database.Port == 0 {
		c.Database.Port = 5432
	}
	if c.RabbitMQ.Port == 0 {
		c.RabbitMQ.Port = 5672
	}
	if c.Kitchen.UrgentThresholdMinutes == 0 {
		c.Kitchen.UrgentThresholdMinutes = 15
	}
	if c.Kitchen.CriticalThresholdMinutes == 0 {
		c.Kitchen.CriticalThresholdMinutes = 30
	}
	if c.Kitchen.TickIntervalSeconds == 0 {
		c.Kitchen.TickIntervalSeconds = 60
	}
	if c.Notifications.DebounceMs == 0 {
		c.Notifications.DebounceMs = 100
	}
	if c.Notifications.MinAudioIntervalMs == 0 {
		c.Notifications.MinAudioIntervalMs = 1000
	}
	if c.Notifications.QueueLimit == 0 {
		c.Notifications.QueueLimit = 1024
	}
	if c.Pricing.RemovedIngredientDiscount == 0 {
		c.Pricing.RemovedIngredientDiscount = 10
	}
}
